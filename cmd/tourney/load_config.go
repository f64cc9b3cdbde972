package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/seekerror/logw"
)

func runLoadConfig(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load-config", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	file := fs.String("file", "", "path to the JSON tournament/engine document (alias for --config)")
	replace := fs.Bool("replace", false, "update rating/description of engines that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := g.applyLogLevel(); err != nil {
		return err
	}
	if *file != "" {
		g.configPath = *file
	}

	doc, err := loadDocument(ctx, g)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adapter, closeAdapter, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeAdapter()

	existing, err := engineNameIndex(ctx, adapter)
	if err != nil {
		return fmt.Errorf("list existing engines: %w", err)
	}

	var created, updated, skipped int
	for _, ec := range doc.ToEngineConfigs() {
		if id, ok := existing[ec.Name]; ok {
			if !*replace {
				skipped++
				logw.Infof(ctx, "load-config: %q already exists, skipping (pass --replace to update)", ec.Name)
				continue
			}
			if err := adapter.UpdateEngineMeta(ctx, id, ec.InitialRating, ec.Description); err != nil {
				return fmt.Errorf("update engine %q: %w", ec.Name, err)
			}
			updated++
			continue
		}

		if _, err := adapter.AddEngine(ctx, ec.Name, ec.InitialRating, ec.Description); err != nil {
			return fmt.Errorf("add engine %q: %w", ec.Name, err)
		}
		created++
	}

	logw.Infof(ctx, "load-config: %d created, %d updated, %d skipped", created, updated, skipped)
	return nil
}
