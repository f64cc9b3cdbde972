package util

import (
	"fmt"

	"golang.design/x/clipboard"
)

// CopyToClipboard copies text to the system clipboard. It backs
// `rankings --copy` and the live dashboard's copy-rankings key binding,
// placing a formatted rankings table on the clipboard for pasting elsewhere.
//
// golang.design/x/clipboard requires cgo and a display server (X11/Wayland
// on Linux, Cocoa on macOS); Init is cheap to call on every invocation since
// it only sets up the platform backend once per process.
func CopyToClipboard(text string) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("init clipboard: %w", err)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
