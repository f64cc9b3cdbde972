// Command mockengine is a scripted UGI engine used for integration tests
// and local dry runs of the orchestrator: it speaks just enough of the
// protocol to complete a handshake, answer a fixed number of moves, and
// then report a configurable terminal result. Unlike the throwaway POSIX
// shell scripts unit tests spawn inline, it is a real binary so a
// tournament.json document can point at it directly.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	name := flag.String("name", "mockengine", "identity string reported in the ugi handshake")
	bestmove := flag.String("bestmove", "e2e4", "move string returned for every go")
	result := flag.String("result", "win", "result reported once -move-count makemoves have been seen: win, loss, or draw")
	moveCount := flag.Int("move-count", 2, "number of makemove commands observed before reporting a terminal status")
	think := flag.Duration("think", 0, "artificial delay before answering go, to exercise clock/timeout handling")
	rejectHandshake := flag.Bool("reject-handshake", false, "never answer ugi with ugiok, exercising handshake timeout/rejection paths")
	garbageOnReady := flag.Bool("garbage-on-isready", false, "reply to isready with an unparseable line instead of readyok")
	flag.Parse()

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var moves int
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "ugi":
			handleUGI(out, *name, *rejectHandshake)
		case strings.HasPrefix(line, "setoption"):
			// This mock has nothing to configure; the line is acknowledged
			// implicitly by continuing to answer isready.
		case line == "isready":
			handleIsReady(out, *garbageOnReady)
		case strings.HasPrefix(line, "position"):
			// Board state isn't tracked; status is driven by -move-count.
		case strings.HasPrefix(line, "makemove"):
			moves++
		case line == "go":
			handleGo(out, *bestmove, *think)
		case line == "status":
			handleStatus(out, moves, *moveCount, *result)
		case line == "quit":
			return
		}
	}
}

func handleUGI(out *bufio.Writer, name string, reject bool) {
	if reject {
		return // stay silent; the caller should time out waiting for ugiok
	}
	fmt.Fprintf(out, "id name %s\n", name)
	fmt.Fprintln(out, "ugiok")
	out.Flush()
}

func handleIsReady(out *bufio.Writer, garbage bool) {
	if garbage {
		fmt.Fprintln(out, "this is not a ugi response")
	} else {
		fmt.Fprintln(out, "readyok")
	}
	out.Flush()
}

func handleGo(out *bufio.Writer, bestmove string, think time.Duration) {
	if think > 0 {
		time.Sleep(think)
	}
	fmt.Fprintf(out, "bestmove %s\n", bestmove)
	out.Flush()
}

func handleStatus(out *bufio.Writer, moves, moveCount int, result string) {
	if moves < moveCount {
		fmt.Fprintln(out, "status inprogress playertomove 1")
		out.Flush()
		return
	}

	switch result {
	case "loss":
		fmt.Fprintln(out, "status checkmate playertomove 1")
		fmt.Fprintln(out, "info player 1 result loss score 0-1")
		fmt.Fprintln(out, "info player 2 result win score 1-0")
	case "draw":
		fmt.Fprintln(out, "status stalemate playertomove 1")
		fmt.Fprintln(out, "info player 1 result draw score 1/2-1/2")
		fmt.Fprintln(out, "info player 2 result draw score 1/2-1/2")
	default:
		fmt.Fprintln(out, "status checkmate playertomove 1")
		fmt.Fprintln(out, "info player 1 result win score 1-0")
		fmt.Fprintln(out, "info player 2 result loss score 0-1")
	}
	out.Flush()
}
