package ugi

import "testing"

func TestParseLineHandshake(t *testing.T) {
	cases := []struct {
		line string
		kind EventKind
	}{
		{"ugiok", EventUGIOk},
		{"ugiok   \r", EventUGIOk},
		{"readyok", EventReadyOk},
		{"# a comment line", EventInfo},
		{"", EventInfo},
		{"id name Foo 1.0", EventInfo},
	}
	for _, tc := range cases {
		ev := parseLine(tc.line)
		if ev.Kind != tc.kind {
			t.Errorf("parseLine(%q).Kind = %v, want %v", tc.line, ev.Kind, tc.kind)
		}
	}
}

func TestParseLineBestMove(t *testing.T) {
	ev := parseLine("bestmove e2e4 ponder e7e5")
	if ev.Kind != EventBestMove {
		t.Fatalf("Kind = %v, want EventBestMove", ev.Kind)
	}
	if ev.BestMove != "e2e4" {
		t.Errorf("BestMove = %q, want e2e4", ev.BestMove)
	}
	if ev.Ponder != "e7e5" {
		t.Errorf("Ponder = %q, want e7e5", ev.Ponder)
	}
}

func TestParseLineBestMoveNoPonder(t *testing.T) {
	ev := parseLine("bestmove d2d4")
	if ev.Kind != EventBestMove || ev.BestMove != "d2d4" {
		t.Fatalf("got %+v", ev)
	}
	if ev.Ponder != "" {
		t.Errorf("Ponder = %q, want empty", ev.Ponder)
	}
}

func TestParseLineStatus(t *testing.T) {
	ev := parseLine("status inprogress playertomove 2")
	if ev.Kind != EventStatus {
		t.Fatalf("Kind = %v, want EventStatus", ev.Kind)
	}
	if !ev.StatusInProgress {
		t.Error("expected StatusInProgress = true")
	}
	if ev.PlayerToMove != 2 {
		t.Errorf("PlayerToMove = %v, want 2", ev.PlayerToMove)
	}

	ev2 := parseLine("status checkmate playertomove 1")
	if ev2.StatusInProgress {
		t.Error("expected StatusInProgress = false for checkmate")
	}
}

func TestParseLineInfoResult(t *testing.T) {
	ev := parseLine("info player 1 result win score 1-0")
	if ev.Kind != EventInfoResult {
		t.Fatalf("Kind = %v, want EventInfoResult", ev.Kind)
	}
	if ev.ResultPlayer != 1 || ev.ResultToken != "win" || ev.ScoreToken != "1-0" {
		t.Errorf("got %+v", ev)
	}
}

func TestParseLineUnknownIsInfo(t *testing.T) {
	ev := parseLine("some totally unexpected line from a noisy engine")
	if ev.Kind != EventInfo {
		t.Errorf("Kind = %v, want EventInfo", ev.Kind)
	}
}
