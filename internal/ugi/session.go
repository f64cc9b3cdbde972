// Package ugi drives one external engine process over the Universal Game
// Interface (UGI), a line-oriented text protocol derived from UCI. A
// Session owns the child process's pipes, runs a background reader that
// turns stdout lines into typed Events, and exposes a synchronous
// request/response API backed by that event stream — the "callback
// closures over shared state" shape is replaced by a single actor
// goroutine and a channel of events, per the design rewrite this project
// follows for subprocess I/O.
package ugi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"

	"github.com/ugitourney/tourney/internal/logging"
	"github.com/ugitourney/tourney/internal/ugierr"
)

// State is the session's lifecycle state.
type State int

const (
	// StateSpawned means the process has been started but not handshaked.
	StateSpawned State = iota
	// StateHandshaking means the ugi/setoption/isready exchange is underway.
	StateHandshaking
	// StateReady means the engine is idle and can accept a new request.
	StateReady
	// StateThinking means a "go" is outstanding.
	StateThinking
	// StateQuitting means a graceful "quit" has been sent.
	StateQuitting
	// StateKilled means the process was force-killed.
	StateKilled
	// StateExited is the terminal state; the process has been reaped.
	StateExited
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateThinking:
		return "thinking"
	case StateQuitting:
		return "quitting"
	case StateKilled:
		return "killed"
	default:
		return "exited"
	}
}

const (
	// DefaultHandshakeTimeout bounds the ugi/isready exchange.
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultStatusTimeout bounds a status query.
	DefaultStatusTimeout = 5 * time.Second
	// DefaultMoveHardCap bounds any single move request, regardless of the
	// time control's remaining budget.
	DefaultMoveHardCap = 30 * time.Second
	// ApplyMoveSettleDelay is the small pause after a fire-and-forget
	// makemove, to avoid interleaving with the following command.
	ApplyMoveSettleDelay = 50 * time.Millisecond
	// ShutdownGracePeriod is how long a "quit" is given to exit the process
	// before it is force-killed.
	ShutdownGracePeriod = 500 * time.Millisecond
)

// Config describes how to start one engine process.
type Config struct {
	Name             string
	Executable       string
	WorkingDirectory string
	Arguments        []string
	Env              map[string]string
	Options          map[string]string
	HandshakeTimeout time.Duration
}

// Session owns one child engine process and its line-oriented protocol
// stream.
type Session struct {
	cfg Config

	cmd       *exec.Cmd
	stdinPipe io.WriteCloser
	stdin     *bufio.Writer

	events chan Event
	done   chan struct{} // closed once the reader observes EOF/exit

	mu       sync.Mutex
	state    State
	exitErr  error
	closeErr error
}

// Start spawns the executable with config's argument list in its working
// directory, with environment = process environment overlaid by cfg.Env,
// and begins reading its stdout/stderr in the background.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	cmd := exec.Command(cfg.Executable, cfg.Arguments...)
	cmd.Dir = cfg.WorkingDirectory
	cmd.Env = mergeEnv(os.Environ(), cfg.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ugierr.ErrStartFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ugierr.ErrStartFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ugierr.ErrStartFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ugierr.ErrStartFailed, err)
	}

	s := &Session{
		cfg:       cfg,
		cmd:       cmd,
		stdinPipe: stdin,
		stdin:     bufio.NewWriter(stdin),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		state:     StateSpawned,
	}

	go s.readStdout(stdout)
	go s.readStderr(stderr)

	logw.Infof(ctx, "ugi: started engine %v (pid=%v)", cfg.Name, cmd.Process.Pid)
	return s, nil
}

func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	out := append([]string{}, base...)
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}

func (s *Session) readStdout(r io.Reader) {
	defer close(s.done)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		ev := parseLine(sc.Text())
		select {
		case s.events <- ev:
		default:
			// A stalled consumer should never wedge the reader; when the
			// buffer is full this (newest) line is discarded. Real UGI traffic
			// is low-volume enough that this should not trigger in practice.
		}
	}

	s.mu.Lock()
	if s.exitErr == nil {
		s.exitErr = sc.Err()
		if s.exitErr == nil {
			s.exitErr = ugierr.ErrEngineExited
		}
	}
	s.mu.Unlock()
}

func (s *Session) readStderr(r io.Reader) {
	fields := logging.EngineFields(s.cfg.Name, s.cmd.Process.Pid)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		logw.Debugf(context.Background(), "ugi stderr (%v): %v", fields, sc.Text())
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) writeLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return ugierr.ErrEngineExited
	default:
	}

	if _, err := s.stdin.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: write %q: %v", ugierr.ErrEngineExited, line, err)
	}
	return s.stdin.Flush()
}

// waitFor blocks until an event of one of the wanted kinds arrives, the
// deadline elapses, the context is cancelled, or the session exits.
// Unrequested events are discarded (and logged at debug level) rather than
// treated as a failure, matching the protocol's "ignore unknown lines"
// contract.
func (s *Session) waitFor(ctx context.Context, deadline time.Duration, wanted ...EventKind) (Event, error) {
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return Event{}, ugierr.ErrEngineExited
			}
			for _, k := range wanted {
				if ev.Kind == k {
					return ev, nil
				}
			}
			logw.Debugf(ctx, "ugi[%v] discarding unsolicited line: %v", s.cfg.Name, ev.Raw)
		case <-timer.C:
			return Event{}, ugierr.ErrTimeout
		case <-s.done:
			return Event{}, ugierr.ErrEngineExited
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Handshake performs the ugi / setoption* / isready / readyok exchange.
// overrides are merged over the session's static options; overrides win on
// conflict.
func (s *Session) Handshake(ctx context.Context, overrides map[string]string) error {
	s.setState(StateHandshaking)

	if err := s.writeLine("ugi"); err != nil {
		return err
	}
	if _, err := s.waitFor(ctx, s.cfg.HandshakeTimeout, EventUGIOk); err != nil {
		return fmt.Errorf("%w: %v", ugierr.ErrHandshakeTimeout, err)
	}

	merged := make(map[string]string, len(s.cfg.Options)+len(overrides))
	for k, v := range s.cfg.Options {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.writeLine(fmt.Sprintf("setoption name %s value %s", k, merged[k])); err != nil {
			return err
		}
	}

	if err := s.writeLine("isready"); err != nil {
		return err
	}
	if _, err := s.waitFor(ctx, s.cfg.HandshakeTimeout, EventReadyOk); err != nil {
		return fmt.Errorf("%w: %v", ugierr.ErrHandshakeTimeout, err)
	}

	s.setState(StateReady)
	logw.Infof(ctx, "ugi[%v] handshake complete", s.cfg.Name)
	return nil
}

// RequestMove asks the engine to search and returns its bestmove token.
// Any line before "bestmove" is informational and is discarded. If the
// deadline elapses, ErrTimeout is returned; the session remains usable only
// if a later Probe still yields readyok.
func (s *Session) RequestMove(ctx context.Context, deadline time.Duration) (string, error) {
	s.setState(StateThinking)

	if err := s.writeLine("go"); err != nil {
		return "", err
	}

	ev, err := s.waitFor(ctx, deadline, EventBestMove)
	if err != nil {
		return "", err
	}

	s.setState(StateReady)
	return ev.BestMove, nil
}

// ApplyMove sends makemove as fire-and-forget, followed by a small settling
// delay so it cannot race a following command.
func (s *Session) ApplyMove(move string) error {
	if err := s.writeLine("makemove " + move); err != nil {
		return err
	}
	time.Sleep(ApplyMoveSettleDelay)
	return nil
}

// SetPosition applies an alternate initial state (FEN-style string) via the
// protocol-appropriate command. UGI engines that understand "position" will
// accept it; callers should treat a write failure as ErrSetupFailed.
func (s *Session) SetPosition(fen string) error {
	if err := s.writeLine("position " + fen); err != nil {
		return fmt.Errorf("%w: %v", ugierr.ErrSetupFailed, err)
	}
	return nil
}

// Probe issues isready and reports whether the engine still answers
// readyok within the given deadline. Used to decide whether a session that
// just timed out on a move request is still usable.
func (s *Session) Probe(ctx context.Context, deadline time.Duration) bool {
	if err := s.writeLine("isready"); err != nil {
		return false
	}
	_, err := s.waitFor(ctx, deadline, EventReadyOk)
	return err == nil
}

// statusAccumulator collects the status and per-player result lines
// QueryStatus has seen so far.
type statusAccumulator struct {
	inProgress   bool
	playerToMove int
	have1, have2 bool
	p1, p2       struct {
		result, score string
	}
}

// QueryStatus asks the engine for the current game state, and accumulates
// "status" and "info player N result R score S" lines until both players'
// results have been seen or the deadline elapses.
func (s *Session) QueryStatus(ctx context.Context, deadline time.Duration) (status StatusResult, err error) {
	if werr := s.writeLine("status"); werr != nil {
		return StatusResult{}, werr
	}

	acc := statusAccumulator{inProgress: true}
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	for {
		if acc.have1 && acc.have2 {
			break
		}
		select {
		case ev, ok := <-s.events:
			if !ok {
				return toStatusResult(acc), ugierr.ErrEngineExited
			}
			switch ev.Kind {
			case EventStatus:
				acc.inProgress = ev.StatusInProgress
				acc.playerToMove = ev.PlayerToMove
			case EventInfoResult:
				switch ev.ResultPlayer {
				case 1:
					acc.have1 = true
					acc.p1.result, acc.p1.score = ev.ResultToken, ev.ScoreToken
				case 2:
					acc.have2 = true
					acc.p2.result, acc.p2.score = ev.ResultToken, ev.ScoreToken
				}
			default:
				logw.Debugf(ctx, "ugi[%v] status: discarding %v", s.cfg.Name, ev.Raw)
			}
		case <-timer.C:
			return toStatusResult(acc), nil
		case <-s.done:
			return toStatusResult(acc), ugierr.ErrEngineExited
		case <-ctx.Done():
			return toStatusResult(acc), ctx.Err()
		}
		if contextx.IsCancelled(ctx) {
			return toStatusResult(acc), ctx.Err()
		}
	}
	return toStatusResult(acc), nil
}

// StatusResult is QueryStatus's return value.
type StatusResult struct {
	InProgress   bool
	PlayerToMove int
	Player1      PlayerResult
	Player2      PlayerResult
}

// PlayerResult carries one player's terminal tokens, if reported.
type PlayerResult struct {
	HasResult bool
	Result    string
	Score     string
}

func toStatusResult(acc statusAccumulator) StatusResult {
	return StatusResult{
		InProgress:   acc.inProgress,
		PlayerToMove: acc.playerToMove,
		Player1:      PlayerResult{HasResult: acc.have1, Result: acc.p1.result, Score: acc.p1.score},
		Player2:      PlayerResult{HasResult: acc.have2, Result: acc.p2.result, Score: acc.p2.score},
	}
}

// Shutdown attempts a graceful quit, then force-kills the process if it has
// not exited within ShutdownGracePeriod. Idempotent.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateExited || s.state == StateKilled {
		s.mu.Unlock()
		return s.closeErr
	}
	s.state = StateQuitting
	s.mu.Unlock()

	_ = s.writeLine("quit")
	_ = s.stdinPipe.Close()

	waited := make(chan error, 1)
	go func() { waited <- s.cmd.Wait() }()

	select {
	case err := <-waited:
		s.setState(StateExited)
		s.closeErr = err
		logw.Infof(ctx, "ugi[%v] exited gracefully", s.cfg.Name)
		return nil
	case <-time.After(ShutdownGracePeriod):
	}

	logw.Warningf(ctx, "ugi[%v] did not exit within grace period, killing", s.cfg.Name)
	if err := s.cmd.Process.Kill(); err != nil {
		s.closeErr = err
	}
	<-waited
	s.setState(StateKilled)
	return s.closeErr
}

// Name returns the configured engine name, for logging and error context.
func (s *Session) Name() string {
	return s.cfg.Name
}

// PID returns the child process id, or 0 if the process has not started.
func (s *Session) PID() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}
