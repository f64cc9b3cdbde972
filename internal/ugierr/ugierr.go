// Package ugierr defines the sentinel errors shared by the UGI session,
// game driver and match-set runner so callers can branch on failure
// taxonomy with errors.Is instead of string matching.
package ugierr

import "errors"

var (
	// ErrStartFailed means the engine process could not be spawned.
	ErrStartFailed = errors.New("ugi: engine start failed")
	// ErrHandshakeTimeout means ugiok/readyok did not arrive within the
	// handshake deadline.
	ErrHandshakeTimeout = errors.New("ugi: handshake timeout")
	// ErrHandshakeRejected means the engine responded but not with a
	// recognizable handshake acknowledgement.
	ErrHandshakeRejected = errors.New("ugi: handshake rejected")
	// ErrTimeout means a request (move, status) did not complete within
	// its deadline.
	ErrTimeout = errors.New("ugi: request timeout")
	// ErrBadResponse means the engine produced output that could not be
	// interpreted for the outstanding request.
	ErrBadResponse = errors.New("ugi: bad response")
	// ErrEngineExited means the child process exited while a request was
	// in flight.
	ErrEngineExited = errors.New("ugi: engine exited")
	// ErrSetupFailed means a starting position requiring an engine
	// capability (an alternate initial state) could not be applied.
	ErrSetupFailed = errors.New("ugi: position setup failed")
	// ErrMoveCap means a game exceeded the hard move cap and was declared
	// a draw.
	ErrMoveCap = errors.New("ugi: move cap exceeded")
)
