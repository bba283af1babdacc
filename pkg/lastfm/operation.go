package lastfm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of an Operation.
type State int

const (
	StateIdle State = iota
	StateExecuting
	StateSuspended
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExecuting:
		return "executing"
	case StateSuspended:
		return "suspended"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is a finished state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Callback receives the outcome of one attempt. Exactly one of payload and
// err is non-nil. It may run on any goroutine.
type Callback func(payload Payload, err error)

// Operation wraps one API exchange and its retry/cancel/suspend lifecycle.
//
// An Operation is created idle; call Resume to send it. The callback fires
// exactly once per attempt. Restart begins a new attempt with the same
// request and callback, from any state.
type Operation struct {
	transport Transport
	request   *Request
	callback  Callback
	logger    zerolog.Logger

	mu        sync.Mutex
	state     State
	exchange  Exchange
	attempt   int
	attemptID string
}

// NewOperation creates an idle operation for req.
func NewOperation(transport Transport, req *Request, callback Callback) *Operation {
	return newOperation(transport, req, callback, zerolog.Nop())
}

func newOperation(transport Transport, req *Request, callback Callback, logger zerolog.Logger) *Operation {
	if callback == nil {
		callback = func(Payload, error) {}
	}
	method, _ := req.Params.Get("method")
	return &Operation{
		transport: transport,
		request:   req,
		callback:  callback,
		logger:    logger.With().Str("method", method).Logger(),
	}
}

// State returns the current lifecycle state.
func (o *Operation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Request returns the request this operation sends.
func (o *Operation) Request() *Request {
	return o.request
}

// Resume starts an idle operation or continues a suspended one. Resuming an
// executing operation is a no-op. Resuming a finished or cancelled
// operation returns ErrInvalidState; use Restart instead.
func (o *Operation) Resume() error {
	o.mu.Lock()
	switch o.state {
	case StateExecuting:
		o.mu.Unlock()
		return nil
	case StateSuspended:
		o.state = StateExecuting
		ex := o.exchange
		o.logger.Debug().Str("attempt", o.attemptID).Msg("lastfm: resuming operation")
		o.mu.Unlock()
		ex.Resume()
		return nil
	case StateIdle:
		ex := o.startLocked()
		o.mu.Unlock()
		ex.Resume()
		return nil
	default:
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("%w: cannot resume %s operation", ErrInvalidState, state)
	}
}

// Suspend pauses an executing operation without discarding its exchange.
func (o *Operation) Suspend() error {
	o.mu.Lock()
	if o.state != StateExecuting {
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("%w: cannot suspend %s operation", ErrInvalidState, state)
	}
	o.state = StateSuspended
	ex := o.exchange
	o.logger.Debug().Str("attempt", o.attemptID).Msg("lastfm: suspending operation")
	o.mu.Unlock()

	ex.Suspend()
	return nil
}

// Cancel moves a non-terminal operation to StateCancelled, aborts its
// exchange and fires the callback with an error of KindCancelled. Calling
// Cancel on a finished operation does nothing.
func (o *Operation) Cancel() {
	o.mu.Lock()
	if o.state.Terminal() {
		o.mu.Unlock()
		return
	}
	o.state = StateCancelled
	ex := o.exchange
	o.exchange = nil
	cb := o.callback
	o.logger.Debug().Str("attempt", o.attemptID).Msg("lastfm: operation cancelled")
	o.mu.Unlock()

	if ex != nil {
		ex.Cancel()
	}
	cb(nil, &Error{Kind: KindCancelled, Message: "operation cancelled", Err: context.Canceled})
}

// Restart discards any live exchange and starts a new attempt. It works
// from every state, including after the operation has finished or been
// cancelled. A discarded in-flight attempt never fires the callback.
func (o *Operation) Restart() {
	o.mu.Lock()
	old := o.exchange
	ex := o.startLocked()
	o.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	ex.Resume()
}

// startLocked begins a new attempt. o.mu must be held.
func (o *Operation) startLocked() Exchange {
	o.attempt++
	attempt := o.attempt
	o.attemptID = uuid.NewString()
	o.state = StateExecuting

	o.logger.Debug().
		Str("attempt", o.attemptID).
		Int("number", attempt).
		Msg("lastfm: starting operation")

	o.exchange = o.transport.Prepare(o.request, func(resp *Response, err error) {
		o.complete(attempt, resp, err)
	})
	return o.exchange
}

// complete resolves attempt with the transport's result. Results for
// attempts that were cancelled or superseded are dropped.
func (o *Operation) complete(attempt int, resp *Response, transportErr error) {
	payload, classified := o.interpret(resp, transportErr)

	o.mu.Lock()
	if attempt != o.attempt || (o.state != StateExecuting && o.state != StateSuspended) {
		o.logger.Debug().Int("number", attempt).Msg("lastfm: dropping late completion")
		o.mu.Unlock()
		return
	}
	o.exchange = nil
	if classified != nil {
		o.state = StateFailed
		if classified.Kind == KindService {
			classified.retry = o.Restart
		}
		o.logger.Debug().Str("attempt", o.attemptID).Err(classified).Msg("lastfm: operation failed")
	} else {
		o.state = StateSucceeded
		o.logger.Debug().Str("attempt", o.attemptID).Msg("lastfm: operation succeeded")
	}
	cb := o.callback
	o.mu.Unlock()

	if classified != nil {
		cb(nil, classified)
		return
	}
	cb(payload, nil)
}

func (o *Operation) interpret(resp *Response, transportErr error) (Payload, *Error) {
	if transportErr != nil || resp == nil {
		if transportErr == nil {
			transportErr = fmt.Errorf("no response")
		}
		return nil, Classify(0, nil, transportErr)
	}

	payload, err := decodePayload(resp.Body)
	if err != nil {
		classified := malformed("response is not a JSON object", err)
		classified.StatusCode = resp.StatusCode
		return nil, classified
	}

	if classified := Classify(resp.StatusCode, payload, nil); classified != nil {
		return nil, classified
	}
	return payload, nil
}

// Await resumes the operation returned by start and blocks until its
// callback fires. If ctx is done first the operation is cancelled and
// ctx.Err() is returned, unless the result arrived in the meantime.
//
// Example:
//
//	info, err := lastfm.Await(ctx, func(done func(*lastfm.User, error)) *lastfm.Operation {
//	    return client.User().GetInfo("rj", done)
//	})
func Await[T any](ctx context.Context, start func(done func(T, error)) *Operation) (T, error) {
	type result struct {
		value T
		err   error
	}
	results := make(chan result, 1)

	op := start(func(v T, err error) {
		select {
		case results <- result{value: v, err: err}:
		default:
		}
	})
	if err := op.Resume(); err != nil {
		var zero T
		return zero, err
	}

	select {
	case r := <-results:
		return r.value, r.err
	case <-ctx.Done():
		op.Cancel()
		r := <-results
		var lfmErr *Error
		if errors.As(r.err, &lfmErr) && lfmErr.Kind == KindCancelled {
			var zero T
			return zero, ctx.Err()
		}
		return r.value, r.err
	}
}

// Wait is Await for operations whose callback only reports an error.
func Wait(ctx context.Context, start func(done func(error)) *Operation) error {
	_, err := Await(ctx, func(done func(struct{}, error)) *Operation {
		return start(func(err error) { done(struct{}{}, err) })
	})
	return err
}
