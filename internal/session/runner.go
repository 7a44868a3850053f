package session

import (
	"context"
	"errors"
	"sync"

	"github.com/postcrab/postcrab/internal/request"
)

var ErrNothingPending = errors.New("no dispatch pending")

type Dispatcher interface {
	Dispatch(ctx context.Context, spec request.Spec) request.Outcome
}

type Result struct {
	Token   Token
	Outcome request.Outcome
	Applied bool
}

type response struct {
	token   Token
	outcome request.Outcome
}

// Runner drives a Session from a plain goroutine for hosts without their own
// event loop. Send and Next must be called from the same goroutine; dispatches
// run in the background and only talk back through a channel.
type Runner struct {
	session    *Session
	dispatcher Dispatcher
	responses  chan response
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	inFlight   int
}

func NewRunner(s *Session, d Dispatcher) *Runner {
	return &Runner{
		session:    s,
		dispatcher: d,
		responses:  make(chan response),
		done:       make(chan struct{}),
	}
}

func (r *Runner) Session() *Session {
	return r.session
}

// Send validates and starts a dispatch. Validation errors are returned and
// nothing runs.
func (r *Runner) Send() (Token, error) {
	job, err := r.session.Send()
	if err != nil {
		return 0, err
	}
	r.inFlight++
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		out := r.dispatcher.Dispatch(job.Ctx, job.Spec)
		select {
		case r.responses <- response{token: job.Token, outcome: out}:
		case <-r.done:
		}
	}()
	return job.Token, nil
}

// Next waits for the next finished dispatch and applies it to the session.
// Stale results come back with Applied set to false.
func (r *Runner) Next(ctx context.Context) (Result, error) {
	select {
	case resp := <-r.responses:
		r.inFlight--
		applied := r.session.Receive(resp.token, resp.outcome)
		return Result{Token: resp.token, Outcome: resp.outcome, Applied: applied}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Wait returns the outcome of the latest send, draining stale results first.
func (r *Runner) Wait(ctx context.Context) (Result, error) {
	for {
		if r.inFlight == 0 {
			return Result{}, ErrNothingPending
		}
		res, err := r.Next(ctx)
		if err != nil {
			return Result{}, err
		}
		if res.Applied {
			return res, nil
		}
	}
}

// Close shuts the session down and waits for background dispatches to exit.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		r.session.Shutdown()
		close(r.done)
	})
	r.wg.Wait()
}
