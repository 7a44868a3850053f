package session

import (
	"context"

	"github.com/postcrab/postcrab/internal/request"
)

type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case AwaitingResponse:
		return "awaiting response"
	default:
		return "idle"
	}
}

// Token identifies one send. Only the latest token may change the session.
type Token uint64

// Dispatch is the work handed to the caller after a successful send. Ctx is
// cancelled when a newer send supersedes it or the session shuts down.
type Dispatch struct {
	Token Token
	Spec  request.Spec
	Ctx   context.Context
}

// Session holds the editable request and the last result. It is not safe for
// concurrent use: one goroutine owns it and background work reports back with
// Receive.
type Session struct {
	method      request.Method
	contentType request.ContentType
	url         string
	body        string

	state      State
	errMsg     string
	response   string
	previous   string
	status     string
	statusCode int

	latest Token
	cancel context.CancelFunc
	closed bool
}

func New(method request.Method, contentType request.ContentType) *Session {
	return &Session{method: method, contentType: contentType}
}

func (s *Session) SelectMethod(m request.Method) {
	s.method = m
}

func (s *Session) SelectContentType(c request.ContentType) {
	s.contentType = c
}

func (s *Session) SetURL(raw string) {
	s.url = raw
}

func (s *Session) SetBody(raw string) {
	s.body = raw
}

// Send validates the current input. On failure the error message is recorded
// and the state is left alone. On success any in-flight dispatch is
// cancelled and a new one is returned for the caller to run.
func (s *Session) Send() (Dispatch, error) {
	spec, err := request.Validate(s.url, s.method, s.contentType, s.body)
	if err != nil {
		s.errMsg = err.Error()
		return Dispatch{}, err
	}

	s.errMsg = ""
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	if s.closed {
		cancel()
	}
	s.cancel = cancel
	s.latest++
	s.state = AwaitingResponse
	return Dispatch{Token: s.latest, Spec: spec, Ctx: ctx}, nil
}

// Receive applies an outcome if token is the latest one and reports whether
// it did. Stale outcomes leave the session untouched.
func (s *Session) Receive(token Token, out request.Outcome) bool {
	if s.closed || token != s.latest || s.state != AwaitingResponse {
		return false
	}

	s.state = Idle
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if out.OK {
		s.previous = s.response
		s.response = out.Body
		s.status = out.Status
		s.statusCode = out.StatusCode
		s.errMsg = ""
		return true
	}
	s.errMsg = out.Message
	s.response = ""
	s.status = ""
	s.statusCode = 0
	return true
}

// Shutdown cancels any in-flight dispatch. Later outcomes are ignored.
func (s *Session) Shutdown() {
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) State() State                     { return s.state }
func (s *Session) Method() request.Method           { return s.method }
func (s *Session) ContentType() request.ContentType { return s.contentType }
func (s *Session) URL() string                      { return s.url }
func (s *Session) Body() string                     { return s.body }
func (s *Session) Latest() Token                    { return s.latest }
func (s *Session) Error() string                    { return s.errMsg }
func (s *Session) Response() string                 { return s.response }
func (s *Session) Status() string                   { return s.status }
func (s *Session) StatusCode() int                  { return s.statusCode }

// PreviousResponse is the response text that the current one replaced.
func (s *Session) PreviousResponse() string { return s.previous }

// BodyInputEnabled reports whether the selected method sends a body.
func (s *Session) BodyInputEnabled() bool {
	return s.method.HasBody()
}
