package ui

import (
	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/session"
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

// responseMsg carries a finished dispatch back to the update loop.
type responseMsg struct {
	token   session.Token
	outcome request.Outcome
}

type statusMsg struct {
	text  string
	level statusLevel
}
