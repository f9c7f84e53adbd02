package mam

import "errors"

// Remote failure taxonomy. Transient and parse failures are retried on the
// next natural trigger only; auth failures need a fresh session cookie from
// the user; rejected actions stay unstamped and are re-evaluated next cycle.
var (
	ErrTransient = errors.New("transient remote failure")
	ErrAuth      = errors.New("session cookie rejected")
	ErrParse     = errors.New("unexpected response shape")
	ErrRejected  = errors.New("action declined by remote")
)
