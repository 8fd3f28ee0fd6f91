package core

import "errors"

// User is an account the ledger is scoped to. Authentication is a plain
// bearer token lookup; there is no session state beyond the token itself.
type User struct {
	ID       int64
	Username string
	Token    string
}

var ErrUnauthenticated = errors.New("unauthenticated")
