package graph

import "errors"

// ErrAuth marks Graph failures caused by an expired or insufficient token.
// Callers show a "please sign in" message for these and a generic fetch
// failure for everything else.
var ErrAuth = errors.New("graph authentication failed")
