package interfaces

import "errors"

// ErrNotFound is returned by repositories when a requested entity does not
// exist. Backends wrap it with goerr for context.
var ErrNotFound = errors.New("not found")
