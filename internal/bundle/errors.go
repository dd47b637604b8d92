package bundle

import "errors"

// ErrLoad is returned when a bundle document cannot be read or parsed.
// The wrapped error carries the underlying I/O or YAML message.
var ErrLoad = errors.New("bundle: load failed")

// ErrAliasCycle is wrapped in ErrLoad when an alias refers to a node that
// contains it.
var ErrAliasCycle = errors.New("bundle: alias refers to an enclosing node")
