package ai

import "errors"

// ErrUnavailable marks a missing or unreachable generation/embedding backend.
var ErrUnavailable = errors.New("ai backend unavailable")
