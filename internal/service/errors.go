package service

import "errors"

// ErrInvalidRequest wraps request validation failures that happen before the
// engine is involved, e.g. a missing symbol or an unknown range.
var ErrInvalidRequest = errors.New("invalid request")
