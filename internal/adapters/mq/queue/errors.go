package queue

import "errors"

var (
	ErrFull   = errors.New("import queue full")
	ErrClosed = errors.New("import queue closed")
)
