package errors

import "fmt"

var (
	ErrIndexOutOfRange = fmt.Errorf("index out of range")
	ErrStreamClosed    = fmt.Errorf("event stream closed")
)
