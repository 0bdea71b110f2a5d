package mqtt

import "errors"

// ErrAckTimeout is returned when no crew acknowledgment arrives before the timeout.
var ErrAckTimeout = errors.New("timeout waiting for ack")
