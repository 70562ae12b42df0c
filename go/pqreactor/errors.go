package pqreactor

import (
	"errors"
	"fmt"
)

var errConnectTimedOut = errors.New("connect did not complete before the deadline")

func errConnStatusNotOK(detail string) error {
	if detail == "" {
		return errors.New("connection status is not OK")
	}
	return fmt.Errorf("connection status is not OK: %s", detail)
}

// errorsNew wraps a plain message string as an error. Named to avoid
// colliding with the sibling pqerrors package import in call sites that use
// both.
func errorsNew(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
