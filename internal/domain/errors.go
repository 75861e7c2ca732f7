package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidAddress = errors.New("invalid address")
	ErrGateway        = errors.New("gateway error")
	ErrRateLimited    = errors.New("rate limited")
	ErrLockHeld       = errors.New("lock already held")
)

// GatewayError reports a failed read against the ledger: transport failures,
// contract reverts, malformed responses and expired call deadlines all surface
// as a GatewayError. errors.Is(err, ErrGateway) matches any of them.
type GatewayError struct {
	Method string
	Err    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Method, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is lets callers test for the ErrGateway category without a type assertion.
func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// InvalidAddressError wraps ErrInvalidAddress with the rejected input.
func InvalidAddressError(addr string) error {
	return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
}
