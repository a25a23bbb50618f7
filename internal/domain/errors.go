package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when geocoding yields no result for an address.
	ErrNotFound = errors.New("address not found")

	// ErrNoDestination is returned when a route is requested with no destination set.
	ErrNoDestination = errors.New("no destination set")

	// ErrInvalidInput is returned when an empty destination address is submitted.
	ErrInvalidInput = errors.New("destination address is empty")

	// ErrNoPosition is returned when a route origin is needed before any fix.
	ErrNoPosition = errors.New("no position known")
)

// LookupError reports a geocoding failure other than "no result":
// transport, non-success status or an unparseable response.
type LookupError struct {
	Address string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q failed: %v", e.Address, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// RoutingError reports a routing service response with a non-success code.
// Message is the service-provided text, for diagnostics only.
type RoutingError struct {
	Code    string
	Message string
}

func (e *RoutingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("routing failed: code=%s", e.Code)
	}
	return fmt.Sprintf("routing failed: code=%s message=%s", e.Code, e.Message)
}

// TransportError reports a network failure (timeout, DNS, connection refused)
// on an external call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
