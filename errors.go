package dyndns

import (
	"fmt"

	"github.com/miekg/dns"
)

// NotFoundError is returned when a DNS query succeeded but the response
// contained no record of the requested type.
type NotFoundError struct {
	Name string
	Type uint16
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s record found for %s", dns.TypeToString[e.Type], e.Name)
}

// TransportError is returned when a DNS query itself failed: timeout,
// connection failure, malformed response, or server refusal. The underlying
// cause is preserved and available through errors.Unwrap.
type TransportError struct {
	Server string
	Name   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dns query for %s against %s failed: %s", e.Name, e.Server, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is returned when arguments handed to an update provider
// are malformed. It is always raised before any network call is made.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// SinkError is returned when the record-update API rejected a write or could
// not be reached.
type SinkError struct {
	Status int
	Body   string
	Err    error
}

func (e *SinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("update request failed: %s", e.Err)
	}
	return fmt.Sprintf("update request returned status %d: %s", e.Status, e.Body)
}

func (e *SinkError) Unwrap() error { return e.Err }
