// Package errkind gives the observer's error categories typed identity so
// call sites can branch on errors.As instead of string matching.
package errkind

import (
	"fmt"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

// Kind is a propagation-policy category, not a concrete error type. See the
// policy table this mirrors: a TransientNetwork error triggers backoff and
// reconnect, a ProtocolDecode error drops one frame, and so on.
type Kind int

const (
	TransientNetwork Kind = iota
	ProtocolDecode
	ProtocolNack
	SymbolDiscoveryFailure
	ConfigError
	FatalInternal
)

func (k Kind) String() string {
	switch k {
	case TransientNetwork:
		return "transient_network"
	case ProtocolDecode:
		return "protocol_decode"
	case ProtocolNack:
		return "protocol_nack"
	case SymbolDiscoveryFailure:
		return "symbol_discovery_failure"
	case ConfigError:
		return "config_error"
	case FatalInternal:
		return "fatal_internal"
	default:
		return "unknown"
	}
}

// CoreError wraps an underlying error with a Kind and the venue it occurred
// on (empty for venue-agnostic errors such as ConfigError).
type CoreError struct {
	Kind  Kind
	Venue model.Venue
	Err   error
}

func New(kind Kind, venue model.Venue, err error) *CoreError {
	return &CoreError{Kind: kind, Venue: venue, Err: err}
}

func (e *CoreError) Error() string {
	if e.Venue == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Venue, e.Err)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}
