package rest

import "github.com/pkg/errors"

var (
	// ErrUnknownProtocol is returned when a Protocol has no scheme mapping.
	ErrUnknownProtocol = errors.New("rest: unknown protocol")

	// ErrUnknownMethod is returned when a Method has no wire representation.
	ErrUnknownMethod = errors.New("rest: unknown method")

	// ErrMalformedURL is returned when the assembled URL cannot be parsed.
	ErrMalformedURL = errors.New("rest: malformed url")

	// ErrInvalidOption is returned for an Option that is neither a param nor a header,
	// which only happens for the zero value.
	ErrInvalidOption = errors.New("rest: option is neither param nor header")
)
