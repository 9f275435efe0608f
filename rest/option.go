package rest

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the two flavours of Option.
type Kind int

const (
	// KindParam marks an Option destined for the URL query string.
	KindParam Kind = iota + 1
	// KindHeader marks an Option destined for the request headers.
	KindHeader
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindParam:
		return "param"
	case KindHeader:
		return "header"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Option is a key/value pair that is either a query parameter or a header.
// Options are immutable; build them with Param or Header.
type Option struct {
	kind  Kind
	key   string
	value string
}

// Param creates an Option that is encoded into the request URL as key=value.
func Param(key, value string) Option {
	return Option{kind: KindParam, key: key, value: value}
}

// Header creates an Option that is sent as a request header.
func Header(key, value string) Option {
	return Option{kind: KindHeader, key: key, value: value}
}

// Kind returns whether the option is a param or a header.
func (o Option) Kind() Kind { return o.kind }

// Key returns the parameter or header name.
func (o Option) Key() string { return o.key }

// Value returns the parameter or header value.
func (o Option) Value() string { return o.value }

func (o Option) String() string {
	return fmt.Sprintf("%s(%s=%s)", o.kind, o.key, o.value)
}

// Partition splits options into params and headers. Relative order is kept
// within each output and every option ends up in exactly one of them.
// An option without a kind aborts the split with ErrInvalidOption.
func Partition(options []Option) (params, headers []Option, err error) {
	for i, o := range options {
		switch o.kind {
		case KindParam:
			params = append(params, o)
		case KindHeader:
			headers = append(headers, o)
		default:
			return nil, nil, errors.Wrapf(ErrInvalidOption, "index %d", i)
		}
	}
	return params, headers, nil
}
