package rest

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Protocol selects the URL scheme a Client talks to.
type Protocol int

const (
	HTTP Protocol = iota + 1
	HTTPS
)

// Scheme returns "http" or "https".
func (p Protocol) Scheme() (string, error) {
	switch p {
	case HTTP:
		return "http", nil
	case HTTPS:
		return "https", nil
	default:
		return "", errors.Wrapf(ErrUnknownProtocol, "protocol %d", int(p))
	}
}

func (p Protocol) String() string {
	s, err := p.Scheme()
	if err != nil {
		return fmt.Sprintf("protocol(%d)", int(p))
	}
	return s
}

// ParseProtocol maps "http" or "https" (case-insensitive) to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http":
		return HTTP, nil
	case "https":
		return HTTPS, nil
	default:
		return 0, errors.Wrapf(ErrUnknownProtocol, "%q", s)
	}
}

// Method is one of the HTTP verbs the client can issue.
type Method int

const (
	GET Method = iota + 1
	POST
	PUT
	DELETE
	OPTIONS
)

// Wire returns the method token as sent on the request line.
func (m Method) Wire() (string, error) {
	switch m {
	case GET:
		return "GET", nil
	case POST:
		return "POST", nil
	case PUT:
		return "PUT", nil
	case DELETE:
		return "DELETE", nil
	case OPTIONS:
		return "OPTIONS", nil
	default:
		return "", errors.Wrapf(ErrUnknownMethod, "method %d", int(m))
	}
}

func (m Method) String() string {
	s, err := m.Wire()
	if err != nil {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return s
}

// ParseMethod maps a verb such as "get" or "POST" to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GET":
		return GET, nil
	case "POST":
		return POST, nil
	case "PUT":
		return PUT, nil
	case "DELETE":
		return DELETE, nil
	case "OPTIONS":
		return OPTIONS, nil
	default:
		return 0, errors.Wrapf(ErrUnknownMethod, "%q", s)
	}
}
