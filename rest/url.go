package rest

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BuildURL assembles scheme://host[:port]/path[?k=v&...].
//
// The port is included only when it is positive. The path is appended after a
// single slash exactly as given. Param keys and values are query-escaped one by
// one and emitted in the order supplied. Options that are not params are
// ignored here; use Partition first.
func BuildURL(protocol Protocol, host string, port int, path string, params []Option) (*url.URL, error) {
	scheme, err := protocol.Scheme()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	if port > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(port))
	}
	b.WriteByte('/')
	b.WriteString(path)

	sep := byte('?')
	for _, p := range params {
		if p.kind != KindParam {
			continue
		}
		b.WriteByte(sep)
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
		sep = '&'
	}

	raw := b.String()
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedURL, "%q: %v", raw, err)
	}
	if u.Host == "" {
		return nil, errors.Wrapf(ErrMalformedURL, "%q: missing host", raw)
	}
	return u, nil
}
