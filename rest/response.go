package rest

import (
	"bytes"
	"encoding/json"
	"iter"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is the outcome of one request: the status code and the body text.
// A Response never changes after the dispatcher hands it out.
type Response struct {
	status  int
	text    string
	header  http.Header
	elapsed time.Duration
}

// NewResponse creates a Response with the given status code and body text.
func NewResponse(status int, text string) *Response {
	return &Response{status: status, text: text, header: make(http.Header)}
}

// Status returns the HTTP status code.
func (r *Response) Status() int { return r.status }

// Text returns the response body. It is empty when the server sent nothing.
func (r *Response) Text() string { return r.text }

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header { return r.header.Clone() }

// Elapsed returns the time from dispatch to the end of the body.
func (r *Response) Elapsed() time.Duration { return r.elapsed }

// Success reports whether the status code is exactly 200.
// Other 2xx codes, such as 201 or 204, are not considered a success.
func (r *Response) Success() bool {
	return r.status == http.StatusOK
}

// decodable is the guard shared by the JSON decoders.
func (r *Response) decodable() bool {
	return r.text != "" && r.Success()
}

// DecodeJSON parses the body into a T.
//
// The second result is false, with a nil error, when the response is not a
// success, when the body is empty, or when the body is the JSON literal null.
// In those cases nothing is parsed. Malformed JSON in a successful response
// is returned as an error and is not reported as absent.
//
// Example:
//
//	user, ok, err := rest.DecodeJSON[User](resp)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if ok {
//	    fmt.Println(user.Name)
//	}
func DecodeJSON[T any](r *Response) (T, bool, error) {
	var zero T
	if !r.decodable() {
		return zero, false, nil
	}
	var v *T
	if err := json.Unmarshal([]byte(r.text), &v); err != nil {
		return zero, false, err
	}
	if v == nil {
		return zero, false, nil
	}
	return *v, true, nil
}

// DecodeJSONArray parses the body as a JSON array of T and returns its
// elements as a sequence that can be ranged over any number of times.
//
// It applies the same guard as DecodeJSON: a non-success response, an empty
// body or a null literal yields an empty sequence and a nil error. Each call
// parses the body again; nothing is cached on the Response.
func DecodeJSONArray[T any](r *Response) (iter.Seq[T], error) {
	if !r.decodable() {
		return emptySeq[T], nil
	}
	var items []T
	if err := json.Unmarshal([]byte(r.text), &items); err != nil {
		return nil, err
	}
	return slices.Values(items), nil
}

func emptySeq[T any](func(T) bool) {}

// Lookup extracts a value from the JSON body. The path can use gjson syntax
// ("users.0.name") or a JSONPath-like form ("$.users[0].name").
// The second result is false when the path does not exist.
func (r *Response) Lookup(path string) (gjson.Result, bool) {
	res := gjson.Get(r.text, toGJSONPath(path))
	return res, res.Exists()
}

// toGJSONPath rewrites the subset of JSONPath used by the CLI:
// a leading "$", bracketed indexes and quoted bracket keys.
func toGJSONPath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		return path
	}
	path = strings.TrimPrefix(path[1:], ".")
	if path == "" {
		return "@this"
	}

	var out bytes.Buffer
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c != '[' {
			out.WriteByte(c)
			continue
		}
		end := strings.IndexByte(path[i:], ']')
		if end < 0 {
			out.WriteString(path[i:])
			break
		}
		seg := strings.Trim(path[i+1:i+end], `'"`)
		if out.Len() > 0 {
			out.WriteByte('.')
		}
		out.WriteString(seg)
		i += end
	}
	return out.String()
}
