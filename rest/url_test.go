package rest

import (
	"errors"
	"testing"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		protocol Protocol
		host     string
		port     int
		path     string
		params   []Option
		expected string
	}{
		{
			name:     "default port omitted",
			protocol: HTTP,
			host:     "example.com",
			port:     -1,
			path:     "users",
			expected: "http://example.com/users",
		},
		{
			name:     "zero port omitted",
			protocol: HTTPS,
			host:     "example.com",
			port:     0,
			path:     "users",
			expected: "https://example.com/users",
		},
		{
			name:     "explicit port",
			protocol: HTTPS,
			host:     "api.test",
			port:     8443,
			path:     "items",
			expected: "https://api.test:8443/items",
		},
		{
			name:     "params keep caller order",
			protocol: HTTP,
			host:     "example.com",
			port:     8080,
			path:     "search",
			params:   []Option{Param("z", "1"), Param("a", "2"), Param("m", "3")},
			expected: "http://example.com:8080/search?z=1&a=2&m=3",
		},
		{
			name:     "keys and values are encoded",
			protocol: HTTP,
			host:     "example.com",
			port:     -1,
			path:     "search",
			params:   []Option{Param("q w", "a&b=c"), Param("ü", "/")},
			expected: "http://example.com/search?q+w=a%26b%3Dc&%C3%BC=%2F",
		},
		{
			name:     "path is verbatim",
			protocol: HTTP,
			host:     "example.com",
			port:     -1,
			path:     "/double//slash/",
			expected: "http://example.com//double//slash/",
		},
		{
			name:     "empty path",
			protocol: HTTP,
			host:     "example.com",
			port:     -1,
			path:     "",
			expected: "http://example.com/",
		},
		{
			name:     "headers are not params",
			protocol: HTTP,
			host:     "example.com",
			port:     -1,
			path:     "users",
			params:   []Option{Header("X-Trace", "1")},
			expected: "http://example.com/users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := BuildURL(tt.protocol, tt.host, tt.port, tt.path, tt.params)
			if err != nil {
				t.Fatalf("BuildURL() error = %v", err)
			}
			if u.String() != tt.expected {
				t.Errorf("BuildURL() = %s, want %s", u.String(), tt.expected)
			}
		})
	}
}

func TestBuildURL_Errors(t *testing.T) {
	tests := []struct {
		name     string
		protocol Protocol
		host     string
		want     error
	}{
		{"unknown protocol", Protocol(42), "example.com", ErrUnknownProtocol},
		{"zero protocol", Protocol(0), "example.com", ErrUnknownProtocol},
		{"space in host", HTTP, "bad host", ErrMalformedURL},
		{"bad port in host", HTTP, "example.com:port", ErrMalformedURL},
		{"empty host", HTTP, "", ErrMalformedURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildURL(tt.protocol, tt.host, -1, "x", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("BuildURL() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		in      string
		want    Protocol
		wantErr bool
	}{
		{"http", HTTP, false},
		{"HTTPS", HTTPS, false},
		{" https ", HTTPS, false},
		{"ftp", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProtocol(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProtocol(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseProtocol(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMethod_Wire(t *testing.T) {
	for m, want := range map[Method]string{
		GET:     "GET",
		POST:    "POST",
		PUT:     "PUT",
		DELETE:  "DELETE",
		OPTIONS: "OPTIONS",
	} {
		got, err := m.Wire()
		if err != nil || got != want {
			t.Errorf("%d.Wire() = %q, %v, want %q", int(m), got, err, want)
		}
		parsed, err := ParseMethod(want)
		if err != nil || parsed != m {
			t.Errorf("ParseMethod(%q) = %v, %v, want %v", want, parsed, err, m)
		}
	}

	if _, err := Method(99).Wire(); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Method(99).Wire() error = %v, want ErrUnknownMethod", err)
	}
	if _, err := ParseMethod("PATCH"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("ParseMethod(PATCH) error = %v, want ErrUnknownMethod", err)
	}
}
