package rest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newTestClient points a Client at server, picking the protocol from its URL.
func newTestClient(t *testing.T, server *httptest.Server, options ...ClientOption) *Client {
	t.Helper()

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	protocol := HTTP
	if server.TLS != nil {
		protocol = HTTPS
	}

	options = append([]ClientOption{WithHTTPClient(server.Client())}, options...)
	return NewClient(protocol, host, port, options...)
}

// captured records what the test server saw.
type captured struct {
	method string
	uri    string
	header http.Header
	body   string
	length int64
	close  bool
}

func recordingHandler(seen chan<- captured, status int, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen <- captured{
			method: r.Method,
			uri:    r.URL.RequestURI(),
			header: r.Header.Clone(),
			body:   string(body),
			length: r.ContentLength,
			close:  r.Close,
		}
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}
}

func recordingServer(t *testing.T, status int, reply string) (*httptest.Server, <-chan captured) {
	t.Helper()
	seen := make(chan captured, 1)
	server := httptest.NewServer(recordingHandler(seen, status, reply))
	t.Cleanup(server.Close)
	return server, seen
}

func TestClient_Get(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `{"name":"ada"}`)
	client := newTestClient(t, server)

	resp, err := client.Get("users", Param("limit", "10"), Param("q", "a b"), Header("Accept", "application/json")).Wait()
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "/users?limit=10&q=a+b", got.uri)
	assert.Equal(t, "application/json", got.header.Get("Accept"))
	assert.Empty(t, got.header.Get("Authorization"))
	assert.Empty(t, got.body)
	assert.True(t, got.close, "connection should not be kept alive")

	assert.Equal(t, 200, resp.Status())
	assert.True(t, resp.Success())
	assert.Equal(t, `{"name":"ada"}`, resp.Text())
	assert.True(t, resp.Elapsed() > 0)
}

func TestClient_PostWithBasicAuth(t *testing.T) {
	seen := make(chan captured, 1)
	server := httptest.NewTLSServer(recordingHandler(seen, http.StatusCreated, ""))
	defer server.Close()

	client := newTestClient(t, server, WithBasicAuth("u", "p"))
	assert.Equal(t, HTTPS, client.Protocol())

	resp, err := client.PostWithBody("items", String(`{"id":1}`), Header("X-Trace", "1")).Wait()
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "/items", got.uri)
	assert.Equal(t, "1", got.header.Get("X-Trace"))
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("u:p")), got.header.Get("Authorization"))
	assert.Equal(t, `{"id":1}`, got.body)
	assert.Equal(t, int64(8), got.length)

	assert.Equal(t, http.StatusCreated, resp.Status())
	assert.False(t, resp.Success())
}

func TestClient_PartialCredentials(t *testing.T) {
	tests := []struct {
		name string
		opts []ClientOption
		auth bool
	}{
		{"none", nil, false},
		{"username only", []ClientOption{WithUsername("u")}, false},
		{"password only", []ClientOption{WithPassword("p")}, false},
		{"both separately", []ClientOption{WithUsername("u"), WithPassword("p")}, true},
		{"empty strings still count", []ClientOption{WithBasicAuth("", "")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, seen := recordingServer(t, http.StatusOK, "")
			_, err := newTestClient(t, server, tt.opts...).Get("x").Wait()
			require.NoError(t, err)

			got := <-seen
			assert.Equal(t, tt.auth, got.header.Get("Authorization") != "")
		})
	}
}

func TestClient_HeadersLastWins(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, "")
	client := newTestClient(t, server, WithBasicAuth("u", "p"))

	_, err := client.Get("x",
		Header("X-Dup", "first"),
		Header("X-Dup", "second"),
		Header("Authorization", "Bearer token"),
	).Wait()
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, []string{"second"}, got.header.Values("X-Dup"))
	assert.Equal(t, "Bearer token", got.header.Get("Authorization"))
}

func TestClient_StreamedBody(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, "")
	client := newTestClient(t, server)

	_, err := client.PutWithBody("upload", Chunks("a", "b", "c")).Wait()
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "PUT", got.method)
	assert.Equal(t, "abc", got.body)
}

func TestClient_SeqBody(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, "")
	client := newTestClient(t, server)

	lines := func(yield func(string) bool) {
		for i := range 3 {
			if !yield(fmt.Sprintf("line%d;", i)) {
				return
			}
		}
	}

	_, err := client.PostWithBody("import", Seq(lines)).Wait()
	require.NoError(t, err)
	assert.Equal(t, "line0;line1;line2;", (<-seen).body)
}

func TestClient_SeqBodyEarlyResponse(t *testing.T) {
	// The handler answers without reading the body, so the transport abandons
	// the upload while the dispatcher is finishing the request.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	chunk := strings.Repeat("x", 64*1024)
	var stopped atomic.Int32
	endless := func(yield func(string) bool) {
		defer stopped.Add(1)
		for yield(chunk) {
		}
	}

	const requests = 50
	futures := make([]*Future, requests)
	for i := range futures {
		futures[i] = client.PostWithBody("up", Seq(endless))
	}
	for _, f := range futures {
		resp, err := f.Wait()
		if err == nil {
			assert.Equal(t, http.StatusOK, resp.Status())
		}
	}

	assert.Equal(t, int32(requests), stopped.Load(), "every sequence is stopped once its request ends")
}

func TestClient_AllMethods(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, "")
	client := newTestClient(t, server)

	calls := []struct {
		want string
		call func() *Future
	}{
		{"GET", func() *Future { return client.Get("m") }},
		{"POST", func() *Future { return client.Post("m") }},
		{"PUT", func() *Future { return client.Put("m") }},
		{"DELETE", func() *Future { return client.Delete("m") }},
		{"OPTIONS", func() *Future { return client.Options("m") }},
		{"GET", func() *Future { return client.GetWithBody("m", String("b")) }},
		{"DELETE", func() *Future { return client.DeleteWithBody("m", String("b")) }},
		{"OPTIONS", func() *Future { return client.OptionsWithBody("m", String("b")) }},
	}

	for _, c := range calls {
		_, err := c.call().Wait()
		require.NoError(t, err)
		assert.Equal(t, c.want, (<-seen).method)
	}
}

func TestClient_ResponseLinesJoined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{\n  \"a\": 1,\r\n  \"b\": 2\n}\n")
	}))
	defer server.Close()

	resp, err := newTestClient(t, server).Get("x").Wait()
	require.NoError(t, err)
	assert.Equal(t, `{  "a": 1,  "b": 2}`, resp.Text())
}

func TestClient_ResponseCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=ISO-8859-1")
		w.Write([]byte{'c', 'a', 'f', 0xE9})
	}))
	defer server.Close()

	resp, err := newTestClient(t, server).Get("x").Wait()
	require.NoError(t, err)
	assert.Equal(t, "café", resp.Text())
}

func TestClient_InvalidUTF8Replaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte{'o', 'k', 0xFF})
	}))
	defer server.Close()

	resp, err := newTestClient(t, server).Get("x").Wait()
	require.NoError(t, err)
	assert.Equal(t, "ok\uFFFD", resp.Text())
}

func TestClient_ErrorStatusIsResolved(t *testing.T) {
	server, _ := recordingServer(t, http.StatusNotFound, `{"error":"missing"}`)

	resp, err := newTestClient(t, server).Get("missing").Wait()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status())
	assert.Equal(t, `{"error":"missing"}`, resp.Text())

	_, ok, err := DecodeJSON[map[string]string](resp)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Failures(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		ln.Close()

		_, err = NewClient(HTTP, "127.0.0.1", port).Get("x").Wait()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not send request")

		var netErr net.Error
		assert.True(t, errors.As(err, &netErr), "underlying network error should be reachable")
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := NewClient(HTTP, "bad host", -1).Get("x").Wait()
		assert.ErrorIs(t, err, ErrMalformedURL)
	})

	t.Run("unknown protocol", func(t *testing.T) {
		_, err := NewClient(Protocol(7), "example.com", -1).Get("x").Wait()
		assert.ErrorIs(t, err, ErrUnknownProtocol)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := NewClient(HTTP, "example.com", -1).Send(Method(0), "x", nil).Wait()
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("zero option", func(t *testing.T) {
		_, err := NewClient(HTTP, "example.com", -1).Get("x", Option{}).Wait()
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("pool rejects", func(t *testing.T) {
		full := errors.New("pool is full")
		client := NewClient(HTTP, "example.com", -1, WithPool(PoolFunc(func(func()) error {
			return full
		})))
		_, err := client.Get("x").Wait()
		assert.ErrorIs(t, err, full)
	})
}

func TestClient_AwaitDoesNotCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		io.WriteString(w, "late")
	}))
	defer server.Close()

	f := newTestClient(t, server).Get("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	resp, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", resp.Text())
}

func TestClient_ConcurrentRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.URL.Query().Get("n"))
	}))
	defer server.Close()

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	client := newTestClient(t, server, WithPool(pool))

	const n = 32
	futures := make([]*Future, n)
	for i := range n {
		futures[i] = client.Get("echo", Param("n", strconv.Itoa(i)))
	}

	var wg sync.WaitGroup
	for i, f := range futures {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.Wait()
			if assert.NoError(t, err) {
				assert.Equal(t, strconv.Itoa(i), resp.Text())
			}
		}()
	}
	wg.Wait()
}

func TestClient_Logging(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, "ok")

	core, logs := observer.New(zapcore.DebugLevel)
	client := newTestClient(t, server, WithLogger(zap.New(core)))

	_, err := client.Get("logged").Wait()
	require.NoError(t, err)

	// The completion entry is written before the future resolves.
	assert.Equal(t, 1, logs.FilterMessage("dispatching request").Len())
	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
}
