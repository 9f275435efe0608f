package rest

import (
	"bufio"
	"crypto/tls"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Pool runs dispatched requests in the background.
// *ants.Pool satisfies it.
type Pool interface {
	Submit(task func()) error
}

// PoolFunc adapts a submit function, such as ants.Submit, to Pool.
type PoolFunc func(task func()) error

// Submit calls f.
func (f PoolFunc) Submit(task func()) error { return f(task) }

// Client issues requests against a single host. Its configuration is fixed
// by NewClient and read concurrently by every request.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	protocol Protocol
	host     string
	port     int
	username *string
	password *string

	httpClient *http.Client
	pool       Pool
	logger     *zap.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for protocol://host:port. A port of zero or less
// leaves the port out of request URLs so the scheme default applies.
//
// Example:
//
//	client := rest.NewClient(rest.HTTPS, "api.example.com", 8443,
//	    rest.WithBasicAuth("user", "secret"),
//	)
//
//	resp, err := client.Get("users", rest.Param("limit", "10")).Wait()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Status(), resp.Text())
func NewClient(protocol Protocol, host string, port int, options ...ClientOption) *Client {
	client := &Client{
		protocol:   protocol,
		host:       host,
		port:       port,
		httpClient: &http.Client{},
		pool:       PoolFunc(ants.Submit),
		logger:     zap.NewNop(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBasicAuth configures HTTP Basic authentication for every request.
func WithBasicAuth(username, password string) ClientOption {
	return func(c *Client) {
		c.username = &username
		c.password = &password
	}
}

// WithUsername sets only the username. Authentication is sent only once a
// password is configured as well.
func WithUsername(username string) ClientOption {
	return func(c *Client) {
		c.username = &username
	}
}

// WithPassword sets only the password. Authentication is sent only once a
// username is configured as well.
func WithPassword(password string) ClientOption {
	return func(c *Client) {
		c.password = &password
	}
}

// WithHTTPClient sets the *http.Client used to perform requests.
// Use it to configure timeouts, proxies or custom transports.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// WARNING: This should only be used for testing purposes.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithPool sets the pool requests are dispatched on. The default is the
// process-wide ants pool.
func WithPool(pool Pool) ClientOption {
	return func(c *Client) {
		c.pool = pool
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Protocol returns the configured protocol.
func (c *Client) Protocol() Protocol { return c.protocol }

// Host returns the configured host.
func (c *Client) Host() string { return c.host }

// Port returns the configured port.
func (c *Client) Port() int { return c.port }

// Get sends a GET request without a body.
func (c *Client) Get(path string, options ...Option) *Future {
	return c.Send(GET, path, nil, options...)
}

// Post sends a POST request without a body.
func (c *Client) Post(path string, options ...Option) *Future {
	return c.Send(POST, path, nil, options...)
}

// Put sends a PUT request without a body.
func (c *Client) Put(path string, options ...Option) *Future {
	return c.Send(PUT, path, nil, options...)
}

// Delete sends a DELETE request without a body.
func (c *Client) Delete(path string, options ...Option) *Future {
	return c.Send(DELETE, path, nil, options...)
}

// Options sends an OPTIONS request without a body.
func (c *Client) Options(path string, options ...Option) *Future {
	return c.Send(OPTIONS, path, nil, options...)
}

// GetWithBody sends a GET request whose body is produced by body.
func (c *Client) GetWithBody(path string, body Body, options ...Option) *Future {
	return c.Send(GET, path, body, options...)
}

// PostWithBody sends a POST request whose body is produced by body.
func (c *Client) PostWithBody(path string, body Body, options ...Option) *Future {
	return c.Send(POST, path, body, options...)
}

// PutWithBody sends a PUT request whose body is produced by body.
func (c *Client) PutWithBody(path string, body Body, options ...Option) *Future {
	return c.Send(PUT, path, body, options...)
}

// DeleteWithBody sends a DELETE request whose body is produced by body.
func (c *Client) DeleteWithBody(path string, body Body, options ...Option) *Future {
	return c.Send(DELETE, path, body, options...)
}

// OptionsWithBody sends an OPTIONS request whose body is produced by body.
func (c *Client) OptionsWithBody(path string, body Body, options ...Option) *Future {
	return c.Send(OPTIONS, path, body, options...)
}

// Send dispatches one request on the client's pool and returns immediately.
// A nil body sends no body. Any failure, including a malformed URL or an
// I/O error, rejects the returned Future; nothing is retried.
func (c *Client) Send(method Method, path string, body Body, options ...Option) *Future {
	f := newFuture()
	options = slices.Clone(options)

	task := func() {
		var (
			resp *Response
			err  error
		)
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("rest: request panicked: %v", r)
			}
			c.trace(method, path, resp, err)
			f.complete(resp, err)
		}()
		resp, err = c.do(method, path, body, options)
	}

	if err := c.pool.Submit(task); err != nil {
		return failedFuture(errors.Wrap(err, "rest: could not submit request"))
	}
	return f
}

func (c *Client) trace(method Method, path string, resp *Response, err error) {
	if err != nil {
		c.logger.Debug("request failed",
			zap.Stringer("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("request completed",
		zap.Stringer("method", method),
		zap.String("path", path),
		zap.Int("status", resp.status),
		zap.Duration("elapsed", resp.elapsed),
	)
}

// do performs the round trip on the calling goroutine.
func (c *Client) do(method Method, path string, body Body, options []Option) (*Response, error) {
	start := time.Now()

	// Release pull iterators even when the request never reaches the wire.
	if closer, ok := body.(io.Closer); ok {
		defer closer.Close()
	}

	params, headers, err := Partition(options)
	if err != nil {
		return nil, err
	}

	u, err := BuildURL(c.protocol, c.host, c.port, path, params)
	if err != nil {
		return nil, err
	}

	verb, err := method.Wire()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = newBodyReader(body)
	}

	req, err := http.NewRequest(verb, u.String(), reader)
	if err != nil {
		return nil, errors.Wrapf(err, "rest: could not create %s request", verb)
	}
	// Every request owns its connection; it is torn down with the response.
	req.Close = true

	if c.username != nil && c.password != nil {
		req.SetBasicAuth(*c.username, *c.password)
	}
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}

	c.logger.Debug("dispatching request",
		zap.String("method", verb),
		zap.Stringer("url", u),
		zap.Bool("body", body != nil),
	)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "rest: could not send request")
	}
	defer httpResp.Body.Close()

	text, err := readText(httpResp.Body, httpResp.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.Wrapf(err, "rest: could not read response to %s %s", verb, u)
	}

	return &Response{
		status:  httpResp.StatusCode,
		text:    text,
		header:  httpResp.Header.Clone(),
		elapsed: time.Since(start),
	}, nil
}

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// readText reads the body line by line and joins the lines without
// separators. Bytes are decoded with the charset named in contentType, or as
// UTF-8 when none is given; invalid sequences become U+FFFD.
func readText(r io.Reader, contentType string) (string, error) {
	br := bufio.NewReader(decodeCharset(r, contentType))

	var sb strings.Builder
	for {
		line, err := br.ReadString('\n')
		sb.WriteString(lineBreaks.Replace(line))
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.ToValidUTF8(sb.String(), "\uFFFD"), nil
}

func decodeCharset(r io.Reader, contentType string) io.Reader {
	if contentType == "" {
		return r
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}
	label := params["charset"]
	if label == "" {
		return r
	}
	enc, name := charset.Lookup(label)
	if enc == nil || name == "utf-8" {
		return r
	}
	return enc.NewDecoder().Reader(r)
}
