package cli

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wesleyorama2/restup/internal/logger"
	"github.com/wesleyorama2/restup/internal/output"
	"github.com/wesleyorama2/restup/internal/rate"
	"github.com/wesleyorama2/restup/internal/schema"
	"github.com/wesleyorama2/restup/internal/stats"
	"github.com/wesleyorama2/restup/rest"
)

const defaultChunkSize = 32 * 1024

func addRequestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Connection
	flags.StringP("profile", "P", "", "Profile to use from the config file")
	flags.String("config", "", "Profile file (YAML or JSON, default $RESTUP_CONFIG)")
	flags.String("host", "", "Server host, overrides the profile and URL")
	flags.Int("port", -1, "Server port, overrides the profile and URL")
	flags.Bool("https", false, "Use HTTPS")
	flags.String("user", "", "Basic auth username")
	flags.String("password", "", "Basic auth password")
	flags.DurationP("timeout", "t", 0, "Request timeout (0 waits forever)")
	flags.BoolP("insecure", "k", false, "Skip TLS certificate verification")

	// Request
	flags.StringArrayP("param", "q", []string{}, "Query parameter key=value (can be used multiple times)")
	flags.StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	flags.StringP("data", "d", "", "Request body")
	flags.StringP("json", "j", "", "JSON request body, sets Content-Type unless given")
	flags.String("data-file", "", "Stream the request body from a file ('-' for stdin)")
	flags.Int("chunk-size", defaultChunkSize, "Chunk size in bytes when streaming --data-file")

	// Response
	flags.String("extract", "", "Print the value at a JSON path such as $.items[0].id")
	flags.String("schema", "", "Validate the response body against a JSON schema file")
	flags.Bool("fail", false, "Exit with an error on any non-200 response")

	// Repetition
	flags.Int("repeat", 1, "Send the request N times and print latency statistics")
	flags.Float64("rate", 0, "Requests per second when repeating (0 is unpaced)")

	// Output
	flags.StringP("output", "o", "text", "Output format (text, json, yaml)")
	flags.BoolP("verbose", "v", false, "Enable verbose output and debug logging")
	flags.String("log-level", "warn", "Log level on stderr (debug, info, warn, error)")
	flags.Bool("no-color", false, "Disable colored output")
}

func runRequest(cmd *cobra.Command, method rest.Method, arg string) error {
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	noColor, _ := flags.GetBool("no-color")
	formatName, _ := flags.GetString("output")
	timeout, _ := flags.GetDuration("timeout")
	insecure, _ := flags.GetBool("insecure")
	repeat, _ := flags.GetInt("repeat")
	perSecond, _ := flags.GetFloat64("rate")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
	}

	logLevel, _ := flags.GetString("log-level")
	level := logger.ParseLevel(logLevel)
	if verbose {
		level = zapcore.DebugLevel
	}
	log := logger.New(cmd.ErrOrStderr(), level)
	defer log.Sync()

	t, notes, err := resolveTarget(cmd, arg)
	if err != nil {
		return err
	}
	for _, note := range notes {
		log.Info(note)
	}

	newBody, bodyDesc, err := bodySource(cmd, repeat)
	if err != nil {
		return err
	}
	if jsonData, _ := flags.GetString("json"); jsonData != "" && !hasHeader(t.options, "Content-Type") {
		// Caller headers are applied in order, so this default goes first.
		t.options = append([]rest.Option{rest.Header("Content-Type", "application/json")}, t.options...)
	}

	client := rest.NewClient(t.protocol, t.host, t.port, clientOptions(t, timeout, insecure, log)...)

	info, err := requestInfo(method, t, bodyDesc)
	if err != nil {
		return err
	}

	formatter := output.GetFormatter(format, verbose, output.ColorDisabled(noColor))
	out := cmd.OutOrStdout()

	fmt.Fprint(out, formatter.FormatRequest(info))

	if repeat > 1 {
		return runRepeated(cmd.Context(), cmd, log, client, method, t, newBody, repeat, perSecond, formatter)
	}

	body, stream := newBody()
	resp, err := client.Send(method, t.path, body, t.options...).Await(cmd.Context())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	// A failed read ends the body early, so the server saw a truncated upload.
	if err := stream.Err(); err != nil {
		return fmt.Errorf("error reading data file: %w", err)
	}

	fmt.Fprint(out, formatter.FormatResponse(resp))

	return checkResponse(cmd, resp)
}

func clientOptions(t target, timeout time.Duration, insecure bool, log *zap.Logger) []rest.ClientOption {
	opts := []rest.ClientOption{
		rest.WithLogger(log),
		rest.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if insecure {
		opts = append(opts, rest.WithInsecureSkipVerify())
	}
	if t.username != nil {
		opts = append(opts, rest.WithUsername(*t.username))
	}
	if t.password != nil {
		opts = append(opts, rest.WithPassword(*t.password))
	}
	return opts
}

// requestInfo describes the request for display, using the same URL the
// client will build.
func requestInfo(method rest.Method, t target, bodyDesc string) (output.RequestInfo, error) {
	params, headers, err := rest.Partition(t.options)
	if err != nil {
		return output.RequestInfo{}, err
	}
	u, err := rest.BuildURL(t.protocol, t.host, t.port, t.path, params)
	if err != nil {
		return output.RequestInfo{}, err
	}
	return output.RequestInfo{
		Method:  method,
		URL:     u.String(),
		Headers: headers,
		Body:    bodyDesc,
	}, nil
}

// checkResponse applies --extract, --schema and --fail to a single response.
func checkResponse(cmd *cobra.Command, resp *rest.Response) error {
	flags := cmd.Flags()
	extract, _ := flags.GetString("extract")
	schemaPath, _ := flags.GetString("schema")
	fail, _ := flags.GetBool("fail")
	noColor, _ := flags.GetBool("no-color")
	out := cmd.OutOrStdout()

	if extract != "" {
		value, ok := resp.Lookup(extract)
		if !ok {
			return fmt.Errorf("path %s not found in response", extract)
		}
		fmt.Fprintln(out, value.String())
	}

	if schemaPath != "" {
		validator, err := schema.CompileFile(schemaPath)
		if err != nil {
			return err
		}
		if err := validator.Validate(resp.Text()); err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Response matches schema %s\n", output.SuccessIcon(noColor), schemaPath)
	}

	if fail && !resp.Success() {
		return fmt.Errorf("unexpected status %d", resp.Status())
	}
	return nil
}

// runRepeated sends the request repeat times, optionally paced, and prints a
// latency summary once every request has completed.
func runRepeated(
	ctx context.Context,
	cmd *cobra.Command,
	log *zap.Logger,
	client *rest.Client,
	method rest.Method,
	t target,
	newBody bodyFactory,
	repeat int,
	perSecond float64,
	formatter output.FormatProvider,
) error {
	recorder := stats.NewRecorder()

	var bucket *rate.LeakyBucket
	if perSecond > 0 {
		bucket = rate.NewLeakyBucket(perSecond)
		log.Debug("pacing requests", zap.Duration("interval", bucket.Interval()))
	}

	var wg sync.WaitGroup
	for range repeat {
		if bucket != nil {
			if err := bucket.Wait(ctx); err != nil {
				break
			}
		}

		start := time.Now()
		body, stream := newBody()
		future := client.Send(method, t.path, body, t.options...)

		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := future.Wait()
			if err != nil {
				recorder.Record(time.Since(start), 0, false, err)
				return
			}
			if err := stream.Err(); err != nil {
				log.Warn("request body truncated", zap.Error(err))
				recorder.Record(resp.Elapsed(), resp.Status(), false, fmt.Errorf("error reading data file: %w", err))
				return
			}
			recorder.Record(resp.Elapsed(), resp.Status(), resp.Success(), nil)
		}()
	}
	wg.Wait()

	summary := recorder.Summary()
	if bucket != nil {
		summary.Pacing = bucket.Interval()
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSummary(summary))

	if summary.Errors > 0 {
		return fmt.Errorf("%d of %d requests failed", summary.Errors, summary.Requests)
	}
	if fail, _ := cmd.Flags().GetBool("fail"); fail && summary.Failures > 0 {
		return fmt.Errorf("%d of %d responses were not 200", summary.Failures, summary.Requests)
	}
	return nil
}

// bodyFactory builds a fresh body for one request. The streamError reports
// read failures of a streamed body once the request is done; it is nil for
// bodies that cannot fail.
type bodyFactory func() (rest.Body, *streamError)

// streamError keeps the first error hit while producing a streamed body.
type streamError struct {
	mu  sync.Mutex
	err error
}

func (s *streamError) set(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the recorded error, if any.
func (s *streamError) Err() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// bodySource returns a factory for a fresh body per request, and a short
// description of it for display.
func bodySource(cmd *cobra.Command, repeat int) (bodyFactory, string, error) {
	flags := cmd.Flags()
	data, _ := flags.GetString("data")
	jsonData, _ := flags.GetString("json")
	file, _ := flags.GetString("data-file")
	chunkSize, _ := flags.GetInt("chunk-size")

	set := 0
	for _, s := range []string{data, jsonData, file} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return nil, "", fmt.Errorf("only one of --data, --json and --data-file may be given")
	}
	if chunkSize <= 0 {
		return nil, "", fmt.Errorf("--chunk-size must be positive, got %d", chunkSize)
	}

	if jsonData != "" {
		data = jsonData
	}

	switch {
	case data != "":
		return func() (rest.Body, *streamError) { return rest.String(data), nil }, data, nil
	case file == "-":
		if repeat > 1 {
			return nil, "", fmt.Errorf("cannot repeat a request whose body is read from stdin")
		}
		stdin := cmd.InOrStdin()
		return func() (rest.Body, *streamError) {
			stream := &streamError{}
			return rest.Seq(readChunks(stdin, chunkSize, stream)), stream
		}, "<stdin>", nil
	case file != "":
		info, err := os.Stat(file)
		if err != nil {
			return nil, "", fmt.Errorf("error reading data file: %w", err)
		}
		desc := fmt.Sprintf("<%s, %d bytes>", file, info.Size())
		return func() (rest.Body, *streamError) {
			stream := &streamError{}
			return rest.Seq(fileChunks(file, chunkSize, stream)), stream
		}, desc, nil
	default:
		return func() (rest.Body, *streamError) { return nil, nil }, "", nil
	}
}

// readChunks yields r in pieces of at most size bytes until EOF. Any other
// read error ends the sequence and is recorded in stream.
func readChunks(r io.Reader, size int, stream *streamError) iter.Seq[string] {
	return func(yield func(string) bool) {
		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 && !yield(string(buf[:n])) {
				return
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				stream.set(err)
				return
			}
		}
	}
}

// fileChunks opens path lazily, when the first chunk is pulled.
func fileChunks(path string, size int, stream *streamError) iter.Seq[string] {
	return func(yield func(string) bool) {
		f, err := os.Open(path)
		if err != nil {
			stream.set(err)
			return
		}
		defer f.Close()

		for chunk := range readChunks(f, size, stream) {
			if !yield(chunk) {
				return
			}
		}
	}
}

func hasHeader(options []rest.Option, name string) bool {
	for _, o := range options {
		if o.Kind() == rest.KindHeader && strings.EqualFold(o.Key(), name) {
			return true
		}
	}
	return false
}
