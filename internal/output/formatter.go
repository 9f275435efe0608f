package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wesleyorama2/restup/internal/stats"
	"github.com/wesleyorama2/restup/rest"
)

// RequestInfo describes an outgoing request for display.
type RequestInfo struct {
	Method  rest.Method
	URL     string
	Headers []rest.Option
	Body    string // description of the body source, empty for none
}

// Formatter is responsible for formatting requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool
	colors  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		colors:  NewColorScheme(noColor),
	}
}

// FormatRequest formats a request for display
func (f *Formatter) FormatRequest(req RequestInfo) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.colors.Method.Sprint(req.Method.String()),
		f.colors.URL.Sprint(req.URL)))

	if f.Verbose || len(req.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		for _, h := range req.Headers {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.HeaderKey.Sprint(h.Key()), h.Value()))
		}
	}

	if req.Body != "" {
		buf.WriteString(fmt.Sprintf("  Body: %s\n", req.Body))
	}

	return buf.String()
}

// FormatResponse formats a response for display
func (f *Formatter) FormatResponse(resp *rest.Response) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.colors.Status(resp.Status()).Sprint(resp.Status()),
		resp.Elapsed().Milliseconds()))

	if f.Verbose {
		header := resp.Header()
		keys := make([]string, 0, len(header))
		for key := range header {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		buf.WriteString("  Headers:\n")
		for _, key := range keys {
			for _, value := range header[key] {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.HeaderKey.Sprint(key), value))
			}
		}
	}

	if body := resp.Text(); body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatSummary formats the aggregate of a repeated run
func (f *Formatter) FormatSummary(s stats.Summary) string {
	var buf strings.Builder

	buf.WriteString(f.colors.Label.Sprint("■ SUMMARY"))
	buf.WriteString(fmt.Sprintf(": %d requests in %s (%.1f req/s)\n",
		s.Requests, s.Elapsed.Round(time.Millisecond), s.RPS))
	buf.WriteString(fmt.Sprintf("  Success: %d  Non-200: %d  Errors: %d\n",
		s.Successes, s.Failures, s.Errors))
	if s.Pacing > 0 {
		buf.WriteString(fmt.Sprintf("  Pacing: one request every %s\n", s.Pacing))
	}

	if len(s.Statuses) > 0 {
		codes := make([]int, 0, len(s.Statuses))
		for code := range s.Statuses {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		buf.WriteString("  Status codes:\n")
		for _, code := range codes {
			buf.WriteString(fmt.Sprintf("    %s: %d\n", f.colors.Status(code).Sprint(code), s.Statuses[code]))
		}
	}

	if s.Requests > 0 {
		buf.WriteString("  Latency:\n")
		buf.WriteString(fmt.Sprintf("    min %s  mean %s  max %s\n", s.Min, s.Mean, s.Max))
		buf.WriteString(fmt.Sprintf("    p50 %s  p90 %s  p95 %s  p99 %s\n", s.P50, s.P90, s.P95, s.P99))
	}

	return buf.String()
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return "  " + s
	}
	return "  " + prettyJSON.String()
}
