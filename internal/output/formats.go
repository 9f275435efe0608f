package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/restup/internal/stats"
	"github.com/wesleyorama2/restup/rest"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs one JSON document per request, response or summary
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs YAML documents
	FormatYAML OutputFormat = "yaml"
)

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req RequestInfo) string
	FormatResponse(resp *rest.Response) string
	FormatSummary(s stats.Summary) string
}

// RequestData represents the structured data of a request
type RequestData struct {
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      string            `json:"body,omitempty" yaml:"body,omitempty"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
}

// ResponseData represents the structured data of a response
type ResponseData struct {
	StatusCode   int               `json:"statusCode" yaml:"statusCode"`
	Success      bool              `json:"success" yaml:"success"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body         interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseTime int64             `json:"responseTimeMs" yaml:"responseTimeMs"`
	Timestamp    string            `json:"timestamp" yaml:"timestamp"`
}

// SummaryData represents the structured data of a repeated run
type SummaryData struct {
	Requests  int64              `json:"requests" yaml:"requests"`
	Successes int64              `json:"successes" yaml:"successes"`
	Failures  int64              `json:"failures" yaml:"failures"`
	Errors    int64              `json:"errors" yaml:"errors"`
	Statuses  map[int]int64      `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Latency   map[string]float64 `json:"latencyMs" yaml:"latencyMs"`
	ElapsedMs int64              `json:"elapsedMs" yaml:"elapsedMs"`
	RPS       float64            `json:"rps" yaml:"rps"`
	PacingMs  float64            `json:"pacingMs,omitempty" yaml:"pacingMs,omitempty"`
}

func requestData(req RequestInfo) RequestData {
	var headers map[string]string
	if len(req.Headers) > 0 {
		headers = make(map[string]string, len(req.Headers))
		for _, h := range req.Headers {
			headers[h.Key()] = h.Value()
		}
	}
	return RequestData{
		Method:    req.Method.String(),
		URL:       req.URL,
		Headers:   headers,
		Body:      req.Body,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func responseData(resp *rest.Response, verbose bool) ResponseData {
	var headers map[string]string
	if verbose {
		headers = make(map[string]string)
		for key, values := range resp.Header() {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}
	}

	// Structured bodies are embedded as values, anything else as a string.
	var body interface{}
	if text := resp.Text(); text != "" {
		if err := json.Unmarshal([]byte(text), &body); err != nil {
			body = text
		}
	}

	return ResponseData{
		StatusCode:   resp.Status(),
		Success:      resp.Success(),
		Headers:      headers,
		Body:         body,
		ResponseTime: resp.Elapsed().Milliseconds(),
		Timestamp:    time.Now().Format(time.RFC3339),
	}
}

func summaryData(s stats.Summary) SummaryData {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return SummaryData{
		Requests:  s.Requests,
		Successes: s.Successes,
		Failures:  s.Failures,
		Errors:    s.Errors,
		Statuses:  s.Statuses,
		Latency: map[string]float64{
			"min":  ms(s.Min),
			"mean": ms(s.Mean),
			"p50":  ms(s.P50),
			"p90":  ms(s.P90),
			"p95":  ms(s.P95),
			"p99":  ms(s.P99),
			"max":  ms(s.Max),
		},
		ElapsedMs: s.Elapsed.Milliseconds(),
		RPS:       s.RPS,
		PacingMs:  ms(s.Pacing),
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(v interface{}) string {
	var (
		output []byte
		err    error
	)
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal output: %s"}`+"\n", err)
	}
	return string(output) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(req RequestInfo) string {
	return f.marshal(requestData(req))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *rest.Response) string {
	return f.marshal(responseData(resp, f.Verbose))
}

// FormatSummary formats a run summary as JSON
func (f *JSONFormatter) FormatSummary(s stats.Summary) string {
	return f.marshal(summaryData(s))
}

// YAMLFormatter formats output as YAML documents
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(v interface{}) string {
	output, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: failed to marshal output: %s\n", err)
	}
	return "---\n" + string(output)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(req RequestInfo) string {
	return f.marshal(requestData(req))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *rest.Response) string {
	return f.marshal(responseData(resp, f.Verbose))
}

// FormatSummary formats a run summary as YAML
func (f *YAMLFormatter) FormatSummary(s stats.Summary) string {
	return f.marshal(summaryData(s))
}

// ParseFormat validates a format name.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(name); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		valid := []string{string(FormatText), string(FormatJSON), string(FormatYAML)}
		sort.Strings(valid)
		return "", fmt.Errorf("unknown output format %q (valid: %v)", name, valid)
	}
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: !noColor}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
