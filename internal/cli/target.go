package cli

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/restup/internal/config"
	"github.com/wesleyorama2/restup/rest"
)

// target is everything needed to build a client and a request.
type target struct {
	protocol rest.Protocol
	host     string
	port     int
	username *string
	password *string
	path     string
	options  []rest.Option
}

// parseTarget splits a full URL argument into connection settings, the path
// relative to the host and its query parameters in the order given.
// Arguments without a scheme are taken as a path and returned with ok=false.
func parseTarget(arg string) (t target, ok bool, err error) {
	if !strings.HasPrefix(arg, "http://") && !strings.HasPrefix(arg, "https://") {
		return target{path: strings.TrimPrefix(arg, "/")}, false, nil
	}

	parsed, err := url.Parse(arg)
	if err != nil {
		return target{}, false, fmt.Errorf("invalid URL %q: %w", arg, err)
	}

	t.protocol, err = rest.ParseProtocol(parsed.Scheme)
	if err != nil {
		return target{}, false, err
	}

	t.host = parsed.Hostname()
	t.port = -1
	if p := parsed.Port(); p != "" {
		t.port, err = strconv.Atoi(p)
		if err != nil {
			return target{}, false, fmt.Errorf("invalid port in %q: %w", arg, err)
		}
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		t.username = &username
		if password, set := parsed.User.Password(); set {
			t.password = &password
		}
	}

	// The URL builder adds the separating slash itself.
	t.path = strings.TrimPrefix(parsed.EscapedPath(), "/")

	if parsed.RawQuery != "" {
		for _, pair := range strings.Split(parsed.RawQuery, "&") {
			if pair == "" {
				continue
			}
			rawKey, rawValue, _ := strings.Cut(pair, "=")
			key, err := url.QueryUnescape(rawKey)
			if err != nil {
				return target{}, false, fmt.Errorf("invalid query in %q: %w", arg, err)
			}
			value, err := url.QueryUnescape(rawValue)
			if err != nil {
				return target{}, false, fmt.Errorf("invalid query in %q: %w", arg, err)
			}
			t.options = append(t.options, rest.Param(key, value))
		}
	}

	return t, true, nil
}

// resolveTarget merges, in increasing priority: the selected profile, the URL
// argument, and explicit connection flags.
func resolveTarget(cmd *cobra.Command, arg string) (target, []string, error) {
	flags := cmd.Flags()

	var (
		result target
		vars   map[string]string
		notes  []string
	)
	result.protocol = rest.HTTP
	result.port = -1

	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = os.Getenv("RESTUP_CONFIG")
	}
	profileName, _ := flags.GetString("profile")

	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return target{}, nil, err
		}
		profile, err := cfg.Profile(profileName)
		if err != nil {
			return target{}, nil, err
		}
		if err := applyProfile(&result, profile); err != nil {
			return target{}, nil, err
		}
		vars = profile.Vars
	} else if profileName != "" {
		return target{}, nil, fmt.Errorf("--profile requires --config or RESTUP_CONFIG")
	}

	fromURL, isURL, err := parseTarget(arg)
	if err != nil {
		return target{}, nil, err
	}
	if isURL {
		if configPath != "" {
			notes = append(notes, "full URL overrides the profile host")
		}
		result.protocol = fromURL.protocol
		result.host = fromURL.host
		result.port = fromURL.port
		if fromURL.username != nil {
			result.username, result.password = fromURL.username, fromURL.password
		}
	}
	result.path = config.ProcessVariables(fromURL.path, vars)
	result.options = append(result.options, fromURL.options...)

	if flags.Changed("https") {
		if https, _ := flags.GetBool("https"); https {
			result.protocol = rest.HTTPS
		} else {
			result.protocol = rest.HTTP
		}
	}
	if flags.Changed("host") {
		result.host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		result.port, _ = flags.GetInt("port")
	}
	if flags.Changed("user") {
		user, _ := flags.GetString("user")
		result.username = &user
	}
	if flags.Changed("password") {
		password, _ := flags.GetString("password")
		result.password = &password
	}

	params, _ := flags.GetStringArray("param")
	for _, p := range params {
		key, value, found := strings.Cut(p, "=")
		if !found {
			return target{}, nil, fmt.Errorf("invalid param %q, expected key=value", p)
		}
		result.options = append(result.options, rest.Param(key, config.ProcessVariables(value, vars)))
	}

	headers, _ := flags.GetStringArray("header")
	for _, h := range headers {
		key, value, found := strings.Cut(h, ":")
		if !found {
			return target{}, nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		result.options = append(result.options, rest.Header(strings.TrimSpace(key), config.ProcessVariables(strings.TrimSpace(value), vars)))
	}

	if result.host == "" {
		return target{}, nil, fmt.Errorf("no host: pass a full URL, --host, or a profile")
	}

	return result, notes, nil
}

func applyProfile(t *target, p config.Profile) error {
	protocol, err := rest.ParseProtocol(p.Protocol)
	if err != nil {
		return err
	}
	t.protocol = protocol
	t.host = p.Host
	t.port = p.Port
	if t.port == 0 {
		t.port = -1
	}
	t.username, t.password = p.Username, p.Password

	for _, param := range p.Params {
		t.options = append(t.options, rest.Param(param.Name, config.ProcessVariables(param.Value, p.Vars)))
	}
	// Map order is random; sort so repeated runs send identical requests.
	for _, key := range slices.Sorted(maps.Keys(p.Headers)) {
		t.options = append(t.options, rest.Header(key, config.ProcessVariables(p.Headers[key], p.Vars)))
	}
	return nil
}
