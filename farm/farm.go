package farm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/jonwraymond/shipyard/observe"
)

// Farm routes matching task ids to a host set. Immutable after load.
type Farm struct {
	// Match routes task ids to this farm. nil matches everything.
	Match *regexp.Regexp

	// Hosts is the ordered list of host:port addresses.
	Hosts []string

	// MaxRunning caps the running job containers across the farm's hosts.
	MaxRunning int
}

// DefaultMaxRunning applies when a farm definition omits maxRunning.
const DefaultMaxRunning = 10

// definition is the JSON shape of one farm entry.
type definition struct {
	Match      string   `json:"match"`
	Hosts      []string `json:"hosts"`
	MaxRunning *int     `json:"maxRunning"`
}

// Parse loads an ordered farm list from its JSON definition. Host strings
// go through strict ${VAR} environment expansion. A match-all farm that is
// not last is a configuration mistake (every later farm is unreachable)
// and logs a warning.
func Parse(ctx context.Context, raw []byte, logger observe.Logger) ([]Farm, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}

	var defs []definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("farm: parsing definition: %w", err)
	}

	farms := make([]Farm, 0, len(defs))
	for i, def := range defs {
		f := Farm{MaxRunning: DefaultMaxRunning}
		if def.MaxRunning != nil {
			f.MaxRunning = *def.MaxRunning
		}

		if def.Match == "" {
			if i != len(defs)-1 {
				logger.Warn(ctx,
					"Farm with no match pattern found before the end of the farm "+
						"definition. All subsequent farms will never be used as this "+
						"one always matches. Move the match-all farm to the end.")
			}
		} else {
			re, err := regexp.Compile(def.Match)
			if err != nil {
				return nil, fmt.Errorf("farm: compiling pattern %q: %w", def.Match, err)
			}
			f.Match = re
		}

		for _, host := range def.Hosts {
			expanded, err := expandEnv(host)
			if err != nil {
				return nil, fmt.Errorf("farm: expanding host %q: %w", host, err)
			}
			f.Hosts = append(f.Hosts, expanded)
		}

		logger.Info(ctx, "Found farm definition.",
			observe.F("match", def.Match),
			observe.F("hosts", f.Hosts),
			observe.F("max_running", f.MaxRunning))

		farms = append(farms, f)
	}

	return farms, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv expands ${VAR} references in s. A reference to a variable
// missing from the environment is an error rather than an empty string.
func expandEnv(s string) (string, error) {
	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(keys, ", "))
	}

	return envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(ref)[1])
	}), nil
}
