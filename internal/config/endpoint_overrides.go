package config

import (
	"os"
	"strconv"
	"strings"
)

const endpointOverridePrefix = "RATE_LIMIT_ENDPOINT_"

// parseEndpointOverrides scans the process environment for
// RATE_LIMIT_ENDPOINT_<KEY>=<requests-per-minute> entries. <KEY> is
// lowercased and used as the endpoint bucket name (e.g.
// RATE_LIMIT_ENDPOINT_SIGN=20 overrides the "sign" bucket).
func parseEndpointOverrides() map[string]int {
	overrides := make(map[string]int)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, endpointOverridePrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, endpointOverridePrefix))
		if key == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		overrides[key] = n
	}
	return overrides
}
