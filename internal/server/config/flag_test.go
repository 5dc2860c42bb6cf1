package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags set", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "mongodb://db:27017", "-n", "identity",
			"-s", "secret", "-t", "15",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:9090",
				DatabaseURI:                 "mongodb://db:27017",
				DatabaseName:                "identity",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 15 * time.Minute,
			}},
		{name: "unknown flags are ignored", args: []string{"cmd",
			"-a", ":7070", "-z", "junk",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP: ":7070",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
