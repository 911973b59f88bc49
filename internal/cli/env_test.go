package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broom/internal/cli"
)

func TestBindEnvVars(t *testing.T) {
	tcs := map[string]struct {
		envVars       map[string]string
		args          []string
		wantLogLevel  string
		wantLogFormat string
		wantTypes     []string
		wantDryRun    bool
	}{
		"environment variables are bound when no args provided": {
			envVars: map[string]string{
				"BROOM_LOG_LEVEL":  "debug",
				"BROOM_LOG_FORMAT": "json",
				"BROOM_TYPE":       "node, cargo",
				"BROOM_DRY_RUN":    "true",
			},
			args:          []string{},
			wantLogLevel:  "debug",
			wantLogFormat: "json",
			wantTypes:     []string{"node", "cargo"},
			wantDryRun:    true,
		},
		"command line args take precedence over environment variables": {
			envVars: map[string]string{
				"BROOM_LOG_LEVEL":  "debug",
				"BROOM_LOG_FORMAT": "json",
				"BROOM_TYPE":       "node,cargo",
			},
			args:          []string{"--log-level", "error", "--log-format", "text", "-t", "python"},
			wantLogLevel:  "error",
			wantLogFormat: "text",
			wantTypes:     []string{"python"},
		},
		"partial environment variable override": {
			envVars: map[string]string{
				"BROOM_LOG_LEVEL": "warn",
			},
			args:          []string{"--log-format", "json", "-t", "node", "-t", "python"},
			wantLogLevel:  "warn",
			wantLogFormat: "json",
			wantTypes:     []string{"node", "python"},
		},
		"no environment variables uses defaults": {
			envVars:       map[string]string{},
			args:          []string{},
			wantLogLevel:  "info", // Default value.
			wantLogFormat: "text", // Default value.
			wantTypes:     []string{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()
			cmd.SetArgs(tc.args)

			err := cmd.ParseFlags(tc.args)
			require.NoError(t, err)

			logLevel, err := cmd.Flags().GetString("log-level")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogLevel, logLevel)

			logFormat, err := cmd.Flags().GetString("log-format")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogFormat, logFormat)

			types, err := cmd.Flags().GetStringSlice("type")
			require.NoError(t, err)
			assert.Equal(t, tc.wantTypes, types)

			dryRun, err := cmd.Flags().GetBool("dry-run")
			require.NoError(t, err)
			assert.Equal(t, tc.wantDryRun, dryRun)
		})
	}
}

// Test that flag usage strings are updated to include environment variable names.
func TestEnvironmentVariableUsageUpdate(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Contains(t, logLevelFlag.Usage, "$BROOM_LOG_LEVEL")

	metricsFlag := cmd.Flags().Lookup("metrics-file")
	require.NotNil(t, metricsFlag)
	assert.Contains(t, metricsFlag.Usage, "$BROOM_METRICS_FILE")

	history, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	dbFlag := history.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Contains(t, dbFlag.Usage, "$BROOM_DB")
}
