package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/autoregister/internal/app"
)

// EnvPrefix is the prefix of the environment variables that mirror the flags,
// e.g. AUTOREGISTER_LOG_LEVEL for --log-level.
const EnvPrefix = "AUTOREGISTER"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const long = `autoregister rewrites compiled JVM classes so that every implementation of a
configured interface is registered from a configured injection method.

Rules are read from .hcl, .yaml or .yml files. Input and output are either
class directories or .jar files. Every flag can also be set through an
AUTOREGISTER_* environment variable or a --config file.`

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	v := viper.New()
	var (
		parsed  *app.Config
		cfgFile string
	)

	cmd := &cobra.Command{
		Use:           "autoregister --rules FILE --input PATH --output PATH",
		Short:         "Inject registration calls into compiled classes.",
		Long:          long,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file: %w", err)
				}
			}
			if len(v.GetStringSlice("rules")) == 0 && v.GetString("input") == "" && v.GetString("output") == "" {
				slog.Debug("No rules or paths provided, printing usage and exiting.")
				return cmd.Help()
			}

			cfg, err := app.NewConfig(app.Config{
				RulesPaths:       v.GetStringSlice("rules"),
				Input:            v.GetString("input"),
				Output:           v.GetString("output"),
				Mode:             v.GetString("mode"),
				Workers:          v.GetInt("workers"),
				ReservedPrefixes: v.GetStringSlice("reserved-prefix"),
				OwnNamespace:     optionalString(v, "own-namespace"),
				LogFormat:        v.GetString("log-format"),
				LogLevel:         v.GetString("log-level"),
				Trace:            v.GetBool("trace"),
				TraceEndpoint:    v.GetString("trace-endpoint"),
				Watch:            v.GetBool("watch"),
				HealthcheckPort:  v.GetInt("healthcheck-port"),
			})
			if err != nil {
				return err
			}
			parsed = cfg
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Optional YAML/TOML/JSON file holding flag values.")
	flags.StringSliceP("rules", "r", nil, "Rule file or directory. Repeatable.")
	flags.StringP("input", "i", "", "Class directory or .jar to read.")
	flags.StringP("output", "o", "", "Class directory or .jar to write. Must differ from the input.")
	flags.String("mode", "barrier", "Processing mode: 'barrier' scans everything before injecting, 'streaming' processes units as they arrive.")
	flags.Int("workers", 0, "Number of concurrent workers. 0 uses GOMAXPROCS.")
	flags.StringSlice("reserved-prefix", nil, "Class name prefix that is never offered for processing. Repeatable; replaces the defaults.")
	flags.String("own-namespace", "", "Class name prefix that is always offered, even below a reserved prefix. Defaults to com.billy.; an empty value disables it.")
	flags.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.Bool("trace", false, "Export OpenTelemetry spans to the log output.")
	flags.String("trace-endpoint", "", "OTLP gRPC collector address for --trace, e.g. localhost:4317.")
	flags.Bool("watch", false, "Rebuild whenever the rules or the input change.")
	flags.Int("healthcheck-port", 0, "Port for the HTTP health check server in watch mode. 0 is disabled.")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, false, err
	}

	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if parsed == nil {
		// Help was requested or printed.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", parsed)
	return parsed, false, nil
}

// optionalString returns nil when key was set neither by flag, environment
// nor config file, so an explicitly empty value stays distinguishable.
func optionalString(v *viper.Viper, key string) *string {
	if !v.IsSet(key) {
		return nil
	}
	s := v.GetString(key)
	return &s
}
