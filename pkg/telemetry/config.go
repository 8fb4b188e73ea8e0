package telemetry

// Config contains the telemetry configuration for one lxstack invocation.
type Config struct {
	// ServiceName identifies the tool in spans and metric namespaces.
	ServiceName string

	// ServiceVersion is the build version, attached to spans.
	ServiceVersion string

	// Logging contains logging configuration.
	Logging LoggingConfig

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig

	// Tracing contains span export configuration.
	Tracing TracingConfig
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format specifies the log format (console, json).
	Format string

	// Output specifies where logs are written (stdout, stderr).
	Output string
}

// MetricsConfig configures operation counters.
type MetricsConfig struct {
	// Enabled controls whether counters are collected at all.
	Enabled bool

	// Namespace prefixes every metric name.
	Namespace string
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled turns on stdout span export. When false, spans are still
	// created but never recorded.
	Enabled bool
}

// DefaultConfig returns the configuration used when no flags override it:
// console logs on stderr at info level, metrics on, tracing off.
func DefaultConfig() Config {
	return Config{
		ServiceName: "lxstack",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "lxstack",
		},
	}
}
