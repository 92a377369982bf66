package config

import (
	"flag"
	"fmt"
	"io"
)

// CLIFlags holds optional command-line overrides. A nil field means the flag
// was not given, so the lower-precedence value survives.
type CLIFlags struct {
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
	ConfigPath *string
}

// ParseFlags parses command-line arguments into CLIFlags. Unknown flags are
// an error; unset flags stay nil.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("mediascout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var port, logLevel, dsn, natsURL, configPath string
	fs.StringVar(&port, "port", "", "HTTP server port")
	fs.StringVar(&port, "p", "", "HTTP server port (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN")
	fs.StringVar(&natsURL, "nats-url", "", "NATS server URL")
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&configPath, "c", "", "path to YAML config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port", "p":
			flags.Port = &port
		case "log-level":
			flags.LogLevel = &logLevel
		case "dsn":
			flags.DSN = &dsn
		case "nats-url":
			flags.NatsURL = &natsURL
		case "config", "c":
			flags.ConfigPath = &configPath
		}
	})
	return flags, nil
}

// applyCLI overlays set flags onto cfg. CLI is the highest precedence layer.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

// LoadWithCLI returns a Config using the hierarchy defaults < YAML < ENV < CLI
// and the YAML path that was consulted.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}
