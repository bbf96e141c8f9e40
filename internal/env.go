// Package internal holds the process-wide settings shared by every command.
//
// Each setting is a Flag. A flag's value is resolved in this order: the
// command line, its environment variable, its key in the ini file given by
// --config, and finally its default.
package internal

import (
	"os"
	"strings"

	"linecat/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"
)

// Settings populated by the registered flags.
var (
	Env        string
	LogLevel   string
	ConfigPath string

	ClientThrottleMS    int
	ClientWindowMS      int
	ClientIterations    int
	ClientDialTimeoutMS int
	ClientIOTimeoutMS   int

	ServerReadTimeoutMS int
)

// Flag describes a setting that can come from the command line, the environment or the ini file.
type Flag struct {
	Name  string
	Usage string
	// EnvVar is the environment variable consulted when the flag is not given.
	EnvVar string
	// Section is the ini section holding the flag's key, named after the flag.
	Section string

	StringVar     *string
	DefaultString string

	IntVar     *int
	DefaultInt int
}

// Flag definitions.
var (
	EnvFlag = Flag{
		Name:          "env",
		Usage:         "Deployment environment (development, production).",
		EnvVar:        "LINECAT_ENV",
		StringVar:     &Env,
		DefaultString: "development",
	}
	LogLevelFlag = Flag{
		Name:          "log-level",
		Usage:         "Log level (trace, debug, info, warn, error).",
		EnvVar:        "LINECAT_LOG_LEVEL",
		StringVar:     &LogLevel,
		DefaultString: "info",
	}
	ConfigFlag = Flag{
		Name:      "config",
		Usage:     "Path to an ini file holding default flag values.",
		EnvVar:    "LINECAT_CONFIG",
		StringVar: &ConfigPath,
	}

	ClientThrottleMSFlag = Flag{
		Name:       "throttle-ms",
		Usage:      "Pause between connecting and sending the request, in milliseconds.",
		EnvVar:     "LINECAT_CLIENT_THROTTLE_MS",
		Section:    "client",
		IntVar:     &ClientThrottleMS,
		DefaultInt: 3000,
	}
	ClientWindowMSFlag = Flag{
		Name:       "window-ms",
		Usage:      "How long the client keeps probing, in milliseconds. 0 probes until interrupted.",
		EnvVar:     "LINECAT_CLIENT_WINDOW_MS",
		Section:    "client",
		IntVar:     &ClientWindowMS,
		DefaultInt: 30000,
	}
	ClientIterationsFlag = Flag{
		Name:       "iterations",
		Usage:      "Maximum number of probes. 0 means no limit.",
		EnvVar:     "LINECAT_CLIENT_ITERATIONS",
		Section:    "client",
		IntVar:     &ClientIterations,
		DefaultInt: 0,
	}
	ClientDialTimeoutMSFlag = Flag{
		Name:       "dial-timeout-ms",
		Usage:      "Connection attempt timeout, in milliseconds. 0 means no timeout.",
		EnvVar:     "LINECAT_CLIENT_DIAL_TIMEOUT_MS",
		Section:    "client",
		IntVar:     &ClientDialTimeoutMS,
		DefaultInt: 5000,
	}
	ClientIOTimeoutMSFlag = Flag{
		Name:       "io-timeout-ms",
		Usage:      "Request and response timeout, in milliseconds. 0 means no timeout.",
		EnvVar:     "LINECAT_CLIENT_IO_TIMEOUT_MS",
		Section:    "client",
		IntVar:     &ClientIOTimeoutMS,
		DefaultInt: 10000,
	}

	ServerReadTimeoutMSFlag = Flag{
		Name:       "read-timeout-ms",
		Usage:      "How long the server waits for a request on an accepted connection, in milliseconds.",
		EnvVar:     "LINECAT_SERVER_READ_TIMEOUT_MS",
		Section:    "server",
		IntVar:     &ServerReadTimeoutMS,
		DefaultInt: 10000,
	}
)

type registration struct {
	flag *Flag
	set  *pflag.FlagSet
}

var registered []registration

// RegisterCommandFlags registers flags as persistent flags of cmd.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	set := cmd.PersistentFlags()
	for _, f := range flags {
		switch {
		case f.StringVar != nil:
			set.StringVar(f.StringVar, f.Name, f.DefaultString, f.Usage)
		case f.IntVar != nil:
			set.IntVar(f.IntVar, f.Name, f.DefaultInt, f.Usage)
		default:
			return errors.Errorf("flag %s has no destination", f.Name)
		}
		registered = append(registered, registration{flag: f, set: set})
	}
	return nil
}

// settings is validated once every flag is resolved.
type settings struct {
	Env                 string `validate:"oneof=development production"`
	LogLevel            string `validate:"oneof=trace debug info warn error"`
	ClientThrottleMS    int    `validate:"min=0"`
	ClientWindowMS      int    `validate:"min=0"`
	ClientIterations    int    `validate:"min=0"`
	ClientDialTimeoutMS int    `validate:"min=0"`
	ClientIOTimeoutMS   int    `validate:"min=0"`
	ServerReadTimeoutMS int    `validate:"min=0"`
}

// ValidateEnv fills every flag not given on the command line from the
// environment or the ini file, then validates the result.
func ValidateEnv() error {
	if err := resolve(&ConfigFlag, nil); err != nil {
		return errors.Wrap(err, "resolve config flag failed")
	}
	var cfg *ini.File
	if ConfigPath != "" {
		var err error
		cfg, err = ini.Load(ConfigPath)
		if err != nil {
			return errors.Wrapf(err, "load config %s failed", ConfigPath)
		}
	}
	for _, r := range registered {
		if r.flag == &ConfigFlag {
			continue
		}
		if err := resolve(r.flag, cfg); err != nil {
			return errors.Wrapf(err, "resolve flag %s failed", r.flag.Name)
		}
	}
	s := settings{
		Env:                 strings.ToLower(Env),
		LogLevel:            strings.ToLower(LogLevel),
		ClientThrottleMS:    ClientThrottleMS,
		ClientWindowMS:      ClientWindowMS,
		ClientIterations:    ClientIterations,
		ClientDialTimeoutMS: ClientDialTimeoutMS,
		ClientIOTimeoutMS:   ClientIOTimeoutMS,
		ServerReadTimeoutMS: ServerReadTimeoutMS,
	}
	if err := validate.Validate().Struct(s); err != nil {
		return errors.Wrap(err, "validate settings failed")
	}
	return nil
}

// resolve sets f from its env var or ini key unless it was given on the command line.
func resolve(f *Flag, cfg *ini.File) error {
	var set *pflag.FlagSet
	for _, r := range registered {
		if r.flag == f {
			set = r.set
			break
		}
	}
	if set == nil {
		return nil
	}
	if set.Changed(f.Name) {
		return nil
	}
	if v, ok := os.LookupEnv(f.EnvVar); ok && f.EnvVar != "" {
		return set.Set(f.Name, v)
	}
	if cfg == nil {
		return nil
	}
	section := cfg.Section(f.Section)
	if !section.HasKey(f.Name) {
		return nil
	}
	return set.Set(f.Name, section.Key(f.Name).String())
}
