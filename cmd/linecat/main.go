// Package main is the linecat application entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"linecat/internal"
	"linecat/internal/app/apps"
	"linecat/internal/app/cfg"
	"linecat/internal/pkg/log"
	"linecat/internal/pkg/protocol"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CLI command definitions.
var (
	logger logrus.FieldLogger = logrus.StandardLogger()

	rootCmd = &cobra.Command{
		Use:   "linecat",
		Short: "Serves the lines of a file over TCP and checks them from a client.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	clientCmd = &cobra.Command{
		Use:   "client <filename> <ip> <port>",
		Short: "Probes a linecat server and checks every line against a reference file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				return protocol.NewError(protocol.ArgumentError, err)
			}
			if _, err := cfg.PortFromArg(args[2]); err != nil {
				return err
			}
			return nil
		},
		RunE: runCmd,
	}

	serverCmd = &cobra.Command{
		Use:   "server <filename> <port>",
		Short: "Starts a linecat server handing out the lines of a file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return protocol.NewError(protocol.ArgumentError, err)
			}
			if _, err := cfg.PortFromArg(args[1]); err != nil {
				return err
			}
			return nil
		},
		RunE: runCmd,
	}
)

func newApp(_ context.Context, cmd *cobra.Command, args []string) (apps.App, error) {
	switch cmd.Name() {
	case "client":
		port, err := cfg.PortFromArg(args[2])
		if err != nil {
			return nil, err
		}
		app, err := apps.NewClientApp(
			cfg.NewFileCfg(args[0]),
			cfg.NewHostCfg(args[1]),
			port,
			cfg.ClientTimingFromEnv(),
			cfg.NewOutputCfg(cmd.OutOrStdout()),
		)
		if err != nil {
			return nil, protocol.NewError(protocol.ArgumentError, errors.Wrap(err, "new client app failed"))
		}
		return app, nil
	case "server":
		port, err := cfg.PortFromArg(args[1])
		if err != nil {
			return nil, err
		}
		app, err := apps.NewServerApp(
			cfg.NewFileCfg(args[0]),
			port,
			cfg.ServerTimingFromEnv(),
		)
		if err != nil {
			return nil, protocol.NewError(protocol.ArgumentError, errors.Wrap(err, "new server app failed"))
		}
		return app, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd.Name())
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := chainedCheck(
		ctx,
		envCheck,
	); err != nil {
		return errors.Wrap(err, "chained check failed")
	}
	app, err := newApp(ctx, cmd, args)
	if err != nil {
		return errors.Wrapf(err, "new %s app failed", cmd.Name())
	}
	return errors.Wrap(app.Run(ctx), "run app failed")
}

func envCheck(ctx context.Context) error {
	err := internal.ValidateEnv()
	if err != nil {
		return errors.Wrap(err, "validate env failed")
	}
	log.SetLogger(internal.LogLevel)
	return nil
}

func chainedCheck(ctx context.Context, checks ...func(context.Context) error) error {
	for _, check := range checks {
		err := check(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	err := internal.RegisterCommandFlags(rootCmd, []*internal.Flag{
		&internal.EnvFlag,
		&internal.LogLevelFlag,
		&internal.ConfigFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(clientCmd, []*internal.Flag{
		&internal.ClientThrottleMSFlag,
		&internal.ClientWindowMSFlag,
		&internal.ClientIterationsFlag,
		&internal.ClientDialTimeoutMSFlag,
		&internal.ClientIOTimeoutMSFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(serverCmd, []*internal.Flag{
		&internal.ServerReadTimeoutMSFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	rootCmd.AddCommand(
		clientCmd,
		serverCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.WithField("kind", protocol.KindOf(err).String()).Fatal(errors.Wrap(err, "execute root command failed"))
	}
}
