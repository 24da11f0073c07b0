package main

import (
	"fmt"

	"github.com/celestiaorg/zk-age-rollup/logging"
	"github.com/celestiaorg/zk-age-rollup/rollup"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const flagEnvFile = "env-file"

// NewRootCmd returns the age-rollup command tree.
func NewRootCmd() *cobra.Command {
	v := rollup.NewViper()
	logger := zerolog.Nop()

	rootCmd := &cobra.Command{
		Use:          "age-rollup",
		Short:        "Zero-knowledge age eligibility attestation for a rollup",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, err := cmd.Flags().GetString(flagEnvFile)
			if err != nil {
				return err
			}
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			if err := rollup.LoadDotEnv(files...); err != nil {
				return err
			}

			logger, err = logging.New(v.GetString(rollup.KeyLogLevel), v.GetString(rollup.KeyLogFormat), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagEnvFile, "", "load environment variables from this file instead of ./.env")
	flags.String(rollup.KeyLogLevel, "info", "log level (trace, debug, info, warn, error)")
	flags.String(rollup.KeyLogFormat, logging.FormatConsole, "log format (console, json)")
	mustBindFlags(v, flags, rollup.KeyLogLevel, rollup.KeyLogFormat)

	rootCmd.AddCommand(
		runCmd(v, &logger),
		keygenCmd(&logger),
		proveCmd(),
		inspectCmd(v, &logger),
	)
	return rootCmd
}

// mustBindFlags binds flags to v. Subcommands sharing a key bind when they
// run, so the executing command's flag wins.
func mustBindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}
