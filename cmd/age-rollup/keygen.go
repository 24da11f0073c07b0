package main

import (
	"fmt"

	"github.com/celestiaorg/zk-age-rollup/proof/groth16"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const flagOut = "out"

func keygenCmd(logger *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the eligibility proving and verifying keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := cmd.Flags().GetString(flagOut)
			if err != nil {
				return err
			}

			logger.Info().Msg("running groth16 setup for the eligibility circuit")
			keys, err := groth16.Setup()
			if err != nil {
				return err
			}
			if err := keys.WriteTo(out); err != nil {
				return err
			}
			id, err := keys.ProgramID()
			if err != nil {
				return err
			}
			logger.Info().Str("dir", out).Msg("wrote eligibility keys")

			fmt.Fprintf(cmd.OutOrStdout(), "program id: %s\nwords:      %s\n", id, id.Words())
			return nil
		},
	}
	cmd.Flags().String(flagOut, ".", "directory to write the keys to")
	return cmd
}
