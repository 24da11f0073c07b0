package main

import (
	"fmt"

	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/celestiaorg/zk-age-rollup/proof/groth16"
	"github.com/celestiaorg/zk-age-rollup/rollup"
	"github.com/celestiaorg/zk-age-rollup/verifier"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagPayload   = "payload"
	flagProgramID = "program-id"
)

func inspectCmd(v *viper.Viper, logger *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode and verify a proof payload offline",
		Long: `Decode and verify a proof payload offline and print the committed verdict.

The payload is checked against the identity of the verifying key unless
--program-id pins another one. Failures print their class and exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			mustBindFlags(v, flags, rollup.KeyVerifyingKey)
			payload, err := flags.GetString(flagPayload)
			if err != nil {
				return err
			}
			pinned, err := flags.GetString(flagProgramID)
			if err != nil {
				return err
			}

			vk, err := groth16.LoadVerifyingKey(v.GetString(rollup.KeyVerifyingKey))
			if err != nil {
				return err
			}
			capability, err := groth16.NewVerifier(vk)
			if err != nil {
				return err
			}
			expected, err := groth16.ProgramIDOf(vk)
			if err != nil {
				return err
			}
			if pinned != "" {
				if expected, err = proof.ProgramIDFromHex(pinned); err != nil {
					return fmt.Errorf("invalid --%s: %w", flagProgramID, err)
				}
			}

			out := cmd.OutOrStdout()
			verdict, err := verifier.New(expected, capability, *logger).VerifyHex(payload)
			if err != nil {
				fmt.Fprintf(out, "rejected: %s\n", proof.Reason(err))
				return err
			}
			fmt.Fprintf(out, "verdict: %t\n", verdict)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String(flagPayload, "", "hex payload (receipt followed by the 32 byte program id)")
	flags.String(flagProgramID, "", "expected program id, defaults to the verifying key's")
	flags.String(rollup.KeyVerifyingKey, "", "path to the eligibility verifying key")
	_ = cmd.MarkFlagRequired(flagPayload)
	return cmd
}
