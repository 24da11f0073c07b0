package main

import (
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zk-age-rollup/eligibility"
	"github.com/celestiaorg/zk-age-rollup/proof/groth16"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

const (
	flagBirthdate = "birthdate"
	flagNow       = "now"
	flagKeys      = "keys"
)

// proveCmd never logs its inputs: the birthdate stays on this side of the
// trust boundary.
func proveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Attest that a birthdate meets the minimum age and print the proof payload",
		Long: `Attest that a birthdate meets the minimum age and print the proof payload.

Timestamps are unix seconds or dates such as 2001-06-15. --now defaults to the
current time. No payload is produced when the holder is under age.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			birthdateArg, err := flags.GetString(flagBirthdate)
			if err != nil {
				return err
			}
			nowArg, err := flags.GetString(flagNow)
			if err != nil {
				return err
			}
			dir, err := flags.GetString(flagKeys)
			if err != nil {
				return err
			}

			birthdate, err := parseTimestamp(birthdateArg)
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", flagBirthdate, err)
			}
			now := uint64(time.Now().Unix())
			if nowArg != "" {
				if now, err = parseTimestamp(nowArg); err != nil {
					return fmt.Errorf("invalid --%s: %w", flagNow, err)
				}
			}

			keys, err := groth16.LoadKeys(dir)
			if err != nil {
				return err
			}
			prover, err := groth16.NewProver(keys)
			if err != nil {
				return err
			}
			payload, err := prover.AttestPayload(birthdate, now)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}

	cmd.Flags().String(flagBirthdate, "", "birthdate as unix seconds or a date")
	cmd.Flags().String(flagNow, "", "evaluation time as unix seconds or a date")
	cmd.Flags().String(flagKeys, ".", "directory holding the eligibility keys")
	_ = cmd.MarkFlagRequired(flagBirthdate)
	return cmd
}

// parseTimestamp reads unix seconds or any date format cast understands.
// Times before the epoch are out of range.
func parseTimestamp(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	var seconds int64
	if n, err := cast.ToInt64E(s); err == nil {
		seconds = n
	} else {
		t, err := cast.ToTimeE(s)
		if err != nil {
			return 0, err
		}
		seconds = t.Unix()
	}
	if seconds < 0 {
		return 0, errorsmod.Wrap(eligibility.ErrTimestampRange, "timestamp is before 1970-01-01")
	}
	return uint64(seconds), nil
}
