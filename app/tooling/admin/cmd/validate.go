package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every block in the chain against its parent.",
	Args:  cobra.NoArgs,
	RunE:  validateRun,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ldg, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ldg.Shutdown()

	n, err := ldg.ValidateChain(ctx)
	if err != nil {
		pterm.Error.WithWriter(cmd.OutOrStdout()).Printfln("chain invalid after %d good blocks", n)
		return err
	}

	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("chain valid: %d blocks at difficulty %d", n, ldg.Difficulty())
	return nil
}
