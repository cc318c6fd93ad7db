package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Mine and write the genesis block when the chain is empty.",
	Args:  cobra.NoArgs,
	RunE:  genesisRun,
}

func init() {
	rootCmd.AddCommand(genesisCmd)
}

func genesisRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ldg, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ldg.Shutdown()

	block, err := ldg.CreateGenesis(ctx)
	if err != nil {
		return err
	}

	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("genesis block %d: hash %s", block.Index, block.Hash)
	return nil
}
