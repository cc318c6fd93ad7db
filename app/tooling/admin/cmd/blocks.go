package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks [index]",
	Short: "List the blocks in the chain or show a single block.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
}

func blocksRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ldg, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ldg.Shutdown()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		index, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid block index %q: %w", args[0], err)
		}

		block, err := ldg.QueryBlock(ctx, index)
		if err != nil {
			return err
		}

		data := pterm.TableData{
			{"Index", strconv.FormatUint(block.Index, 10)},
			{"Timestamp", strconv.FormatUint(block.TimeStamp, 10)},
			{"Aircraft", block.AircraftName},
			{"Age", strconv.FormatUint(block.Age, 10)},
			{"Changed Components", strings.Join(block.ChangedComponents, ", ")},
			{"Repair History", strings.Join(block.ComponentRepairHistory, ", ")},
			{"Accidental Records", strings.Join(block.AccidentalRecords, ", ")},
			{"Previous Hash", block.PrevBlockHash},
			{"Nonce", strconv.FormatUint(block.Nonce, 10)},
			{"Hash", block.Hash},
		}

		return pterm.DefaultTable.WithWriter(out).WithData(data).Render()
	}

	blocks, err := ldg.ListBlocks(ctx)
	if err != nil {
		return err
	}

	if len(blocks) == 0 {
		pterm.Warning.WithWriter(out).Println("chain is empty")
		return nil
	}

	data := pterm.TableData{
		{"Index", "Aircraft", "Age", "Previous Hash", "Nonce", "Hash"},
	}
	for _, block := range blocks {
		data = append(data, []string{
			strconv.FormatUint(block.Index, 10),
			block.AircraftName,
			strconv.FormatUint(block.Age, 10),
			shortHash(block.PrevBlockHash),
			strconv.FormatUint(block.Nonce, 10),
			shortHash(block.Hash),
		})
	}

	return pterm.DefaultTable.WithWriter(out).WithHasHeader().WithData(data).Render()
}
