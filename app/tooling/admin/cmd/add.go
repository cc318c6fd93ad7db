package cmd

import (
	"errors"
	"time"

	"github.com/aeroledger/aeroledger/business/sys/validate"
	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	aircraftName           string
	aircraftAge            uint64
	changedComponents      []string
	componentRepairHistory []string
	accidentalRecords      []string
	mineTimeout            time.Duration
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Mine a maintenance record into the next block.",
	Args:  cobra.NoArgs,
	RunE:  addRun,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&aircraftName, "aircraft", "a", "", "Name of the aircraft.")
	addCmd.Flags().Uint64Var(&aircraftAge, "age", 0, "Age of the aircraft.")
	addCmd.Flags().StringSliceVar(&changedComponents, "changed", nil, "Components replaced, comma separated.")
	addCmd.Flags().StringSliceVar(&componentRepairHistory, "repairs", nil, "Repairs performed, comma separated.")
	addCmd.Flags().StringSliceVar(&accidentalRecords, "accidents", nil, "Incidents recorded, comma separated.")
	addCmd.Flags().DurationVar(&mineTimeout, "timeout", 0, "Abort mining after this long, zero waits forever.")
}

// addRecord carries the validation rules for a record entered on the
// command line.
type addRecord struct {
	AircraftName           string   `json:"aircraft" validate:"required"`
	ChangedComponents      []string `json:"changed" validate:"required,min=1,dive,required"`
	ComponentRepairHistory []string `json:"repairs" validate:"required,min=1,dive,required"`
	AccidentalRecords      []string `json:"accidents" validate:"required,min=1,dive,required"`
}

func addRun(cmd *cobra.Command, args []string) error {
	ar := addRecord{
		AircraftName:           aircraftName,
		ChangedComponents:      changedComponents,
		ComponentRepairHistory: componentRepairHistory,
		AccidentalRecords:      accidentalRecords,
	}

	if err := validate.Check(ar); err != nil {
		var fields validate.FieldErrors
		if errors.As(err, &fields) {
			for _, fld := range fields {
				pterm.Error.WithWriter(cmd.ErrOrStderr()).Printfln("%s: %s", fld.Field, fld.Error)
			}
		}
		return errors.New("invalid maintenance record")
	}

	ctx := cmd.Context()

	ldg, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ldg.Shutdown()

	record := database.MaintenanceRecord{
		AircraftName:           ar.AircraftName,
		Age:                    aircraftAge,
		ChangedComponents:      ar.ChangedComponents,
		ComponentRepairHistory: ar.ComponentRepairHistory,
		AccidentalRecords:      ar.AccidentalRecords,
	}

	block, err := ldg.AppendBlock(ctx, record)
	if err != nil {
		return err
	}

	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("block %d: hash %s", block.Index, block.Hash)
	return nil
}
