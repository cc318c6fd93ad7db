package database

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// MaintenanceRecord is the set of fields a caller submits for a single
// maintenance event. The request layer is responsible for validating the
// record before it reaches the ledger.
type MaintenanceRecord struct {
	AircraftName           string   `json:"aircraft_name"`
	Age                    uint64   `json:"age"`
	ChangedComponents      []string `json:"changed_components"`
	ComponentRepairHistory []string `json:"component_repair_history"`
	AccidentalRecords      []string `json:"accidental_records"`
}

// canonicalRecord fixes the order the record fields are encoded in. Fields
// are listed in sorted key order and must never be reordered.
type canonicalRecord struct {
	AccidentalRecords      []string
	Age                    uint64
	AircraftName           string
	ChangedComponents      []string
	ComponentRepairHistory []string
}

// Encode returns the canonical byte representation of the record. This is
// the payload that is signed when a record is submitted.
func (mr MaintenanceRecord) Encode() ([]byte, error) {
	cr := canonicalRecord{
		AccidentalRecords:      mr.AccidentalRecords,
		Age:                    mr.Age,
		AircraftName:           mr.AircraftName,
		ChangedComponents:      mr.ChangedComponents,
		ComponentRepairHistory: mr.ComponentRepairHistory,
	}

	data, err := rlp.EncodeToBytes(cr)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	return data, nil
}

// String implements the Stringer interface for logging.
func (mr MaintenanceRecord) String() string {
	return fmt.Sprintf("%s:%d", mr.AircraftName, mr.Age)
}
