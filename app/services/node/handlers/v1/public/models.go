package public

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aeroledger/aeroledger/business/sys/validate"
	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
)

// Form field names posted by the maintenance entry page.
const (
	formAircraftName           = "aircraftName"
	formAge                    = "age"
	formChangedComponents      = "changedComponents"
	formComponentRepairHistory = "componentRepairHistory"
	formAccidentalRecords      = "accidentalRecords"
)

// NewMaintenance is what a client submits to record a maintenance event.
type NewMaintenance struct {
	AircraftName           string   `json:"aircraft_name" validate:"required"`
	Age                    uint64   `json:"age"`
	ChangedComponents      []string `json:"changed_components" validate:"required,min=1,dive,required"`
	ComponentRepairHistory []string `json:"component_repair_history" validate:"required,min=1,dive,required"`
	AccidentalRecords      []string `json:"accidental_records" validate:"required,min=1,dive,required"`
}

// Record converts the submission into the record the ledger stores.
func (nm NewMaintenance) Record() database.MaintenanceRecord {
	return database.MaintenanceRecord{
		AircraftName:           nm.AircraftName,
		Age:                    nm.Age,
		ChangedComponents:      nm.ChangedComponents,
		ComponentRepairHistory: nm.ComponentRepairHistory,
		AccidentalRecords:      nm.AccidentalRecords,
	}
}

// maxFormMemory is how much of a multipart body is held in memory, the rest
// spills to temporary files.
const maxFormMemory = 1 << 20

// formMaintenance builds a submission from url encoded or multipart form
// values. List fields are comma separated.
func formMaintenance(r *http.Request) (NewMaintenance, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return NewMaintenance{}, err
		}
		defer r.MultipartForm.RemoveAll()
	} else if err := r.ParseForm(); err != nil {
		return NewMaintenance{}, err
	}

	var age uint64
	if v := strings.TrimSpace(r.Form.Get(formAge)); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return NewMaintenance{}, validate.NewFieldsError("age", errors.New("age must be a non-negative whole number"))
		}
		age = n
	}

	nm := NewMaintenance{
		AircraftName:           strings.TrimSpace(r.Form.Get(formAircraftName)),
		Age:                    age,
		ChangedComponents:      splitList(r.Form.Get(formChangedComponents)),
		ComponentRepairHistory: splitList(r.Form.Get(formComponentRepairHistory)),
		AccidentalRecords:      splitList(r.Form.Get(formAccidentalRecords)),
	}

	return nm, nil
}

// splitList breaks a comma separated value into its trimmed, non-empty parts.
func splitList(v string) []string {
	var list []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	return list
}

// =============================================================================

// MaintenanceAdded is the response to a successful maintenance submission.
type MaintenanceAdded struct {
	Status       string                     `json:"status"`
	Index        uint64                     `json:"index"`
	Hash         string                     `json:"hash"`
	PreviousHash string                     `json:"previous_hash"`
	BlockData    database.MaintenanceRecord `json:"block_data"`
	Signature    string                     `json:"signature"`
	Payload      string                     `json:"payload"` // Hex of the encoded record that was signed.
}

// Blocks is the response for the set of blocks in the chain.
type Blocks struct {
	Blocks []database.Block `json:"blocks"`
}

// ChainStatus is the result of validating the full chain.
type ChainStatus struct {
	Valid      bool   `json:"valid"`
	Blocks     int    `json:"blocks"`
	Difficulty uint   `json:"difficulty"`
	Error      string `json:"error,omitempty"`
}

// SignRequest carries the text to be signed by the node key.
type SignRequest struct {
	Data string `json:"data" validate:"required"`
}

// SignResponse is the signature produced for a SignRequest.
type SignResponse struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// VerifyRequest carries a signature to check. The node key is used when
// no public key is provided.
type VerifyRequest struct {
	Data      string `json:"data" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	PublicKey string `json:"public_key"`
}

// VerifyMaintenance carries a record and the signature AddMaintenance
// returned for it. The node key is used when no public key is provided.
type VerifyMaintenance struct {
	Record    NewMaintenance `json:"record"`
	Signature string         `json:"signature" validate:"required"`
	PublicKey string         `json:"public_key"`
}

// VerifyResponse reports the outcome of a verification.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// PublicKey is the PEM encoded public key of the node.
type PublicKey struct {
	PublicKey string `json:"public_key"`
}
