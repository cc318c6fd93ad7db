package database

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
)

// GenesisPrevHash is the previous hash value recorded in the genesis block.
const GenesisPrevHash = "0"

// GenesisAircraftName is the aircraft name recorded in the genesis block.
const GenesisAircraftName = "Genesis Aircraft"

// ZeroHash is returned by CalculateHash when a block can't be encoded.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// MaxDifficulty is the largest difficulty the ledger will accept. Anything
// larger takes too long to mine on a single thread.
const MaxDifficulty = 8

// =============================================================================

// Block represents a single maintenance event recorded in the chain.
type Block struct {
	Index                  uint64   `json:"index" bson:"index"`                                       // Position in the chain starting at 1.
	TimeStamp              uint64   `json:"timestamp" bson:"timestamp"`                               // Unix milliseconds when the block was constructed.
	AircraftName           string   `json:"aircraft_name" bson:"aircraft_name"`                       // Aircraft the event belongs to.
	Age                    uint64   `json:"age" bson:"age"`                                           // Age of the aircraft.
	ChangedComponents      []string `json:"changed_components" bson:"changed_components"`             // Components replaced during the event.
	ComponentRepairHistory []string `json:"component_repair_history" bson:"component_repair_history"` // Repairs performed.
	AccidentalRecords      []string `json:"accidental_records" bson:"accidental_records"`             // Incidents recorded.
	PrevBlockHash          string   `json:"previous_hash" bson:"previous_hash"`                       // Hash of the previous block or "0".
	Nonce                  uint64   `json:"nonce" bson:"nonce"`                                       // Value identified to solve the hash solution.
	Hash                   string   `json:"hash" bson:"hash"`                                         // Assigned once mining is complete.
}

// NewBlock constructs the block that follows prevBlock for the specified
// record. A nil prevBlock produces the first block in the chain. The block
// is returned with a zero nonce and no hash.
func NewBlock(prevBlock *Block, record MaintenanceRecord, now time.Time) Block {
	index := uint64(1)
	prevHash := GenesisPrevHash
	if prevBlock != nil {
		index = prevBlock.Index + 1
		prevHash = prevBlock.Hash
	}

	return Block{
		Index:                  index,
		TimeStamp:              uint64(now.UTC().UnixMilli()),
		AircraftName:           record.AircraftName,
		Age:                    record.Age,
		ChangedComponents:      record.ChangedComponents,
		ComponentRepairHistory: record.ComponentRepairHistory,
		AccidentalRecords:      record.AccidentalRecords,
		PrevBlockHash:          prevHash,
	}
}

// GenesisRecord returns the sentinel record used for the genesis block.
func GenesisRecord() MaintenanceRecord {
	return MaintenanceRecord{
		AircraftName:           GenesisAircraftName,
		ChangedComponents:      []string{},
		ComponentRepairHistory: []string{},
		AccidentalRecords:      []string{},
	}
}

// Record returns the maintenance fields carried by the block.
func (b Block) Record() MaintenanceRecord {
	return MaintenanceRecord{
		AircraftName:           b.AircraftName,
		Age:                    b.Age,
		ChangedComponents:      b.ChangedComponents,
		ComponentRepairHistory: b.ComponentRepairHistory,
		AccidentalRecords:      b.AccidentalRecords,
	}
}

// =============================================================================

// canonicalBlock fixes the order the block fields are encoded in. Fields are
// listed in sorted key order and must never be reordered since doing so
// changes every hash in an existing chain. The hash itself is not part of
// the encoding.
type canonicalBlock struct {
	AccidentalRecords      []string
	Age                    uint64
	AircraftName           string
	ChangedComponents      []string
	ComponentRepairHistory []string
	Index                  uint64
	Nonce                  uint64
	PrevBlockHash          string
	TimeStamp              uint64
}

// Encode returns the canonical byte representation of the block used as
// the hashing input.
func (b Block) Encode() ([]byte, error) {
	cb := canonicalBlock{
		AccidentalRecords:      b.AccidentalRecords,
		Age:                    b.Age,
		AircraftName:           b.AircraftName,
		ChangedComponents:      b.ChangedComponents,
		ComponentRepairHistory: b.ComponentRepairHistory,
		Index:                  b.Index,
		Nonce:                  b.Nonce,
		PrevBlockHash:          b.PrevBlockHash,
		TimeStamp:              b.TimeStamp,
	}

	data, err := rlp.EncodeToBytes(cb)
	if err != nil {
		return nil, fmt.Errorf("encode block: %w", err)
	}

	return data, nil
}

// CalculateHash returns the hex encoded SHA-256 digest of the canonical
// encoding. The Hash field is not consulted.
func (b Block) CalculateHash() string {
	data, err := b.Encode()
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ValidateBlock takes a block and validates it to be the next block after
// previousBlock. A nil previousBlock validates the block as the genesis block.
func (b Block) ValidateBlock(previousBlock *Block, difficulty uint, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	hash := b.CalculateHash()
	if hash != b.Hash {
		return fmt.Errorf("block hash doesn't match block contents, got %s, exp %s", b.Hash, hash)
	}

	if !isHashSolved(difficulty, hash) {
		return fmt.Errorf("%s invalid block hash", hash)
	}

	if previousBlock == nil {
		evHandler("database: ValidateBlock: validate: blk[%d]: check: block is the genesis block", b.Index)

		if b.Index != 1 {
			return fmt.Errorf("first block is not number 1, got %d", b.Index)
		}

		if b.PrevBlockHash != GenesisPrevHash {
			return fmt.Errorf("first block has a parent hash, got %s", b.PrevBlockHash)
		}

		return nil
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Index)

	nextNumber := previousBlock.Index + 1
	if b.Index != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Index, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.PrevBlockHash, previousBlock.Hash)
	}

	return nil
}

// =============================================================================

// ErrInvalidDifficulty is returned when a difficulty is outside the range
// the ledger supports.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

// ValidateDifficulty checks the difficulty is between 1 and MaxDifficulty.
func ValidateDifficulty(difficulty uint) error {
	if difficulty == 0 || difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidDifficulty, difficulty, MaxDifficulty)
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0000000000000000"

	if len(hash) != 64 || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
