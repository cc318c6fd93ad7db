// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// DefaultDifficulty is the number of leading zeros required when no
// genesis file overrides it.
const DefaultDifficulty = 4

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`       // Fixed timestamp for the genesis block, zero means the time it is created.
	Difficulty uint16    `json:"difficulty"` // How difficult it needs to be to solve the work problem.
}

// Default returns the genesis settings used when no file is provided.
func Default() Genesis {
	return Genesis{
		Difficulty: DefaultDifficulty,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Settings missing from the file
// keep their default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
