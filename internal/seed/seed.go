// Package seed carries the bundled sample data used when the initial load fails.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/gradebook-api/internal/models"
)

//go:embed sample.json
var sample []byte

// Sample decodes the bundled data set.
func Sample() (models.Dataset, error) {
	var ds models.Dataset
	if err := json.Unmarshal(sample, &ds); err != nil {
		return models.Dataset{}, fmt.Errorf("decode sample dataset: %w", err)
	}
	ds.Normalize()
	return ds, nil
}
