package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const (
	// MinScore and MaxScore bound every stored score.
	MinScore = 0.0
	MaxScore = 100.0
	// RemedialThreshold is the passing mark; completed scores below it need remediation.
	RemedialThreshold = 70.0
)

// ClampScore bounds v to [0,100].
func ClampScore(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// ParseScore turns raw user input into a stored score. Blank input is unset, never zero.
// Commas are accepted as decimal separators.
func ParseScore(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("score %q is not a number", raw)
	}
	if math.IsNaN(v) {
		return nil, fmt.Errorf("score %q is not a number", raw)
	}
	v = ClampScore(v)
	return &v, nil
}

// Classify flags a score: exactly zero is outstanding work, (0,70) needs remediation.
func Classify(score *float64) models.Classification {
	if score == nil {
		return models.ClassificationNone
	}
	switch {
	case *score == 0:
		return models.ClassificationOutstanding
	case *score > 0 && *score < RemedialThreshold:
		return models.ClassificationRemedial
	default:
		return models.ClassificationNone
	}
}
