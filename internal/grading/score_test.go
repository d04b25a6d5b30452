package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, models.ClassificationOutstanding, Classify(models.Score(0)))
	assert.Equal(t, models.ClassificationRemedial, Classify(models.Score(69)))
	assert.Equal(t, models.ClassificationNone, Classify(models.Score(70)))
	assert.Equal(t, models.ClassificationRemedial, Classify(models.Score(0.5)))
	assert.Equal(t, models.ClassificationNone, Classify(models.Score(100)))
	assert.Equal(t, models.ClassificationNone, Classify(nil))
}

func TestParseScore(t *testing.T) {
	score, err := ParseScore("")
	require.NoError(t, err)
	assert.Nil(t, score)

	score, err = ParseScore("   ")
	require.NoError(t, err)
	assert.Nil(t, score)

	score, err = ParseScore("0")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, 0.0, *score)

	score, err = ParseScore("150")
	require.NoError(t, err)
	assert.Equal(t, 100.0, *score)

	score, err = ParseScore("-5")
	require.NoError(t, err)
	assert.Equal(t, 0.0, *score)

	score, err = ParseScore("87,5")
	require.NoError(t, err)
	assert.Equal(t, 87.5, *score)

	_, err = ParseScore("abc")
	assert.Error(t, err)

	_, err = ParseScore("NaN")
	assert.Error(t, err)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-1))
	assert.Equal(t, 55.5, ClampScore(55.5))
	assert.Equal(t, 100.0, ClampScore(101))
}
