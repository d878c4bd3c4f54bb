package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreetDocID(t *testing.T) {
	assert.Equal(t, "nevskii", StreetDocID("невский"))
	assert.Equal(t, "marshala-kazakova", StreetDocID("маршала казакова"))
	assert.Equal(t, "2-ia-sovetskaia", StreetDocID("2-я советская"))
	assert.Equal(t, "", StreetDocID("   "))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, similarity("невский", "невский"))

	// One substitution in a seven-letter word still reads as a typo.
	assert.Greater(t, similarity("невскей", "невский"), 85.0)

	// Unrelated names stay far below the typo threshold.
	assert.Less(t, similarity("невский", "садовая"), 60.0)
}

func TestScoreAgainst_UsesAliases(t *testing.T) {
	doc := StreetDoc{
		Name:     "пр Невский",
		NormName: "невский пр",
		Aliases:  []string{"невский"},
	}
	assert.Equal(t, 100.0, scoreAgainst("невский", doc))
}
