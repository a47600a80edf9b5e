package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and trims",
			input: "  POS PRCH Chicken Republic  ",
			want:  "pos prch chicken republic",
		},
		{
			name:  "strips NIP session reference",
			input: "TRANSFER TO CHIDI NIP/000013250105 OKEKE",
			want:  "transfer to chidi okeke",
		},
		{
			name:  "strips bare long digit runs",
			input: "OPAY 20250105123456 MARKET WOMEN ASSOC",
			want:  "opay market women assoc",
		},
		{
			name:  "collapses whitespace",
			input: "SALARY   PAYMENT\tMARCH",
			want:  "salary payment march",
		},
		{
			name:  "empty stays empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescription(tt.input))
		})
	}
}

func TestNormalizeIsStable(t *testing.T) {
	once := NormalizeDescription("POS PRCH Chicken Republic REF:ABC12345")
	twice := NormalizeDescription(once)
	assert.Equal(t, once, twice)
}

func TestTrigramSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, trigramSimilarity("transfer to chidi", "transfer to chidi"), 0.0001)
	assert.InDelta(t, 0.0, trigramSimilarity("", "transfer"), 0.0001)

	similar := trigramSimilarity("transfer to chidi okeke", "transfer to chidi okek")
	unrelated := trigramSimilarity("transfer to chidi okeke", "ekedc prepaid token")
	assert.Greater(t, similar, 0.55)
	assert.Less(t, unrelated, 0.2)
	assert.Greater(t, similar, unrelated)
}
