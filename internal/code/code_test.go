package code

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Annarex/test-app-sub000/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"000 1 00 00000 00 0000 000", "00010000000000000000"},
		{"10000000000000000", "00010000000000000000"},
		{" 00010100000000000000 ", "00010100000000000000"},
		{"", ""},
		{"0001 0102 А00000000 000", "00010102А00000000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.input), "input: %q", tt.input)
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero("00000000000000000000"))
	assert.True(t, IsZero("000 0 00 00000 00 0000 000"))
	assert.False(t, IsZero("00010000000000000000"))
	assert.False(t, IsZero(""))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		code    string
		section model.Section
		want    string
	}{
		{"00010100000000000000", model.SectionIncome, "000 1 01 00000 00 0000 000"},
		{"00001000000000000000", model.SectionExpense, "000 0100 0000000000 000"},
		{"00001000000000000000", model.SectionFinancing, "000 01 00 00 00 00 0000 000"},
		{"00010100000000000000", model.SectionConsolidated, "00010100000000000000"},
		{"123", model.SectionIncome, "123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.code, tt.section), "code %s in %s", tt.code, tt.section)
	}
}
