package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNationalID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid sequential", "12345678950", true},
		{"valid sparse", "10000000078", true},
		{"wrong ninth check digit", "12345678940", false},
		{"wrong tenth check digit", "12345678951", false},
		{"too short", "1234567895", false},
		{"too long", "123456789501", false},
		{"non-digit", "1234567895a", false},
		{"empty", "", false},
		{"spaces", "12345 78950", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateNationalID(tt.input))
		})
	}
}

// Flipping any single digit of a valid number must break at least one of
// the two checksum equations for most positions; verify that at least one
// mutation per position flips validity.
func TestValidateNationalIDSingleDigitMutation(t *testing.T) {
	const valid = "12345678950"
	assert.True(t, ValidateNationalID(valid))

	for pos := 0; pos < len(valid); pos++ {
		flipped := false
		for c := byte('0'); c <= '9'; c++ {
			if c == valid[pos] {
				continue
			}
			mutated := valid[:pos] + string(c) + valid[pos+1:]
			if !ValidateNationalID(mutated) {
				flipped = true
				break
			}
		}
		assert.True(t, flipped, "no mutation at position %d flipped validity", pos)
	}
}

func TestValidateTaxID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid check below two", "1234567891", true},
		{"valid check complemented", "0000000019", true},
		{"wrong check digit", "1234567890", false},
		{"too short", "123456789", false},
		{"too long", "12345678911", false},
		{"non-digit", "123456789x", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTaxID(tt.input))
		})
	}
}
