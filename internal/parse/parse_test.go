package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomNumber(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedRoom
		expectErr bool
	}{
		{
			name:     "Three digits",
			raw:      "101",
			expected: ParsedRoom{Number: "101", Floor: 1},
		},
		{
			name:     "Four digits",
			raw:      "1203",
			expected: ParsedRoom{Number: "1203", Floor: 12},
		},
		{
			name:     "Block prefix",
			raw:      "A-204",
			expected: ParsedRoom{Number: "A-204", Floor: 2},
		},
		{
			name:     "Surrounding spaces are trimmed",
			raw:      "  B 310 ",
			expected: ParsedRoom{Number: "B 310", Floor: 3},
		},
		{
			name:     "Ground floor label",
			raw:      "G01",
			expected: ParsedRoom{Number: "G01", Floor: 0},
		},
		{
			name:     "No digits",
			raw:      "Annex",
			expected: ParsedRoom{Number: "Annex", Floor: 0},
		},
		{
			name:      "Blank",
			raw:       "   ",
			expectErr: true,
		},
		{
			name:      "Too long",
			raw:       strings.Repeat("9", 65),
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := RoomNumber(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, parsed)
		})
	}
}

func TestEmail(t *testing.T) {
	email, err := Email("  John@Example.COM ")
	assert.NoError(t, err)
	assert.Equal(t, "john@example.com", email)

	_, err = Email("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Email("not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = Email("two@@example.com")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestName(t *testing.T) {
	name, err := Name("  John Doe ")
	assert.NoError(t, err)
	assert.Equal(t, "John Doe", name)

	_, err = Name("\t")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Name(strings.Repeat("x", 129))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestPhone(t *testing.T) {
	phone, err := Phone(" +44 20 7946 0000 ")
	assert.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0000", phone)

	phone, err = Phone("")
	assert.NoError(t, err)
	assert.Empty(t, phone)

	_, err = Phone(strings.Repeat("1", 33))
	assert.ErrorIs(t, err, ErrTooLong)
}
