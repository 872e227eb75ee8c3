package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmpty        = errors.New("value is empty")
	ErrTooLong      = errors.New("value is too long")
	ErrInvalidEmail = errors.New("invalid email format")
)

const (
	maxRoomNumberLen = 64
	maxNameLen       = 128
	maxEmailLen      = 255
	maxPhoneLen      = 32
)

var (
	trailingDigitsRe = regexp.MustCompile(`(\d+)\s*$`)
	validate         = validator.New()
)

// ParsedRoom holds a normalised room label and the floor derived from it.
type ParsedRoom struct {
	Number string
	Floor  int
}

// RoomNumber trims a room label and infers its floor from the trailing
// digit run: everything but the last two digits is the floor, so "101" is
// on floor 1, "1203" on floor 12 and "A-204" on floor 2. Labels with fewer
// than three trailing digits are placed on floor 0.
func RoomNumber(raw string) (ParsedRoom, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedRoom{}, fmt.Errorf("roomNumber: %w", ErrEmpty)
	}
	if utf8.RuneCountInString(s) > maxRoomNumberLen {
		return ParsedRoom{}, fmt.Errorf("roomNumber: %w", ErrTooLong)
	}

	parsed := ParsedRoom{Number: s}
	if m := trailingDigitsRe.FindStringSubmatch(s); len(m) == 2 && len(m[1]) >= 3 {
		if floor, err := strconv.Atoi(m[1][:len(m[1])-2]); err == nil {
			parsed.Floor = floor
		}
	}
	return parsed, nil
}

// Email trims and lower-cases an address and checks its syntax.
func Email(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("email: %w", ErrEmpty)
	}
	if len(s) > maxEmailLen {
		return "", fmt.Errorf("email: %w", ErrTooLong)
	}
	if err := validate.Var(s, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	return s, nil
}

// Name trims a person's name and rejects blank or oversized values.
func Name(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("name: %w", ErrEmpty)
	}
	if utf8.RuneCountInString(s) > maxNameLen {
		return "", fmt.Errorf("name: %w", ErrTooLong)
	}
	return s, nil
}

// Phone trims an optional phone number. Empty input is allowed.
func Phone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if utf8.RuneCountInString(s) > maxPhoneLen {
		return "", fmt.Errorf("phone: %w", ErrTooLong)
	}
	return s, nil
}
