package campaign

import (
	"fmt"
	"strings"
)

// Mode selects how a campaign is dispatched.
type Mode string

const (
	// ModeIndividual sends one personalized message per contact.
	ModeIndividual Mode = "individual"
	// ModeBulk sends a single message listing every member as recipient.
	ModeBulk Mode = "bulk"
)

// DefaultMode is used when a request leaves the mode empty.
const DefaultMode = ModeIndividual

// Modes lists the supported modes.
func Modes() []Mode {
	return []Mode{ModeIndividual, ModeBulk}
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	return m == ModeIndividual || m == ModeBulk
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode parses a mode name case-insensitively. An empty string yields
// DefaultMode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMode, nil
	}
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w %q: must be %q or %q", ErrInvalidMode, s, ModeIndividual, ModeBulk)
	}
	return m, nil
}
