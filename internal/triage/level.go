package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the ordinal triage urgency derived from reported symptoms.
// Higher values are more urgent; the ordering is load-bearing for the
// safety override (an external classifier may raise but never lower it).
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
	LevelCritical
)

var levelNames = map[Level]string{
	LevelLow:      "LOW",
	LevelMedium:   "MEDIUM",
	LevelHigh:     "HIGH",
	LevelCritical: "CRITICAL",
}

// String returns the wire representation (uppercase).
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "LOW"
}

// ParseLevel converts a wire string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return LevelLow, nil
	case "MEDIUM":
		return LevelMedium, nil
	case "HIGH":
		return LevelHigh, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return LevelLow, fmt.Errorf("triage: unknown emergency level %q", s)
	}
}

// MarshalJSON encodes the level as its uppercase name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes an uppercase level name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}
