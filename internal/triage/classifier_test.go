package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicore/dispatch/pkg/logging"
)

func TestClassifyEmptyInput(t *testing.T) {
	c := NewClassifier(logging.Default())

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := c.Classify(context.Background(), input); !errors.Is(err, ErrEmptySymptoms) {
			t.Errorf("input %q: expected ErrEmptySymptoms, got %v", input, err)
		}
	}
}

func TestClassifyTiers(t *testing.T) {
	c := NewClassifier(logging.Default())

	tests := []struct {
		symptoms string
		want     Level
	}{
		{"chest pain and can't breathe", LevelCritical},
		{"patient is unconscious after a fall", LevelCritical},
		{"grandmother showing stroke signs, slurred speech", LevelCritical},
		{"took an overdose of sleeping pills", LevelCritical},
		{"severe pain in lower back", LevelHigh},
		{"high fever that won't come down", LevelHigh},
		{"possible broken bone after bike accident", LevelHigh},
		{"vomiting blood since last night", LevelHigh},
		{"mild fever and runny nose", LevelMedium},
		{"dizziness when standing up", LevelMedium},
		{"mild headache since this morning", LevelLow},
		{"itchy skin rash", LevelLow},
	}

	for _, tt := range tests {
		got, err := c.Classify(context.Background(), tt.symptoms)
		if err != nil {
			t.Fatalf("symptoms %q: unexpected error: %v", tt.symptoms, err)
		}
		if got.Level != tt.want {
			t.Errorf("symptoms %q: expected %s, got %s", tt.symptoms, tt.want, got.Level)
		}
		if got.Source != "rules" {
			t.Errorf("symptoms %q: expected rules source, got %s", tt.symptoms, got.Source)
		}
		if got.Rationale == "" || got.Recommendation == "" {
			t.Errorf("symptoms %q: rationale and recommendation must be populated", tt.symptoms)
		}
	}
}

func TestFirstMatchingTierWins(t *testing.T) {
	c := NewClassifier(logging.Default())

	// "pain" alone is MEDIUM, but "chest pain" is CRITICAL and must win.
	got, err := c.Classify(context.Background(), "chest pain, mild fever, general pain")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelCritical {
		t.Fatalf("expected CRITICAL from precedence ordering, got %s", got.Level)
	}
}

type stubExternal struct {
	assessment *Assessment
	err        error
	delay      time.Duration
}

func (s *stubExternal) Assess(ctx context.Context, symptoms string) (*Assessment, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.assessment, s.err
}

func TestSafetyOverrideNeverDowngrades(t *testing.T) {
	// A misconfigured external classifier returns LOW for a clearly
	// critical description; keywords must hold the floor.
	ext := &stubExternal{assessment: &Assessment{
		Level:          LevelLow,
		Rationale:      "looks fine",
		Recommendation: "rest at home",
	}}
	c := NewClassifier(logging.Default(), WithExternal(ext))

	got, err := c.Classify(context.Background(), "heart attack symptoms, chest pressure")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelCritical {
		t.Fatalf("safety override violated: expected CRITICAL, got %s", got.Level)
	}
}

func TestExternalMayRaiseLevel(t *testing.T) {
	ext := &stubExternal{assessment: &Assessment{
		Level:               LevelHigh,
		Rationale:           "concerning combination of symptoms",
		Recommendation:      "seek emergency care",
		CandidateConditions: []string{"Appendicitis"},
	}}
	c := NewClassifier(logging.Default(), WithExternal(ext))

	// Keywords alone say LOW; the external classifier may raise.
	got, err := c.Classify(context.Background(), "dull ache in lower right abdomen")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelHigh {
		t.Fatalf("expected external classifier to raise to HIGH, got %s", got.Level)
	}
	if got.Source != "external" {
		t.Errorf("expected external source, got %s", got.Source)
	}
}

func TestExternalFailureFallsBack(t *testing.T) {
	ext := &stubExternal{err: errors.New("connection refused")}
	c := NewClassifier(logging.Default(), WithExternal(ext))

	got, err := c.Classify(context.Background(), "severe pain in shoulder")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelHigh {
		t.Fatalf("expected HIGH from keyword fallback, got %s", got.Level)
	}
	if got.Source != "rules_fallback" {
		t.Errorf("expected rules_fallback source, got %s", got.Source)
	}
}

func TestExternalTimeoutFallsBack(t *testing.T) {
	ext := &stubExternal{
		assessment: &Assessment{Level: LevelLow},
		delay:      200 * time.Millisecond,
	}
	c := NewClassifier(logging.Default(), WithExternal(ext), WithTimeout(10*time.Millisecond))

	start := time.Now()
	got, err := c.Classify(context.Background(), "high fever and chills")
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("classify blocked past the timeout: %s", elapsed)
	}
	if got.Level != LevelHigh {
		t.Fatalf("expected keyword HIGH after timeout, got %s", got.Level)
	}
	if got.Source != "rules_fallback" {
		t.Errorf("expected rules_fallback source, got %s", got.Source)
	}
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]Level{
		"low":      LevelLow,
		"MEDIUM":   LevelMedium,
		" high ":   LevelHigh,
		"CRITICAL": LevelCritical,
	} {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := ParseLevel("URGENT"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelOrdering(t *testing.T) {
	if !(LevelLow < LevelMedium && LevelMedium < LevelHigh && LevelHigh < LevelCritical) {
		t.Fatal("level ordering must be LOW < MEDIUM < HIGH < CRITICAL")
	}
	if MaxLevel(LevelLow, LevelCritical) != LevelCritical {
		t.Error("MaxLevel should return the higher level")
	}
}
