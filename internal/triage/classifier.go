package triage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clinicore/dispatch/pkg/logging"
)

// ErrEmptySymptoms is returned when the symptom text is empty or whitespace.
var ErrEmptySymptoms = errors.New("triage: symptom description is required")

// Assessment is the classifier output for a symptom description.
type Assessment struct {
	Level               Level    `json:"level"`
	Rationale           string   `json:"rationale"`
	Recommendation      string   `json:"recommendation"`
	CandidateConditions []string `json:"candidate_conditions"`

	// Source records which path produced the assessment:
	// "rules", "external", or "rules_fallback" when the external
	// classifier failed and the keyword engine answered alone.
	Source string `json:"source"`
}

// External augments keyword triage with free-text rationale and candidate
// conditions. Implementations must honor the context deadline; a failure or
// malformed result never degrades availability, only nuance.
type External interface {
	Assess(ctx context.Context, symptoms string) (*Assessment, error)
}

// Classifier maps free-text symptoms onto a triage level using layered
// keyword tiers evaluated in strict precedence order. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	external External
	timeout  time.Duration
	logger   *logging.Logger
}

// keyword tiers, checked most-urgent first. First matching tier wins;
// there is no scoring across tiers.
var criticalKeywords = []string{
	"chest pain", "chest pressure", "heart attack", "cardiac arrest",
	"stroke", "facial droop", "slurred speech",
	"unconscious", "passed out", "not breathing",
	"can't breathe", "cannot breathe", "breathing difficulty",
	"difficulty breathing", "shortness of breath", "gasping",
	"severe bleeding", "gushing blood", "hemorrhage",
	"seizure", "overdose", "poisoning", "anaphylaxis",
	"swelling of tongue",
}

var highKeywords = []string{
	"severe pain", "uncontrolled pain", "high fever",
	"vomiting blood", "head injury", "hit head", "concussion",
	"broken bone", "broken", "fracture", "accident",
	"significant bleeding",
}

var mediumKeywords = []string{
	"fever", "pain", "vomit", "dizziness", "dehydrated",
	"cannot keep food down",
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithExternal attaches an optional external classifier.
func WithExternal(ext External) Option {
	return func(c *Classifier) { c.external = ext }
}

// WithTimeout bounds every external classifier call. Exceeding it is
// treated identically to a network failure.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClassifier builds a Classifier. All options are optional; with none,
// the keyword engine answers alone.
func NewClassifier(logger *logging.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Classifier{logger: logger, timeout: 3 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify assesses the symptom text. Empty or whitespace-only input is
// rejected with ErrEmptySymptoms rather than silently defaulted.
//
// When an external classifier is configured it is consulted for nuance,
// but its level is subject to the safety override: the keyword result is
// a floor it can raise, never lower. Any external failure falls back to
// the keyword assessment.
func (c *Classifier) Classify(ctx context.Context, symptoms string) (*Assessment, error) {
	trimmed := strings.TrimSpace(symptoms)
	if trimmed == "" {
		return nil, ErrEmptySymptoms
	}

	rules := classifyByRules(trimmed)
	if c.external == nil {
		return rules, nil
	}

	extCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ext, err := c.external.Assess(extCtx, trimmed)
	if err != nil || ext == nil {
		c.logger.Warn("external classifier unavailable, using keyword engine",
			"error", err,
		)
		fallback := *rules
		fallback.Source = "rules_fallback"
		return &fallback, nil
	}

	merged := *ext
	merged.Source = "external"
	// Safety override: keywords set the floor.
	if rules.Level > merged.Level {
		merged.Rationale = rules.Rationale
		merged.Recommendation = rules.Recommendation
	}
	merged.Level = MaxLevel(merged.Level, rules.Level)
	if len(merged.CandidateConditions) == 0 {
		merged.CandidateConditions = rules.CandidateConditions
	}
	return &merged, nil
}

// classifyByRules is the deterministic keyword engine. It is the default
// path, not an edge case: every external failure lands here.
func classifyByRules(symptoms string) *Assessment {
	s := strings.ToLower(symptoms)

	if matchesAny(s, criticalKeywords) {
		return &Assessment{
			Level:          LevelCritical,
			Rationale:      "Symptoms suggest a potentially life-threatening condition",
			Recommendation: "Request an ambulance immediately",
			CandidateConditions: []string{
				"Medical Emergency", "Requires Immediate Evaluation",
			},
			Source: "rules",
		}
	}

	if matchesAny(s, highKeywords) {
		return &Assessment{
			Level:          LevelHigh,
			Rationale:      "Symptoms are urgent and need emergency care",
			Recommendation: "Visit the emergency room immediately or request an ambulance",
			CandidateConditions: []string{
				"Requires Medical Evaluation",
			},
			Source: "rules",
		}
	}

	if matchesAny(s, mediumKeywords) {
		return &Assessment{
			Level:          LevelMedium,
			Rationale:      "Symptoms need same-day medical attention",
			Recommendation: "Visit a doctor today or go to emergency if symptoms worsen",
			CandidateConditions: []string{
				"Requires Medical Evaluation",
			},
			Source: "rules",
		}
	}

	return &Assessment{
		Level:          LevelLow,
		Rationale:      "Mild symptoms that can likely be managed at home",
		Recommendation: "Rest, stay hydrated, and see a doctor if symptoms persist beyond 3-5 days",
		CandidateConditions: []string{
			"Common Cold", "Viral Infection", "Minor Ailment",
		},
		Source: "rules",
	}
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
