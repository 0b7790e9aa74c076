package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeConverse struct {
	text string
	err  error
}

func (f *fakeConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: f.text},
				},
			},
		},
	}, nil
}

func TestNewBedrockClassifierValidation(t *testing.T) {
	if _, err := NewBedrockClassifier(nil, "model"); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := NewBedrockClassifier(&fakeConverse{}, "  "); err == nil {
		t.Error("expected error for blank model id")
	}
}

func TestBedrockAssessParsesJSON(t *testing.T) {
	client := &fakeConverse{text: "Here is my assessment:\n```json\n" +
		`{"priority":"HIGH","reason":"possible fracture","recommendation":"go to the ER","possible_conditions":["Fracture","Sprain"]}` +
		"\n```"}
	b, err := NewBedrockClassifier(client, "anthropic.claude-3-haiku")
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.Assess(context.Background(), "fell off a ladder, ankle swollen")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelHigh {
		t.Errorf("expected HIGH, got %s", got.Level)
	}
	if got.Rationale != "possible fracture" {
		t.Errorf("unexpected rationale %q", got.Rationale)
	}
	if len(got.CandidateConditions) != 2 {
		t.Errorf("expected 2 conditions, got %v", got.CandidateConditions)
	}
}

func TestBedrockAssessMalformedOutput(t *testing.T) {
	for name, text := range map[string]string{
		"no json":       "I cannot help with that.",
		"bad priority":  `{"priority":"URGENT","reason":"x"}`,
		"invalid json":  `{"priority": }`,
		"empty message": "",
	} {
		t.Run(name, func(t *testing.T) {
			b, err := NewBedrockClassifier(&fakeConverse{text: text}, "model")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := b.Assess(context.Background(), "headache"); err == nil {
				t.Error("expected error for malformed model output")
			}
		})
	}
}

func TestBedrockAssessTransportError(t *testing.T) {
	b, err := NewBedrockClassifier(&fakeConverse{err: errors.New("throttled")}, "model")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Assess(context.Background(), "headache"); err == nil {
		t.Error("expected transport error to propagate")
	}
}
