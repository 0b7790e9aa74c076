package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockConverseAPI is the subset of the Bedrock client used for triage.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClassifier consults a Bedrock model for triage nuance. It is never
// a correctness dependency: callers apply the keyword safety override and
// fall back to rules on any failure.
type BedrockClassifier struct {
	client  BedrockConverseAPI
	modelID string
}

// NewBedrockClassifier creates a BedrockClassifier for the given model.
func NewBedrockClassifier(client BedrockConverseAPI, modelID string) (*BedrockClassifier, error) {
	if client == nil {
		return nil, fmt.Errorf("triage: bedrock client required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, fmt.Errorf("triage: bedrock model id required")
	}
	return &BedrockClassifier{client: client, modelID: modelID}, nil
}

// Assess sends the symptom text to the model and parses its JSON verdict.
func (b *BedrockClassifier) Assess(ctx context.Context, symptoms string) (*Assessment, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: triageSystemPrompt},
		},
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: triagePrompt(symptoms)},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(350),
			Temperature: aws.Float32(0.0),
		},
	}

	resp, err := b.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("triage: bedrock converse: %w", err)
	}

	text := extractResponseText(resp)
	if text == "" {
		return nil, fmt.Errorf("triage: empty model response")
	}
	return parseAssessmentJSON(text)
}

func extractResponseText(resp *bedrockruntime.ConverseOutput) string {
	if resp == nil || resp.Output == nil {
		return ""
	}
	output, ok := resp.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(output.Value.Content) == 0 {
		return ""
	}
	textBlock, ok := output.Value.Content[0].(*brtypes.ContentBlockMemberText)
	if !ok {
		return ""
	}
	return textBlock.Value
}

// parseAssessmentJSON extracts the JSON object from the model response,
// which may be wrapped in markdown fences or prose.
func parseAssessmentJSON(text string) (*Assessment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("triage: no JSON object in model response")
	}

	var wire struct {
		Priority           string   `json:"priority"`
		Reason             string   `json:"reason"`
		Recommendation     string   `json:"recommendation"`
		PossibleConditions []string `json:"possible_conditions"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &wire); err != nil {
		return nil, fmt.Errorf("triage: decode model response: %w", err)
	}

	level, err := ParseLevel(wire.Priority)
	if err != nil {
		return nil, err
	}
	if len(wire.PossibleConditions) > 4 {
		wire.PossibleConditions = wire.PossibleConditions[:4]
	}
	return &Assessment{
		Level:               level,
		Rationale:           wire.Reason,
		Recommendation:      wire.Recommendation,
		CandidateConditions: wire.PossibleConditions,
		Source:              "external",
	}, nil
}

const triageSystemPrompt = `You are a medical triage assistant for a clinic dispatch system. Assess symptoms and respond with a single JSON object only. Never diagnose; suggest possibilities. When in doubt, err on the side of caution.`

func triagePrompt(symptoms string) string {
	return fmt.Sprintf(`Triage these symptoms. Return ONLY a JSON object:

{
  "priority": "LOW" | "MEDIUM" | "HIGH" | "CRITICAL",
  "reason": "one sentence explaining the priority",
  "recommendation": "next steps for the patient, 1-2 sentences",
  "possible_conditions": ["up to four possibilities"]
}

Symptoms: %q`, symptoms)
}
