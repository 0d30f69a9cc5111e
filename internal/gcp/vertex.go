package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// --- Title Model Prompts ---
const TitleSystemPrompt = "You write short, clear titles for user questions. Reply with the title only, in the language of the question, without quotes or surrounding punctuation."

// TitleUserPrompt is prepended to the question text ("produce a short, clear title, at most 6 words, for the following question").
const TitleUserPrompt = "צור כותרת קצרה וברורה (עד 6 מילים) לשאלה הבאה:\n\n"

// ErrEmptyResponse is returned when the model produced no text parts.
var ErrEmptyResponse = errors.New("gemini returned an empty response")

// VertexClient holds the pre-configured title model.
type VertexClient struct {
	TitleModel *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexClient creates a client for the given model. apiKey is optional;
// without it the environment's default credentials are used.
func NewVertexClient(ctx context.Context, projectID, region, modelName, apiKey string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("NewVertexClient: modelName cannot be empty")
	}

	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	baseClient, err := genai.NewClient(ctx, projectID, region, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	titleModel := baseClient.GenerativeModel(modelName)
	titleModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TitleSystemPrompt)},
	}
	titleModel.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: genai.Ptr[int32](64),
	}

	return &VertexClient{
		TitleModel: titleModel,
		baseClient: baseClient,
	}, nil
}

// GenerateText sends a single text prompt to the title model and returns the trimmed reply.
func (c *VertexClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.TitleModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
