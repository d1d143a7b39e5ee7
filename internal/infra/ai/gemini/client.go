package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/bryanwahyu/automaton-health/internal/domain/ai"
)

const defaultModel = "gemini-1.5-flash"

// Client talks to the Gemini API through google.golang.org/genai.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates the adapter. The key comes from server-side configuration only.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{client: cli, model: model}, nil
}

func (c *Client) Generate(ctx context.Context, parts []ai.Part) (string, error) {
	gp := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsInline() {
			gp = append(gp, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		gp = append(gp, genai.NewPartFromText(p.Text))
	}
	contents := []*genai.Content{genai.NewContentFromParts(gp, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

// Name returns the provider/model pair for logs.
func (c *Client) Name() string {
	return fmt.Sprintf("gemini:%s", c.model)
}
