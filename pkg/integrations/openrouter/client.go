package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/integrations"
)

const service = "openrouter"

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultReferer identifies the app to OpenRouter.
const DefaultReferer = "http://localhost:8033"

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client sends chat completions to any model OpenRouter routes to.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	apiKey  string
	referer string
}

// NewClient creates a completion client. Answers are cached in backend for
// cacheTTL, keyed by model and prompt.
func NewClient(backend cache.Cache, apiKey string, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, service, cacheTTL, nil),
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		referer: DefaultReferer,
	}
}

// WithBaseURL points the client at another host. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithReferer sets the HTTP-Referer header OpenRouter attributes usage to.
func (c *Client) WithReferer(r string) *Client {
	if r != "" {
		c.referer = r
	}
	return c
}

// Configured reports whether the client holds a usable API key.
func (c *Client) Configured() bool { return integrations.HasKey(c.apiKey) }

// Complete sends prompt as a single user message to model and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, model, prompt string, refresh bool) (string, error) {
	if err := errors.ValidateModel(model); err != nil {
		return "", err
	}
	if err := errors.ValidatePrompt(prompt); err != nil {
		return "", err
	}
	if !c.Configured() {
		return "", integrations.ErrNoCredentials(service)
	}

	var answer string
	err := c.Cached(ctx, "chat", model, prompt, refresh, &answer, func() error {
		var resp chatResponse
		headers := map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"HTTP-Referer":  c.referer,
		}
		req := chatRequest{Model: model, Messages: []Message{{Role: "user", Content: prompt}}}
		if err := c.PostJSON(ctx, c.baseURL+"/chat/completions", headers, req, &resp); err != nil {
			return err
		}
		if resp.Error != nil {
			return errors.New(errors.ErrCodeNetwork, "%s: %s", service, resp.Error.Message)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return errors.New(errors.ErrCodeInvalidFormat, "%s: empty completion", service)
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	return answer, err
}

// ScenePrompt wraps concept text in the instruction used to expand it into
// a storyboard scene.
func ScenePrompt(concept string) string {
	return "Expand this concept into a short storyboard scene with a setting, " +
		"characters and three beats. Keep it under 150 words.\n\nConcept: " + strings.TrimSpace(concept)
}

// Mock returns the canned scene used when completions are unavailable.
func Mock(model, prompt string) string {
	return fmt.Sprintf("MOCK SCENE\n\nModel: %s\n\nBased on: %s\n\nFADE OUT.", model, strings.TrimSpace(prompt))
}
