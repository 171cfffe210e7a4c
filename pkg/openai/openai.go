package openai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	gpt "github.com/sashabaranov/go-openai"
	"github.com/scoreforge/scoreforge/pkg/ratelimit"
)

// ErrProse is returned when the service answers in conversational prose
// instead of notation.
var ErrProse = errors.New("openai: response is prose, not notation")

var proseMarkers = []string{"sorry", "apologize", "here is", "here are"}

type Config struct {
	Debug  bool
	Token  string
	Model  string
	Wait   time.Duration
	Client *http.Client
}

type Client struct {
	client    *gpt.Client
	model     string
	debug     bool
	ratelimit ratelimit.Lock
}

func New(cfg *Config) *Client {
	wait := cfg.Wait
	if wait == 0 {
		wait = 1 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	gptCfg := gpt.DefaultConfig(cfg.Token)
	if cfg.Client != nil {
		gptCfg.HTTPClient = cfg.Client
	}
	return &Client{
		client:    gpt.NewClientWithConfig(gptCfg),
		model:     model,
		debug:     cfg.Debug,
		ratelimit: ratelimit.New(wait),
	}
}

func (c *Client) log(format string, args ...interface{}) {
	if c.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

// ChatCompletion sends a system and user message pair and returns the
// trimmed response text.
func (c *Client) ChatCompletion(ctx context.Context, system, prompt string, maxTokens int, temperature, topP float32) (string, error) {
	unlock := c.ratelimit.Lock(ctx)
	defer unlock()

	resp, err := c.client.CreateChatCompletion(ctx, gpt.ChatCompletionRequest{
		Model: c.model,
		Messages: []gpt.ChatCompletionMessage{
			{Role: gpt.ChatMessageRoleSystem, Content: system},
			{Role: gpt.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		return "", fmt.Errorf("openai: couldn't create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: chat completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log("openai: response %s", content)
	return content, nil
}

// Structured requests a JSON object response.
func (c *Client) Structured(ctx context.Context, system, prompt string) (string, error) {
	return c.ChatCompletion(ctx, system, prompt, 500, 0.5, 0.9)
}

// Notation requests notation text and rejects conversational answers.
func (c *Client) Notation(ctx context.Context, system, prompt string) (string, error) {
	content, err := c.ChatCompletion(ctx, system, prompt, 1000, 0.7, 0.9)
	if err != nil {
		return "", err
	}
	if IsProse(content) {
		return "", ErrProse
	}
	return content, nil
}

// IsProse reports whether the text looks like a conversational answer
// instead of notation.
func IsProse(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range proseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
