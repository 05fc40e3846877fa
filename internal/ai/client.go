// Package ai talks to the external text-completion API used for workout
// plans, recipes and vitamin suggestions. The API is treated as an opaque
// prompt-to-text function over HTTPS: a long-lived OAuth token is exchanged
// for a short-lived IAM token, which then authorizes completion requests via
// bearer auth.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"fitcal/internal/config"
	appLog "fitcal/internal/log"
)

// ErrDisabled is returned when no API credentials are configured.
var ErrDisabled = errors.New("ai: completion API not configured")

// iamTokenLifetime is how long an exchanged IAM token is reused before a
// fresh exchange. Tokens live 12h server-side; refreshing after 11 keeps a
// safety margin.
const iamTokenLifetime = 11 * time.Hour

// Options tune a single completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client is a completion-API client. Safe for concurrent use; the cached
// IAM token is shared across requests.
type Client struct {
	http       *http.Client
	apiURL     string
	iamURL     string
	folderID   string
	oauthToken string

	mu         sync.Mutex
	iamToken   string
	iamFetched time.Time
}

// NewClient builds a client from the AI section of the config. A client with
// missing credentials is still constructed; every call returns ErrDisabled.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		http:       &http.Client{Timeout: 60 * time.Second},
		apiURL:     cfg.APIURL,
		iamURL:     cfg.IAMURL,
		folderID:   cfg.FolderID,
		oauthToken: cfg.OAuthToken,
	}
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.oauthToken != "" && c.folderID != ""
}

// Complete sends a system instruction plus user prompt and returns the
// model's text. Abandoned HTTP requests die with ctx, so a response arriving
// after the caller navigated away is simply dropped.
func (c *Client) Complete(ctx context.Context, system, prompt string, opts Options) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	token, err := c.iamTokenFor(ctx)
	if err != nil {
		return "", fmt.Errorf("ai: obtain IAM token: %w", err)
	}

	body := completionRequest{
		ModelURI: fmt.Sprintf("gpt://%s/yandexgpt", c.folderID),
		CompletionOptions: completionOptions{
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		},
		Messages: []message{
			{Role: "system", Text: system},
			{Role: "user", Text: prompt},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	appLog.Debug("completion request", "url", c.apiURL, "max_tokens", opts.MaxTokens)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ai: completion API returned %s: %s", resp.Status, string(snippet))
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if len(decoded.Result.Alternatives) == 0 {
		return "", errors.New("ai: response has no alternatives")
	}
	return decoded.Result.Alternatives[0].Message.Text, nil
}

// iamTokenFor returns the cached IAM token, exchanging the OAuth token for a
// fresh one when the cache is stale.
func (c *Client) iamTokenFor(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.iamToken != "" && time.Since(c.iamFetched) < iamTokenLifetime {
		return c.iamToken, nil
	}

	payload, err := json.Marshal(map[string]string{
		"yandexPassportOauthToken": c.oauthToken,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.iamURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var decoded struct {
		IAMToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.IAMToken == "" {
		return "", errors.New("token endpoint returned empty token")
	}

	c.iamToken = decoded.IAMToken
	c.iamFetched = time.Now()
	appLog.Debug("IAM token refreshed")
	return c.iamToken, nil
}

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message struct {
				Role string `json:"role"`
				Text string `json:"text"`
			} `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}
