package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.telegram.org"

// SendOutcome is the terminal classification of a single direct send.
// Classification happens once, here at the API boundary; callers never
// re-derive outcomes from error text.
type SendOutcome int

const (
	OutcomeOK SendOutcome = iota
	// OutcomeBlocked covers permanent recipient failures: the user blocked
	// the bot, was deactivated, or restricts messages. Never retried.
	OutcomeBlocked
	// OutcomeRateLimited carries the server-mandated wait in RetryAfter.
	OutcomeRateLimited
	// OutcomeFailed is any other error. Logged and counted, not retried.
	OutcomeFailed
)

func (o SendOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// SendResult is the typed per-recipient result of SendDirect.
type SendResult struct {
	Outcome    SendOutcome
	RetryAfter time.Duration // set for OutcomeRateLimited
	Err        error
}

// APIError is a non-ok response from the Bot API.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

// ChatMember is the subset of getChatMember the core needs.
type ChatMember struct {
	Status string `json:"status"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type sentMessage struct {
	MessageID int `json:"message_id"`
}

type apiResponse struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// SendOptions carries the optional parts of sendMessage.
type SendOptions struct {
	ReplyTo        int
	Markup         *InlineKeyboardMarkup
	DisablePreview bool
}

// Client is a thin Bot API adapter: form-encoded calls, typed errors.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	logger     zerolog.Logger
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
		baseURL:    defaultBaseURL,
		logger:     log.With().Str("component", "telegram").Logger(),
	}
}

// WithBaseURL overrides the API host, used by tests against a local stub.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// SendMessage posts HTML-formatted text to a chat and returns the new
// message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error) {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}
	if opts != nil {
		if opts.ReplyTo != 0 {
			params.Set("reply_to_message_id", strconv.Itoa(opts.ReplyTo))
		}
		if opts.DisablePreview {
			params.Set("disable_web_page_preview", "true")
		}
		if opts.Markup != nil {
			markup, err := json.Marshal(opts.Markup)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal reply markup: %w", err)
			}
			params.Set("reply_markup", string(markup))
		}
	}

	var sent sentMessage
	if err := c.call(ctx, "sendMessage", params, &sent); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendDirect sends a private message to a user and classifies the result.
// It never returns an error: the classification is the result.
func (c *Client) SendDirect(ctx context.Context, userID int64, text string) SendResult {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(userID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	err := c.call(ctx, "sendMessage", params, nil)
	if err == nil {
		return SendResult{Outcome: OutcomeOK}
	}

	if apiErr, ok := err.(*APIError); ok {
		switch apiErr.Code {
		case http.StatusForbidden:
			// "bot was blocked by the user" / "user is deactivated"
			return SendResult{Outcome: OutcomeBlocked, Err: apiErr}
		case http.StatusTooManyRequests:
			return SendResult{Outcome: OutcomeRateLimited, RetryAfter: apiErr.RetryAfter, Err: apiErr}
		}
	}
	return SendResult{Outcome: OutcomeFailed, Err: err}
}

// GetChatMember returns the membership status of a user in a chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (string, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}

	var member ChatMember
	if err := c.call(ctx, "getChatMember", params, &member); err != nil {
		return "", err
	}
	return member.Status, nil
}

// GetChat fetches chat metadata, used when registering a channel.
func (c *Client) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
	}

	var chat Chat
	if err := c.call(ctx, "getChat", params, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if !apiResp.Ok {
		apiErr := &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
		if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
		}
		c.logger.Debug().
			Str("method", method).
			Int("code", apiErr.Code).
			Str("description", apiErr.Description).
			Msg("Telegram API returned an error")
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}
