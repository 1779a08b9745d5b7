package pluralkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reply_reminder_bot/internal/domain/proxy"
)

const (
	defaultBaseURL   = "https://api.pluralkit.me"
	defaultUserAgent = "reply_reminder_bot/1.0"
)

type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// Client resolves proxied messages through the PluralKit v2 API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

type messageResponse struct {
	ID        string `json:"id"`
	Original  string `json:"original"`
	Channel   string `json:"channel"`
	Guild     string `json:"guild"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// Resolve returns proxy.ErrNotProxied when PluralKit answers 404.
func (c *Client) Resolve(ctx context.Context, messageID string) (*proxy.Message, error) {
	endpoint := c.baseURL + "/v2/messages/" + url.PathEscape(messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build pluralkit request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pluralkit lookup for message %s: %w", messageID, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read pluralkit response: %w", readErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, proxy.ErrNotProxied
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pluralkit lookup failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode pluralkit message: %w", err)
	}
	return parsed.toMessage()
}

func (m messageResponse) toMessage() (*proxy.Message, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"id", m.ID},
		{"original", m.Original},
		{"channel", m.Channel},
		{"guild", m.Guild},
		{"sender", m.Sender},
	}
	for _, f := range fields {
		if _, err := strconv.ParseUint(f.value, 10, 64); err != nil {
			return nil, fmt.Errorf("pluralkit message field %q is not a snowflake: %q", f.name, f.value)
		}
	}
	ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("pluralkit message timestamp: %w", err)
	}
	return &proxy.Message{
		ID:         m.ID,
		OriginalID: m.Original,
		SenderID:   m.Sender,
		ChannelID:  m.Channel,
		GuildID:    m.Guild,
		Timestamp:  ts,
	}, nil
}
