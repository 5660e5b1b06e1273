package otp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Mailbox reads codes from an HTTP mailbox API returning the latest message
// as JSON: {"from": "...", "subject": "...", "body": "..."}.
type Mailbox struct {
	// URL of the latest-message endpoint. The recipient is passed as "to"
	// and Query as "q" query parameter.
	URL string
	// Query narrows the messages, e.g. "subject:code".
	Query  string
	Client *http.Client
	// Wait is how long to poll for a message carrying a code.
	// Default: 0, a single attempt
	Wait time.Duration
	// Interval between polls.
	// Default: 500ms
	Interval time.Duration
}

func (m *Mailbox) LatestCode(ctx context.Context, recipient string) (string, error) {
	interval := m.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	deadline := time.Now().Add(m.Wait)

	for {
		code, err := m.fetch(ctx, recipient)
		if err == nil || time.Now().After(deadline) {
			return code, err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (m *Mailbox) fetch(ctx context.Context, recipient string) (string, error) {
	u, err := url.Parse(m.URL)
	if err != nil {
		return "", fmt.Errorf("parsing mailbox URL: %w", err)
	}
	q := u.Query()
	q.Set("to", recipient)
	if m.Query != "" {
		q.Set("q", m.Query)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching latest message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: mailbox empty", ErrNoCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mailbox returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading message: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("mailbox returned invalid JSON")
	}

	msg := gjson.ParseBytes(data)
	text := strings.Join([]string{msg.Get("subject").String(), msg.Get("body").String()}, "\n")
	return Extract(text)
}
