package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"

	"BankSentinel/internal/model"
)

// WebhookNotifier POSTs classified records to the listener endpoint the
// consuming app registered. It implements dispatch.LiveSink.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

// NewWebhookNotifier creates a notifier for the given listener URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL: url,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// pushPayload is the wire shape delivered to the listener: the full record
// plus a preformatted one-line summary for display surfaces.
type pushPayload struct {
	*model.TransactionRecord
	Summary string `json:"summary"`
}

// Push delivers one record, retrying transient failures a few times before
// giving up. The caller treats any returned error as best-effort loss only;
// the record is already persisted.
func (n *WebhookNotifier) Push(ctx context.Context, rec *model.TransactionRecord) error {
	body, err := json.Marshal(pushPayload{
		TransactionRecord: rec,
		Summary:           FormatRecordSummary(rec),
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	return retry.Do(
		func() error {
			return n.send(ctx, body)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func (n *WebhookNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("push record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("listener error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
