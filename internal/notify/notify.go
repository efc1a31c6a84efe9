// Package notify sends guest SMS messages through an HTTP gateway. Delivery
// is best-effort: a failed send is reported to the caller as a warning and
// never affects the state transition that triggered it.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

var ErrSendFailed = errors.New("failed to send notification")

// Sender is the trigger surface the coordinator calls at well-defined
// transition points. Phone numbers must already be in international form.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// HTTPSender posts messages to an SMS gateway endpoint.
type HTTPSender struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewHTTPSender(url, token string) *HTTPSender {
	return &HTTPSender{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *HTTPSender) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(sendRequest{To: phone, Body: message})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}
	return nil
}
