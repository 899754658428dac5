package alert

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// EventHeader carries the event type so receivers can route without
// parsing the body.
const EventHeader = "X-Hostwarden-Event"

// errRejected marks a 4xx answer; the receiver will not change its mind.
var errRejected = errors.New("webhook rejected")

// Send delivers one gateway event to cfg. Transport failures and 5xx
// answers are retried up to cfg's attempt budget, waiting attempt*Backoff
// between tries.
func Send(cfg Config, event Event) error {
	if !KnownEvent(event.Type) {
		return fmt.Errorf("alert: unknown event type %q", event.Type)
	}
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	client := &http.Client{Timeout: cfg.timeout()}
	attempts := cfg.attempts()
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * cfg.backoff())
		}
		lastErr = post(client, cfg, event.Type, body)
		if lastErr == nil || errors.Is(lastErr, errRejected) {
			return lastErr
		}
	}
	return fmt.Errorf("%s not delivered after %d attempts: %w", event.Type, attempts, lastErr)
}

func post(client *http.Client, cfg Config, typ string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, typ)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: HTTP %d", errRejected, resp.StatusCode)
	default:
		return fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}
}
