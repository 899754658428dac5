package alert

import (
	"fmt"
	"net/url"
	"time"
)

// Event types the gateway raises.
const (
	EventOperatorBlocked = "operator_blocked"
	EventPolicyDenied    = "policy_denied"
)

// Delivery defaults applied when a webhook leaves the field unset.
const (
	DefaultAttempts = 3
	DefaultBackoff  = time.Second
	DefaultTimeout  = 5 * time.Second
)

// Config is one webhook destination and its delivery policy.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"`
	Headers map[string]string `yaml:"headers" json:"headers"`

	// Attempts is the total number of POSTs per event; 1 disables retries.
	Attempts int `yaml:"attempts" json:"attempts"`
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration `yaml:"backoff" json:"backoff"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Event is what the gateway reports: a blocked operator or a denied intent.
type Event struct {
	Timestamp  string `json:"timestamp"`
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	Host       string `json:"host"`
	OperatorID int64  `json:"operator_id"`
	Username   string `json:"username,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Resource   string `json:"resource,omitempty"`
	Reason     string `json:"reason"`
}

// KnownEvent reports whether typ is an event type the gateway raises.
func KnownEvent(typ string) bool {
	return typ == EventOperatorBlocked || typ == EventPolicyDenied
}

// Validate rejects a webhook that could never deliver.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("alert url %q must be an http(s) URL", c.URL)
	}
	switch c.Format {
	case "", "generic", "slack", "pagerduty":
	default:
		return fmt.Errorf("alert %s: unknown format %q", u.Host, c.Format)
	}
	if len(c.Events) == 0 {
		return fmt.Errorf("alert %s: no events selected", u.Host)
	}
	for _, e := range c.Events {
		if !KnownEvent(e) {
			return fmt.Errorf("alert %s: unknown event %q", u.Host, e)
		}
	}
	if c.Attempts < 0 || c.Backoff < 0 || c.Timeout < 0 {
		return fmt.Errorf("alert %s: attempts, backoff and timeout must not be negative", u.Host)
	}
	return nil
}

func (c Config) attempts() int {
	if c.Attempts <= 0 {
		return DefaultAttempts
	}
	return c.Attempts
}

func (c Config) backoff() time.Duration {
	if c.Backoff <= 0 {
		return DefaultBackoff
	}
	return c.Backoff
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
