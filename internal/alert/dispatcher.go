package alert

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []Config
	host    string
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty; a nil Dispatcher drops every event.
func NewDispatcher(configs []Config, log zerolog.Logger) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	host, _ := os.Hostname()
	return &Dispatcher{
		configs: configs,
		host:    host,
		log:     log.With().Str("component", "alert").Logger(),
	}
}

// Dispatch sends the event to all webhooks whose Events list contains
// event.Type. Delivery runs in goroutines and never blocks the caller.
func (d *Dispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Host == "" {
		event.Host = d.host
	}
	for _, cfg := range d.configs {
		if matches(cfg.Events, event) {
			go func(cfg Config) {
				if err := Send(cfg, event); err != nil {
					d.log.Warn().Err(err).Str("type", event.Type).Msg("alert delivery failed")
				}
			}(cfg)
		}
	}
}

func matches(events []string, event Event) bool {
	for _, e := range events {
		if e == event.Type {
			return true
		}
	}
	return false
}
