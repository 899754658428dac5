// Package notify broadcasts the one-shot startup notification to every
// allow-listed operator.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/hostwarden/internal/transport"
)

// Sender posts a message to one chat. transport.Transport satisfies it.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg transport.Message) (int, error)
}

// Result counts broadcast deliveries.
type Result struct {
	Delivered int
	Failed    int
}

// Broadcast sends text with the main-menu keyboard to every operator.
// Per-recipient failures are logged and skipped; Broadcast never fails.
func Broadcast(ctx context.Context, s Sender, operators []int64, text string, log zerolog.Logger) Result {
	log = log.With().Str("component", "notify").Logger()
	var res Result
	for _, id := range operators {
		if ctx.Err() != nil {
			res.Failed += len(operators) - res.Delivered - res.Failed
			break
		}
		if _, err := s.Send(ctx, id, transport.Message{Text: text, MainMenu: true}); err != nil {
			log.Warn().Err(err).Int64("operator_id", id).Msg("startup notification failed")
			res.Failed++
			continue
		}
		res.Delivered++
	}
	log.Info().Int("delivered", res.Delivered).Int("failed", res.Failed).Msg("startup notification sent")
	return res
}

// StartupMessage is the text of the startup notification.
func StartupMessage(hostname string, uptime time.Duration) string {
	if hostname == "" {
		hostname = "host"
	}
	return fmt.Sprintf("%s is online\nUptime: %s", hostname, FormatUptime(uptime))
}

// FormatUptime renders d as "2 d 3 h 4 min", dropping leading zero units.
// Anything under a minute is "less than a minute".
func FormatUptime(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	mins := int(d%time.Hour) / int(time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%d d %d h %d min", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%d h %d min", hours, mins)
	default:
		return fmt.Sprintf("%d min", mins)
	}
}
