// Package gateway runs the event loop that stands between the transport
// and the host: every inbound event is authorized, decoded, filtered and
// dispatched to completion before the next one is read.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/hostwarden/internal/alert"
	"github.com/ppiankov/hostwarden/internal/audit"
	"github.com/ppiankov/hostwarden/internal/denylist"
	"github.com/ppiankov/hostwarden/internal/gate"
	"github.com/ppiankov/hostwarden/internal/intent"
	"github.com/ppiankov/hostwarden/internal/router"
	"github.com/ppiankov/hostwarden/internal/session"
	"github.com/ppiankov/hostwarden/internal/transport"
)

// NoAccess is the callback acknowledgment shown to unauthorized operators.
const NoAccess = "No access"

// SafetyFilter classifies destructive intents. *denylist.Denylist implements it.
type SafetyFilter interface {
	ClassifyCommand(command string) denylist.Classification
	ClassifyUpload(filename string) denylist.Classification
}

// Config wires a Gateway. Audit and Alerts are optional.
type Config struct {
	Transport transport.Transport
	Gate      *gate.Gate
	Filter    SafetyFilter
	Router    *router.Router
	Sessions  *session.Store
	Audit     audit.Recorder
	Alerts    *alert.Dispatcher
	Log       zerolog.Logger
}

// Gateway is the single-consumer event loop.
type Gateway struct {
	tr       transport.Transport
	gate     *gate.Gate
	filter   SafetyFilter
	router   *router.Router
	sessions *session.Store
	audit    audit.Recorder
	alerts   *alert.Dispatcher
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Gateway.
func New(cfg Config) *Gateway {
	return &Gateway{
		tr:       cfg.Transport,
		gate:     cfg.Gate,
		filter:   cfg.Filter,
		router:   cfg.Router,
		sessions: cfg.Sessions,
		audit:    cfg.Audit,
		alerts:   cfg.Alerts,
		log:      cfg.Log.With().Str("component", "gateway").Logger(),
		now:      time.Now,
	}
}

// Run consumes transport events until ctx is cancelled or the event
// stream closes. Only a failure to start the transport is returned.
func (g *Gateway) Run(ctx context.Context) error {
	events, err := g.tr.Events(ctx)
	if err != nil {
		return fmt.Errorf("start transport: %w", err)
	}
	g.log.Info().Msg("gateway started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.Handle(ctx, ev)
		}
	}
}

// Handle processes one event to completion.
func (g *Gateway) Handle(ctx context.Context, ev transport.Event) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().
				Interface("panic", r).
				Int64("operator_id", ev.Operator.ID).
				Stringer("event", ev.Kind).
				Msg("handler panicked")
		}
	}()

	kind := gate.Message
	if ev.Kind == transport.EventCallback {
		kind = gate.Callback
	}
	switch g.gate.Check(ev.Operator.ID, ev.Operator.Name, kind) {
	case gate.Drop:
		g.recordUnauthorized(ev)
		return
	case gate.Alert:
		g.recordUnauthorized(ev)
		g.ack(ctx, ev, NoAccess, true)
		return
	}

	in, ok := g.decode(ev)
	if !ok || in.Kind == intent.KindNone {
		if ev.Kind == transport.EventCallback {
			g.ack(ctx, ev, "", false)
		}
		return
	}

	if in.Kind.Destructive() {
		if c := g.classify(in); !c.Allowed {
			g.deny(ctx, ev, in, c.Reason)
			return
		}
	}

	sess := g.sessions.Get(ev.Operator.ID)
	out := g.router.Dispatch(ctx, sess, in)
	if out.Ignored {
		if ev.Kind == transport.EventCallback {
			g.ack(ctx, ev, "", false)
		}
		return
	}
	if privileged(in.Kind) {
		g.record(audit.Entry{
			OperatorID: ev.Operator.ID,
			Username:   ev.Operator.Name,
			Kind:       in.Kind.String(),
			Resource:   resource(in),
			Decision:   audit.DecisionAllow,
		})
	}
	g.deliver(ctx, ev, sess, out)
}

func (g *Gateway) decode(ev transport.Event) (intent.Intent, bool) {
	switch ev.Kind {
	case transport.EventCallback:
		in, ok := intent.FromCallback(ev.Text)
		if !ok {
			g.log.Debug().Str("token", ev.Text).Msg("unknown callback token")
		}
		return in, ok
	case transport.EventUpload:
		if ev.Attachment == nil {
			return intent.Intent{}, false
		}
		return intent.FromUpload(*ev.Attachment, g.now()), true
	default:
		return intent.FromText(ev.Text), true
	}
}

func (g *Gateway) classify(in intent.Intent) denylist.Classification {
	if g.filter == nil {
		return denylist.Deny("safety filter not configured")
	}
	switch in.Kind {
	case intent.KindShellExec:
		return g.filter.ClassifyCommand(in.Text)
	case intent.KindFileUpload:
		return g.filter.ClassifyUpload(in.Text)
	}
	return denylist.Allow()
}

// deny refuses a destructive intent without touching the host.
func (g *Gateway) deny(ctx context.Context, ev transport.Event, in intent.Intent, reason string) {
	g.log.Warn().
		Int64("operator_id", ev.Operator.ID).
		Stringer("kind", in.Kind).
		Str("reason", reason).
		Msg("policy denied")

	g.record(audit.Entry{
		OperatorID: ev.Operator.ID,
		Username:   ev.Operator.Name,
		Kind:       in.Kind.String(),
		Resource:   in.Text,
		Decision:   audit.DecisionDeny,
		Reason:     reason,
	})
	g.alerts.Dispatch(alert.Event{
		Type:       alert.EventPolicyDenied,
		OperatorID: ev.Operator.ID,
		Username:   ev.Operator.Name,
		Kind:       in.Kind.String(),
		Resource:   in.Text,
		Reason:     reason,
	})

	what := "Command blocked"
	if in.Kind == intent.KindFileUpload {
		what = "File rejected"
	}
	g.send(ctx, ev.ChatID, transport.Message{Text: what + ": " + reason})
}

// deliver maps an outcome onto the transport. Callbacks edit the menu
// message in place and are always acknowledged; messages get new messages.
func (g *Gateway) deliver(ctx context.Context, ev transport.Event, sess *session.Session, out router.Outcome) {
	if ev.Kind == transport.EventCallback {
		if out.Render != nil {
			if err := g.renderIfChanged(ctx, sess, ev.ChatID, ev.MessageID, *out.Render); err != nil {
				g.log.Warn().Err(err).Int("message_id", ev.MessageID).Msg("edit menu failed")
			}
		}
		g.ack(ctx, ev, out.Notice, out.Alert)
		if out.Reply != "" {
			g.send(ctx, ev.ChatID, transport.Message{Text: out.Reply, MainMenu: out.MainMenu})
		}
	} else {
		switch {
		case out.Reply != "":
			g.send(ctx, ev.ChatID, transport.Message{Text: out.Reply, MainMenu: out.MainMenu})
		case out.Notice != "":
			g.send(ctx, ev.ChatID, transport.Message{Text: out.Notice})
		case out.Render != nil:
			if id, ok := g.send(ctx, ev.ChatID, transport.FromRender(*out.Render)); ok {
				sess.MarkDisplayed(id, *out.Render)
			}
		}
	}

	if out.File != nil {
		if err := g.tr.SendFile(ctx, ev.ChatID, *out.File); err != nil {
			g.log.Warn().Err(err).Str("file", out.File.Name).Msg("send file failed")
			g.send(ctx, ev.ChatID, transport.Message{Text: "Sending " + out.File.Name + " failed"})
		}
	}
}

// renderIfChanged edits messageID to show r unless it already does.
// A transport report that nothing changed is not an error.
func (g *Gateway) renderIfChanged(ctx context.Context, sess *session.Session, chatID int64, messageID int, r transport.Render) error {
	if shown, ok := sess.Displayed(messageID); ok && shown.Equal(r) {
		return nil
	}
	err := g.tr.Edit(ctx, chatID, messageID, r)
	if err != nil && !errors.Is(err, transport.ErrNotModified) {
		return err
	}
	sess.MarkDisplayed(messageID, r)
	return nil
}

func (g *Gateway) send(ctx context.Context, chatID int64, msg transport.Message) (int, bool) {
	id, err := g.tr.Send(ctx, chatID, msg)
	if err != nil {
		g.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
		return 0, false
	}
	return id, true
}

func (g *Gateway) ack(ctx context.Context, ev transport.Event, text string, modal bool) {
	if ev.CallbackID == "" {
		return
	}
	if err := g.tr.Ack(ctx, ev.CallbackID, text, modal); err != nil {
		g.log.Debug().Err(err).Msg("callback ack failed")
	}
}

// recordUnauthorized audits an attempt the gate still counts. Attempts
// from blocked operators leave no trace.
func (g *Gateway) recordUnauthorized(ev transport.Event) {
	if g.gate.Blocked(ev.Operator.ID) {
		return
	}
	g.record(audit.Entry{
		OperatorID: ev.Operator.ID,
		Username:   ev.Operator.Name,
		Kind:       audit.KindAccess,
		Resource:   ev.Kind.String(),
		Decision:   audit.DecisionDeny,
		Reason:     "operator not in allow-list",
	})
}

func (g *Gateway) record(e audit.Entry) {
	if g.audit == nil {
		return
	}
	if err := g.audit.Record(e); err != nil {
		g.log.Warn().Err(err).Msg("audit write failed")
	}
}

// LockoutReporter returns the gate hook that audits and alerts when an
// operator is blocked. The lockout is reported only through those sinks:
// nothing about the operator is logged past MaxAttempts.
func LockoutReporter(rec audit.Recorder, alerts *alert.Dispatcher, log zerolog.Logger) gate.LockoutFunc {
	log = log.With().Str("component", "gateway").Logger()
	return func(operatorID int64, username string) {
		reason := fmt.Sprintf("more than %d unauthorized attempts", gate.MaxAttempts)
		if rec != nil {
			if err := rec.Record(audit.Entry{
				OperatorID: operatorID,
				Username:   username,
				Kind:       audit.KindAccess,
				Decision:   audit.DecisionLockout,
				Reason:     reason,
			}); err != nil {
				log.Warn().Err(err).Msg("audit write failed")
			}
		}
		alerts.Dispatch(alert.Event{
			Type:       alert.EventOperatorBlocked,
			OperatorID: operatorID,
			Username:   username,
			Reason:     reason,
		})
	}
}

// privileged kinds are recorded in the audit log when dispatched.
func privileged(k intent.Kind) bool {
	switch k {
	case intent.KindPowerAction, intent.KindTimerSet, intent.KindTimerCancel,
		intent.KindProcessKillByName, intent.KindProcessKillByPID,
		intent.KindShellExec, intent.KindFileUpload:
		return true
	}
	return false
}

func resource(in intent.Intent) string {
	switch in.Kind {
	case intent.KindPowerAction:
		return in.Power.String()
	case intent.KindTimerSet, intent.KindProcessKillByPID:
		return strconv.Itoa(in.Value)
	default:
		return in.Text
	}
}
