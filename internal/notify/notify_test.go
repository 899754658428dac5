package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/hostwarden/internal/transport"
)

type fakeSender struct {
	fail map[int64]bool
	sent []int64
	msgs []transport.Message
}

func (f *fakeSender) Send(_ context.Context, chatID int64, msg transport.Message) (int, error) {
	if f.fail[chatID] {
		return 0, errors.New("chat not found")
	}
	f.sent = append(f.sent, chatID)
	f.msgs = append(f.msgs, msg)
	return len(f.sent), nil
}

func TestBroadcastSwallowsFailures(t *testing.T) {
	s := &fakeSender{fail: map[int64]bool{2: true}}
	res := Broadcast(context.Background(), s, []int64{1, 2, 3}, "online", zerolog.Nop())

	if res.Delivered != 2 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(s.sent) != 2 || s.sent[0] != 1 || s.sent[1] != 3 {
		t.Errorf("sent to %v", s.sent)
	}
	for _, m := range s.msgs {
		if !m.MainMenu || m.Text != "online" {
			t.Errorf("message = %+v", m)
		}
	}
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeSender{}
	res := Broadcast(ctx, s, []int64{1, 2}, "online", zerolog.Nop())
	if len(s.sent) != 0 || res.Failed != 2 {
		t.Errorf("sent=%v result=%+v", s.sent, res)
	}
}

func TestBroadcastNoOperators(t *testing.T) {
	res := Broadcast(context.Background(), &fakeSender{}, nil, "online", zerolog.Nop())
	if res != (Result{}) {
		t.Errorf("result = %+v", res)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "less than a minute"},
		{5 * time.Minute, "5 min"},
		{3*time.Hour + 7*time.Minute, "3 h 7 min"},
		{50*time.Hour + 30*time.Second, "2 d 2 h 0 min"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStartupMessage(t *testing.T) {
	got := StartupMessage("desk", 90*time.Minute)
	if got != "desk is online\nUptime: 1 h 30 min" {
		t.Errorf("got %q", got)
	}
	if got := StartupMessage("", time.Minute); got != "host is online\nUptime: 1 min" {
		t.Errorf("got %q", got)
	}
}
