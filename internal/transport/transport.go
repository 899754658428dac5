// Package transport defines the chat-transport boundary: inbound events,
// rendered menus and the operations the gateway performs on the wire.
package transport

import (
	"context"
	"errors"

	"github.com/ppiankov/hostwarden/internal/intent"
)

// ErrNotModified is returned by Edit when the new content equals what the
// remote side already shows.
var ErrNotModified = errors.New("message is not modified")

// Button is one inline keyboard button carrying a callback token.
type Button struct {
	Label string
	Token string
}

// Render is the text and inline keyboard of one menu message.
type Render struct {
	Text     string
	Keyboard [][]Button
}

// Equal reports whether two renders would display identically.
func (r Render) Equal(o Render) bool {
	if r.Text != o.Text || len(r.Keyboard) != len(o.Keyboard) {
		return false
	}
	for i := range r.Keyboard {
		if len(r.Keyboard[i]) != len(o.Keyboard[i]) {
			return false
		}
		for j := range r.Keyboard[i] {
			if r.Keyboard[i][j] != o.Keyboard[i][j] {
				return false
			}
		}
	}
	return true
}

// IsZero reports whether nothing was rendered.
func (r Render) IsZero() bool {
	return r.Text == "" && len(r.Keyboard) == 0
}

// EventKind classifies inbound events.
type EventKind int

const (
	EventMessage EventKind = iota
	EventCallback
	EventUpload
)

func (k EventKind) String() string {
	switch k {
	case EventCallback:
		return "callback"
	case EventUpload:
		return "upload"
	default:
		return "message"
	}
}

// Operator identifies the remote sender. Name is advisory.
type Operator struct {
	ID   int64
	Name string
}

// Event is one inbound transport event.
type Event struct {
	Kind     EventKind
	Operator Operator
	ChatID   int64

	// CallbackID must be acknowledged for callback events.
	CallbackID string
	// MessageID is the message a callback's keyboard is attached to.
	MessageID int
	// Text is the message text or the callback token.
	Text string

	Attachment *intent.Attachment
}

// Message is an outbound message.
type Message struct {
	Text     string
	Keyboard [][]Button
	// MainMenu attaches the persistent main-menu reply keyboard.
	MainMenu bool
}

// FromRender builds a message that displays r.
func FromRender(r Render) Message {
	return Message{Text: r.Text, Keyboard: r.Keyboard}
}

// FileKind selects how a file is presented.
type FileKind int

const (
	FileDocument FileKind = iota
	FilePhoto
	FileAudio
)

// File is an outbound file.
type File struct {
	Kind    FileKind
	Name    string
	Data    []byte
	Caption string
}

// Transport is implemented by chat adapters.
type Transport interface {
	// Events streams inbound events until ctx is cancelled.
	Events(ctx context.Context) (<-chan Event, error)
	// Send posts a new message and returns its id.
	Send(ctx context.Context, chatID int64, msg Message) (int, error)
	// Edit replaces a message in place. Unchanged content yields ErrNotModified.
	Edit(ctx context.Context, chatID int64, messageID int, r Render) error
	// Ack answers a callback. With alert set the text is shown as a modal.
	Ack(ctx context.Context, callbackID, text string, alert bool) error
	SendFile(ctx context.Context, chatID int64, f File) error
}
