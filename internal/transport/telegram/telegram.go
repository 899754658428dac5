// Package telegram adapts the Telegram Bot API to transport.Transport.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/ppiankov/hostwarden/internal/intent"
	"github.com/ppiankov/hostwarden/internal/transport"
)

// DefaultPollTimeout is the long-poll timeout for getUpdates.
const DefaultPollTimeout = 60 * time.Second

const downloadTimeout = 2 * time.Minute

// Bot is a transport over a Telegram bot account.
type Bot struct {
	api         *tgbotapi.BotAPI
	pollTimeout time.Duration
	client      *http.Client
	log         zerolog.Logger

	// fileURL resolves a file id to a download URL.
	fileURL func(fileID string) (string, error)
}

// New connects to the Bot API with token. A zero pollTimeout selects
// DefaultPollTimeout.
func New(token string, pollTimeout time.Duration, log zerolog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	b := &Bot{
		api:         api,
		pollTimeout: pollTimeout,
		client:      &http.Client{Timeout: downloadTimeout},
		log:         log.With().Str("component", "telegram").Logger(),
	}
	b.fileURL = api.GetFileDirectURL
	b.log.Info().Str("bot", api.Self.UserName).Msg("connected")
	return b, nil
}

// Username returns the bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Events long-polls for updates until ctx is cancelled.
func (b *Bot) Events(ctx context.Context) (<-chan transport.Event, error) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.pollTimeout / time.Second)
	updates := b.api.GetUpdatesChan(u)

	out := make(chan transport.Event)
	go func() {
		defer close(out)
		defer b.api.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := b.convert(upd)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Send posts msg to chatID.
func (b *Bot) Send(_ context.Context, chatID int64, msg transport.Message) (int, error) {
	m := tgbotapi.NewMessage(chatID, msg.Text)
	switch {
	case len(msg.Keyboard) > 0:
		m.ReplyMarkup = inlineMarkup(msg.Keyboard)
	case msg.MainMenu:
		m.ReplyMarkup = mainKeyboard()
	}
	sent, err := b.api.Send(m)
	if err != nil {
		return 0, fmt.Errorf("telegram: send: %w", err)
	}
	return sent.MessageID, nil
}

// Edit replaces the text and inline keyboard of a message.
func (b *Bot) Edit(_ context.Context, chatID int64, messageID int, r transport.Render) error {
	var edit tgbotapi.Chattable
	if len(r.Keyboard) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.Text, inlineMarkup(r.Keyboard))
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
	}
	if _, err := b.api.Request(edit); err != nil {
		if isNotModified(err) {
			return transport.ErrNotModified
		}
		return fmt.Errorf("telegram: edit: %w", err)
	}
	return nil
}

// Ack answers a callback query.
func (b *Bot) Ack(_ context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := b.api.Request(cb); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

// SendFile uploads f to chatID.
func (b *Bot) SendFile(_ context.Context, chatID int64, f transport.File) error {
	data := tgbotapi.FileBytes{Name: f.Name, Bytes: f.Data}
	var c tgbotapi.Chattable
	switch f.Kind {
	case transport.FilePhoto:
		p := tgbotapi.NewPhoto(chatID, data)
		p.Caption = f.Caption
		c = p
	case transport.FileAudio:
		a := tgbotapi.NewAudio(chatID, data)
		a.Caption = f.Caption
		c = a
	default:
		d := tgbotapi.NewDocument(chatID, data)
		d.Caption = f.Caption
		c = d
	}
	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("telegram: send %s: %w", f.Name, err)
	}
	return nil
}

// convert maps an update onto a transport event. Updates without a
// sender are skipped.
func (b *Bot) convert(upd tgbotapi.Update) (transport.Event, bool) {
	if q := upd.CallbackQuery; q != nil {
		if q.From == nil {
			return transport.Event{}, false
		}
		ev := transport.Event{
			Kind:       transport.EventCallback,
			Operator:   operator(q.From),
			CallbackID: q.ID,
			Text:       q.Data,
		}
		if q.Message != nil {
			ev.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				ev.ChatID = q.Message.Chat.ID
			}
		}
		if ev.ChatID == 0 {
			ev.ChatID = q.From.ID
		}
		return ev, true
	}

	m := upd.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return transport.Event{}, false
	}
	ev := transport.Event{
		Kind:      transport.EventMessage,
		Operator:  operator(m.From),
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if a := b.attachment(m); a != nil {
		ev.Kind = transport.EventUpload
		ev.Attachment = a
	}
	return ev, true
}

func (b *Bot) attachment(m *tgbotapi.Message) *intent.Attachment {
	var kind intent.AttachmentKind
	var fileID, name string
	var size int
	switch {
	case m.Document != nil:
		kind, fileID, name, size = intent.AttachDocument, m.Document.FileID, m.Document.FileName, m.Document.FileSize
	case len(m.Photo) > 0:
		// the last size is the largest
		p := m.Photo[len(m.Photo)-1]
		kind, fileID, size = intent.AttachPhoto, p.FileID, p.FileSize
	case m.Video != nil:
		kind, fileID, name, size = intent.AttachVideo, m.Video.FileID, m.Video.FileName, m.Video.FileSize
	case m.Audio != nil:
		kind, fileID, name, size = intent.AttachAudio, m.Audio.FileID, m.Audio.FileName, m.Audio.FileSize
	case m.Voice != nil:
		kind, fileID, size = intent.AttachVoice, m.Voice.FileID, m.Voice.FileSize
	default:
		return nil
	}
	return &intent.Attachment{
		Kind: kind,
		Name: name,
		Size: int64(size),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return b.download(ctx, fileID)
		},
	}
}

func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.fileURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram: resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("telegram: download: HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func operator(u *tgbotapi.User) transport.Operator {
	name := u.UserName
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return transport.Operator{ID: u.ID, Name: name}
}

func inlineMarkup(kb [][]transport.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, r := range kb {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// mainKeyboard is the persistent reply keyboard of main-menu labels.
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(intent.MainMenuLabels))
	for _, labels := range intent.MainMenuLabels {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, l := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(l))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
