package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/hostwarden/internal/files"
)

// Main-menu reply keyboard labels.
const (
	LabelVolume     = "Volume"
	LabelMedia      = "Media"
	LabelPower      = "Power"
	LabelBrightness = "Brightness"
	LabelScreenshot = "Screenshot"
	LabelClipboard  = "Clipboard"
	LabelSystem     = "System"
	LabelHelp       = "Help"
)

// MainMenuLabels is the reply keyboard layout, row by row.
var MainMenuLabels = [][]string{
	{LabelVolume, LabelMedia},
	{LabelPower, LabelBrightness},
	{LabelScreenshot, LabelClipboard},
	{LabelSystem, LabelHelp},
}

var labelIntents = map[string]Intent{
	LabelVolume:     navigate(MenuVolume),
	LabelMedia:      navigate(MenuMedia),
	LabelPower:      navigate(MenuPower),
	LabelBrightness: navigate(MenuBrightness),
	LabelSystem:     navigate(MenuSystemOverview),
	LabelScreenshot: {Kind: KindScreenshot},
	LabelClipboard:  {Kind: KindClipboardRead, Value: ClipboardPreviewMenu},
	LabelHelp:       {Kind: KindHelp},
}

// Clipboard read limits in characters for the menu button and /clipboard.
const (
	ClipboardPreviewMenu = 500
	ClipboardPreviewFull = 4000
)

// Usage hints for commands with a required argument.
const (
	UsageVolume   = "Usage: /volume <0-100>"
	UsageShutdown = "Usage: /shutdown <seconds>\nExample: /shutdown 5400 (90 minutes)"
	UsageOpen     = "Usage: /open <url>"
	UsageYouTube  = "Usage: /youtube <query>"
	UsageGoogle   = "Usage: /google <query>"
	UsageCmd      = "Usage: /cmd <command>"
	UsageKill     = "Usage: /kill <process name>"
	UsageKillPID  = "Usage: /killpid <pid>"

	hintVolumeNumber = "Volume must be a number from 0 to 100"
	hintSeconds      = "Delay must be a whole number of seconds"
	hintPID          = "PID must be a number"
)

// FromText decodes a plain message. Slash commands are matched first, then
// main-menu labels; any other text becomes a clipboard write.
// Unknown slash commands decode to KindNone.
func FromText(text string) Intent {
	if strings.HasPrefix(text, "/") {
		return command(text)
	}
	if in, ok := labelIntents[text]; ok {
		return in
	}
	if text == "" {
		return Intent{}
	}
	return Intent{Kind: KindClipboardWrite, Text: text}
}

func command(text string) Intent {
	name, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	// "/cmd@somebot" addressing in group chats
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	arg = strings.TrimSpace(arg)

	switch name {
	case "start":
		return Intent{Kind: KindStart}
	case "help":
		return Intent{Kind: KindHelp}
	case "screenshot":
		return Intent{Kind: KindScreenshot}
	case "clipboard":
		return Intent{Kind: KindClipboardRead, Value: ClipboardPreviewFull}
	case "volume":
		return numeric(arg, KindVolumeSet, UsageVolume, hintVolumeNumber, true)
	case "shutdown":
		return numeric(arg, KindTimerSet, UsageShutdown, hintSeconds, true)
	case "killpid":
		return numeric(arg, KindProcessKillByPID, UsageKillPID, hintPID, false)
	case "open":
		if arg == "" {
			return usage(UsageOpen)
		}
		return Intent{Kind: KindOpenURL, Text: NormalizeURL(arg)}
	case "youtube":
		return textArg(arg, KindSearchVideo, UsageYouTube)
	case "google":
		return textArg(arg, KindSearchWeb, UsageGoogle)
	case "cmd":
		return textArg(arg, KindShellExec, UsageCmd)
	case "kill":
		return textArg(arg, KindProcessKillByName, UsageKill)
	}
	return Intent{}
}

func numeric(arg string, kind Kind, usageText, hint string, signed bool) Intent {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return usage(usageText)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || (!signed && n < 0) {
		return usage(hint)
	}
	return Intent{Kind: kind, Value: n}
}

func textArg(arg string, kind Kind, usageText string) Intent {
	if arg == "" {
		return usage(usageText)
	}
	return Intent{Kind: kind, Text: arg}
}

func usage(text string) Intent {
	return Intent{Kind: KindUsage, Text: text}
}

// NormalizeURL adds an https scheme to bare hosts.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// FromUpload builds a file-upload intent. The sender filename is reduced to
// the name the downloads store will write, so the safety filter classifies
// exactly that name. Attachments without one get a timestamped default name.
func FromUpload(a Attachment, now time.Time) Intent {
	if a.Name != "" {
		a.Name = files.CleanName(a.Name)
	}
	if a.Name == "" {
		a.Name = DefaultName(a.Kind, now)
	}
	return Intent{Kind: KindFileUpload, Text: a.Name, Attachment: &a}
}

// DefaultName returns the stored filename for an unnamed attachment.
func DefaultName(kind AttachmentKind, now time.Time) string {
	ts := now.Format("20060102_150405")
	switch kind {
	case AttachPhoto:
		return fmt.Sprintf("photo_%s.jpg", ts)
	case AttachVideo:
		return fmt.Sprintf("video_%s.mp4", ts)
	case AttachAudio:
		return fmt.Sprintf("audio_%s.mp3", ts)
	case AttachVoice:
		return fmt.Sprintf("voice_%s.ogg", ts)
	default:
		return fmt.Sprintf("file_%s", ts)
	}
}
