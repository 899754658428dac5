// Package router is the menu state machine. It turns an authorized,
// already classified intent into provider calls, session transitions and
// an outcome describing what the operator should see.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/ppiankov/hostwarden/internal/cmdguard"
	"github.com/ppiankov/hostwarden/internal/files"
	"github.com/ppiankov/hostwarden/internal/host"
	"github.com/ppiankov/hostwarden/internal/intent"
	"github.com/ppiankov/hostwarden/internal/session"
	"github.com/ppiankov/hostwarden/internal/transport"
)

// Outcome is what a dispatch produced. The gateway maps it onto the
// transport: callbacks edit the menu message in place, messages get new
// messages.
type Outcome struct {
	// Menu is the menu Render belongs to; meaningful only when Render is set.
	Menu   intent.Menu
	Render *transport.Render

	// Reply is a standalone text message.
	Reply string
	// MainMenu attaches the main reply keyboard to Reply.
	MainMenu bool

	// Notice is a short status line: a callback toast, or a reply for messages.
	Notice string
	// Alert shows Notice as a modal for callbacks.
	Alert bool

	File *transport.File

	// Ignored is set when the intent kind has no handler.
	Ignored bool
}

// Router dispatches intents against the host resource context.
type Router struct {
	host  *host.Host
	guard *cmdguard.Guard
	files *files.Store
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a router. Nil providers in h are treated as unavailable.
func New(h *host.Host, guard *cmdguard.Guard, store *files.Store, log zerolog.Logger) *Router {
	if h == nil {
		h = &host.Host{}
	}
	return &Router{
		host:  h.Complete(),
		guard: guard,
		files: store,
		log:   log.With().Str("component", "router").Logger(),
		now:   time.Now,
	}
}

// Dispatch handles one intent for sess.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, in intent.Intent) Outcome {
	switch in.Kind {
	case intent.KindMenuNavigate:
		return r.enter(ctx, sess, in.Menu)
	case intent.KindMenuBack:
		return r.back(ctx, sess, in.Menu)

	case intent.KindVolumeSet:
		level, err := r.host.Mixer.SetLevel(ctx, in.Value)
		return r.afterVolume(ctx, sess, level, err)
	case intent.KindVolumeDelta:
		level, err := r.host.Mixer.Adjust(ctx, in.Value)
		return r.afterVolume(ctx, sess, level, err)
	case intent.KindMuteToggle:
		muted, err := r.host.Mixer.ToggleMute(ctx)
		out := r.enter(ctx, sess, intent.MenuVolume)
		if err != nil {
			out.Notice = unavailable("Audio", err)
		} else if muted {
			out.Notice = "Muted"
		} else {
			out.Notice = "Unmuted"
		}
		return out
	case intent.KindDeviceSelect:
		d, err := r.host.Mixer.SelectDevice(ctx, in.Value)
		if err != nil {
			out := r.enter(ctx, sess, intent.MenuAudioDevice)
			out.Notice = unavailable("Device switch", err)
			return out
		}
		out := r.enter(ctx, sess, intent.MenuVolume)
		out.Notice = "Output: " + truncate(d.Name, 30)
		return out

	case intent.KindPowerAction:
		return r.power(ctx, in.Power)
	case intent.KindTimerSet:
		secs := in.Value
		if secs < 0 {
			secs = 0
		}
		delay := time.Duration(secs) * time.Second
		if err := r.host.Power.Shutdown(ctx, delay); err != nil {
			return Outcome{Notice: unavailable("Shutdown timer", err), Alert: true}
		}
		return Outcome{Notice: "Shutdown in " + humanDuration(delay)}
	case intent.KindTimerCancel:
		if err := r.host.Power.CancelShutdown(ctx); err != nil {
			return Outcome{Notice: "No pending shutdown to cancel"}
		}
		return Outcome{Notice: "Shutdown cancelled"}

	case intent.KindMediaTransport:
		err := r.host.Media.Press(ctx, in.Media)
		out := r.enter(ctx, sess, intent.MenuMedia)
		if err != nil {
			out.Notice = unavailable("Media control", err)
		} else {
			out.Notice = in.Media.String()
		}
		return out

	case intent.KindBrightnessSet:
		return r.brightness(ctx, sess, in.Value, false)
	case intent.KindBrightnessDelta:
		return r.brightness(ctx, sess, in.Value, true)

	case intent.KindRecordingStart:
		err := sess.Recorder.Start(ctx)
		out := r.enter(ctx, sess, intent.MenuRecording)
		switch {
		case errors.Is(err, session.ErrAlreadyRecording):
			out.Notice, out.Alert = "Recording is already running", true
		case err != nil:
			out.Notice, out.Alert = unavailable("Microphone", err), true
		default:
			out.Notice = "Recording started"
		}
		return out
	case intent.KindRecordingStop:
		rec, err := sess.Recorder.Stop()
		out := r.enter(ctx, sess, intent.MenuRecording)
		if err != nil {
			out.Notice = "Nothing recorded"
			if !errors.Is(err, session.ErrNoData) {
				out.Notice = unavailable("Recording", err)
			}
			return out
		}
		out.Notice = "Recording stopped"
		out.File = &transport.File{
			Kind:    transport.FileAudio,
			Name:    "recording_" + r.now().Format("20060102_150405") + ".wav",
			Data:    rec.WAV,
			Caption: "Recording, " + humanDuration(rec.Duration.Round(time.Second)),
		}
		return out

	case intent.KindProcessKillByName:
		n, err := r.host.Processes.KillByName(ctx, in.Text)
		switch {
		case err != nil:
			return Outcome{Reply: unavailable("Process kill", err)}
		case n == 0:
			return Outcome{Reply: fmt.Sprintf("No process matching %q", in.Text)}
		default:
			return Outcome{Reply: fmt.Sprintf("Killed %d process(es) matching %q", n, in.Text)}
		}
	case intent.KindProcessKillByPID:
		name, err := r.host.Processes.KillByPID(ctx, in.Value)
		if err != nil {
			return Outcome{Reply: unavailable(fmt.Sprintf("Killing PID %d", in.Value), err)}
		}
		return Outcome{Reply: fmt.Sprintf("Killed %s (PID %d)", name, in.Value)}

	case intent.KindShellExec:
		return r.shell(ctx, in.Text)
	case intent.KindFileUpload:
		return r.upload(ctx, in)

	case intent.KindClipboardRead:
		text, err := r.host.Clipboard.Read()
		if err != nil {
			return Outcome{Reply: unavailable("Clipboard", err)}
		}
		if strings.TrimSpace(text) == "" {
			return Outcome{Reply: "Clipboard is empty"}
		}
		limit := in.Value
		if limit <= 0 {
			limit = intent.ClipboardPreviewFull
		}
		return Outcome{Reply: "Clipboard:\n" + truncate(text, limit)}
	case intent.KindClipboardWrite:
		if err := r.host.Clipboard.Write(in.Text); err != nil {
			return Outcome{Reply: unavailable("Clipboard", err)}
		}
		return Outcome{Reply: "Copied to clipboard:\n" + truncate(in.Text, 100)}

	case intent.KindScreenshot:
		img, err := r.host.Screen.Capture(ctx)
		if err != nil {
			return Outcome{Reply: unavailable("Screenshot", err)}
		}
		return Outcome{File: &transport.File{
			Kind: transport.FilePhoto,
			Name: "screenshot_" + r.now().Format("20060102_150405") + ".png",
			Data: img,
		}}

	case intent.KindOpenURL:
		return r.open(ctx, in.Text, "Opened "+in.Text)
	case intent.KindSearchVideo:
		return r.open(ctx, host.SearchURL("youtube", in.Text), fmt.Sprintf("Searching YouTube for %q", in.Text))
	case intent.KindSearchWeb:
		return r.open(ctx, host.SearchURL("google", in.Text), fmt.Sprintf("Searching Google for %q", in.Text))

	case intent.KindStart:
		sess.SetMenu(intent.MenuMain)
		return Outcome{Reply: greeting, MainMenu: true}
	case intent.KindHelp:
		return Outcome{Reply: helpText, MainMenu: true}
	case intent.KindUsage:
		return Outcome{Reply: in.Text}
	}

	r.log.Debug().Stringer("kind", in.Kind).Msg("unhandled intent")
	return Outcome{Ignored: true}
}

// enter renders m fresh, makes it the session's menu context and returns it.
func (r *Router) enter(ctx context.Context, sess *session.Session, m intent.Menu) Outcome {
	rendered := r.render(ctx, sess, m)
	sess.Enter(m, rendered)
	return Outcome{Menu: m, Render: &rendered}
}

// back returns to the last-known render of dest without calling providers.
// A menu never rendered in this session is rendered fresh.
func (r *Router) back(ctx context.Context, sess *session.Session, dest intent.Menu) Outcome {
	if last, ok := sess.LastRender(dest); ok {
		sess.SetMenu(dest)
		return Outcome{Menu: dest, Render: &last}
	}
	return r.enter(ctx, sess, dest)
}

func (r *Router) afterVolume(ctx context.Context, sess *session.Session, level int, err error) Outcome {
	out := r.enter(ctx, sess, intent.MenuVolume)
	if err != nil {
		out.Notice = unavailable("Audio", err)
		return out
	}
	out.Notice = fmt.Sprintf("Volume: %d%%", level)
	return out
}

func (r *Router) power(ctx context.Context, action intent.PowerAction) Outcome {
	var err error
	var notice string
	switch action {
	case intent.PowerShutdown:
		err = r.host.Power.Shutdown(ctx, host.PowerActionDelay)
		notice = "Shutting down in " + humanDuration(host.PowerActionDelay)
	case intent.PowerRestart:
		err = r.host.Power.Restart(ctx, host.PowerActionDelay)
		notice = "Restarting in " + humanDuration(host.PowerActionDelay)
	case intent.PowerSleep:
		err = r.host.Power.Sleep(ctx)
		notice = "Going to sleep"
	case intent.PowerLock:
		err = r.host.Power.Lock(ctx)
		notice = "Screen locked"
	default:
		return Outcome{Ignored: true}
	}
	if err != nil {
		return Outcome{Notice: unavailable("Power "+action.String(), err), Alert: true}
	}
	return Outcome{Notice: notice, Alert: true}
}

func (r *Router) brightness(ctx context.Context, sess *session.Session, value int, delta bool) Outcome {
	level := value
	var err error
	if delta {
		var cur int
		if cur, err = r.host.Display.Brightness(ctx); err == nil {
			level = cur + value
		}
	}
	if err == nil {
		level = host.Clamp(level, 0, 100)
		err = r.host.Display.SetBrightness(ctx, level)
	}

	out := r.enter(ctx, sess, intent.MenuBrightness)
	if err != nil {
		out.Notice = unavailable("Brightness", err)
		return out
	}
	out.Notice = fmt.Sprintf("Brightness: %d%%", level)
	return out
}

func (r *Router) shell(ctx context.Context, command string) Outcome {
	if r.guard == nil {
		return Outcome{Reply: unavailable("Shell", host.ErrUnavailable)}
	}
	res, err := r.guard.Run(ctx, command)
	var blocked *cmdguard.BlockedError
	switch {
	case errors.As(err, &blocked):
		return Outcome{Reply: "Command blocked: " + blocked.Reason}
	case errors.Is(err, cmdguard.ErrTimeout):
		return Outcome{Reply: "Command timed out: " + err.Error()}
	case err != nil:
		return Outcome{Reply: unavailable("Command", err)}
	}
	reply := res.Output
	if res.ExitCode != 0 {
		reply = fmt.Sprintf("Exit code %d\n%s", res.ExitCode, reply)
	}
	return Outcome{Reply: reply}
}

func (r *Router) upload(ctx context.Context, in intent.Intent) Outcome {
	a := in.Attachment
	if a == nil || a.Open == nil || r.files == nil {
		return Outcome{Reply: unavailable("File upload", host.ErrUnavailable)}
	}
	body, err := a.Open(ctx)
	if err != nil {
		return Outcome{Reply: unavailable("Download", err)}
	}
	defer body.Close()

	saved, err := r.files.Save(ctx, in.Text, body)
	if err != nil {
		return Outcome{Reply: unavailable("Saving file", err)}
	}

	reply := fmt.Sprintf("Saved %s (%s)\nFolder: %s", saved.Name, humanize.IBytes(uint64(saved.Size)), r.files.Dir())
	if a.Kind == intent.AttachPhoto {
		if err := r.host.Launcher.Open(ctx, saved.Path); err != nil {
			r.log.Warn().Err(err).Str("path", saved.Path).Msg("open image failed")
		} else {
			reply += "\nOpened in the default viewer"
		}
	}
	return Outcome{Reply: reply}
}

func (r *Router) open(ctx context.Context, target, done string) Outcome {
	if err := r.host.Launcher.Open(ctx, target); err != nil {
		return Outcome{Reply: unavailable("Opening "+target, err)}
	}
	return Outcome{Reply: done}
}

// unavailable formats a provider failure for the operator.
func unavailable(what string, err error) string {
	if errors.Is(err, host.ErrUnavailable) {
		return what + " is not available on this host"
	}
	return fmt.Sprintf("%s failed: %v", what, err)
}

const greeting = "Host control is ready.\nUse the keyboard below or /help for commands."

const helpText = `Commands:
/volume <0-100> - set volume
/shutdown <seconds> - schedule shutdown
/open <url> - open a link
/youtube <query> - search YouTube
/google <query> - search Google
/screenshot - capture the screen
/cmd <command> - run a shell command
/clipboard - show clipboard text
/kill <name> - kill processes by name
/killpid <pid> - kill a process by PID

Plain text is copied to the clipboard.
Files sent here are saved to the downloads folder.`
