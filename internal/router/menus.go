package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/hostwarden/internal/intent"
	"github.com/ppiankov/hostwarden/internal/session"
	"github.com/ppiankov/hostwarden/internal/transport"
)

// TimerPresets are the shutdown delays offered in the timer menu, in seconds.
var TimerPresets = []int{900, 1800, 3600, 5400, 7200, 10800}

// topProcesses is how many processes the processes view lists.
const topProcesses = 10

func btn(label, namespace, action string) transport.Button {
	return transport.Button{Label: label, Token: intent.Token(namespace, action)}
}

func numBtn(label, namespace string, n int) transport.Button {
	return transport.Button{Label: label, Token: intent.NumberToken(namespace, n)}
}

type row = []transport.Button

// render computes the current view of menu m. It reads providers but
// never changes host state.
func (r *Router) render(ctx context.Context, sess *session.Session, m intent.Menu) transport.Render {
	switch m {
	case intent.MenuVolume:
		return r.renderVolume(ctx)
	case intent.MenuAudioDevice:
		return r.renderDevices(ctx)
	case intent.MenuPower:
		return renderPower()
	case intent.MenuTimer:
		return renderTimer()
	case intent.MenuMedia:
		return r.renderMedia(ctx)
	case intent.MenuRecording:
		return renderRecording(sess.Recorder)
	case intent.MenuBrightness:
		return r.renderBrightness(ctx)
	case intent.MenuSystemOverview:
		return r.renderSystem(ctx)
	case intent.MenuSystemProcesses:
		return r.renderProcesses(ctx)
	case intent.MenuSystemDisks:
		return r.renderDisks(ctx)
	case intent.MenuSystemTemps:
		return r.renderTemps(ctx)
	default:
		return transport.Render{Text: "Main menu\nUse the keyboard below."}
	}
}

func (r *Router) renderVolume(ctx context.Context) transport.Render {
	level, muted := r.host.Mixer.Level(ctx)
	device := "unknown"
	if d, err := r.host.Mixer.Current(ctx); err == nil {
		device = truncate(d.Name, 25)
	}

	muteLabel := "Mute"
	if muted {
		muteLabel = "Unmute"
	}
	return transport.Render{
		Text: fmt.Sprintf("Volume: %d%%\n%s\nMuted: %s\nDevice: %s",
			level, bar(float64(level)), yesNo(muted), device),
		Keyboard: [][]transport.Button{
			{btn("-10", intent.NSVolume, "minus10"), btn(muteLabel, intent.NSVolume, "mute"), btn("+10", intent.NSVolume, "plus10")},
			{numBtn("0%", intent.NSVolume, 0), numBtn("25%", intent.NSVolume, 25), numBtn("50%", intent.NSVolume, 50)},
			{numBtn("75%", intent.NSVolume, 75), numBtn("100%", intent.NSVolume, 100)},
			{btn("Devices", intent.NSVolume, "devices"), btn("Refresh", intent.NSVolume, "refresh")},
		},
	}
}

func (r *Router) renderDevices(ctx context.Context) transport.Render {
	back := row{btn("Back", intent.NSVolume, "back")}

	devices, err := r.host.Mixer.Devices(ctx)
	if err != nil || len(devices) == 0 {
		return transport.Render{
			Text:     "No output devices found",
			Keyboard: [][]transport.Button{back},
		}
	}
	current, _ := r.host.Mixer.Current(ctx)

	kb := make([][]transport.Button, 0, len(devices)+1)
	for i, d := range devices {
		label := truncate(d.Name, 30)
		if d.ID == current.ID {
			label = "• " + label
		}
		kb = append(kb, row{numBtn(label, intent.NSAudio, i)})
	}
	kb = append(kb, back)
	return transport.Render{Text: "Output devices:", Keyboard: kb}
}

func renderPower() transport.Render {
	return transport.Render{
		Text: "Power",
		Keyboard: [][]transport.Button{
			{btn("Shutdown", intent.NSPower, "shutdown"), btn("Restart", intent.NSPower, "restart")},
			{btn("Sleep", intent.NSPower, "sleep"), btn("Lock", intent.NSPower, "lock")},
			{btn("Timers", intent.NSPower, "timers"), btn("Cancel shutdown", intent.NSPower, "cancel")},
			{btn("Back", intent.NSPower, "back")},
		},
	}
}

func renderTimer() transport.Render {
	var kb [][]transport.Button
	var cur row
	for _, secs := range TimerPresets {
		cur = append(cur, numBtn(humanDuration(time.Duration(secs)*time.Second), intent.NSTimer, secs))
		if len(cur) == 3 {
			kb = append(kb, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		kb = append(kb, cur)
	}
	kb = append(kb,
		row{btn("Cancel timer", intent.NSTimer, "cancel")},
		row{btn("Back", intent.NSTimer, "back")},
	)
	return transport.Render{
		Text:     "Shutdown timer\nPick a delay or use /shutdown <seconds>",
		Keyboard: kb,
	}
}

func (r *Router) renderMedia(ctx context.Context) transport.Render {
	text := "Media"
	if now, err := r.host.Media.NowPlaying(ctx); err == nil && now != "" {
		text += "\n" + truncate(now, 60)
	}
	return transport.Render{
		Text: text,
		Keyboard: [][]transport.Button{
			{btn("Prev", intent.NSMedia, "prev"), btn("Play/Pause", intent.NSMedia, "playpause"), btn("Next", intent.NSMedia, "next")},
			{btn("Record audio", intent.NSMedia, "record")},
			{btn("Back", intent.NSMedia, "back")},
		},
	}
}

func renderRecording(rec *session.Recorder) transport.Render {
	status := "Recording: idle"
	if rec.State() == session.Active {
		status = "Recording: active since " + rec.Since().Format("15:04:05")
	}
	return transport.Render{
		Text: status,
		Keyboard: [][]transport.Button{
			{btn("Start", intent.NSRecording, "start"), btn("Stop", intent.NSRecording, "stop")},
			{btn("Back", intent.NSRecording, "back")},
		},
	}
}

func (r *Router) renderBrightness(ctx context.Context) transport.Render {
	text := "Brightness: unavailable"
	if level, err := r.host.Display.Brightness(ctx); err == nil {
		text = fmt.Sprintf("Brightness: %d%%\n%s", level, bar(float64(level)))
	}
	return transport.Render{
		Text: text,
		Keyboard: [][]transport.Button{
			{btn("-20", intent.NSBrightness, "minus20"), btn("+20", intent.NSBrightness, "plus20")},
			{
				numBtn("25%", intent.NSBrightness, 25), numBtn("50%", intent.NSBrightness, 50),
				numBtn("75%", intent.NSBrightness, 75), numBtn("100%", intent.NSBrightness, 100),
			},
			{btn("Refresh", intent.NSBrightness, "refresh"), btn("Back", intent.NSBrightness, "back")},
		},
	}
}

func systemBack() [][]transport.Button {
	return [][]transport.Button{{btn("Back", intent.NSSystem, "back")}}
}

func (r *Router) renderSystem(ctx context.Context) transport.Render {
	kb := [][]transport.Button{
		{btn("Processes", intent.NSSystem, "processes"), btn("Disks", intent.NSSystem, "disks")},
		{btn("Temperatures", intent.NSSystem, "temps"), btn("Refresh", intent.NSSystem, "refresh")},
	}

	ov, err := r.host.System.Overview(ctx)
	if err != nil {
		return transport.Render{Text: "System information unavailable", Keyboard: kb}
	}
	level, _ := r.host.Mixer.Level(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "CPU: %.0f%% %s\n", ov.CPUPercent, bar(ov.CPUPercent))
	if ov.CPUMHz > 0 {
		fmt.Fprintf(&b, "Frequency: %.0f MHz\n", ov.CPUMHz)
	}
	fmt.Fprintf(&b, "Cores: %d, threads: %d\n", ov.Cores, ov.Threads)
	fmt.Fprintf(&b, "RAM: %s / %s %s\n",
		humanize.IBytes(ov.MemUsed), humanize.IBytes(ov.MemTotal), bar(ov.MemPercent))
	if ov.Disk.Total > 0 {
		fmt.Fprintf(&b, "Disk %s: %s / %s %s\n", ov.Disk.Mountpoint,
			humanize.IBytes(ov.Disk.Used), humanize.IBytes(ov.Disk.Total), bar(ov.Disk.Percent))
	}
	fmt.Fprintf(&b, "Volume: %d%%\n", level)
	fmt.Fprintf(&b, "Uptime: %s", humanDuration(ov.Uptime))

	return transport.Render{Text: b.String(), Keyboard: kb}
}

func (r *Router) renderProcesses(ctx context.Context) transport.Render {
	procs, err := r.host.Processes.Top(ctx, topProcesses)
	if err != nil {
		return transport.Render{Text: "Process list unavailable", Keyboard: systemBack()}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d by memory:\n", len(procs))
	for _, p := range procs {
		fmt.Fprintf(&b, "%d  %s  %s\n", p.PID, truncate(p.Name, 24), humanize.IBytes(p.RSS))
	}
	return transport.Render{Text: strings.TrimRight(b.String(), "\n"), Keyboard: systemBack()}
}

func (r *Router) renderDisks(ctx context.Context) transport.Render {
	disks, err := r.host.System.Disks(ctx)
	if err != nil || len(disks) == 0 {
		return transport.Render{Text: "Disk information unavailable", Keyboard: systemBack()}
	}
	var b strings.Builder
	b.WriteString("Disks:\n")
	for _, d := range disks {
		fmt.Fprintf(&b, "%s (%s)\n%s / %s %s\n", d.Mountpoint, d.Fstype,
			humanize.IBytes(d.Used), humanize.IBytes(d.Total), bar(d.Percent))
	}
	return transport.Render{Text: strings.TrimRight(b.String(), "\n"), Keyboard: systemBack()}
}

func (r *Router) renderTemps(ctx context.Context) transport.Render {
	sensors, err := r.host.System.Temperatures(ctx)
	if err != nil || len(sensors) == 0 {
		return transport.Render{Text: "Temperature sensors unavailable", Keyboard: systemBack()}
	}
	var b strings.Builder
	b.WriteString("Temperatures:\n")
	for _, s := range sensors {
		fmt.Fprintf(&b, "%s: %.0f°C\n", truncate(s.Name, 30), s.Celsius)
	}
	return transport.Render{Text: strings.TrimRight(b.String(), "\n"), Keyboard: systemBack()}
}
