// Package intent decodes transport-level tokens into normalized requests.
//
// Decoding happens once, at the transport boundary. Everything downstream
// switches on Kind and never looks at raw callback strings again.
package intent

import (
	"context"
	"io"
)

// Kind enumerates every request the router understands.
type Kind int

const (
	KindNone Kind = iota
	KindMenuNavigate
	KindMenuBack
	KindVolumeSet
	KindVolumeDelta
	KindMuteToggle
	KindDeviceSelect
	KindPowerAction
	KindTimerSet
	KindTimerCancel
	KindMediaTransport
	KindBrightnessSet
	KindBrightnessDelta
	KindRecordingStart
	KindRecordingStop
	KindProcessKillByName
	KindProcessKillByPID
	KindShellExec
	KindFileUpload
	KindClipboardRead
	KindClipboardWrite
	KindScreenshot
	KindOpenURL
	KindSearchVideo
	KindSearchWeb
	KindStart
	KindHelp
	KindUsage
)

// Kinds lists every routable kind, in declaration order.
var Kinds = []Kind{
	KindMenuNavigate, KindMenuBack,
	KindVolumeSet, KindVolumeDelta, KindMuteToggle, KindDeviceSelect,
	KindPowerAction, KindTimerSet, KindTimerCancel,
	KindMediaTransport, KindBrightnessSet, KindBrightnessDelta,
	KindRecordingStart, KindRecordingStop,
	KindProcessKillByName, KindProcessKillByPID,
	KindShellExec, KindFileUpload,
	KindClipboardRead, KindClipboardWrite,
	KindScreenshot, KindOpenURL, KindSearchVideo, KindSearchWeb,
	KindStart, KindHelp, KindUsage,
}

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindMenuNavigate:      "menu-navigate",
	KindMenuBack:          "menu-back",
	KindVolumeSet:         "volume-set",
	KindVolumeDelta:       "volume-delta",
	KindMuteToggle:        "mute-toggle",
	KindDeviceSelect:      "device-select",
	KindPowerAction:       "power-action",
	KindTimerSet:          "timer-set",
	KindTimerCancel:       "timer-cancel",
	KindMediaTransport:    "media-transport",
	KindBrightnessSet:     "brightness-set",
	KindBrightnessDelta:   "brightness-delta",
	KindRecordingStart:    "recording-start",
	KindRecordingStop:     "recording-stop",
	KindProcessKillByName: "process-kill-by-name",
	KindProcessKillByPID:  "process-kill-by-pid",
	KindShellExec:         "shell-exec",
	KindFileUpload:        "file-upload",
	KindClipboardRead:     "clipboard-read",
	KindClipboardWrite:    "clipboard-write",
	KindScreenshot:        "screenshot",
	KindOpenURL:           "open-url",
	KindSearchVideo:       "search-video",
	KindSearchWeb:         "search-web",
	KindStart:             "start",
	KindHelp:              "help",
	KindUsage:             "usage",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Destructive reports whether the kind must pass the safety filter first.
func (k Kind) Destructive() bool {
	return k == KindShellExec || k == KindFileUpload
}

// Menu is a location in the navigable menu state machine.
type Menu int

const (
	MenuMain Menu = iota
	MenuVolume
	MenuAudioDevice
	MenuPower
	MenuTimer
	MenuMedia
	MenuRecording
	MenuBrightness
	MenuSystemOverview
	MenuSystemProcesses
	MenuSystemDisks
	MenuSystemTemps
)

// Menus lists every menu state.
var Menus = []Menu{
	MenuMain, MenuVolume, MenuAudioDevice, MenuPower, MenuTimer,
	MenuMedia, MenuRecording, MenuBrightness,
	MenuSystemOverview, MenuSystemProcesses, MenuSystemDisks, MenuSystemTemps,
}

var menuNames = map[Menu]string{
	MenuMain:            "main",
	MenuVolume:          "volume",
	MenuAudioDevice:     "audio-device",
	MenuPower:           "power",
	MenuTimer:           "timer",
	MenuMedia:           "media",
	MenuRecording:       "recording",
	MenuBrightness:      "brightness",
	MenuSystemOverview:  "system",
	MenuSystemProcesses: "system-processes",
	MenuSystemDisks:     "system-disks",
	MenuSystemTemps:     "system-temps",
}

func (m Menu) String() string {
	if s, ok := menuNames[m]; ok {
		return s
	}
	return "unknown"
}

// Parent returns the menu that back-navigation leads to.
func (m Menu) Parent() Menu {
	switch m {
	case MenuAudioDevice:
		return MenuVolume
	case MenuTimer:
		return MenuPower
	case MenuRecording:
		return MenuMedia
	case MenuSystemProcesses, MenuSystemDisks, MenuSystemTemps:
		return MenuSystemOverview
	default:
		return MenuMain
	}
}

// PowerAction is a host power operation.
type PowerAction int

const (
	PowerShutdown PowerAction = iota
	PowerRestart
	PowerSleep
	PowerLock
)

func (p PowerAction) String() string {
	switch p {
	case PowerShutdown:
		return "shutdown"
	case PowerRestart:
		return "restart"
	case PowerSleep:
		return "sleep"
	case PowerLock:
		return "lock"
	default:
		return "unknown"
	}
}

// MediaAction is a media transport key.
type MediaAction int

const (
	MediaPlayPause MediaAction = iota
	MediaNext
	MediaPrev
)

func (m MediaAction) String() string {
	switch m {
	case MediaPlayPause:
		return "play-pause"
	case MediaNext:
		return "next"
	case MediaPrev:
		return "prev"
	default:
		return "unknown"
	}
}

// AttachmentKind is the transport's classification of an uploaded file.
type AttachmentKind int

const (
	AttachDocument AttachmentKind = iota
	AttachPhoto
	AttachVideo
	AttachAudio
	AttachVoice
)

func (a AttachmentKind) String() string {
	switch a {
	case AttachPhoto:
		return "photo"
	case AttachVideo:
		return "video"
	case AttachAudio:
		return "audio"
	case AttachVoice:
		return "voice"
	default:
		return "document"
	}
}

// Attachment describes an uploaded file. Content is fetched lazily,
// only after the safety filter admitted the filename.
type Attachment struct {
	Kind AttachmentKind
	// Name is the sender-supplied filename; empty for photos and voice notes.
	Name string
	Size int64
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// Intent is a parsed, normalized request. Which fields are meaningful depends on Kind.
type Intent struct {
	Kind Kind

	Menu  Menu        // KindMenuNavigate target, KindMenuBack destination
	Power PowerAction // KindPowerAction
	Media MediaAction // KindMediaTransport

	// Value carries levels, deltas, seconds, pids and device indexes.
	Value int
	// Text carries names, commands, URLs, queries, clipboard text and usage hints.
	Text string

	Attachment *Attachment // KindFileUpload
}
