package intent

import (
	"strconv"
	"strings"
)

// Namespace prefixes of callback tokens.
const (
	NSVolume     = "vol"
	NSPower      = "power"
	NSTimer      = "timer"
	NSMedia      = "media"
	NSRecording  = "rec"
	NSBrightness = "br"
	NSSystem     = "sys"
	NSAudio      = "audio"
)

// Token builds a callback token "<namespace>_<action>".
func Token(namespace, action string) string {
	return namespace + "_" + action
}

// NumberToken builds a callback token with a decimal action.
func NumberToken(namespace string, n int) string {
	return namespace + "_" + strconv.Itoa(n)
}

// FromCallback decodes a callback token. Unknown namespaces or actions
// return false and must be ignored by the caller.
func FromCallback(data string) (Intent, bool) {
	namespace, action, ok := strings.Cut(data, "_")
	if !ok || action == "" {
		return Intent{}, false
	}

	switch namespace {
	case NSVolume:
		return volumeAction(action)
	case NSAudio:
		if n, ok := parseNumber(action); ok {
			return Intent{Kind: KindDeviceSelect, Value: n}, true
		}
	case NSPower:
		return powerAction(action)
	case NSTimer:
		return timerAction(action)
	case NSMedia:
		return mediaAction(action)
	case NSRecording:
		return recordingAction(action)
	case NSBrightness:
		return brightnessAction(action)
	case NSSystem:
		return systemAction(action)
	}
	return Intent{}, false
}

func volumeAction(action string) (Intent, bool) {
	switch action {
	case "mute":
		return Intent{Kind: KindMuteToggle}, true
	case "refresh":
		return navigate(MenuVolume), true
	case "devices":
		return navigate(MenuAudioDevice), true
	case "back":
		return back(MenuVolume), true
	}
	if d, ok := parseDelta(action); ok {
		return Intent{Kind: KindVolumeDelta, Value: d}, true
	}
	if n, ok := parseNumber(action); ok {
		return Intent{Kind: KindVolumeSet, Value: n}, true
	}
	return Intent{}, false
}

func powerAction(action string) (Intent, bool) {
	switch action {
	case "shutdown":
		return Intent{Kind: KindPowerAction, Power: PowerShutdown}, true
	case "restart":
		return Intent{Kind: KindPowerAction, Power: PowerRestart}, true
	case "sleep":
		return Intent{Kind: KindPowerAction, Power: PowerSleep}, true
	case "lock":
		return Intent{Kind: KindPowerAction, Power: PowerLock}, true
	case "cancel":
		return Intent{Kind: KindTimerCancel, Menu: MenuPower}, true
	case "timers":
		return navigate(MenuTimer), true
	case "back":
		return back(MenuMain), true
	}
	return Intent{}, false
}

func timerAction(action string) (Intent, bool) {
	switch action {
	case "cancel":
		return Intent{Kind: KindTimerCancel, Menu: MenuTimer}, true
	case "back":
		return back(MenuPower), true
	}
	if n, ok := parseNumber(action); ok {
		return Intent{Kind: KindTimerSet, Value: n}, true
	}
	return Intent{}, false
}

func mediaAction(action string) (Intent, bool) {
	switch action {
	case "playpause":
		return Intent{Kind: KindMediaTransport, Media: MediaPlayPause}, true
	case "next":
		return Intent{Kind: KindMediaTransport, Media: MediaNext}, true
	case "prev":
		return Intent{Kind: KindMediaTransport, Media: MediaPrev}, true
	case "record":
		return navigate(MenuRecording), true
	case "refresh":
		return navigate(MenuMedia), true
	case "back":
		return back(MenuMain), true
	}
	return Intent{}, false
}

func recordingAction(action string) (Intent, bool) {
	switch action {
	case "start":
		return Intent{Kind: KindRecordingStart}, true
	case "stop":
		return Intent{Kind: KindRecordingStop}, true
	case "back":
		return back(MenuMedia), true
	}
	return Intent{}, false
}

func brightnessAction(action string) (Intent, bool) {
	switch action {
	case "refresh":
		return navigate(MenuBrightness), true
	case "back":
		return back(MenuMain), true
	}
	if d, ok := parseDelta(action); ok {
		return Intent{Kind: KindBrightnessDelta, Value: d}, true
	}
	if n, ok := parseNumber(action); ok {
		return Intent{Kind: KindBrightnessSet, Value: n}, true
	}
	return Intent{}, false
}

func systemAction(action string) (Intent, bool) {
	switch action {
	case "refresh":
		return navigate(MenuSystemOverview), true
	case "processes":
		return navigate(MenuSystemProcesses), true
	case "disks":
		return navigate(MenuSystemDisks), true
	case "temps":
		return navigate(MenuSystemTemps), true
	case "back":
		return back(MenuSystemOverview), true
	}
	return Intent{}, false
}

func navigate(m Menu) Intent {
	return Intent{Kind: KindMenuNavigate, Menu: m}
}

func back(to Menu) Intent {
	return Intent{Kind: KindMenuBack, Menu: to}
}

// parseNumber accepts only unsigned decimal digits.
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDelta accepts "+10", "-10", "plus10" and "minus10".
func parseDelta(s string) (int, bool) {
	sign := 1
	switch {
	case strings.HasPrefix(s, "plus"):
		s = s[len("plus"):]
	case strings.HasPrefix(s, "minus"):
		s, sign = s[len("minus"):], -1
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		s, sign = s[1:], -1
	default:
		return 0, false
	}
	n, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return sign * n, true
}
