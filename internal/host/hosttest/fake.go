// Package hosttest provides an in-memory host for tests. Every provider
// call is counted so tests can assert that nothing touched the host.
package hosttest

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/hostwarden/internal/host"
	"github.com/ppiankov/hostwarden/internal/intent"
)

// Fake implements every provider interface and the audio backend.
type Fake struct {
	mu    sync.Mutex
	calls map[string]int

	Level           int
	Muted           bool
	DeviceList      []host.Device
	DefaultIndex    int
	BrightnessLevel int
	Clip            string
	Playing         string
	Screenshot      []byte
	Procs           []host.Process
	Opened          []string
	PendingShutdown time.Duration
	Killed          []string

	// Err, when set, is returned by every call.
	Err error
}

// New returns a fake with two audio devices, volume 50 and brightness 70.
func New() *Fake {
	return &Fake{
		calls: make(map[string]int),
		Level: 50,
		DeviceList: []host.Device{
			{Index: 0, ID: "speakers", Name: "Built-in Speakers"},
			{Index: 1, ID: "headset", Name: "USB Headset"},
		},
		BrightnessLevel: 70,
		Screenshot:      []byte("\x89PNG fake"),
		Procs: []host.Process{
			{PID: 100, Name: "firefox", RSS: 800 << 20},
			{PID: 200, Name: "code", RSS: 400 << 20},
		},
		PendingShutdown: -1,
	}
}

// Host wires the fake into a host resource context.
func (f *Fake) Host() *host.Host {
	return &host.Host{
		Mixer:     host.NewMixer(f),
		Power:     f,
		Media:     f,
		Display:   f,
		Processes: f,
		System:    f,
		Screen:    f,
		Clipboard: f,
		Launcher:  f,
	}
}

func (f *Fake) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.Err
}

// Count returns the number of calls to the named method.
func (f *Fake) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// Total returns the number of provider calls of any kind.
func (f *Fake) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Reset clears call counters.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.calls = make(map[string]int)
	f.mu.Unlock()
}

// audio backend

func (f *Fake) DefaultDevice(context.Context) (host.Device, error) {
	if err := f.hit("DefaultDevice"); err != nil {
		return host.Device{}, err
	}
	return f.DeviceList[f.DefaultIndex], nil
}

func (f *Fake) Devices(context.Context) ([]host.Device, error) {
	if err := f.hit("Devices"); err != nil {
		return nil, err
	}
	return f.DeviceList, nil
}

func (f *Fake) Volume(context.Context, host.Device) (int, bool, error) {
	if err := f.hit("Volume"); err != nil {
		return 0, false, err
	}
	return f.Level, f.Muted, nil
}

func (f *Fake) SetVolume(_ context.Context, _ host.Device, level int) error {
	if err := f.hit("SetVolume"); err != nil {
		return err
	}
	f.Level = level
	return nil
}

func (f *Fake) SetMute(_ context.Context, _ host.Device, muted bool) error {
	if err := f.hit("SetMute"); err != nil {
		return err
	}
	f.Muted = muted
	return nil
}

func (f *Fake) SetDefault(_ context.Context, d host.Device) error {
	if err := f.hit("SetDefault"); err != nil {
		return err
	}
	f.DefaultIndex = d.Index
	return nil
}

// power

func (f *Fake) Shutdown(_ context.Context, delay time.Duration) error {
	if err := f.hit("Shutdown"); err != nil {
		return err
	}
	f.PendingShutdown = delay
	return nil
}

func (f *Fake) Restart(_ context.Context, delay time.Duration) error {
	if err := f.hit("Restart"); err != nil {
		return err
	}
	f.PendingShutdown = delay
	return nil
}

func (f *Fake) CancelShutdown(context.Context) error {
	if err := f.hit("CancelShutdown"); err != nil {
		return err
	}
	f.PendingShutdown = -1
	return nil
}

func (f *Fake) Sleep(context.Context) error { return f.hit("Sleep") }
func (f *Fake) Lock(context.Context) error  { return f.hit("Lock") }

// media and display

func (f *Fake) Press(context.Context, intent.MediaAction) error { return f.hit("Press") }

func (f *Fake) NowPlaying(context.Context) (string, error) {
	if err := f.hit("NowPlaying"); err != nil {
		return "", err
	}
	return f.Playing, nil
}

func (f *Fake) Brightness(context.Context) (int, error) {
	if err := f.hit("Brightness"); err != nil {
		return 0, err
	}
	return f.BrightnessLevel, nil
}

func (f *Fake) SetBrightness(_ context.Context, level int) error {
	if err := f.hit("SetBrightness"); err != nil {
		return err
	}
	f.BrightnessLevel = level
	return nil
}

// processes and system

func (f *Fake) Top(_ context.Context, n int) ([]host.Process, error) {
	if err := f.hit("Top"); err != nil {
		return nil, err
	}
	if n < len(f.Procs) {
		return f.Procs[:n], nil
	}
	return f.Procs, nil
}

func (f *Fake) KillByName(_ context.Context, name string) (int, error) {
	if err := f.hit("KillByName"); err != nil {
		return 0, err
	}
	f.Killed = append(f.Killed, name)
	return 1, nil
}

func (f *Fake) KillByPID(_ context.Context, pid int) (string, error) {
	if err := f.hit("KillByPID"); err != nil {
		return "", err
	}
	return "proc", nil
}

func (f *Fake) Overview(context.Context) (host.Overview, error) {
	if err := f.hit("Overview"); err != nil {
		return host.Overview{}, err
	}
	return host.Overview{
		CPUPercent: 12, Cores: 4, Threads: 8,
		MemTotal: 16 << 30, MemUsed: 4 << 30, MemPercent: 25,
		Disk:   host.Disk{Mountpoint: "/", Total: 500 << 30, Used: 100 << 30, Percent: 20},
		Uptime: 90 * time.Minute,
	}, nil
}

func (f *Fake) Disks(context.Context) ([]host.Disk, error) {
	if err := f.hit("Disks"); err != nil {
		return nil, err
	}
	return []host.Disk{{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4", Total: 500 << 30, Used: 100 << 30, Percent: 20}}, nil
}

func (f *Fake) Temperatures(context.Context) ([]host.Sensor, error) {
	if err := f.hit("Temperatures"); err != nil {
		return nil, err
	}
	return []host.Sensor{{Name: "coretemp_package_id_0", Celsius: 48}}, nil
}

func (f *Fake) Uptime(context.Context) (time.Duration, error) {
	if err := f.hit("Uptime"); err != nil {
		return 0, err
	}
	return 90 * time.Minute, nil
}

// desktop

func (f *Fake) Capture(context.Context) ([]byte, error) {
	if err := f.hit("Capture"); err != nil {
		return nil, err
	}
	return f.Screenshot, nil
}

func (f *Fake) Read() (string, error) {
	if err := f.hit("Read"); err != nil {
		return "", err
	}
	return f.Clip, nil
}

func (f *Fake) Write(text string) error {
	if err := f.hit("Write"); err != nil {
		return err
	}
	f.Clip = text
	return nil
}

func (f *Fake) Open(_ context.Context, target string) error {
	if err := f.hit("Open"); err != nil {
		return err
	}
	f.Opened = append(f.Opened, target)
	return nil
}
