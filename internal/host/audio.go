package host

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Device is an audio output endpoint.
type Device struct {
	Index int
	ID    string
	Name  string
}

// AudioBackend talks to the platform sound server.
type AudioBackend interface {
	DefaultDevice(ctx context.Context) (Device, error)
	Devices(ctx context.Context) ([]Device, error)
	Volume(ctx context.Context, d Device) (level int, muted bool, err error)
	SetVolume(ctx context.Context, d Device, level int) error
	SetMute(ctx context.Context, d Device, muted bool) error
	SetDefault(ctx context.Context, d Device) error
}

// Mixer funnels all volume access through one cached device handle.
// The handle mirrors the single physical host and is shared by all
// operators. It is resolved lazily and invalidated by SelectDevice.
// Reads never fail: when the backend errors, the last observed values
// are returned instead.
type Mixer struct {
	backend AudioBackend

	mu       sync.Mutex
	handle   *Device
	level    int
	muted    bool
	resolves int
}

// NewMixer creates a mixer over backend.
func NewMixer(backend AudioBackend) *Mixer {
	return &Mixer{backend: backend}
}

// resolve returns the cached handle, resolving it if needed. Caller holds mu.
func (m *Mixer) resolve(ctx context.Context) (Device, error) {
	if m.handle != nil {
		return *m.handle, nil
	}
	if m.backend == nil {
		return Device{}, ErrUnavailable
	}
	d, err := m.backend.DefaultDevice(ctx)
	if err != nil {
		return Device{}, err
	}
	m.resolves++
	m.handle = &d
	return d, nil
}

// Level returns the current volume and mute state, falling back to the
// last observed values on failure.
func (m *Mixer) Level(ctx context.Context) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.resolve(ctx)
	if err != nil {
		return m.level, m.muted
	}
	level, muted, err := m.backend.Volume(ctx, d)
	if err != nil {
		m.handle = nil
		return m.level, m.muted
	}
	m.level, m.muted = Clamp(level, 0, 100), muted
	return m.level, m.muted
}

// SetLevel clamps level into 0..100 and applies it.
func (m *Mixer) SetLevel(ctx context.Context, level int) (int, error) {
	level = Clamp(level, 0, 100)

	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.resolve(ctx)
	if err != nil {
		return m.level, fmt.Errorf("resolve audio device: %w", err)
	}
	if err := m.backend.SetVolume(ctx, d, level); err != nil {
		m.handle = nil
		return m.level, fmt.Errorf("set volume: %w", err)
	}
	m.level = level
	return level, nil
}

// Adjust reads the current level, adds delta and sets the clamped result.
// The read and the write are not atomic with respect to external changes.
func (m *Mixer) Adjust(ctx context.Context, delta int) (int, error) {
	current, _ := m.Level(ctx)
	return m.SetLevel(ctx, current+delta)
}

// ToggleMute flips the mute state and returns the new one.
func (m *Mixer) ToggleMute(ctx context.Context) (bool, error) {
	_, muted := m.Level(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.resolve(ctx)
	if err != nil {
		return m.muted, fmt.Errorf("resolve audio device: %w", err)
	}
	if err := m.backend.SetMute(ctx, d, !muted); err != nil {
		return m.muted, fmt.Errorf("set mute: %w", err)
	}
	m.muted = !muted
	return m.muted, nil
}

// Current returns the cached default device.
func (m *Mixer) Current(ctx context.Context) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolve(ctx)
}

// Devices lists output devices.
func (m *Mixer) Devices(ctx context.Context) ([]Device, error) {
	if m.backend == nil {
		return nil, ErrUnavailable
	}
	return m.backend.Devices(ctx)
}

// SelectDevice makes the device at index the default output and drops
// the cached handle.
func (m *Mixer) SelectDevice(ctx context.Context, index int) (Device, error) {
	devices, err := m.Devices(ctx)
	if err != nil {
		return Device{}, err
	}
	if index < 0 || index >= len(devices) {
		return Device{}, fmt.Errorf("device %d: %w", index, ErrUnavailable)
	}
	d := devices[index]
	if err := m.backend.SetDefault(ctx, d); err != nil {
		return Device{}, fmt.Errorf("set default device: %w", err)
	}

	m.mu.Lock()
	m.handle = nil
	m.mu.Unlock()
	return d, nil
}

// Resolves reports how many times the handle was resolved.
func (m *Mixer) Resolves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolves
}

// Pactl drives PulseAudio or PipeWire through pactl.
type Pactl struct {
	Runner Runner
}

// DefaultDevice returns the default sink.
func (p Pactl) DefaultDevice(ctx context.Context) (Device, error) {
	out, err := p.Runner.Run(ctx, "pactl", "get-default-sink")
	if err != nil {
		return Device{}, err
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return Device{}, ErrUnavailable
	}
	devices, err := p.Devices(ctx)
	if err == nil {
		for _, d := range devices {
			if d.ID == name {
				return d, nil
			}
		}
	}
	return Device{Index: -1, ID: name, Name: name}, nil
}

// Devices lists sinks in pactl order.
func (p Pactl) Devices(ctx context.Context) ([]Device, error) {
	out, err := p.Runner.Run(ctx, "pactl", "list", "short", "sinks")
	if err != nil {
		return nil, err
	}
	return parseSinks(out), nil
}

func parseSinks(out []byte) []Device {
	var devices []Device
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Device{Index: len(devices), ID: fields[1], Name: fields[1]})
	}
	return devices
}

var percentRe = regexp.MustCompile(`(\d+)%`)

// Volume reads the sink's volume and mute flag.
func (p Pactl) Volume(ctx context.Context, d Device) (int, bool, error) {
	out, err := p.Runner.Run(ctx, "pactl", "get-sink-volume", d.ID)
	if err != nil {
		return 0, false, err
	}
	level, err := parsePercent(out)
	if err != nil {
		return 0, false, err
	}
	out, err = p.Runner.Run(ctx, "pactl", "get-sink-mute", d.ID)
	if err != nil {
		return level, false, err
	}
	return level, strings.Contains(strings.ToLower(string(out)), "yes"), nil
}

func parsePercent(out []byte) (int, error) {
	m := percentRe.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no percentage in %q", strings.TrimSpace(string(out)))
	}
	return strconv.Atoi(string(m[1]))
}

func (p Pactl) SetVolume(ctx context.Context, d Device, level int) error {
	_, err := p.Runner.Run(ctx, "pactl", "set-sink-volume", d.ID, strconv.Itoa(level)+"%")
	return err
}

func (p Pactl) SetMute(ctx context.Context, d Device, muted bool) error {
	v := "0"
	if muted {
		v = "1"
	}
	_, err := p.Runner.Run(ctx, "pactl", "set-sink-mute", d.ID, v)
	return err
}

func (p Pactl) SetDefault(ctx context.Context, d Device) error {
	_, err := p.Runner.Run(ctx, "pactl", "set-default-sink", d.ID)
	return err
}
