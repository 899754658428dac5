package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultSampleRate is the capture and encoding rate in Hz.
const DefaultSampleRate = 44100

var (
	// ErrAlreadyRecording is returned by Start while a recording is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNoData is returned by Stop when nothing was recorded.
	ErrNoData = errors.New("no recording data")
	// ErrNoDevice is returned by Start when no capture device is configured.
	ErrNoDevice = errors.New("no capture device")
)

// State is the recording lifecycle state.
type State int

const (
	Idle State = iota
	Active
	Flushing
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Flushing:
		return "flushing"
	default:
		return "idle"
	}
}

// Frame is a block of mono 16-bit samples.
type Frame []int16

// CaptureStream delivers frames on a bounded channel. The channel is
// closed after Close returns or when capture ends on its own.
type CaptureStream interface {
	Frames() <-chan Frame
	Close() error
}

// CaptureDevice opens microphone streams.
type CaptureDevice interface {
	Open(ctx context.Context, sampleRate, channels int) (CaptureStream, error)
}

// Recording is an encoded, finished capture.
type Recording struct {
	WAV      []byte
	Samples  int
	Duration time.Duration
}

// Recorder runs at most one capture at a time. Frames are drained from the
// stream on a separate goroutine and appended under mu, so Stop may be
// called from the event loop while capture is in flight.
type Recorder struct {
	device     CaptureDevice
	sampleRate int

	mu      sync.Mutex
	state   State
	stream  CaptureStream
	done    chan struct{}
	frames  []Frame
	started time.Time
}

// NewRecorder creates an idle recorder.
func NewRecorder(device CaptureDevice, sampleRate int) *Recorder {
	return &Recorder{device: device, sampleRate: sampleRate}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Since returns when the active recording started.
func (r *Recorder) Since() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Buffered returns the number of frames collected so far.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Start opens a capture stream. The stream lives until Stop or until ctx
// is cancelled.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return ErrAlreadyRecording
	}
	if r.device == nil {
		return ErrNoDevice
	}

	stream, err := r.device.Open(ctx, r.sampleRate, 1)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}

	r.state = Active
	r.stream = stream
	r.frames = nil
	r.started = time.Now()
	r.done = make(chan struct{})
	go r.drain(stream.Frames(), r.done)
	return nil
}

func (r *Recorder) drain(frames <-chan Frame, done chan<- struct{}) {
	defer close(done)
	for f := range frames {
		r.mu.Lock()
		if r.state != Idle {
			r.frames = append(r.frames, f)
		}
		r.mu.Unlock()
	}
}

// Stop closes the stream, encodes everything buffered as WAV and returns
// to Idle. It returns ErrNoData when no recording is active or no frames
// arrived.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	if r.state != Active {
		r.mu.Unlock()
		return nil, ErrNoData
	}
	r.state = Flushing
	stream, done := r.stream, r.done
	r.mu.Unlock()

	closeErr := stream.Close()
	<-done

	r.mu.Lock()
	frames := r.frames
	r.frames = nil
	r.stream = nil
	r.done = nil
	r.state = Idle
	r.mu.Unlock()

	samples := concat(frames)
	if len(samples) == 0 {
		if closeErr != nil {
			return nil, fmt.Errorf("close capture: %w", closeErr)
		}
		return nil, ErrNoData
	}

	return &Recording{
		WAV:      EncodeWAV(samples, r.sampleRate),
		Samples:  len(samples),
		Duration: time.Duration(len(samples)) * time.Second / time.Duration(r.sampleRate),
	}, nil
}

func concat(frames []Frame) []int16 {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
