package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/hostwarden/internal/intent"
	"github.com/ppiankov/hostwarden/internal/transport"
)

type fakeStream struct {
	ch   chan Frame
	once sync.Once
}

func (s *fakeStream) Frames() <-chan Frame { return s.ch }

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

type fakeDevice struct {
	opened  int
	streams []*fakeStream
	err     error
}

func (d *fakeDevice) Open(_ context.Context, _, channels int) (CaptureStream, error) {
	if d.err != nil {
		return nil, d.err
	}
	if channels != 1 {
		return nil, errors.New("mono only")
	}
	d.opened++
	s := &fakeStream{ch: make(chan Frame, 64)}
	d.streams = append(d.streams, s)
	return s, nil
}

func waitBuffered(t *testing.T, r *Recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.Buffered() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d frames, have %d", n, r.Buffered())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStopBeforeStartReturnsNoData(t *testing.T) {
	r := NewRecorder(&fakeDevice{}, DefaultSampleRate)
	if _, err := r.Stop(); !errors.Is(err, ErrNoData) {
		t.Errorf("Stop() error = %v, want ErrNoData", err)
	}
	if r.State() != Idle {
		t.Errorf("state = %s, want idle", r.State())
	}
}

func TestStartWhileActiveLeavesBufferUntouched(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRecorder(dev, DefaultSampleRate)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	s := dev.streams[0]
	for i := 0; i < 3; i++ {
		s.ch <- make(Frame, 100)
	}
	waitBuffered(t, r, 3)

	if err := r.Start(ctx); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRecording", err)
	}
	if dev.opened != 1 {
		t.Errorf("second Start opened another stream")
	}
	if r.Buffered() != 3 {
		t.Errorf("buffer changed: %d frames", r.Buffered())
	}

	rec, err := r.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Samples != 300 {
		t.Errorf("samples = %d, want 300", rec.Samples)
	}
}

func TestDurationProportionalToFrames(t *testing.T) {
	const frameLen = 4410 // 100ms at 44.1kHz
	for _, n := range []int{1, 10, 25} {
		dev := &fakeDevice{}
		r := NewRecorder(dev, DefaultSampleRate)
		if err := r.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < n; i++ {
			dev.streams[0].ch <- make(Frame, frameLen)
		}

		rec, err := r.Stop()
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		want := time.Duration(n) * 100 * time.Millisecond
		if rec.Duration != want {
			t.Errorf("n=%d: duration = %v, want %v", n, rec.Duration, want)
		}
		if got := WAVSamples(rec.WAV); got != n*frameLen {
			t.Errorf("n=%d: wav samples = %d", n, got)
		}
		if r.State() != Idle || r.Buffered() != 0 {
			t.Errorf("n=%d: recorder not reset: %s, %d frames", n, r.State(), r.Buffered())
		}
	}
}

func TestStopWithoutFramesReturnsNoData(t *testing.T) {
	r := NewRecorder(&fakeDevice{}, DefaultSampleRate)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Stop(); !errors.Is(err, ErrNoData) {
		t.Errorf("Stop() error = %v, want ErrNoData", err)
	}
	if r.State() != Idle {
		t.Errorf("state = %s, want idle", r.State())
	}
}

func TestRecorderRestartsAfterStop(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRecorder(dev, DefaultSampleRate)
	for i := 0; i < 2; i++ {
		if err := r.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		dev.streams[i].ch <- Frame{1, 2, 3}
		if _, err := r.Stop(); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
}

func TestStartFailures(t *testing.T) {
	if err := NewRecorder(nil, DefaultSampleRate).Start(context.Background()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("nil device error = %v", err)
	}
	r := NewRecorder(&fakeDevice{err: errors.New("busy")}, DefaultSampleRate)
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected open error")
	}
	if r.State() != Idle {
		t.Errorf("failed start left state %s", r.State())
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	wav := EncodeWAV([]int16{0, 1, -1, 32767}, 44100)
	if len(wav) != 44+8 {
		t.Fatalf("len = %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", wav[:40])
	}
	// channels at 22, sample rate at 24, bits at 34
	if wav[22] != 1 || wav[34] != 16 {
		t.Errorf("channels=%d bits=%d", wav[22], wav[34])
	}
	if rate := int(wav[24]) | int(wav[25])<<8 | int(wav[26])<<16; rate != 44100 {
		t.Errorf("sample rate = %d", rate)
	}
}

func TestStoreCreatesLazily(t *testing.T) {
	st := NewStore(nil, 0)
	if st.Len() != 0 {
		t.Fatal("store should start empty")
	}
	a := st.Get(1)
	if st.Get(1) != a {
		t.Error("Get should return the same session")
	}
	if st.Get(2) == a {
		t.Error("sessions must not be shared across operators")
	}
	if st.Len() != 2 {
		t.Errorf("Len = %d", st.Len())
	}
	if a.Menu() != intent.MenuMain {
		t.Errorf("new session menu = %s", a.Menu())
	}
}

func TestSessionRenders(t *testing.T) {
	s := NewStore(nil, 0).Get(1)
	r := transport.Render{Text: "Volume: 40%"}

	s.Enter(intent.MenuVolume, r)
	if s.Menu() != intent.MenuVolume {
		t.Errorf("menu = %s", s.Menu())
	}
	if got, ok := s.LastRender(intent.MenuVolume); !ok || !got.Equal(r) {
		t.Errorf("LastRender = %+v, %v", got, ok)
	}
	if _, ok := s.LastRender(intent.MenuPower); ok {
		t.Error("no render expected for unvisited menu")
	}

	s.MarkDisplayed(10, r)
	if got, ok := s.Displayed(10); !ok || !got.Equal(r) {
		t.Errorf("Displayed = %+v, %v", got, ok)
	}
}
