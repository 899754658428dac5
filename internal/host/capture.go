package host

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/ppiankov/hostwarden/internal/session"
)

const (
	// captureFrameSamples is the number of samples per delivered frame.
	captureFrameSamples = 1024
	// captureQueue bounds frames in flight between reader and session.
	captureQueue = 64
)

// RawCapture records raw signed 16-bit little-endian PCM from a command's
// stdout. The default command is arecord.
type RawCapture struct {
	// Argv overrides the capture command. "{rate}" and "{channels}" are substituted.
	Argv []string
}

// DefaultCaptureCommand records from the default ALSA/Pulse input.
var DefaultCaptureCommand = []string{"arecord", "-q", "-t", "raw", "-f", "S16_LE", "-r", "{rate}", "-c", "{channels}"}

// Open starts the capture command.
func (c RawCapture) Open(ctx context.Context, sampleRate, channels int) (session.CaptureStream, error) {
	argv := c.Argv
	if len(argv) == 0 {
		argv = DefaultCaptureCommand
	}
	args := make([]string, 0, len(argv))
	for _, a := range argv {
		switch a {
		case "{rate}":
			a = strconv.Itoa(sampleRate)
		case "{channels}":
			a = strconv.Itoa(channels)
		}
		args = append(args, a)
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], ErrUnavailable)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}

	s := &rawStream{
		cmd:      cmd,
		cancel:   cancel,
		stdout:   stdout,
		frames:   make(chan session.Frame, captureQueue),
		stop:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go s.read()
	return s, nil
}

type rawStream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	frames chan session.Frame

	stop     chan struct{}
	readDone chan struct{}
	once     sync.Once
	err      error
}

func (s *rawStream) Frames() <-chan session.Frame { return s.frames }

func (s *rawStream) read() {
	defer close(s.readDone)
	defer close(s.frames)
	br := bufio.NewReader(s.stdout)
	for {
		f := make(session.Frame, captureFrameSamples)
		// a partial tail frame is dropped
		if err := binary.Read(br, binary.LittleEndian, f); err != nil {
			return
		}
		select {
		case s.frames <- f:
		case <-s.stop:
			return
		}
	}
}

// Close stops the capture command. Frames already queued stay readable.
// The command is reaped only after read has stopped touching stdout, since
// Wait closes the pipe.
func (s *rawStream) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.cancel()
		// a child that inherited stdout can keep the pipe open past the kill
		s.stdout.Close()
		<-s.readDone

		err := s.cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || errors.Is(err, context.Canceled) {
			err = nil
		}
		s.err = err
	})
	return s.err
}
