package audio

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// ExecSink pipes rendered PCM16 stereo frames to an external player process
// over stdin. It keeps the audio graph free of device bindings: any player
// that accepts raw PCM on stdin works (aplay, ffplay, sox's play).
type ExecSink struct {
	mu      sync.Mutex
	name    string
	args    []string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	started bool
	closed  bool
}

var _ Sink = (*ExecSink)(nil)

// NewExecSink creates a sink that runs name with args and streams frames to
// its stdin. The command must be told the PCM layout via its own arguments;
// see [PlayerCommand].
func NewExecSink(name string, args ...string) *ExecSink {
	return &ExecSink{name: name, args: args}
}

// PlayerCommand returns an installed raw-PCM player invocation for the given
// sample rate, preferring aplay and falling back to ffplay. ok is false when
// neither is on PATH.
func PlayerCommand(sampleRate int) (name string, args []string, ok bool) {
	rate := strconv.Itoa(sampleRate)
	if _, err := exec.LookPath("aplay"); err == nil {
		return "aplay", []string{"-q", "-f", "S16_LE", "-c", "2", "-r", rate, "-"}, true
	}
	if _, err := exec.LookPath("ffplay"); err == nil {
		return "ffplay", []string{
			"-loglevel", "quiet", "-nodisp", "-autoexit",
			"-f", "s16le", "-ch_layout", "stereo", "-ar", rate, "-i", "-",
		}, true
	}
	return "", nil, false
}

// Start launches the player process.
func (s *ExecSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return nil
	}

	cmd := exec.Command(s.name, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audio: player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start player %q: %w", s.name, err)
	}
	s.cmd = cmd
	s.stdin = stdin
	s.started = true
	return nil
}

// WriteFrame streams one rendered block to the player.
func (s *ExecSink) WriteFrame(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return fmt.Errorf("audio: player sink not running")
	}
	if _, err := s.stdin.Write(SamplesToBytes(samples)); err != nil {
		return fmt.Errorf("audio: write to player: %w", err)
	}
	return nil
}

// Close ends the stream and waits for the player to drain.
func (s *ExecSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stdin, cmd := s.stdin, s.cmd
	s.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd != nil {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("audio: player exit: %w", err)
		}
	}
	return nil
}
