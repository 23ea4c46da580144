package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Payload is one finalized microphone capture, ready for submission.
type Payload struct {
	Data     []byte
	Filename string
	MIME     string
}

// DeviceAccessError indicates the microphone could not be acquired: no
// capture tool installed, permission denied, or no input device.
type DeviceAccessError struct {
	Err error
}

func (e *DeviceAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("microphone unavailable: %v", e.Err)
	}
	return "microphone unavailable"
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// CaptureDevice is an exclusive microphone capture handle. Start acquires
// the device; Stop finalizes the capture, releases the device, and returns
// the recorded bytes.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}

// Recorder bridges the capture device to session submission. At most one
// recording is active at a time.
type Recorder struct {
	mu        sync.Mutex
	dev       CaptureDevice
	recording bool
}

// NewRecorder creates a Recorder around the given device. A nil device
// selects the system command device.
func NewRecorder(dev CaptureDevice) *Recorder {
	if dev == nil {
		dev = &CommandDevice{}
	}
	return &Recorder{dev: dev}
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// StartRecording acquires the microphone. Fails with *DeviceAccessError
// when the device cannot be acquired or a recording is already running.
func (r *Recorder) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return &DeviceAccessError{Err: fmt.Errorf("recording already in progress")}
	}
	if err := r.dev.Start(ctx); err != nil {
		return &DeviceAccessError{Err: err}
	}
	r.recording = true
	return nil
}

// StopRecording finalizes the capture and returns the payload. Calling it
// without an active recording is a no-op returning (nil, nil). The device
// is released on every exit path, including failure.
func (r *Recorder) StopRecording() (*Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, nil
	}
	r.recording = false

	data, err := r.dev.Stop()
	if err != nil {
		return nil, &DeviceAccessError{Err: err}
	}
	return &Payload{
		Data:     data,
		Filename: "recording.wav",
		MIME:     "audio/wav",
	}, nil
}

// recorderCandidates are the system capture tools probed in order.
var recorderCandidates = []struct {
	bin  string
	args func(path string) []string
}{
	{"rec", func(p string) []string { return []string{"-q", p} }},
	{"sox", func(p string) []string { return []string{"-q", "-d", p} }},
	{"arecord", func(p string) []string { return []string{"-q", "-f", "cd", p} }},
}

// CommandDevice captures audio by shelling out to the first available
// system recorder, writing a temporary WAV file.
type CommandDevice struct {
	cmd  *exec.Cmd
	path string
}

func (d *CommandDevice) Start(ctx context.Context) error {
	bin, args, err := findRecorder()
	if err != nil {
		return err
	}

	path := filepath.Join(os.TempDir(), "leo-rec-"+uuid.NewString()+".wav")
	cmd := exec.CommandContext(ctx, bin, args(path)...)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("start %s: %w", bin, err)
	}

	d.cmd = cmd
	d.path = path
	return nil
}

func (d *CommandDevice) Stop() ([]byte, error) {
	if d.cmd == nil {
		return nil, nil
	}
	cmd, path := d.cmd, d.path
	d.cmd = nil
	d.path = ""
	defer os.Remove(path)

	// Interrupt lets the recorder finalize the WAV header; the non-zero
	// exit from the signal is expected.
	if cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
	}
	_ = cmd.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty capture")
	}
	return data, nil
}

func findRecorder() (string, func(string) []string, error) {
	for _, c := range recorderCandidates {
		if _, err := exec.LookPath(c.bin); err == nil {
			return c.bin, c.args, nil
		}
	}
	return "", nil, fmt.Errorf("no audio capture tool found (tried rec, sox, arecord)")
}
