package audio

import (
	"context"
	"errors"
	"testing"
)

type fakeDevice struct {
	data     []byte
	startErr error
	stopErr  error
	starts   int
	stops    int
}

func (d *fakeDevice) Start(context.Context) error {
	d.starts++
	return d.startErr
}

func (d *fakeDevice) Stop() ([]byte, error) {
	d.stops++
	return d.data, d.stopErr
}

func TestRecorder_StartStopRoundTrip(t *testing.T) {
	dev := &fakeDevice{data: []byte("RIFF....")}
	r := NewRecorder(dev)

	if err := r.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !r.Recording() {
		t.Error("expected Recording true")
	}

	p, err := r.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if p == nil || string(p.Data) != "RIFF...." {
		t.Errorf("payload = %+v", p)
	}
	if p.MIME != "audio/wav" {
		t.Errorf("MIME = %q", p.MIME)
	}
	if r.Recording() {
		t.Error("expected Recording false after stop")
	}
}

func TestRecorder_StopWithoutStartIsNoop(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRecorder(dev)

	p, err := r.StopRecording()
	if p != nil || err != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", p, err)
	}
	if dev.stops != 0 {
		t.Error("device touched without an active recording")
	}
}

func TestRecorder_DeniedDevice(t *testing.T) {
	dev := &fakeDevice{startErr: errors.New("permission denied")}
	r := NewRecorder(dev)

	err := r.StartRecording(context.Background())
	var devErr *DeviceAccessError
	if !errors.As(err, &devErr) {
		t.Fatalf("err = %v, want DeviceAccessError", err)
	}
	if r.Recording() {
		t.Error("recording flag set despite denied device")
	}
}

func TestRecorder_DoubleStartRejected(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRecorder(dev)

	if err := r.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	var devErr *DeviceAccessError
	if err := r.StartRecording(context.Background()); !errors.As(err, &devErr) {
		t.Fatalf("err = %v, want DeviceAccessError on double start", err)
	}
	if dev.starts != 1 {
		t.Errorf("device starts = %d, want 1", dev.starts)
	}
}

func TestRecorder_StopFailureReleasesDevice(t *testing.T) {
	dev := &fakeDevice{stopErr: errors.New("short read")}
	r := NewRecorder(dev)

	if err := r.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if _, err := r.StopRecording(); err == nil {
		t.Fatal("expected stop failure")
	}
	if r.Recording() {
		t.Error("recorder must release on the error path too")
	}

	// A new recording can begin after the failed stop.
	if err := r.StartRecording(context.Background()); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
}
