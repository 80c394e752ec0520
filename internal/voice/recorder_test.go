package voice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/retail-vision/dashboard/internal/dashboard"
)

type fakeDevice struct {
	mu       sync.Mutex
	startErr error
	ch       chan []byte
	started  bool
	stops    int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{ch: make(chan []byte, 8)}
}

func (f *fakeDevice) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeDevice) Chunks() <-chan []byte {
	return f.ch
}

func (f *fakeDevice) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stops++
	if f.stops == 1 {
		close(f.ch)
	}
	return nil
}

func (f *fakeDevice) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stops
}

type fakeSender struct {
	payloads [][]byte
}

func (f *fakeSender) SendVoiceQuery(ctx context.Context, audio []byte) dashboard.VoiceResult {
	f.payloads = append(f.payloads, audio)
	return dashboard.VoiceResult{
		Messages: []dashboard.ChatMessage{
			{Role: dashboard.RoleUser, Text: "transcription"},
			{Role: dashboard.RoleBot, Text: "reply"},
		},
	}
}

func TestBeginDeviceDeniedStaysIdle(t *testing.T) {
	device := newFakeDevice()
	device.startErr = errors.New("permission denied")
	sender := &fakeSender{}
	r := NewRecorder(device, sender)

	if err := r.Begin(context.Background()); err == nil {
		t.Fatal("expected error when device acquisition fails")
	}
	if r.State() != StateIdle {
		t.Errorf("expected idle state, got %s", r.State())
	}
	if len(sender.payloads) != 0 {
		t.Error("no request may be sent when the device was never acquired")
	}
}

func TestPressAndHoldFlow(t *testing.T) {
	device := newFakeDevice()
	sender := &fakeSender{}
	r := NewRecorder(device, sender)

	if err := r.Begin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("expected recording state, got %s", r.State())
	}

	device.ch <- []byte("RIFF")
	device.ch <- []byte("-audio-")
	device.ch <- []byte("chunks")

	result, err := r.End(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.State() != StateIdle {
		t.Errorf("expected idle after End, got %s", r.State())
	}
	if device.stopCount() != 1 {
		t.Errorf("device released %d times, expected once", device.stopCount())
	}
	if len(sender.payloads) != 1 {
		t.Fatalf("expected one dispatched payload, got %d", len(sender.payloads))
	}
	if string(sender.payloads[0]) != "RIFF-audio-chunks" {
		t.Errorf("chunks not finalized into a single payload: %q", sender.payloads[0])
	}
	if len(result.Messages) != 2 {
		t.Errorf("dispatcher result not returned: %+v", result)
	}
}

func TestEndWithoutBegin(t *testing.T) {
	r := NewRecorder(newFakeDevice(), &fakeSender{})

	if _, err := r.End(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestBeginTwice(t *testing.T) {
	device := newFakeDevice()
	r := NewRecorder(device, &fakeSender{})

	if err := r.Begin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Begin(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}

	r.End(context.Background())
}

func TestConcurrentEndFinalizesOnce(t *testing.T) {
	device := newFakeDevice()
	sender := &fakeSender{}
	r := NewRecorder(device, sender)

	if err := r.Begin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	device.ch <- []byte("RIFF-audio")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.End(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, notRecording int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNotRecording):
			notRecording++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || notRecording != 1 {
		t.Errorf("expected one finalize and one ErrNotRecording, got %d/%d", ok, notRecording)
	}
	if device.stopCount() != 1 {
		t.Errorf("device released %d times, expected once", device.stopCount())
	}
	if len(sender.payloads) != 1 {
		t.Errorf("expected exactly one dispatched payload, got %d", len(sender.payloads))
	}
}

func TestEmptyRecordingIsNotSent(t *testing.T) {
	device := newFakeDevice()
	sender := &fakeSender{}
	r := NewRecorder(device, sender)

	if err := r.Begin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.End(context.Background())
	if !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("expected ErrEmptyRecording, got %v", err)
	}
	if len(sender.payloads) != 0 {
		t.Error("empty recording must not be dispatched")
	}
	if r.State() != StateIdle {
		t.Errorf("expected idle after empty recording, got %s", r.State())
	}
}
