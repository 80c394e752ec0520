package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/dashboard"
	"github.com/retail-vision/dashboard/pkg/logger"
)

var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrEmptyRecording   = errors.New("recording produced no audio")
)

// CaptureDevice abstracts the host's microphone capture so the recorder is
// testable without hardware. Start acquires the device and begins producing
// chunks; the chunk channel is closed once the device stops.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Chunks() <-chan []byte
	Stop() error
}

// VoiceSender is the dispatcher operation the finalized payload is handed to.
type VoiceSender interface {
	SendVoiceQuery(ctx context.Context, audio []byte) dashboard.VoiceResult
}

type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// recording holds the buffered chunks of one capture. Owned by a single End
// call once claimed, so two racing Ends can never both finalize.
type recording struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	drained chan struct{}
}

// Recorder is the press-and-hold capture state machine: idle until Begin
// acquires the device, recording until End finalizes the buffered chunks into
// one payload and hands it to the voice-query operation. No pause, no resume.
type Recorder struct {
	device CaptureDevice
	sender VoiceSender

	mu    sync.Mutex
	state State
	rec   *recording
}

func NewRecorder(device CaptureDevice, sender VoiceSender) *Recorder {
	return &Recorder{
		device: device,
		sender: sender,
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// Begin transitions idle -> recording. If the device cannot be acquired the
// recorder stays idle and the error surfaces to the caller; no request is
// ever sent in that case.
func (r *Recorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return ErrAlreadyRecording
	}

	if err := r.device.Start(ctx); err != nil {
		logger.Error("Failed to acquire capture device", zap.Error(err))
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}

	rec := &recording{drained: make(chan struct{})}
	r.rec = rec
	r.state = StateRecording

	go r.drain(rec)

	logger.Debug("Recording started")
	return nil
}

// drain buffers chunks until the device closes its channel on Stop.
func (r *Recorder) drain(rec *recording) {
	for chunk := range r.device.Chunks() {
		rec.mu.Lock()
		rec.buf.Write(chunk)
		rec.mu.Unlock()
	}
	close(rec.drained)
}

// End transitions recording -> idle: releases the device, finalizes the
// buffered chunks into one payload and hands it to the dispatcher. The
// recording is claimed under the same lock as the state check, so a
// concurrent End fails with ErrNotRecording instead of stopping the device
// twice. The dispatcher's result (including its apology fallback) is
// returned unchanged.
func (r *Recorder) End(ctx context.Context) (dashboard.VoiceResult, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return dashboard.VoiceResult{}, ErrNotRecording
	}
	rec := r.rec
	r.rec = nil
	r.state = StateIdle
	r.mu.Unlock()

	if err := r.device.Stop(); err != nil {
		logger.Warn("Capture device stop reported error", zap.Error(err))
	}

	<-rec.drained

	rec.mu.Lock()
	payload := make([]byte, rec.buf.Len())
	copy(payload, rec.buf.Bytes())
	rec.mu.Unlock()

	if len(payload) == 0 {
		logger.Warn("Recording finalized empty, nothing sent")
		return dashboard.VoiceResult{}, ErrEmptyRecording
	}

	logger.Debug("Recording finalized", zap.Int("bytes", len(payload)))
	return r.sender.SendVoiceQuery(ctx, payload), nil
}
