package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type recordingCloser struct {
	closed chan struct{}
}

func (c *recordingCloser) Close() error {
	close(c.closed)
	return errors.New("already closed")
}

func TestGracefulShutdownHandler(t *testing.T) {
	handler := NewGracefulShutdownHandler()
	defer handler.Close()

	select {
	case <-handler.Context().Done():
		t.Fatal("Context should not be cancelled initially")
	default:
	}

	handler.Close()

	select {
	case <-handler.Context().Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Context should be cancelled after Close()")
	}
}

func TestGracefulShutdownHandlerSignals(t *testing.T) {
	h := &GracefulShutdownHandler{sigChan: make(chan os.Signal, 2)}
	h.ctx, h.cancel = context.WithCancel(context.Background())
	defer h.cancel()

	exited := make(chan int, 1)
	h.SetExitFunc(func(code int) { exited <- code })
	closer := &recordingCloser{closed: make(chan struct{})}
	h.SetCloser(closer)

	go h.handleSignals(h.sigChan)

	h.sigChan <- os.Interrupt
	select {
	case <-h.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("first signal should cancel the context")
	}
	select {
	case <-closer.closed:
		t.Fatal("first signal must not close the session")
	case <-exited:
		t.Fatal("first signal must not exit")
	default:
	}

	h.sigChan <- os.Interrupt
	select {
	case code := <-exited:
		if code != 130 {
			t.Errorf("exit code = %d, want 130", code)
		}
	case <-time.After(time.Second):
		t.Fatal("second signal should exit")
	}
	select {
	case <-closer.closed:
	default:
		t.Error("second signal should close the session")
	}
}
