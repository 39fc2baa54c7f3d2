package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/monshunter/ohmydeploy/pkg/log"
)

// GracefulShutdownHandler cancels the deployment on the first signal, letting
// the running step finish. A second signal closes the session and exits.
type GracefulShutdownHandler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	closer   io.Closer
	sigChan  chan os.Signal
	exitFunc func(int) // Allow injection of exit function for testing
}

// NewGracefulShutdownHandler creates a new graceful shutdown handler
func NewGracefulShutdownHandler() *GracefulShutdownHandler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &GracefulShutdownHandler{
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  make(chan os.Signal, 2),
		exitFunc: os.Exit,
	}

	signal.Notify(handler.sigChan, os.Interrupt, syscall.SIGTERM)
	go handler.handleSignals(handler.sigChan)

	return handler
}

// SetCloser sets the resource closed on a forced exit
func (h *GracefulShutdownHandler) SetCloser(closer io.Closer) {
	h.closer = closer
}

// Context returns the context that will be cancelled on shutdown
func (h *GracefulShutdownHandler) Context() context.Context {
	return h.ctx
}

// Close stops signal handling and cancels the context
func (h *GracefulShutdownHandler) Close() {
	signal.Stop(h.sigChan)
	h.cancel()
}

// SetExitFunc sets a custom exit function (useful for testing)
func (h *GracefulShutdownHandler) SetExitFunc(exitFunc func(int)) {
	h.exitFunc = exitFunc
}

func (h *GracefulShutdownHandler) handleSignals(sigChan <-chan os.Signal) {
	select {
	case sig := <-sigChan:
		log.Warningf("Received signal %v, stopping after the current step (repeat to abort now)", sig)
		h.cancel()
	case <-h.ctx.Done():
		return
	}

	sig := <-sigChan
	log.Warningf("Received signal %v, aborting", sig)
	if h.closer != nil {
		if err := h.closer.Close(); err != nil {
			log.Errorf("Error closing session: %v", err)
		}
	}
	h.exitFunc(130)
}
