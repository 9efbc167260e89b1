package e2etest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/myrjola/trainingplan/internal/logging"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// RunFunc has the signature of the run function of cmd/web.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a running instance of the web server.
type Server struct {
	url    string
	client *Client
	stop   func() error
}

// StartServer runs the server, waits until /api/healthy answers, and stops the server when the test ends.
//
// logSink receives the server logs, usually testhelpers.NewWriter. run has to log its listening address under
// [LogAddrKey].
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	t.Helper()

	addrCh := make(chan string, 1)
	logger := logging.New(logSink, logging.Options{
		Level: slog.LevelDebug,
		Observe: func(a slog.Attr) {
			if a.Key != LogAddrKey {
				return
			}
			select {
			case addrCh <- a.Value.String():
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- run(ctx, logger, lookupEnv)
	}()

	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			cancel()
			stopErr = <-runErr
		})
		return stopErr
	}

	var addr string
	select {
	case err := <-runErr:
		cancel()
		if err == nil {
			err = errors.New("server exited before listening")
		}
		return nil, fmt.Errorf("start server: %w", err)
	case <-t.Context().Done():
		return nil, errors.Join(fmt.Errorf("test ended: %w", t.Context().Err()), stop())
	case addr = <-addrCh:
	}

	server := &Server{url: "http://" + addr, client: NewClient("http://" + addr), stop: stop}
	t.Cleanup(func() {
		if err := server.Shutdown(); err != nil {
			t.Errorf("server shutdown: %v", err)
		}
	})

	if err := server.client.WaitForReady(t.Context(), "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown stops the server and returns the error of run. It is safe to call more than once.
func (s *Server) Shutdown() error {
	defer s.client.CloseIdleConnections()
	return s.stop()
}
