package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

const (
	requestTimeout = 10 * time.Second
	writeTimeout   = 2 * time.Second
)

// Service is the consumer contract served over the socket.
type Service interface {
	ListWindows(ctx context.Context) ([]domain.WindowRecord, error)
	Focus(ctx context.Context, id string) error
	Minimize(ctx context.Context, id string) error
	Reorder(ids []string) error
	GetOrder() []string
	ShouldShow() bool
	FrontmostApp(ctx context.Context) (string, error)
	Resize(ctx context.Context, reserved float64) ([]domain.ResizeResult, error)
	Subscribe() (<-chan domain.WindowsUpdated, func())
	Status() domain.Status
}

// ServerInfo is reported by STATUS alongside the service status.
type ServerInfo struct {
	Version   string
	OrderFile string
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	service    Service
	info       ServerInfo
	logger     *zap.Logger
	startTime  time.Time

	mu           sync.Mutex
	listener     net.Listener
	conns        map[net.Conn]struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer creates a new IPC server
func NewServer(socketPath string, service Service, info ServerInfo, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		socketPath: socketPath,
		service:    service,
		info:       info,
		logger:     logger,
		startTime:  time.Now(),
		conns:      make(map[net.Conn]struct{}),
	}
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Listen binds the socket. A live server already on the path is an error;
// a stale socket file is removed.
func (s *Server) Listen() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("%w: socket %s is in use", domain.ErrAlreadyRunning, s.socketPath)
	}
	// Remove existing socket if present
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("IPC server listening", zap.String("socket", s.socketPath))
	return nil
}

// Serve accepts connections until ctx is canceled, then closes every open
// connection and removes the socket. Listen is called first if needed.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listening := s.listener != nil
	s.mu.Unlock()
	if !listening {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn("IPC accept error", zap.Error(err))
			continue
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.forget(conn)
			s.handleConnection(ctx, conn)
		}()
	}
}

// shutdown closes the listener and every open connection, then removes the
// socket. Later calls wait for the first to finish.
func (s *Server) shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.listener != nil {
			s.listener.Close()
		}
		for conn := range s.conns {
			conn.Close()
		}
		os.Remove(s.socketPath)
	})
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", zap.Error(err))
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(CodeBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	if req.Command == CommandSubscribe {
		s.stream(ctx, conn, reader)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	s.send(conn, s.handleCommand(reqCtx, req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandListWindows:
		windows, err := s.service.ListWindows(ctx)
		if err != nil {
			return ErrorResponseFor(err)
		}
		return ok(windows)

	case CommandFocus, CommandMinimize:
		var p IDPayload
		if err := decodePayload(req.Payload, &p); err != nil || p.ID == "" {
			return NewErrorResponse(CodeBadRequest, "payload must be {\"id\": \"<stable id>\"}")
		}
		action := s.service.Focus
		if req.Command == CommandMinimize {
			action = s.service.Minimize
		}
		if err := action(ctx, p.ID); err != nil {
			return ErrorResponseFor(err)
		}
		return ok(nil)

	case CommandReorder:
		var p ReorderPayload
		if err := decodePayload(req.Payload, &p); err != nil || p.IDs == nil {
			return NewErrorResponse(CodeBadRequest, "payload must be {\"ids\": [...]}")
		}
		if err := s.service.Reorder(p.IDs); err != nil {
			s.logger.Error("reorder failed", zap.Error(err))
			return ErrorResponseFor(err)
		}
		return ok(nil)

	case CommandGetOrder:
		return ok(OrderData{IDs: s.service.GetOrder()})

	case CommandShouldShow:
		return ok(ShouldShowData{Visible: s.service.ShouldShow()})

	case CommandFrontmostApp:
		app, err := s.service.FrontmostApp(ctx)
		if err != nil {
			return NewErrorResponse(CodeQueryFailure, err.Error())
		}
		return ok(FrontmostData{App: app})

	case CommandResize:
		var p ResizePayload
		if err := decodePayload(req.Payload, &p); err != nil || p.Height < 0 {
			return NewErrorResponse(CodeBadRequest, "payload must be {\"height\": <non-negative number>}")
		}
		results, err := s.service.Resize(ctx, p.Height)
		if err != nil {
			return ErrorResponseFor(err)
		}
		return ok(results)

	case CommandStatus:
		return ok(StatusData{
			Status:        s.service.Status(),
			PID:           os.Getpid(),
			Version:       s.info.Version,
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
			OrderFile:     s.info.OrderFile,
		})

	default:
		return NewErrorResponse(CodeBadRequest, fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// stream writes one event line per discovery cycle until the client hangs
// up or the server stops.
func (s *Server) stream(ctx context.Context, conn net.Conn, reader *bufio.Reader) {
	events, cancel := s.service.Subscribe()
	defer cancel()

	if !s.send(conn, ok(nil)) {
		return
	}

	// Any read result means the client went away.
	gone := make(chan struct{})
	go func() {
		_, _ = reader.ReadByte()
		close(gone)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(Event{Type: EventWindowsUpdated, Windows: ev.Windows, At: ev.At})
			if err != nil {
				s.logger.Warn("failed to marshal event", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := conn.Write(append(data, '\n')); err != nil {
				s.logger.Debug("subscriber write failed", zap.Error(err))
				return
			}
		}
	}
}

// send writes one response line.
func (s *Server) send(conn net.Conn, resp *Response) bool {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		return false
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(append(data, '\n')); err != nil {
		s.logger.Debug("failed to send response", zap.Error(err))
		return false
	}
	return true
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(CodeInternal, err.Error())
	}
	return resp
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}
