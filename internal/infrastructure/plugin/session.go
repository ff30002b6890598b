package plugin

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const closeWriteTimeout = time.Second

// Session is one connected extension
type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ConnectedAt time.Time

	conn     net.Conn
	maxFrame int64
	logger   *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *PluginResponse

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(userID uuid.UUID, conn net.Conn, maxFrame int64, logger *zap.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:          id,
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		maxFrame:    maxFrame,
		logger:      logger.With(zap.String("session_id", id.String()), zap.String("user_id", userID.String())),
		pending:     make(map[string]chan *PluginResponse),
		done:        make(chan struct{}),
	}
}

// Done is closed when the session ends
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// lockedWriter serializes control-frame replies with our own writes
type lockedWriter struct{ s *Session }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.writeMu.Lock()
	defer w.s.writeMu.Unlock()
	return w.s.conn.Write(p)
}

func (s *Session) write(op ws.OpCode, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wsutil.WriteServerMessage(s.conn, op, payload)
}

func (s *Session) send(requestID string, req PluginRequest) error {
	data, err := json.Marshal(requestFrame{Type: FrameRequest, RequestID: requestID, PluginRequest: req})
	if err != nil {
		return err
	}
	return s.write(ws.OpText, data)
}

func (s *Session) register(requestID string) chan *PluginResponse {
	ch := make(chan *PluginResponse, 1)
	s.mu.Lock()
	s.pending[requestID] = ch
	s.mu.Unlock()
	return ch
}

func (s *Session) forget(requestID string) {
	s.mu.Lock()
	delete(s.pending, requestID)
	s.mu.Unlock()
}

func (s *Session) deliver(resp *PluginResponse) bool {
	s.mu.Lock()
	ch, ok := s.pending[resp.RequestID]
	delete(s.pending, resp.RequestID)
	s.mu.Unlock()
	if !ok {
		return false
	}
	ch <- resp
	return true
}

// readLoop consumes frames until the socket fails or closes
func (s *Session) readLoop() error {
	control := wsutil.ControlFrameHandler(lockedWriter{s}, ws.StateServerSide)
	rd := &wsutil.Reader{
		Source:         s.conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		MaxFrameSize:   s.maxFrame,
		OnIntermediate: control,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return err
		}
		if hdr.OpCode.IsControl() {
			if err := control(hdr, rd); err != nil {
				return err
			}
			continue
		}
		if hdr.OpCode&ws.OpText == 0 {
			if err := rd.Discard(); err != nil {
				return err
			}
			continue
		}
		data, err := io.ReadAll(rd)
		if err != nil {
			return err
		}
		s.handleFrame(data)
	}
}

func (s *Session) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Warn("Dropping malformed plugin frame", zap.Error(err))
		return
	}
	switch frame.Type {
	case FrameResponse:
		resp := frame.PluginResponse
		if !s.deliver(&resp) {
			s.logger.Debug("Late plugin response", zap.String("request_id", resp.RequestID))
		}
	case FrameHello:
		s.logger.Info("Plugin hello", zap.String("version", frame.Version))
	default:
		s.logger.Debug("Ignoring plugin frame", zap.String("type", frame.Type))
	}
}

// pingLoop keeps intermediaries from dropping an idle socket
func (s *Session) pingLoop(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.write(ws.OpPing, nil); err != nil {
				s.close(ws.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}

// close ends the session once; waiting callers get ErrPluginDisconnected
func (s *Session) close(code ws.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		if code != 0 {
			_ = s.conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
			_ = s.write(ws.OpClose, ws.NewCloseFrameBody(code, reason))
		}
		close(s.done)
		_ = s.conn.Close()
	})
}

func isNormalClose(err error) bool {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var closed wsutil.ClosedError
	return errors.As(err, &closed)
}
