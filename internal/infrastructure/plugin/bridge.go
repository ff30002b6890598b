package plugin

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/ratelimit"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
)

// BridgeConfig holds the bridge settings
type BridgeConfig struct {
	CallTimeout   time.Duration
	PingInterval  time.Duration
	MaxFrameBytes int64
	RatePerSecond float64
	RateBurst     int
}

// BridgeConfigFrom maps the Vinted config section
func BridgeConfigFrom(cfg config.VintedConfig) BridgeConfig {
	return BridgeConfig{
		CallTimeout:   cfg.CallTimeout,
		PingInterval:  cfg.PingInterval,
		MaxFrameBytes: cfg.MaxFrameBytes,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
	}
}

// SessionInfo describes a connected session
type SessionInfo struct {
	SessionID   uuid.UUID `json:"session_id"`
	UserID      uuid.UUID `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Bridge routes calls to the extension session of each user.
// At most one session per user is kept; a newer one replaces the older.
type Bridge struct {
	config  BridgeConfig
	limiter *ratelimit.UserLimiter
	metrics *telemetry.Metrics
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewBridge creates a bridge; metrics may be nil
func NewBridge(cfg BridgeConfig, metrics *telemetry.Metrics, logger *zap.Logger) *Bridge {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = 8 << 20
	}
	return &Bridge{
		config:   cfg,
		limiter:  ratelimit.NewUserLimiter(cfg.RatePerSecond, cfg.RateBurst),
		metrics:  metrics,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Attach registers an upgraded connection as userID's session and starts
// serving it. Any previous session of the user is closed.
func (b *Bridge) Attach(userID uuid.UUID, conn net.Conn) *Session {
	s := newSession(userID, conn, b.config.MaxFrameBytes, b.logger)

	b.mu.Lock()
	old := b.sessions[userID]
	b.sessions[userID] = s
	count := len(b.sessions)
	b.mu.Unlock()

	if old != nil {
		old.logger.Info("Plugin session replaced by a newer connection")
		old.close(ws.StatusPolicyViolation, "replaced by a newer session")
	}
	b.metrics.PluginSessions(count)
	s.logger.Info("Plugin session attached")

	go b.serve(s)
	go s.pingLoop(b.config.PingInterval)
	return s
}

func (b *Bridge) serve(s *Session) {
	err := s.readLoop()
	if !isNormalClose(err) {
		s.logger.Warn("Plugin session read failed", zap.Error(err))
	}
	s.close(0, "")

	b.mu.Lock()
	if b.sessions[s.UserID] == s {
		delete(b.sessions, s.UserID)
	}
	count := len(b.sessions)
	b.mu.Unlock()

	b.metrics.PluginSessions(count)
	s.logger.Info("Plugin session detached")
}

// Detach closes userID's session, if any
func (b *Bridge) Detach(userID uuid.UUID) {
	b.mu.RLock()
	s := b.sessions[userID]
	b.mu.RUnlock()
	if s != nil {
		s.close(ws.StatusNormalClosure, "")
	}
}

// IsConnected reports whether userID has a live session
func (b *Bridge) IsConnected(userID uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.sessions[userID]
	return ok
}

// ConnectedUsers lists the sessions, oldest first
func (b *Bridge) ConnectedUsers() []SessionInfo {
	b.mu.RLock()
	out := make([]SessionInfo, 0, len(b.sessions))
	for _, s := range b.sessions {
		out = append(out, SessionInfo{SessionID: s.ID, UserID: s.UserID, ConnectedAt: s.ConnectedAt})
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out
}

// Call sends req to userID's extension and waits for the matching response
func (b *Bridge) Call(ctx context.Context, userID uuid.UUID, req PluginRequest) (resp *PluginResponse, err error) {
	op := req.Operation()
	started := time.Now()
	defer func() {
		b.metrics.MarketplaceCall(string(marketplace.Vinted), req.Kind, err, time.Since(started))
	}()

	b.mu.RLock()
	s := b.sessions[userID]
	b.mu.RUnlock()
	if s == nil {
		return nil, &PluginError{Op: op, Err: ErrPluginNotConnected}
	}

	if err := b.limiter.Wait(ctx, userID); err != nil {
		return nil, &PluginError{Op: op, Err: fmt.Errorf("%w: %w", ErrPluginTimeout, err)}
	}

	requestID := uuid.NewString()
	ch := s.register(requestID)
	defer s.forget(requestID)

	if err := s.send(requestID, req); err != nil {
		s.close(ws.StatusInternalServerError, "write failed")
		return nil, &PluginError{Op: op, Err: fmt.Errorf("%w: %w", ErrPluginDisconnected, err)}
	}

	timer := time.NewTimer(b.config.CallTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Status == 0 && resp.Error != "" {
			return nil, &PluginError{Op: op, Err: fmt.Errorf("%w: %s", ErrPluginFailed, resp.Error)}
		}
		return resp, nil
	case <-s.Done():
		return nil, &PluginError{Op: op, Err: ErrPluginDisconnected}
	case <-timer.C:
		return nil, &PluginError{Op: op, Err: ErrPluginTimeout}
	case <-ctx.Done():
		return nil, &PluginError{Op: op, Err: fmt.Errorf("%w: %w", ErrPluginTimeout, ctx.Err())}
	}
}

// Close ends every session
func (b *Bridge) Close() {
	b.mu.RLock()
	sessions := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.RUnlock()

	for _, s := range sessions {
		s.close(ws.StatusGoingAway, "server shutting down")
	}
}
