package handler

import (
	"net"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
)

// PluginSessions is the WebSocket side of the plugin bridge
type PluginSessions interface {
	Attach(userID uuid.UUID, conn net.Conn) *plugin.Session
	IsConnected(userID uuid.UUID) bool
	ConnectedUsers() []plugin.SessionInfo
}

// PluginStatusResponse tells the dashboard whether the extension is online
type PluginStatusResponse struct {
	Connected bool                `json:"connected"`
	Session   *plugin.SessionInfo `json:"session,omitempty"`
}

// PluginHandler serves the browser extension endpoints
type PluginHandler struct {
	BaseHandler
	sessions PluginSessions
	tokens   PluginTokenIssuer
}

// NewPluginHandler creates a new PluginHandler
func NewPluginHandler(sessions PluginSessions, tokens PluginTokenIssuer) *PluginHandler {
	return &PluginHandler{sessions: sessions, tokens: tokens}
}

// Connect upgrades the request and hands the socket to the bridge.
// GET /plugin/ws?token=
//
// The token is checked by QueryTokenAuth before this runs. On a failed
// handshake the upgrader has already answered the client.
func (h *PluginHandler) Connect(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		logger.GetGinLogger(c).Warn("Plugin WebSocket upgrade failed", zap.Error(err))
		c.Abort()
		return
	}
	s := h.sessions.Attach(userID, conn)
	logger.GetGinLogger(c).Info("Plugin connected", zap.String("session_id", s.ID.String()))
}

// Status reports the caller's extension session. GET /plugin/status
func (h *PluginHandler) Status(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	resp := PluginStatusResponse{Connected: h.sessions.IsConnected(userID)}
	if resp.Connected {
		for _, info := range h.sessions.ConnectedUsers() {
			if info.UserID == userID {
				resp.Session = &info
				break
			}
		}
	}
	h.Success(c, resp)
}

// IssueToken mints a long-lived token for the extension. POST /plugin/token
func (h *PluginHandler) IssueToken(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	token, err := h.tokens.GeneratePluginToken(userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, token)
}
