package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/blockspy/blockspy/internal/console"
	"github.com/blockspy/blockspy/internal/monitoring"
	"github.com/blockspy/blockspy/internal/service"
	"github.com/blockspy/blockspy/pkg/config"
	"github.com/blockspy/blockspy/pkg/logger"
)

// createUpgrader creates a WebSocket upgrader with appropriate CORS settings
func createUpgrader(allowAllOrigins bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAllOrigins {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == r.Host
		},
	}
}

// ConsoleHandler serves the live console websocket
type ConsoleHandler struct {
	monitor  *service.MonitorService
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewConsoleHandler(monitor *service.MonitorService, cfg *config.Config) *ConsoleHandler {
	return &ConsoleHandler{
		monitor:  monitor,
		cfg:      cfg,
		upgrader: createUpgrader(true),
	}
}

// HandleConsole upgrades the connection and runs one console session: log
// lines stream out as they are written and commands stream in, each answered
// in order
func (h *ConsoleHandler) HandleConsole(c *gin.Context) {
	address := c.Param("address")

	server, err := h.monitor.GetServer(address)
	if err != nil {
		if errors.Is(err, service.ErrServerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	wsc, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"remote_addr": c.Request.RemoteAddr,
		})
		return
	}
	defer wsc.Close()

	runner, err := h.monitor.ConsoleRunner(address)
	if err != nil {
		// Command execution is unavailable; the session can still tail the
		// log, so commands just answer with the configuration error
		reason := err.Error()
		runner = console.RunnerFunc(func(ctx context.Context, command string) (string, error) {
			return "", errors.New(reason)
		})
	}

	session := console.NewSession(console.SessionConfig{
		Address:     address,
		LogPath:     h.monitor.LogPath(server),
		TailBacklog: h.cfg.TailBacklog,
	}, &wsConn{conn: wsc}, runner)

	monitoring.ConsoleSessions.Inc()
	defer monitoring.ConsoleSessions.Dec()

	logger.Info("Console session opened", map[string]interface{}{
		"address":     address,
		"remote_addr": c.Request.RemoteAddr,
	})

	if err := session.Run(c.Request.Context()); err != nil && !isExpectedClose(err) {
		logger.Warn("Console session ended with error", map[string]interface{}{
			"address": address,
			"error":   err.Error(),
		})
	}

	logger.Info("Console session closed", map[string]interface{}{
		"address": address,
	})
}

// wsConn adapts a websocket connection to the session transport
type wsConn struct {
	conn *websocket.Conn
}

// ReadCommand blocks until the client sends the next non-empty text message
func (w *wsConn) ReadCommand() (string, error) {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		command := strings.TrimSpace(string(data))
		if command == "" {
			continue
		}
		return command, nil
	}
}

func (w *wsConn) WriteFrame(frame console.Frame) error {
	return w.conn.WriteJSON(frame)
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
