package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blockspy/blockspy/internal/console"
	"github.com/blockspy/blockspy/internal/middleware"
	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/internal/service"
)

// ServerHandler serves the monitored-server inventory and its read models
type ServerHandler struct {
	monitor *service.MonitorService
}

func NewServerHandler(monitor *service.MonitorService) *ServerHandler {
	return &ServerHandler{monitor: monitor}
}

// serverResponse is the public view of a monitored server. Console
// credentials never leave the API.
type serverResponse struct {
	Address        string     `json:"address"`
	Name           string     `json:"name"`
	CustomName     string     `json:"custom_name,omitempty"`
	DisplayName    string     `json:"display_name"`
	Status         string     `json:"status"`
	Version        string     `json:"version,omitempty"`
	PlayersOnline  int        `json:"players_online"`
	PlayersMax     int        `json:"players_max"`
	LatencyMs      float64    `json:"latency_ms"`
	Location       string     `json:"location,omitempty"`
	Classification string     `json:"classification"`
	Paused         bool       `json:"paused"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty"`
	HasConsole     bool       `json:"has_console"`
	HasLiveLog     bool       `json:"has_live_log"`
}

func toServerResponse(server *models.Server) serverResponse {
	return serverResponse{
		Address:        server.Address,
		Name:           server.Name,
		CustomName:     server.CustomName,
		DisplayName:    server.DisplayName(),
		Status:         string(server.Status),
		Version:        server.Version,
		PlayersOnline:  server.PlayersOnline,
		PlayersMax:     server.PlayersMax,
		LatencyMs:      server.LatencyMs,
		Location:       server.Location,
		Classification: string(server.Classification),
		Paused:         server.Paused,
		LastCheckedAt:  server.LastCheckedAt,
		HasConsole:     server.RCONPort != 0 && server.RCONPassword != "",
		HasLiveLog:     server.LogDir != "",
	}
}

type addServerRequest struct {
	Address    string `json:"address" binding:"required"`
	CustomName string `json:"custom_name"`
	Location   string `json:"location"`
}

// AddServer registers a new server for monitoring
func (h *ServerHandler) AddServer(c *gin.Context) {
	var req addServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleAppError(c, middleware.NewBadRequestError("Invalid request body: "+err.Error()))
		return
	}

	server, err := h.monitor.AddServer(req.Address, req.CustomName, req.Location)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAddress):
			middleware.HandleAppError(c, middleware.NewBadRequestError("Invalid server address"))
		case errors.Is(err, service.ErrServerExists):
			middleware.HandleAppError(c, middleware.NewConflictError("Server is already monitored"))
		default:
			middleware.HandleAppError(c, middleware.NewInternalError(err))
		}
		return
	}

	c.JSON(http.StatusCreated, toServerResponse(server))
}

// ListServers returns all monitored servers
func (h *ServerHandler) ListServers(c *gin.Context) {
	servers, err := h.monitor.ListServers()
	if err != nil {
		middleware.HandleAppError(c, middleware.NewInternalError(err))
		return
	}

	responses := make([]serverResponse, 0, len(servers))
	for i := range servers {
		responses = append(responses, toServerResponse(&servers[i]))
	}
	c.JSON(http.StatusOK, gin.H{"servers": responses, "count": len(responses)})
}

// GetServer returns one monitored server
func (h *ServerHandler) GetServer(c *gin.Context) {
	server, err := h.monitor.GetServer(c.Param("address"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toServerResponse(server))
}

type updateServerRequest struct {
	CustomName   *string `json:"custom_name"`
	Location     *string `json:"location"`
	LogDir       *string `json:"log_dir"`
	RCONPort     *int    `json:"rcon_port"`
	RCONPassword *string `json:"rcon_password"`
}

// UpdateServer applies an operator edit to a monitored server
func (h *ServerHandler) UpdateServer(c *gin.Context) {
	var req updateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleAppError(c, middleware.NewBadRequestError("Invalid request body: "+err.Error()))
		return
	}

	server, err := h.monitor.UpdateServerDetails(c.Param("address"), service.ServerUpdate{
		CustomName:   req.CustomName,
		Location:     req.Location,
		LogDir:       req.LogDir,
		RCONPort:     req.RCONPort,
		RCONPassword: req.RCONPassword,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toServerResponse(server))
}

// DeleteServer removes a server and all of its history
func (h *ServerHandler) DeleteServer(c *gin.Context) {
	if err := h.monitor.DeleteServer(c.Param("address")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// TogglePause flips manual pause for a server
func (h *ServerHandler) TogglePause(c *gin.Context) {
	paused, err := h.monitor.TogglePause(c.Param("address"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": paused})
}

// History returns the sample series for charting
func (h *ServerHandler) History(c *gin.Context) {
	points, err := h.monitor.History(c.Param("address"), queryInt(c, "hours", 24))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": points})
}

// Stats returns window statistics for one server
func (h *ServerHandler) Stats(c *gin.Context) {
	stats, err := h.monitor.Stats(c.Param("address"), queryInt(c, "hours", 24))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Events returns a server's newest events
func (h *ServerHandler) Events(c *gin.Context) {
	events, err := h.monitor.Events(c.Param("address"), queryInt(c, "limit", 50))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Players returns the presence view of one server
func (h *ServerHandler) Players(c *gin.Context) {
	players, err := h.monitor.Players(c.Param("address"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

// Heatmap returns weekday/hour activity buckets
func (h *ServerHandler) Heatmap(c *gin.Context) {
	cells, err := h.monitor.ActivityHeatmap(c.Param("address"), queryInt(c, "days", 30))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"heatmap": cells})
}

// CalendarHeatmap returns daily activity buckets
func (h *ServerHandler) CalendarHeatmap(c *gin.Context) {
	days, err := h.monitor.CalendarHeatmap(c.Param("address"), queryInt(c, "days", 365))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calendar": days})
}

type testConsoleRequest struct {
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TestConsole validates console credentials without saving them
func (h *ServerHandler) TestConsole(c *gin.Context) {
	var req testConsoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleAppError(c, middleware.NewBadRequestError("Invalid request body: "+err.Error()))
		return
	}

	if err := h.monitor.TestConsole(req.Host, req.Port, req.Password); err != nil {
		status := "connection_failed"
		if errors.Is(err, console.ErrAuth) {
			status = "auth_failed"
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "status": status, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ExecuteCommand runs one console command against a server
func (h *ServerHandler) ExecuteCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleAppError(c, middleware.NewBadRequestError("Invalid request body: "+err.Error()))
		return
	}

	response, err := h.monitor.ExecuteCommand(c.Request.Context(), c.Param("address"), req.Command)
	if err != nil {
		if errors.Is(err, service.ErrConsoleNotConfigured) {
			middleware.HandleAppError(c, middleware.NewBadRequestError("Console is not configured for this server"))
			return
		}
		if errors.Is(err, service.ErrServerNotFound) {
			middleware.HandleAppError(c, middleware.NewNotFoundError("Server"))
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

func (h *ServerHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrServerNotFound):
		middleware.HandleAppError(c, middleware.NewNotFoundError("Server"))
	case errors.Is(err, service.ErrInvalidAddress):
		middleware.HandleAppError(c, middleware.NewBadRequestError("Invalid server address"))
	default:
		middleware.HandleAppError(c, middleware.NewInternalError(err))
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
