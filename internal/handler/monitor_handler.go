package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vantora/vantora-backend/internal/repository"
	"github.com/vantora/vantora-backend/internal/response"
	"github.com/vantora/vantora-backend/internal/service"
	ws "github.com/vantora/vantora-backend/internal/websocket"
)

// monitorPushInterval is how often the live-monitor stream pushes a fresh
// snapshot without being asked.
const monitorPushInterval = 5 * time.Second

// MonitorHandler handles the admin monitoring and dashboard endpoints.
type MonitorHandler struct {
	monitorService   *service.MonitorService
	violationService *service.ViolationService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	monitorService *service.MonitorService,
	violationService *service.ViolationService,
	allowedOrigins []string,
) *MonitorHandler {
	return &MonitorHandler{
		monitorService:   monitorService,
		violationService: violationService,
		log:              log.With().Str("component", "monitor_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// buildUpgrader creates a WebSocket upgrader with origin validation. An
// empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// Monitoring godoc
// GET /api/v1/admin/monitoring
// Returns the live monitoring snapshot: in-progress sessions with
// violation counts, plus sessions the sweeper force-closed.
func (h *MonitorHandler) Monitoring(c *gin.Context) {
	snapshot, err := h.monitorService.Snapshot(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// Summary godoc
// GET /api/v1/admin/summary
func (h *MonitorHandler) Summary(c *gin.Context) {
	counts, err := h.monitorService.Summary(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, counts)
}

// Dashboard godoc
// GET /api/v1/admin/dashboard?test_type=&status=&violations_only=
// Returns candidate/set rows with aggregated attempt status.
func (h *MonitorHandler) Dashboard(c *gin.Context) {
	filters := service.DashboardFilters{
		TestType:       c.Query("test_type"),
		Status:         c.Query("status"),
		ViolationsOnly: c.Query("violations_only") == "true",
	}

	rows, err := h.monitorService.Dashboard(c.Request.Context(), filters)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rows": rows})
}

// SessionAnswers godoc
// GET /api/v1/admin/sessions/:session_id/answers
// Returns a session's answers with question definitions for review.
func (h *MonitorHandler) SessionAnswers(c *gin.Context) {
	sessionID, ok := pathID(c, "session_id")
	if !ok {
		return
	}

	reviews, err := h.monitorService.SessionAnswers(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answers": reviews})
}

// SessionViolations godoc
// GET /api/v1/admin/sessions/:session_id/violations
func (h *MonitorHandler) SessionViolations(c *gin.Context) {
	sessionID, ok := pathID(c, "session_id")
	if !ok {
		return
	}

	violations, err := h.violationService.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": violations})
}

// ListViolations godoc
// GET /api/v1/admin/violations?candidate_id=&question_set_id=
func (h *MonitorHandler) ListViolations(c *gin.Context) {
	var filter repository.ViolationFilter
	if raw := c.Query("candidate_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.CandidateID = id
	}
	if raw := c.Query("question_set_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.QuestionSetID = id
	}

	details, err := h.violationService.ListFiltered(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": details})
}

// MonitorStream godoc
// WS /ws/v1/admin/monitor?token=...
// Upgrades to WebSocket and pushes monitoring snapshots periodically.
// Clients may send {"action":"refresh"} for an immediate push.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Info().Msg("Admin connected to monitor stream")

	requests := make(chan ws.Action)
	done := make(chan struct{})
	// Closed when the main loop exits so a reader blocked on a queued
	// action does not outlive the connection.
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(done)
		for {
			var msg ws.RequestPayload
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case requests <- msg.Action:
			case <-stop:
				return
			}
		}
	}()

	push := func() bool {
		snapshot, err := h.monitorService.Snapshot(c.Request.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Snapshot failed")
			ws.WriteError(conn, "snapshot failed")
			return true
		}
		return ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Data: snapshot}) == nil
	}

	if !push() {
		return
	}

	ticker := time.NewTicker(monitorPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.log.Info().Msg("Admin disconnected from monitor stream")
			return
		case <-ticker.C:
			if !push() {
				return
			}
		case action := <-requests:
			switch action {
			case ws.ActionPing:
				if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
					return
				}
			case ws.ActionRefresh:
				if !push() {
					return
				}
			default:
				ws.WriteError(conn, "unknown action: "+string(action))
			}
		}
	}
}
