package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/repository"
	"github.com/rongwang/finance-cockpit/internal/service"
	"github.com/rongwang/finance-cockpit/internal/upstream"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

// Handler serves the cockpit API
type Handler struct {
	svc    service.Service
	repo   repository.Repository
	secret []byte
	logger logrus.FieldLogger
}

// NewHandler creates a new Handler. repo holds per-client session state.
func NewHandler(svc service.Service, repo repository.Repository, cookieSecret string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		svc:    svc,
		repo:   repo,
		secret: []byte(cookieSecret),
		logger: logger,
	}
}

// SetupRoutes registers every route on router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET(LoginPath, h.LoginPage)

	api := router.Group("/api")
	api.Use(ClientMiddleware(h.secret, h.logger), SessionMiddleware(h.repo, h.logger))

	auth := api.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/session", h.Session)

	protected := api.Group("")
	protected.Use(RequireSession())
	protected.GET("/entities", h.Entities)
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/bookings", h.Bookings)
	protected.GET("/bookings/:id", h.BookingDetail)
	protected.GET("/alerts", h.Alerts)
	protected.POST("/alerts/:id/ack", h.AcknowledgeAlert)
	protected.GET("/recommendations", h.Recommendations)
	protected.POST("/recommendations/:id/approve", h.ApproveRecommendation)
	protected.POST("/recommendations/:id/reject", h.RejectRecommendation)
	protected.GET("/reports", h.Reports)
}

const loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Finance Cockpit - Sign in</title></head>
<body>
<h1>Finance Cockpit</h1>
<p>Sign in by sending <code>POST /api/auth/login</code> with <code>{"email": "you@example.com"}</code>.</p>
</body>
</html>
`

// LoginPage is where the session gate redirects browsers
func (h *Handler) LoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPageHTML))
}

// Login starts a session for the email in the request
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: a valid email is required")
		return
	}

	store := sessionFrom(c)
	if err := store.Login(c.Request.Context(), req.Email); err != nil {
		utils.LogError(h.logger, "api", "Login", "save session", nil, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "STORAGE_ERROR",
			Message: "Failed to save session",
		})
		return
	}

	h.logger.WithField("clientId", c.GetString(contextKeyClientID)).Info("session started")
	c.JSON(http.StatusOK, models.SessionResponse{
		Status:        "success",
		Authenticated: true,
		Email:         req.Email,
	})
}

// Logout ends the current session
func (h *Handler) Logout(c *gin.Context) {
	store := sessionFrom(c)
	if err := store.Logout(c.Request.Context()); err != nil {
		utils.LogError(h.logger, "api", "Logout", "clear session", nil, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "STORAGE_ERROR",
			Message: "Failed to clear session",
		})
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{Status: "success"})
}

// Session reports the current session
func (h *Handler) Session(c *gin.Context) {
	snap := sessionFrom(c).Snapshot()
	c.JSON(http.StatusOK, models.SessionResponse{
		Status:        "success",
		Authenticated: snap.Authenticated,
		Email:         snap.Identifier,
	})
}

// Entities lists the ledger entities
func (h *Handler) Entities(c *gin.Context) {
	entities, err := h.svc.Entities(c.Request.Context())
	if err != nil {
		utils.LogError(h.logger, "api", "Entities", "load entities", nil, err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Status:  "error",
			Code:    upstreamCode(err),
			Message: upstream.Message(err, "Failed to load entities"),
		})
		return
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	c.JSON(http.StatusOK, entities)
}

// Dashboard renders the dashboard of ?entityId or the default entity
func (h *Handler) Dashboard(c *gin.Context) {
	view := h.svc.Dashboard(c.Request.Context(), c.Query("entityId"))
	renderPage(c, view, view.PageState)
}

// Bookings renders the filtered bookings list
func (h *Handler) Bookings(c *gin.Context) {
	filter := service.BookingFilter{Status: c.Query("status")}

	var err error
	if filter.FromDate, err = parseDate(c.Query("fromDate")); err != nil {
		badRequest(c, "Invalid fromDate, expected YYYY-MM-DD")
		return
	}
	if filter.ToDate, err = parseDate(c.Query("toDate")); err != nil {
		badRequest(c, "Invalid toDate, expected YYYY-MM-DD")
		return
	}
	if err := filter.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}

	view := h.svc.Bookings(c.Request.Context(), filter)
	renderPage(c, view, view.PageState)
}

// BookingDetail renders one booking
func (h *Handler) BookingDetail(c *gin.Context) {
	view := h.svc.BookingDetail(c.Request.Context(), c.Param("id"))
	renderPage(c, view, view.PageState)
}

// Alerts renders the alerts list; unacknowledged only unless ?unacknowledgedOnly=false
func (h *Handler) Alerts(c *gin.Context) {
	unackOnly, err := strconv.ParseBool(c.DefaultQuery("unacknowledgedOnly", "true"))
	if err != nil {
		badRequest(c, "Invalid unacknowledgedOnly, expected true or false")
		return
	}

	view := h.svc.Alerts(c.Request.Context(), unackOnly)
	renderPage(c, view, view.PageState)
}

// AcknowledgeAlert acknowledges one alert
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")
	notes := &service.Collector{}
	err := h.svc.AcknowledgeAlert(c.Request.Context(), id, notes)
	renderAction(c, id, err, notes)
}

// Recommendations renders the recommendations of ?status, PENDING by default
func (h *Handler) Recommendations(c *gin.Context) {
	status := models.RecommendationStatus(c.DefaultQuery("status", string(models.RecommendationPending)))
	if !status.Valid() {
		badRequest(c, "Invalid status, expected PENDING, APPLIED or REJECTED")
		return
	}

	view := h.svc.Recommendations(c.Request.Context(), status)
	renderPage(c, view, view.PageState)
}

// ApproveRecommendation applies one recommendation
func (h *Handler) ApproveRecommendation(c *gin.Context) {
	id := c.Param("id")
	notes := &service.Collector{}
	err := h.svc.ApproveRecommendation(c.Request.Context(), id, notes)
	renderAction(c, id, err, notes)
}

// RejectRecommendation rejects one recommendation with an optional reason
func (h *Handler) RejectRecommendation(c *gin.Context) {
	var req models.RejectRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body")
		return
	}

	id := c.Param("id")
	notes := &service.Collector{}
	err := h.svc.RejectRecommendation(c.Request.Context(), id, req.Reason, notes)
	renderAction(c, id, err, notes)
}

// Reports renders the P&L and balance sheet for ?period, 30days by default
func (h *Handler) Reports(c *gin.Context) {
	period := service.Period(c.DefaultQuery("period", string(service.PeriodMonth)))
	if !period.Valid() {
		badRequest(c, "Invalid period, expected 7days, 30days, quarter or year")
		return
	}

	view := h.svc.Reports(c.Request.Context(), period)
	renderPage(c, view, view.PageState)
}

// renderPage writes a page view; a page-level error is a bad gateway with the same body
func renderPage(c *gin.Context, view any, state service.PageState) {
	status := http.StatusOK
	if state.Error != "" {
		status = http.StatusBadGateway
	}
	c.JSON(status, view)
}

func renderAction(c *gin.Context, id string, err error, notes *service.Collector) {
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ActionResponse{
			Status:        "error",
			ID:            id,
			Notifications: notes.Drain(),
		})
		return
	}
	c.JSON(http.StatusOK, models.ActionResponse{
		Status:        "success",
		ID:            id,
		Notifications: notes.Drain(),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: message,
	})
}

func upstreamCode(err error) string {
	switch upstream.Kind(err) {
	case upstream.KindAPI:
		return "UPSTREAM_API_ERROR"
	case upstream.KindNetwork:
		return "UPSTREAM_UNREACHABLE"
	case upstream.KindDecode:
		return "UPSTREAM_INVALID_RESPONSE"
	}
	return "UPSTREAM_ERROR"
}

// parseDate reads an optional YYYY-MM-DD query value
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(ledger.DateFormat, s)
}
