package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"campaign-dashboard/copygen"
	"campaign-dashboard/middleware"
	"campaign-dashboard/models"
	"campaign-dashboard/services"
)

// DashboardHandler handles HTTP requests for the campaign dashboard.
type DashboardHandler struct {
	datasetService *services.DatasetService
	crmService     *services.CRMService
	batService     *services.BatService
	copyGenerator  *copygen.Generator
	hub            *services.WebSocketHub
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	datasetService *services.DatasetService,
	crmService *services.CRMService,
	batService *services.BatService,
	copyGenerator *copygen.Generator,
	hub *services.WebSocketHub,
) *DashboardHandler {
	return &DashboardHandler{
		datasetService: datasetService,
		crmService:     crmService,
		batService:     batService,
		copyGenerator:  copyGenerator,
		hub:            hub,
	}
}

// HealthHandler handles health check requests
func (h *DashboardHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:      "healthy",
		Message:     "Campaign dashboard service is running",
		Service:     "campaign-dashboard",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DatasetRows: h.datasetService.RowCount(),
	})
}

// CampaignsHandler answers filter queries over the in-memory dataset.
// Each dimension accepts repeated query parameters, e.g.
// ?partner=Acme&partner=Globex&month=2026-03; values for the same dimension
// are ORed, dimensions are ANDed.
func (h *DashboardHandler) CampaignsHandler(c *gin.Context) {
	q := services.FilterQuery{
		Partners:       c.QueryArray("partner"),
		Themes:         c.QueryArray("theme"),
		Databases:      c.QueryArray("database"),
		Types:          c.QueryArray("type"),
		Geos:           c.QueryArray("geo"),
		DatabaseTypes:  c.QueryArray("database_type"),
		InvoiceOffices: c.QueryArray("invoice_office"),
		Months:         c.QueryArray("month"),
	}

	campaigns := h.datasetService.FilterCampaigns(q)

	c.JSON(http.StatusOK, models.CampaignsResponse{
		Campaigns: campaigns,
		Count:     len(campaigns),
		Total:     h.datasetService.RowCount(),
	})
}

// DimensionsHandler lists the filterable values per dimension with counts.
func (h *DashboardHandler) DimensionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.DimensionsResponse{
		Dimensions: h.datasetService.DimensionValues(),
	})
}

// ReloadHandler rebuilds the dataset snapshot from the database.
func (h *DashboardHandler) ReloadHandler(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	log.Infof("Dataset reload requested by user %s", userID)

	if err := h.datasetService.Reload(c.Request.Context()); err != nil {
		log.Errorf("Dataset reload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	rows := h.datasetService.RowCount()
	if h.hub != nil {
		h.hub.BroadcastDatasetReloaded(rows)
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "rows": rows})
}

// EmailCopyHandler generates bounded email copy from a free-text brief.
func (h *DashboardHandler) EmailCopyHandler(c *gin.Context) {
	var brief copygen.Brief
	if err := c.ShouldBindJSON(&brief); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brief is required"})
		return
	}

	result, err := h.copyGenerator.Generate(c.Request.Context(), brief)
	if err != nil {
		log.Errorf("Copy generation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Copy generation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func campaignID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return 0, false
	}
	return id, true
}

// SendBatHandler triggers a BAT test send for a draft campaign.
func (h *DashboardHandler) SendBatHandler(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	var req models.BatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipients are required"})
		return
	}

	actor := middleware.GetUserIDFromContext(c)
	if err := h.batService.SendBat(c.Request.Context(), id, req.Recipients, actor); err != nil {
		log.Warnf("BAT send failed for campaign %d: %v", id, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.broadcastTransition(id, models.CampaignStatusBatSent, actor)
	c.JSON(http.StatusOK, gin.H{"status": models.CampaignStatusBatSent})
}

// ApproveHandler approves a campaign whose BAT was reviewed.
func (h *DashboardHandler) ApproveHandler(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	actor := middleware.GetUserIDFromContext(c)
	if err := h.batService.Approve(c.Request.Context(), id, actor); err != nil {
		log.Warnf("Approve failed for campaign %d: %v", id, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.broadcastTransition(id, models.CampaignStatusApproved, actor)
	c.JSON(http.StatusOK, gin.H{"status": models.CampaignStatusApproved})
}

// RejectHandler sends a campaign back to draft for rework.
func (h *DashboardHandler) RejectHandler(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	actor := middleware.GetUserIDFromContext(c)
	if err := h.batService.Reject(c.Request.Context(), id, actor); err != nil {
		log.Warnf("Reject failed for campaign %d: %v", id, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.broadcastTransition(id, models.CampaignStatusDraft, actor)
	c.JSON(http.StatusOK, gin.H{"status": models.CampaignStatusDraft})
}

// ScheduleHandler schedules an approved campaign for delivery.
func (h *DashboardHandler) ScheduleHandler(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "send_at is required"})
		return
	}

	sendAt, err := time.Parse(time.RFC3339, req.SendAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "send_at must be RFC 3339"})
		return
	}

	actor := middleware.GetUserIDFromContext(c)
	if err := h.batService.Schedule(c.Request.Context(), id, sendAt, req.Notify, actor); err != nil {
		log.Warnf("Schedule failed for campaign %d: %v", id, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.broadcastTransition(id, models.CampaignStatusScheduled, actor)
	c.JSON(http.StatusOK, gin.H{"status": models.CampaignStatusScheduled})
}

func (h *DashboardHandler) broadcastTransition(id int64, toStatus, actor string) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastCampaignEvent(models.CampaignEvent{
		CampaignID: id,
		ToStatus:   toStatus,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
	})
}

// queryLimit reads the optional limit parameter, clamped to sane bounds.
func queryLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > 1000 {
		return 1000
	}
	return n
}

// EffortsHandler lists manual-effort report lines.
func (h *DashboardHandler) EffortsHandler(c *gin.Context) {
	efforts, err := h.crmService.GetEfforts(c.Request.Context(), c.Query("month"), queryLimit(c, 200))
	if err != nil {
		log.Errorf("Error getting efforts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"efforts": efforts, "count": len(efforts)})
}

// WorklogsHandler lists recent worklogs.
func (h *DashboardHandler) WorklogsHandler(c *gin.Context) {
	logs, err := h.crmService.GetWorklogs(c.Request.Context(), c.Query("partner"), queryLimit(c, 100))
	if err != nil {
		log.Errorf("Error getting worklogs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"worklogs": logs, "count": len(logs)})
}

// TicketsHandler lists strategy tickets. With summary=true it returns the
// per-status aggregate instead.
func (h *DashboardHandler) TicketsHandler(c *gin.Context) {
	if strings.EqualFold(c.Query("summary"), "true") {
		summary, err := h.crmService.GetTicketSummary(c.Request.Context())
		if err != nil {
			log.Errorf("Error getting ticket summary: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
		return
	}

	tickets, err := h.crmService.GetTickets(c.Request.Context(), c.Query("status"), queryLimit(c, 100))
	if err != nil {
		log.Errorf("Error getting tickets: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

// NewsletterInsightsHandler lists per-newsletter engagement lines.
func (h *DashboardHandler) NewsletterInsightsHandler(c *gin.Context) {
	insights, err := h.crmService.GetNewsletterInsights(c.Request.Context(), c.Query("month"), queryLimit(c, 200))
	if err != nil {
		log.Errorf("Error getting newsletter insights: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights, "count": len(insights)})
}

// OverviewHandler returns the combined CRM view for one month.
func (h *DashboardHandler) OverviewHandler(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month parameter is required"})
		return
	}

	overview, err := h.crmService.GetMonthlyOverview(c.Request.Context(), month)
	if err != nil {
		log.Errorf("Error getting monthly overview: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, overview)
}
