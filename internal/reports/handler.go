package reports

import (
	"net/http"
	"strconv"

	"civicpulse_backend/platform/httpkit"
	"civicpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes report endpoints.
type Handler struct {
	service *Service
	val     *validator.Validator
}

func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

type createReportRequest struct {
	Description  string   `json:"description" validate:"required,min=3,max=2000"`
	PhotoURL     string   `json:"photoUrl" validate:"omitempty,url"`
	Latitude     *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	PhotoHint    string   `json:"photoHint" validate:"omitempty,max=200"`
	ReporterName string   `json:"reporterName" validate:"omitempty,max=120"`
}

// HandleCreate processes POST /reports (authenticated).
func (h *Handler) HandleCreate(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	input := CreateInput{
		ReporterIdentity: req.ReporterName,
		Description:      req.Description,
		PhotoURL:         req.PhotoURL,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		PhotoHint:        req.PhotoHint,
		Channel:          "web",
	}
	if userID, ok := httpkit.UserID(c); ok {
		input.ReporterUserID = &userID
	}

	report, err := h.service.Create(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, report)
}

// HandleList processes GET /reports (public).
func (h *Handler) HandleList(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	results, err := h.service.List(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"reports": results})
}

// HandleGet processes GET /reports/:id (public).
func (h *Handler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	report, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

// HandleUpdateStatus processes PATCH /admin/reports/:id/status.
func (h *Handler) HandleUpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	report, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

// HandleLeaderboard processes GET /leaderboard (public).
func (h *Handler) HandleLeaderboard(c *gin.Context) {
	result, err := h.service.Leaderboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
