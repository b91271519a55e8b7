package fares

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/delivery-fares/pkg/common"
)

// FareService is the part of Service the HTTP layer depends on
type FareService interface {
	GetFareConfiguration(ctx context.Context) (*FareConfiguration, error)
	UpdateFareConfiguration(ctx context.Context, input FareConfigurationInput) (string, error)
	ListFareConfigurations(ctx context.Context, limit int) ([]*FareConfiguration, error)
	CalculateFare(ctx context.Context, params FareCalcParams) (*FareCalculation, error)
	ResolveSurge(ctx context.Context, area string) (*SurgeResolution, error)
	CreateSurgePricing(ctx context.Context, input SurgeRuleInput) (string, error)
	GetSurgePricingRules(ctx context.Context) ([]*SurgePricingRule, error)
	UpdateSurgePricing(ctx context.Context, id string, update SurgeRuleUpdate) (*SurgePricingRule, error)
	DeleteSurgePricing(ctx context.Context, id string) error
}

// Handler handles HTTP requests for fares
type Handler struct {
	service FareService
}

// NewHandler creates a new fares handler
func NewHandler(service FareService) *Handler {
	return &Handler{service: service}
}

// GetConfiguration returns the active fare configuration
func (h *Handler) GetConfiguration(c *gin.Context) {
	cfg, err := h.service.GetFareConfiguration(c.Request.Context())
	if handleError(c, err, "error loading configuration") {
		return
	}

	common.SuccessResponse(c, cfg)
}

// UpdateConfiguration saves a new active fare configuration
func (h *Handler) UpdateConfiguration(c *gin.Context) {
	var input FareConfigurationInput
	if !common.BindJSON(c, &input) {
		return
	}

	id, err := h.service.UpdateFareConfiguration(c.Request.Context(), input)
	if handleError(c, err, "error saving configuration") {
		return
	}

	common.CreatedResponse(c, gin.H{"id": id})
}

// ListConfigurations returns previous fare configurations, newest first
func (h *Handler) ListConfigurations(c *gin.Context) {
	limit := DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			common.AppErrorResponse(c, common.NewValidationError("invalid request",
				map[string]string{"limit": "must be a positive integer"}))
			return
		}
		limit = n
	}

	configs, err := h.service.ListFareConfigurations(c.Request.Context(), limit)
	if handleError(c, err, "error loading configuration") {
		return
	}

	common.SuccessResponseWithMeta(c, configs, &common.Meta{
		Limit: min(limit, MaxHistoryLimit),
		Total: int64(len(configs)),
	})
}

// Calculate prices a trip
func (h *Handler) Calculate(c *gin.Context) {
	var params FareCalcParams
	if !common.BindJSON(c, &params) {
		return
	}
	params.Area = strings.TrimSpace(params.Area)

	calc, err := h.service.CalculateFare(c.Request.Context(), params)
	if handleError(c, err, "error calculating fare") {
		return
	}

	common.SuccessResponse(c, calc)
}

// ListSurgeRules returns every surge pricing rule
func (h *Handler) ListSurgeRules(c *gin.Context) {
	rules, err := h.service.GetSurgePricingRules(c.Request.Context())
	if handleError(c, err, "error loading surge pricing") {
		return
	}

	common.SuccessResponse(c, rules)
}

// ResolveSurge previews the rule that applies to an area right now
func (h *Handler) ResolveSurge(c *gin.Context) {
	area := strings.TrimSpace(c.Query("area"))

	res, err := h.service.ResolveSurge(c.Request.Context(), area)
	if handleError(c, err, "error loading surge pricing") {
		return
	}

	common.SuccessResponse(c, res)
}

// CreateSurgeRule adds a surge pricing rule
func (h *Handler) CreateSurgeRule(c *gin.Context) {
	var input SurgeRuleInput
	if !common.BindJSON(c, &input) {
		return
	}

	id, err := h.service.CreateSurgePricing(c.Request.Context(), input)
	if handleError(c, err, "error saving surge pricing") {
		return
	}

	common.CreatedResponse(c, gin.H{"id": id})
}

// UpdateSurgeRule applies a partial update to a surge pricing rule
func (h *Handler) UpdateSurgeRule(c *gin.Context) {
	var update SurgeRuleUpdate
	if !common.BindJSON(c, &update) {
		return
	}
	if update.IsEmpty() {
		common.ErrorResponse(c, http.StatusBadRequest, "no fields to update")
		return
	}

	rule, err := h.service.UpdateSurgePricing(c.Request.Context(), c.Param("id"), update)
	if handleError(c, err, "error saving surge pricing") {
		return
	}

	common.SuccessResponse(c, rule)
}

// DeleteSurgeRule removes a surge pricing rule
func (h *Handler) DeleteSurgeRule(c *gin.Context) {
	if handleError(c, h.service.DeleteSurgePricing(c.Request.Context(), c.Param("id")), "error saving surge pricing") {
		return
	}

	common.SuccessResponse(c, gin.H{"deleted": true})
}

// RegisterRoutes registers fare routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	fares := rg.Group("/fares")
	{
		fares.GET("/configuration", h.GetConfiguration)
		fares.PUT("/configuration", h.UpdateConfiguration)
		fares.GET("/configuration/history", h.ListConfigurations)
		fares.POST("/calculate", h.Calculate)

		fares.GET("/surge-rules", h.ListSurgeRules)
		fares.POST("/surge-rules", h.CreateSurgeRule)
		fares.GET("/surge-rules/resolve", h.ResolveSurge)
		fares.PATCH("/surge-rules/:id", h.UpdateSurgeRule)
		fares.DELETE("/surge-rules/:id", h.DeleteSurgeRule)
	}
}

// handleError maps fare errors onto the response envelope.
// Returns true if an error was written.
func handleError(c *gin.Context, err error, saveMessage string) bool {
	if err == nil {
		return false
	}

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		common.AppErrorResponse(c, common.NewValidationError("invalid request", ve.Errors))
	case errors.Is(err, ErrSurgeRuleNotFound):
		common.AppErrorResponse(c, common.NewNotFoundError("surge pricing rule not found", err))
	case errors.Is(err, ErrConfigurationUnavailable):
		common.AppErrorResponse(c, common.NewUnavailableError("error loading configuration", err))
	case errors.Is(err, ErrStoreWrite):
		common.AppErrorResponse(c, common.NewInternalError(saveMessage, err))
	default:
		return common.HandleServiceError(c, err, saveMessage)
	}
	return true
}
