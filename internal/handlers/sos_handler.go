package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"resqlink/internal/services"
	"resqlink/internal/utils"
	"resqlink/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SOSHandler struct {
	sosService services.SOSService
	logger     *logger.Logger
}

func NewSOSHandler(sosService services.SOSService, log *logger.Logger) *SOSHandler {
	return &SOSHandler{
		sosService: sosService,
		logger:     log,
	}
}

// SubmitSignal handles the public intake endpoint. Works for authenticated
// users, phone-only reporters, and fully anonymous callers.
func (h *SOSHandler) SubmitSignal(c *gin.Context) {
	var req services.SubmitSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}
	req.UserID = c.GetString("user_id")

	signal, err := h.sosService.SubmitSignal(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to submit signal")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "SOS signal received", signal)
}

func (h *SOSHandler) GetNearbySignals(c *gin.Context) {
	query := &services.NearbyQuery{
		UserID:   c.GetString("user_id"),
		UserType: c.GetString("user_type"),
	}

	if raw := c.Query("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid lat parameter")
			return
		}
		query.Lat = &lat
	}
	if raw := c.Query("lng"); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid lng parameter")
			return
		}
		query.Lng = &lng
	}
	if raw := c.Query("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid radius_km parameter")
			return
		}
		query.RadiusKM = radius
	}

	signals, err := h.sosService.GetNearbySignals(c.Request.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list nearby signals")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby signals retrieved", signals, &utils.Meta{Count: len(signals)})
}

func (h *SOSHandler) GetSignalStatus(c *gin.Context) {
	signalID, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.sosService.GetSignalStatus(c.Request.Context(), signalID, c.GetString("user_id"), c.GetString("user_type"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Signal status retrieved", view)
}

func (h *SOSHandler) AcceptSignal(c *gin.Context) {
	signalID, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	response, err := h.sosService.AcceptSignal(c.Request.Context(), signalID, c.GetString("user_id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Signal accepted", response)
}

func (h *SOSHandler) UpdateResponseStatus(c *gin.Context) {
	responseID, ok := h.objectIDParam(c, "responseId")
	if !ok {
		return
	}

	var req services.UpdateResponseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	response, err := h.sosService.UpdateResponseStatus(c.Request.Context(), responseID, c.GetString("user_id"), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Response status updated", response)
}

func (h *SOSHandler) AddResponseChat(c *gin.Context) {
	responseID, ok := h.objectIDParam(c, "responseId")
	if !ok {
		return
	}

	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	err := h.sosService.AddResponseChat(c.Request.Context(), responseID, c.GetString("user_id"), c.GetString("user_type"), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Message sent", nil)
}

func (h *SOSHandler) AddSignalChat(c *gin.Context) {
	signalID, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	err := h.sosService.AddSignalChat(c.Request.Context(), signalID, c.GetString("user_id"), c.GetString("user_type"), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Message sent", nil)
}

func (h *SOSHandler) MarkSafe(c *gin.Context) {
	signalID, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkSafeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
			return
		}
	}

	signal, err := h.sosService.MarkSafe(c.Request.Context(), signalID, c.GetString("user_id"), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Marked safe", signal)
}

func (h *SOSHandler) CompleteResponse(c *gin.Context) {
	responseID, ok := h.objectIDParam(c, "responseId")
	if !ok {
		return
	}

	var req services.CompleteResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	response, err := h.sosService.CompleteResponse(c.Request.Context(), responseID, c.GetString("user_id"), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Response completed", response)
}

// ListSignals is the admin listing with aggregate stats in the meta.
func (h *SOSHandler) ListSignals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	signals, total, err := h.sosService.ListSignals(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list signals")
		utils.InternalServerErrorResponse(c)
		return
	}

	stats, err := h.sosService.GetSignalStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute signal stats")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Signals retrieved", gin.H{
		"signals": signals,
		"stats":   stats,
	}, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
	})
}

func (h *SOSHandler) objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *SOSHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSignalNotFound):
		utils.NotFoundResponse(c, "Signal")
	case errors.Is(err, services.ErrResponseNotFound):
		utils.NotFoundResponse(c, "Response")
	case errors.Is(err, services.ErrResponderNotFound):
		utils.NotFoundResponse(c, "Responder profile")
	case errors.Is(err, services.ErrSignalClosed):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrAlreadyAssigned):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrResponderNotVerified),
		errors.Is(err, services.ErrResponderUnavailable),
		errors.Is(err, services.ErrLevelNotAllowed),
		errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrNotAuthorized):
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		h.logger.WithError(err).Error("SOS operation failed")
		utils.InternalServerErrorResponse(c)
	}
}
