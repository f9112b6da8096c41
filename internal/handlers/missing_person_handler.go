package handlers

import (
	"errors"

	"resqlink/internal/services"
	"resqlink/internal/utils"
	"resqlink/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MissingPersonHandler struct {
	missingService services.MissingPersonService
	logger         *logger.Logger
}

func NewMissingPersonHandler(missingService services.MissingPersonService, log *logger.Logger) *MissingPersonHandler {
	return &MissingPersonHandler{
		missingService: missingService,
		logger:         log,
	}
}

func (h *MissingPersonHandler) Report(c *gin.Context) {
	var req services.ReportMissingPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}
	req.ReportedBy = c.GetString("user_id")

	result, err := h.missingService.Report(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to report missing person")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "Missing person reported", result)
}

func (h *MissingPersonHandler) GetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid id")
		return
	}

	person, err := h.missingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Missing person retrieved", person)
}

func (h *MissingPersonHandler) UpdateStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid id")
		return
	}

	var req services.UpdateMissingPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	person, err := h.missingService.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Missing person updated", person)
}

type verifyMissingPersonRequest struct {
	Approve bool `json:"approve"`
}

func (h *MissingPersonHandler) Verify(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid id")
		return
	}

	var req verifyMissingPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	person, err := h.missingService.Verify(c.Request.Context(), id, c.GetString("user_id"), req.Approve)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Missing person report reviewed", person)
}

func (h *MissingPersonHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	people, total, err := h.missingService.List(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list missing persons")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Missing persons retrieved", people, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
	})
}

func (h *MissingPersonHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingPersonNotFound):
		utils.NotFoundResponse(c, "Missing person report")
	default:
		h.logger.WithError(err).Error("Missing person operation failed")
		utils.InternalServerErrorResponse(c)
	}
}
