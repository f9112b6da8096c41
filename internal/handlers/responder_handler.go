package handlers

import (
	"errors"
	"strconv"

	"resqlink/internal/models"
	"resqlink/internal/services"
	"resqlink/internal/utils"
	"resqlink/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponderHandler struct {
	responderService services.ResponderService
	logger           *logger.Logger
}

func NewResponderHandler(responderService services.ResponderService, log *logger.Logger) *ResponderHandler {
	return &ResponderHandler{
		responderService: responderService,
		logger:           log,
	}
}

func (h *ResponderHandler) Register(c *gin.Context) {
	var req services.RegisterResponderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}
	req.UserID = c.GetString("user_id")

	responder, err := h.responderService.Register(c.Request.Context(), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Responder registered, pending verification", responder)
}

func (h *ResponderHandler) GetProfile(c *gin.Context) {
	responder, err := h.responderService.GetProfile(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Responder profile retrieved", responder)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func (h *ResponderHandler) SetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	responder, err := h.responderService.SetAvailability(c.Request.Context(), c.GetString("user_id"), *req.Available)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Availability updated", responder)
}

func (h *ResponderHandler) AddCertification(c *gin.Context) {
	var req services.CertificationDeclaration
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	responder, err := h.responderService.AddCertification(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Certification added, pending verification", responder)
}

// VerifyCertification is the admin review of a single declared
// certification, addressed by its position in the responder's list.
func (h *ResponderHandler) VerifyCertification(c *gin.Context) {
	responderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid responder id")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid certification index")
		return
	}

	var req services.VerifyCertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	responder, err := h.responderService.VerifyCertification(c.Request.Context(), responderID, index, c.GetString("user_id"), req.Approve)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Certification reviewed", responder)
}

type verificationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ResponderHandler) SetVerificationStatus(c *gin.Context) {
	responderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid responder id")
		return
	}

	var req verificationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request payload: "+err.Error())
		return
	}

	responder, err := h.responderService.SetVerificationStatus(c.Request.Context(), responderID, models.VerificationStatus(req.Status))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Verification status updated", responder)
}

func (h *ResponderHandler) ListResponders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	responders, total, err := h.responderService.List(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list responders")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Responders retrieved", responders, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
	})
}

func (h *ResponderHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrResponderNotFound):
		utils.NotFoundResponse(c, "Responder profile")
	case errors.Is(err, services.ErrResponderExists):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrResponderNotVerified):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrCertificationInvalid),
		errors.Is(err, services.ErrInvalidPhoneNumber):
		utils.BadRequestResponse(c, err.Error())
	default:
		h.logger.WithError(err).Error("Responder operation failed")
		utils.InternalServerErrorResponse(c)
	}
}
