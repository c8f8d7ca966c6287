package api

import (
	"context"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/request"
	"github.com/Egham-7/pitchside/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Answerer is the answer pipeline.
type Answerer interface {
	Answer(ctx context.Context, req models.AnswerRequest, requestID string) (*models.AnswerResponse, error)
}

// AnswerHandler serves POST /v1/answer.
type AnswerHandler struct {
	pipeline Answerer
	reqSvc   *request.BaseService
	respSvc  *response.BaseService
}

func NewAnswerHandler(pipeline Answerer) *AnswerHandler {
	return &AnswerHandler{
		pipeline: pipeline,
		reqSvc:   request.NewBaseService(),
		respSvc:  response.NewBaseService(),
	}
}

func (h *AnswerHandler) Answer(c *fiber.Ctx) error {
	requestID := h.reqSvc.GetRequestID(c)

	var req models.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		fiberlog.Warnf("[%s] Invalid answer request body: %v", requestID, err)
		return h.respSvc.AppError(c, models.NewValidationError("invalid request body", err))
	}

	resp, err := h.pipeline.Answer(c.UserContext(), req, requestID)
	if err != nil {
		return h.respSvc.AppError(c, err)
	}
	return h.respSvc.Success(c, resp)
}
