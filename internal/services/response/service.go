package response

import (
	"github.com/Egham-7/pitchside/internal/models"

	"github.com/gofiber/fiber/v2"
)

// BaseService writes JSON success and error bodies.
type BaseService struct{}

func NewBaseService() *BaseService {
	return &BaseService{}
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitzero"`
}

func (s *BaseService) Error(c *fiber.Ctx, status int, message, errorType, code string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Code:    code,
		},
	})
}

// AppError writes err using its AppError status and type. Causes are never
// sent to the client.
func (s *BaseService) AppError(c *fiber.Ctx, err error) error {
	appErr := models.SanitizeError(err)
	return c.Status(appErr.GetStatusCode()).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message:   appErr.Message,
			Type:      string(appErr.Type),
			Code:      appErr.Code,
			Retryable: appErr.Retryable,
		},
	})
}

func (s *BaseService) Success(c *fiber.Ctx, data any) error {
	return c.JSON(data)
}
