package request

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	requestIDLocalKey  = "request_id"
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// BaseService resolves the request id shared by logs, answer logs and the
// X-Request-ID response header.
type BaseService struct{}

func NewBaseService() *BaseService {
	return &BaseService{}
}

func (s *BaseService) sanitizeRequestID(reqID string) string {
	sanitized := strings.TrimSpace(reqID)
	if len(sanitized) > maxRequestIDLength {
		sanitized = sanitized[:maxRequestIDLength]
	}
	return sanitized
}

// GetRequestID returns the id cached in locals, the caller's X-Request-ID,
// or a fresh one, and echoes it in the response header.
func (s *BaseService) GetRequestID(c *fiber.Ctx) string {
	if cached, ok := c.Locals(requestIDLocalKey).(string); ok && cached != "" {
		return cached
	}

	requestID := s.sanitizeRequestID(c.Get(requestIDHeader))
	if requestID == "" {
		requestID = s.GenerateRequestID()
	}
	c.Locals(requestIDLocalKey, requestID)
	c.Set(requestIDHeader, requestID)
	return requestID
}

func (s *BaseService) GenerateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Middleware assigns the request id before any handler runs.
func (s *BaseService) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.GetRequestID(c)
		return c.Next()
	}
}
