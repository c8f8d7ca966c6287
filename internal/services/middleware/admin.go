package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

const adminSubjectLocalKey = "admin_subject"

// AdminAuth guards the /admin routes with HS256 bearer tokens. With no
// secret configured the routes are open.
type AdminAuth struct {
	secret []byte
	issuer string
	resp   *response.BaseService
}

func NewAdminAuth(cfg models.AdminConfig) *AdminAuth {
	if cfg.JWTSecret == "" {
		fiberlog.Warn("AdminAuth: admin.jwt_secret is empty, admin routes are unauthenticated")
	}
	return &AdminAuth{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		resp:   response.NewBaseService(),
	}
}

func (a *AdminAuth) Enabled() bool {
	return len(a.secret) > 0
}

func (a *AdminAuth) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.Enabled() {
			return c.Next()
		}

		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return a.resp.AppError(c, models.NewAuthenticationError("missing bearer token", nil))
		}
		subject, err := a.Verify(token)
		if err != nil {
			fiberlog.Debugf("AdminAuth: Rejected token from %s: %v", c.IP(), err)
			return a.resp.AppError(c, models.NewAuthenticationError("invalid or expired token", err))
		}

		c.Locals(adminSubjectLocalKey, subject)
		return c.Next()
	}
}

// Verify checks signature, algorithm, expiry and issuer and returns the subject.
func (a *AdminAuth) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssueToken signs an admin token for subject valid for ttl.
func IssueToken(cfg models.AdminConfig, subject string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("admin JWT secret not configured")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// AdminSubject returns the subject of the verified token, if any.
func AdminSubject(c *fiber.Ctx) string {
	s, _ := c.Locals(adminSubjectLocalKey).(string)
	return s
}

func bearerToken(header string) (string, bool) {
	after, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	after = strings.TrimSpace(after)
	return after, ok && after != ""
}
