package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

const (
	LocalViewer         = "viewer"
	LocalTimezone       = "timezone"
	LocalBackendCookies = "backend_cookies"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware resolves the viewer from the signed viewer cookie and
// collects the backend session cookies to forward. Without a cookie the
// configured viewer is used, if any.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)

		var viewer models.ViewerIdentity
		timezone := m.cfg.Viewer.Timezone

		if tokenString != "" && m.cfg.SecretKey != "" {
			claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
			if err != nil {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1, // Delete cookie
				})

				slog.Warn("viewer token validation failed", slog.Any("error", err))
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}

			viewer = models.ViewerIdentity{Username: claims.Username, UserID: claims.UserID}
			if claims.Timezone != "" {
				timezone = claims.Timezone
			}
		} else if m.cfg.Viewer.Username != "" || m.cfg.Viewer.UserID != "" {
			viewer = models.ViewerIdentity{Username: m.cfg.Viewer.Username, UserID: m.cfg.Viewer.UserID}
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing viewer cookie",
			})
		}

		var cookies []*http.Cookie
		for _, name := range m.cfg.Backend.CookieNames {
			if value := c.Cookies(name); value != "" {
				cookies = append(cookies, &http.Cookie{Name: name, Value: value})
			}
		}

		c.Locals(LocalViewer, viewer)
		c.Locals(LocalTimezone, timezone)
		c.Locals(LocalBackendCookies, cookies)
		return c.Next()
	}
}
