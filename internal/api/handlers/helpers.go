package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postpilot/internal/api/middleware"
	"github.com/maheshrc27/postpilot/internal/models"
)

func GetViewer(c *fiber.Ctx) models.ViewerIdentity {
	viewer, _ := c.Locals(middleware.LocalViewer).(models.ViewerIdentity)
	return viewer
}

func GetTimezone(c *fiber.Ctx) string {
	tz, _ := c.Locals(middleware.LocalTimezone).(string)
	return tz
}

func GetBackendCookies(c *fiber.Ctx) []*http.Cookie {
	cookies, _ := c.Locals(middleware.LocalBackendCookies).([]*http.Cookie)
	return cookies
}

// backToHome answers a form post with a redirect to the home page.
func backToHome(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusSeeOther)
}
