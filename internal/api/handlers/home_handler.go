package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postpilot/internal/backend"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

const maxImageSize = 25 << 20

//go:embed templates/*.html
var templatesFS embed.FS

var homeTemplate = template.Must(template.New("home.html").Funcs(template.FuncMap{
	"caption":  utils.PlainCaption,
	"chevron":  chevron,
	"platform": platformLabel,
}).ParseFS(templatesFS, "templates/home.html"))

type HomeHandler struct {
	views    *service.ViewRegistry
	client   *backend.Client
	fallback *time.Location
}

func NewHomeHandler(views *service.ViewRegistry, client *backend.Client, fallback *time.Location) *HomeHandler {
	if fallback == nil {
		fallback = time.UTC
	}
	return &HomeHandler{views: views, client: client, fallback: fallback}
}

// view returns the requesting viewer's view bound to their backend session.
func (h *HomeHandler) view(c *fiber.Ctx) *service.HomeView {
	loc := h.fallback
	if tz := GetTimezone(c); tz != "" {
		resolved, _, err := service.ResolveLocation(tz)
		if err != nil {
			slog.Warn("falling back to server time zone", slog.String("timezone", tz), slog.Any("error", err))
		} else {
			loc = resolved
		}
	}
	return h.views.View(GetViewer(c), loc, h.client.WithCookies(GetBackendCookies(c)))
}

type homePage struct {
	service.HomeSnapshot
	Sections []sectionView
	Location *time.Location
}

type sectionView struct {
	Name  models.Section
	Title string
	Open  bool
}

func (p homePage) LocalTime(t time.Time) string {
	return t.In(p.Location).Format("Jan 2, 2006, 3:04:05 PM")
}

func (h *HomeHandler) Home(c *fiber.Ctx) error {
	v := h.view(c)
	v.Mount(c.Context())

	snap := v.Snapshot()
	loc, _, err := service.ResolveLocation(snap.Timezone)
	if err != nil {
		loc = h.fallback
	}

	page := homePage{HomeSnapshot: snap, Location: loc}
	for _, s := range models.Sections {
		page.Sections = append(page.Sections, sectionView{Name: s, Title: s.Title(), Open: snap.Sections.IsOpen(s)})
	}

	var buf bytes.Buffer
	if err := homeTemplate.Execute(&buf, page); err != nil {
		slog.Error("Error rendering home page", slog.Any("error", err))
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// HomeState is the JSON mirror of the home page.
func (h *HomeHandler) HomeState(c *fiber.Ctx) error {
	v := h.view(c)
	v.Mount(c.Context())
	return c.JSON(v.Snapshot())
}

func (h *HomeHandler) ToggleSection(c *fiber.Ctx) error {
	next, err := h.view(c).ToggleSection(c.Context(), c.Params("section"))
	if err != nil {
		if errors.Is(err, models.ErrUnknownSection) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return err
	}

	if wantsJSON(c) {
		return c.JSON(next)
	}
	return backToHome(c)
}

func (h *HomeHandler) Connect(c *fiber.Ctx) error {
	target, err := h.view(c).Connect(c.Context(), c.Params("platform"))
	if err != nil {
		if wantsJSON(c) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": errorText(err, "Failed to connect"),
			})
		}
		return backToHome(c)
	}

	// Platforms without a login flow yet answer with no target.
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"auth_url": target})
	}
	if target == "" {
		return backToHome(c)
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

func (h *HomeHandler) SchedulePost(c *fiber.Ctx) error {
	post := models.ComposedPost{
		Content: c.FormValue("content"),
		Date:    c.FormValue("date"),
		Time:    c.FormValue("time"),
	}

	if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
		if fh.Size > maxImageSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Image is too large",
			})
		}
		f, err := fh.Open()
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to read image",
			})
		}
		defer f.Close()

		var data bytes.Buffer
		if _, err := data.ReadFrom(f); err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to read image",
			})
		}
		post.Image = &models.MediaFile{Name: fh.Filename, Data: data.Bytes()}
	}

	err := h.view(c).SchedulePost(c.Context(), post)
	if wantsJSON(c) {
		if err != nil {
			status := fiber.StatusBadGateway
			if errors.Is(err, models.ErrInvalidSchedule) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "Post scheduled successfully"})
	}
	return backToHome(c)
}

func (h *HomeHandler) DismissNotice(c *fiber.Ctx) error {
	h.view(c).DismissNotice()
	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return backToHome(c)
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

func errorText(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

func chevron(open bool) string {
	if open {
		return "▲"
	}
	return "▼"
}

func platformLabel(a models.ConnectedAccount) string {
	if p := a.Platform(); p != "" {
		return p
	}
	return "account"
}
