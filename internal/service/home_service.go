package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/postpilot/internal/backend"
	"github.com/maheshrc27/postpilot/internal/models"
)

const platformInstagram = "instagram"

// HomeAPI is the part of the scheduling backend the home view talks to.
// *backend.Client implements it.
type HomeAPI interface {
	ConnectedAccounts(ctx context.Context) ([]models.ConnectedAccount, error)
	PendingPosts(ctx context.Context, loc *time.Location) ([]models.PendingPost, error)
	InstagramLogin(ctx context.Context, viewer models.ViewerIdentity) (string, error)
	SchedulePost(ctx context.Context, r backend.ScheduleRequest) (json.RawMessage, error)
}

// ViewRecorder observes view-level outcomes.
type ViewRecorder interface {
	RecordSectionToggle(section string)
	RecordNotification(category, severity string)
}

type HomeOptions struct {
	Viewer   models.ViewerIdentity
	API      HomeAPI
	Sections SectionService
	Location *time.Location
	Metrics  ViewRecorder
	// Now is used to stamp notifications, time.Now when nil.
	Now func() time.Time
}

// HomeSnapshot is a copy of the view state suitable for rendering.
type HomeSnapshot struct {
	Viewer   models.ViewerIdentity     `json:"viewer"`
	Sections models.SectionVisibility  `json:"open_sections"`
	Accounts []models.ConnectedAccount `json:"connected_accounts"`
	Posts    []models.PendingPost      `json:"pending_posts"`
	Notice   *models.Notification      `json:"notice,omitempty"`
	Timezone string                    `json:"timezone"`
}

// HomeView owns the state of one viewer's home page: which sections are
// open, the connected accounts, the pending posts and a single notification
// slot. Fetches replace lists wholesale and leave them untouched on failure.
type HomeView struct {
	viewer   models.ViewerIdentity
	sections SectionService
	loc      *time.Location
	metrics  ViewRecorder
	now      func() time.Time

	mu   sync.Mutex
	api  HomeAPI
	open models.SectionVisibility
	// toggles counts ToggleSection calls; a restore that raced one is dropped.
	toggles  uint64
	accounts []models.ConnectedAccount
	posts    []models.PendingPost
	notice   *models.Notification
}

func NewHomeView(opts HomeOptions) *HomeView {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HomeView{
		viewer:   opts.Viewer,
		api:      opts.API,
		sections: opts.Sections,
		loc:      loc,
		metrics:  opts.Metrics,
		now:      now,
		accounts: []models.ConnectedAccount{},
		posts:    []models.PendingPost{},
	}
}

// viewerKey is the identity section visibility is stored under.
func (v *HomeView) viewerKey() string {
	if v.viewer.UserID != "" {
		return v.viewer.UserID
	}
	return v.viewer.Username
}

func (v *HomeView) client() HomeAPI {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.api
}

// Bind swaps the backend client, e.g. when the viewer's session cookies change.
func (v *HomeView) Bind(api HomeAPI) {
	v.mu.Lock()
	v.api = api
	v.mu.Unlock()
}

// Mount restores section visibility and runs both fetchers once.
func (v *HomeView) Mount(ctx context.Context) {
	v.RestoreSections(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		v.FetchConnectedAccounts(ctx)
	}()
	go func() {
		defer wg.Done()
		v.FetchScheduledPosts(ctx)
	}()
	wg.Wait()
}

// RestoreSections loads the stored visibility. Unreadable data leaves every
// section closed; the next toggle overwrites it. A toggle made while the load
// was in flight wins over the loaded value.
func (v *HomeView) RestoreSections(ctx context.Context) {
	v.mu.Lock()
	gen := v.toggles
	v.mu.Unlock()

	open, err := v.sections.Load(ctx, v.viewerKey())
	if err != nil {
		if errors.Is(err, models.ErrCorruptPreferences) {
			slog.Warn("ignoring stored section visibility",
				slog.String("viewer", v.viewerKey()),
				slog.Any("error", err))
		} else {
			slog.Error("Error loading section visibility", slog.Any("error", err))
			v.notify(models.CategoryPreferences, models.SeverityWarning,
				"Failed to restore open sections: "+err.Error())
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.toggles != gen {
		slog.Debug("section toggled during restore, keeping in-memory state",
			slog.String("viewer", v.viewerKey()))
		return
	}
	v.open = open
}

// ToggleSection flips the named section and persists the full record.
// Unknown names are rejected without touching state or storage.
func (v *HomeView) ToggleSection(ctx context.Context, name string) (models.SectionVisibility, error) {
	section, err := models.ParseSection(name)
	if err != nil {
		return v.Sections(), err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next, err := v.open.Toggled(section)
	if err != nil {
		return v.open, err
	}
	v.open = next
	v.toggles++

	if v.metrics != nil {
		v.metrics.RecordSectionToggle(string(section))
	}

	if err := v.sections.Save(ctx, v.viewerKey(), next); err != nil {
		slog.Error("Error saving section visibility", slog.Any("error", err))
		v.setNotice(models.CategoryPreferences, models.SeverityWarning,
			"Failed to save open sections: "+err.Error())
	}

	return next, nil
}

func (v *HomeView) Sections() models.SectionVisibility {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// FetchConnectedAccounts replaces the account list with the backend's.
func (v *HomeView) FetchConnectedAccounts(ctx context.Context) error {
	accounts, err := v.client().ConnectedAccounts(ctx)
	if err != nil {
		slog.Error("Error fetching connected accounts", slog.Any("error", err))
		v.notify(models.CategoryAccounts, models.SeverityError,
			"Failed to fetch connected accounts: "+err.Error())
		return err
	}

	v.mu.Lock()
	v.accounts = accounts
	v.mu.Unlock()
	return nil
}

// FetchScheduledPosts replaces the pending post list with the backend's.
func (v *HomeView) FetchScheduledPosts(ctx context.Context) error {
	posts, err := v.client().PendingPosts(ctx, v.loc)
	if err != nil {
		slog.Error("Error fetching scheduled posts", slog.Any("error", err))
		v.notify(models.CategoryPosts, models.SeverityError,
			"Failed to fetch scheduled posts: "+err.Error())
		return err
	}

	slog.Debug("fetched scheduled posts", slog.Int("count", len(posts)))

	v.mu.Lock()
	v.posts = posts
	v.mu.Unlock()
	return nil
}

// Connect starts linking platform to the viewer's profile and returns the
// URL the viewer has to be sent to. Only Instagram is supported; other
// platforms yield an empty URL and no error.
func (v *HomeView) Connect(ctx context.Context, platform string) (string, error) {
	if !strings.EqualFold(platform, platformInstagram) {
		slog.Info(fmt.Sprintf("connecting to %s is not implemented yet", platform))
		return "", nil
	}

	authURL, err := v.client().InstagramLogin(ctx, v.viewer)
	if err != nil {
		slog.Error("Error connecting to Instagram", slog.Any("error", err))
		v.notify(models.CategoryConnect, models.SeverityError,
			"Failed to connect to Instagram: "+err.Error())
		return "", err
	}

	return authURL, nil
}

// SchedulePost submits post and refreshes the pending list on success.
// Nothing is inserted locally; the new post shows up through the refresh.
func (v *HomeView) SchedulePost(ctx context.Context, post models.ComposedPost) error {
	req, err := v.scheduleRequest(post)
	if err == nil {
		slog.Info("scheduling post", slog.String("scheduled_time", req.ScheduledTime))
		_, err = v.client().SchedulePost(ctx, req)
	}
	if err != nil {
		slog.Error("Error scheduling post", slog.Any("error", err))
		v.notify(models.CategorySchedule, models.SeverityAlert,
			"Failed to schedule post: "+err.Error())
		return err
	}

	v.FetchScheduledPosts(ctx)
	return nil
}

func (v *HomeView) scheduleRequest(post models.ComposedPost) (backend.ScheduleRequest, error) {
	local, err := CombineLocal(post.Date, post.Time, v.loc)
	if err != nil {
		return backend.ScheduleRequest{}, err
	}

	return backend.ScheduleRequest{
		MediaType:     post.MediaType(),
		Caption:       post.Content,
		ScheduledTime: models.FormatInstant(local),
		Timezone:      v.loc.String(),
		Media:         post.Image,
	}, nil
}

// DismissNotice clears the notification slot. Successful fetches never do.
func (v *HomeView) DismissNotice() {
	v.mu.Lock()
	v.notice = nil
	v.mu.Unlock()
}

func (v *HomeView) Snapshot() HomeSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := HomeSnapshot{
		Viewer:   v.viewer,
		Sections: v.open,
		Accounts: append([]models.ConnectedAccount(nil), v.accounts...),
		Posts:    append([]models.PendingPost(nil), v.posts...),
		Timezone: v.loc.String(),
	}
	if snap.Accounts == nil {
		snap.Accounts = []models.ConnectedAccount{}
	}
	if snap.Posts == nil {
		snap.Posts = []models.PendingPost{}
	}
	if v.notice != nil {
		n := *v.notice
		snap.Notice = &n
	}
	return snap
}

func (v *HomeView) notify(category models.Category, severity models.Severity, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setNotice(category, severity, message)
}

// setNotice requires v.mu.
func (v *HomeView) setNotice(category models.Category, severity models.Severity, message string) {
	v.notice = &models.Notification{
		Severity:  severity,
		Category:  category,
		Message:   message,
		CreatedAt: v.now(),
	}
	if v.metrics != nil {
		v.metrics.RecordNotification(string(category), string(severity))
	}
}
