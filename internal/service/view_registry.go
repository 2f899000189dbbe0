package service

import (
	"sync"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
)

const (
	DefaultMaxViews = 1000
	DefaultViewIdle = 30 * time.Minute
)

// ViewRegistry keeps one HomeView per viewer so state such as the current
// notification survives between requests. Views idle for longer than the
// idle timeout are dropped, and the least recently used view goes first once
// the registry is full.
type ViewRegistry struct {
	sections SectionService
	metrics  ViewRecorder
	maxViews int
	idle     time.Duration
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*viewEntry
}

type viewEntry struct {
	view     *HomeView
	lastSeen time.Time
}

func NewViewRegistry(sections SectionService, metrics ViewRecorder) *ViewRegistry {
	return &ViewRegistry{
		sections: sections,
		metrics:  metrics,
		maxViews: DefaultMaxViews,
		idle:     DefaultViewIdle,
		now:      time.Now,
		views:    make(map[string]*viewEntry),
	}
}

// Limit sets the registry size and idle timeout. Non-positive values keep
// the current setting.
func (r *ViewRegistry) Limit(maxViews int, idle time.Duration) *ViewRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if maxViews > 0 {
		r.maxViews = maxViews
	}
	if idle > 0 {
		r.idle = idle
	}
	return r
}

// View returns the viewer's view bound to api, creating it on first use.
// A view is recreated when the viewer's time zone changes.
func (r *ViewRegistry) View(viewer models.ViewerIdentity, loc *time.Location, api HomeAPI) *HomeView {
	key := viewer.UserID + "\x00" + viewer.Username

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.dropIdle(now)

	if e, ok := r.views[key]; ok && e.view.loc.String() == loc.String() {
		e.lastSeen = now
		e.view.Bind(api)
		return e.view
	}

	v := NewHomeView(HomeOptions{
		Viewer:   viewer,
		API:      api,
		Sections: r.sections,
		Location: loc,
		Metrics:  r.metrics,
	})
	r.views[key] = &viewEntry{view: v, lastSeen: now}
	for len(r.views) > r.maxViews {
		r.dropOldest()
	}
	return v
}

// Len reports how many views are held.
func (r *ViewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *ViewRegistry) dropIdle(now time.Time) {
	for key, e := range r.views {
		if now.Sub(e.lastSeen) > r.idle {
			delete(r.views, key)
		}
	}
}

func (r *ViewRegistry) dropOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range r.views {
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey, oldest = key, e.lastSeen
		}
	}
	delete(r.views, oldestKey)
}
