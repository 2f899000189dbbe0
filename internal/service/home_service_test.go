package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postpilot/internal/backend"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

var testViewer = models.ViewerIdentity{Username: "pilot", UserID: "42"}

// fakeBackend serves canned bodies per endpoint and records calls.
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]cannedResponse
	calls     map[string]int
	forms     map[string]map[string]string
	bodies    map[string][]byte
}

type cannedResponse struct {
	status int
	body   string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *backend.Client) {
	t.Helper()
	fb := &fakeBackend{
		responses: map[string]cannedResponse{},
		calls:     map[string]int{},
		forms:     map[string]map[string]string{},
		bodies:    map[string][]byte{},
	}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, backend.NewClient(backend.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func (fb *fakeBackend) set(endpoint string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[endpoint] = cannedResponse{status: status, body: body}
}

func (fb *fakeBackend) callCount(endpoint string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[endpoint]
}

func (fb *fakeBackend) form(endpoint string) map[string]string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.forms[endpoint]
}

func (fb *fakeBackend) body(endpoint string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return string(fb.bodies[endpoint])
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.calls[r.URL.Path]++
	if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			form := map[string]string{}
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
			fb.forms[r.URL.Path] = form
		}
	} else if r.Method == http.MethodPost {
		fb.bodies[r.URL.Path], _ = io.ReadAll(r.Body)
	}
	resp, ok := fb.responses[r.URL.Path]
	fb.mu.Unlock()

	if !ok {
		resp = cannedResponse{status: http.StatusNotFound, body: `{"error": "not found"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

type recordingMetrics struct {
	mu            sync.Mutex
	toggles       []string
	notifications []string
}

func (m *recordingMetrics) RecordSectionToggle(section string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles = append(m.toggles, section)
}

func (m *recordingMetrics) RecordNotification(category, severity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, category+"/"+severity)
}

func newTestView(t *testing.T, api HomeAPI, repo repository.PreferenceRepository, loc *time.Location) *HomeView {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryPreferenceRepository()
	}
	return NewHomeView(HomeOptions{
		Viewer:   testViewer,
		API:      api,
		Sections: NewSectionService(repo),
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
}

func TestToggleSection_FlipsOnlyOneAndPersists(t *testing.T) {
	_, client := newFakeBackend(t)
	repo := repository.NewMemoryPreferenceRepository()
	metrics := &recordingMetrics{}
	v := NewHomeView(HomeOptions{Viewer: testViewer, API: client, Sections: NewSectionService(repo), Metrics: metrics})
	ctx := context.Background()

	next, err := v.ToggleSection(ctx, "schedule")
	require.NoError(t, err)
	assert.Equal(t, models.SectionVisibility{Schedule: true}, next)

	next, err = v.ToggleSection(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, models.SectionVisibility{Accounts: true, Schedule: true}, next)
	assert.Equal(t, next, v.Snapshot().Sections)

	raw, ok, err := repo.Get(ctx, testViewer.UserID, models.SectionsPreferenceKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"accounts":true,"schedule":true,"scheduledPosts":false}`, raw)
	assert.Equal(t, []string{"schedule", "accounts"}, metrics.toggles)
}

func TestToggleSection_UnknownNameIsRejected(t *testing.T) {
	_, client := newFakeBackend(t)
	repo := repository.NewMemoryPreferenceRepository()
	v := newTestView(t, client, repo, nil)

	_, err := v.ToggleSection(context.Background(), "sidebar")

	assert.ErrorIs(t, err, models.ErrUnknownSection)
	assert.Equal(t, models.SectionVisibility{}, v.Sections())
	_, ok, err := repo.Get(context.Background(), testViewer.UserID, models.SectionsPreferenceKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMount_RestoresStoredSectionsWithoutNetwork(t *testing.T) {
	fb, client := newFakeBackend(t)
	repo := repository.NewMemoryPreferenceRepository()
	require.NoError(t, repo.Put(context.Background(), testViewer.UserID, models.SectionsPreferenceKey,
		`{"accounts":true,"schedule":false,"scheduledPosts":true}`))
	v := newTestView(t, client, repo, nil)

	v.RestoreSections(context.Background())

	assert.Equal(t, models.SectionVisibility{Accounts: true, ScheduledPosts: true}, v.Sections())
	assert.Zero(t, fb.callCount(backend.EndpointConnectedAccounts))
	assert.Zero(t, fb.callCount(backend.EndpointPendingPosts))
}

func TestMount_CorruptSectionsFallBackToDefaults(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"connected_accounts": []}`)
	fb.set(backend.EndpointPendingPosts, http.StatusOK, `{"pending_posts": []}`)
	repo := repository.NewMemoryPreferenceRepository()
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, testViewer.UserID, models.SectionsPreferenceKey, `{"accounts":`))
	v := newTestView(t, client, repo, nil)

	v.Mount(ctx)

	snap := v.Snapshot()
	assert.Equal(t, models.SectionVisibility{}, snap.Sections)
	assert.Nil(t, snap.Notice)

	_, err := v.ToggleSection(ctx, "accounts")
	require.NoError(t, err)
	raw, _, err := repo.Get(ctx, testViewer.UserID, models.SectionsPreferenceKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accounts":true,"schedule":false,"scheduledPosts":false}`, raw)
}

func TestMount_FetchesAccountsAndPosts(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"connected_accounts": [{"platform": "instagram", "account_username": "pilot"}]}`)
	fb.set(backend.EndpointPendingPosts, http.StatusOK, `{"pending_posts": [{"caption": "x", "scheduled_time": "2024-01-01T10:00:00Z", "scheduled_time_user": "2024-01-01T05:00:00-05:00"}]}`)
	v := newTestView(t, client, nil, nil)

	v.Mount(context.Background())

	snap := v.Snapshot()
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "pilot", snap.Accounts[0].DisplayName())
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, 1, fb.callCount(backend.EndpointConnectedAccounts))
	assert.Equal(t, 1, fb.callCount(backend.EndpointPendingPosts))
}

func TestFetchScheduledPosts_NormalizesTimestamps(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointPendingPosts, http.StatusOK, `{"pending_posts": [{"caption": "x", "scheduled_time": "2024-01-01T10:00:00Z", "scheduled_time_user": "2024-01-01T05:00:00-05:00"}]}`)
	v := newTestView(t, client, nil, nil)

	require.NoError(t, v.FetchScheduledPosts(context.Background()))

	posts := v.Snapshot().Posts
	require.Len(t, posts, 1)
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, posts[0].ScheduledTime.Equal(want))
	assert.True(t, posts[0].ScheduledTimeUser.Equal(want))

	data, err := json.Marshal(posts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"caption":"x","scheduled_time":"2024-01-01T10:00:00.000Z","scheduled_time_user":"2024-01-01T10:00:00.000Z"}`, string(data))
}

func TestFetchScheduledPosts_MalformedKeepsList(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointPendingPosts, http.StatusOK, `{"pending_posts": [{"caption": "x", "scheduled_time": "2024-01-01T10:00:00Z", "scheduled_time_user": "2024-01-01T10:00:00Z"}]}`)
	v := newTestView(t, client, nil, nil)
	require.NoError(t, v.FetchScheduledPosts(context.Background()))

	fb.set(backend.EndpointPendingPosts, http.StatusOK, `{}`)
	err := v.FetchScheduledPosts(context.Background())

	assert.ErrorIs(t, err, backend.ErrMalformedResponse)
	snap := v.Snapshot()
	assert.Len(t, snap.Posts, 1)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.CategoryPosts, snap.Notice.Category)
	assert.Contains(t, snap.Notice.Message, "Failed to fetch scheduled posts")
}

func TestFetchConnectedAccounts_Empty(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"connected_accounts": []}`)
	v := newTestView(t, client, nil, nil)

	require.NoError(t, v.FetchConnectedAccounts(context.Background()))

	snap := v.Snapshot()
	assert.Empty(t, snap.Accounts)
	assert.NotNil(t, snap.Accounts)
	assert.Nil(t, snap.Notice)
}

func TestFetchConnectedAccounts_ErrorLeavesListUntouched(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"connected_accounts": [{"id": 1}]}`)
	metrics := &recordingMetrics{}
	v := NewHomeView(HomeOptions{Viewer: testViewer, API: client, Sections: NewSectionService(repository.NewMemoryPreferenceRepository()), Metrics: metrics})
	require.NoError(t, v.FetchConnectedAccounts(context.Background()))

	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"error": "bad session"}`)
	err := v.FetchConnectedAccounts(context.Background())

	require.Error(t, err)
	snap := v.Snapshot()
	assert.Len(t, snap.Accounts, 1)
	require.NotNil(t, snap.Notice)
	assert.Contains(t, snap.Notice.Message, "bad session")
	assert.Equal(t, models.SeverityError, snap.Notice.Severity)
	assert.Equal(t, models.CategoryAccounts, snap.Notice.Category)
	assert.Equal(t, []string{"accounts/error"}, metrics.notifications)
}

func TestNotice_PersistsAcrossSuccessUntilDismissed(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointConnectedAccounts, http.StatusInternalServerError, ``)
	v := newTestView(t, client, nil, nil)
	require.Error(t, v.FetchConnectedAccounts(context.Background()))

	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"connected_accounts": []}`)
	require.NoError(t, v.FetchConnectedAccounts(context.Background()))

	snap := v.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Contains(t, snap.Notice.Message, "HTTP error! status: 500")

	v.DismissNotice()
	assert.Nil(t, v.Snapshot().Notice)
}

func TestConnect_InstagramReturnsAuthURL(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointInstagramLogin, http.StatusOK, `{"auth_url": "https://x"}`)
	v := newTestView(t, client, nil, nil)

	target, err := v.Connect(context.Background(), "Instagram")

	require.NoError(t, err)
	assert.Equal(t, "https://x", target)
	assert.JSONEq(t, `{"username":"pilot","user_id":"42"}`, fb.body(backend.EndpointInstagramLogin))
	assert.Nil(t, v.Snapshot().Notice)
}

func TestConnect_MissingAuthURL(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointInstagramLogin, http.StatusOK, `{}`)
	v := newTestView(t, client, nil, nil)

	target, err := v.Connect(context.Background(), "instagram")

	assert.ErrorIs(t, err, backend.ErrMissingAuthURL)
	assert.Empty(t, target)
	snap := v.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, "Failed to connect to Instagram: no auth URL received from server", snap.Notice.Message)
	assert.Equal(t, models.CategoryConnect, snap.Notice.Category)
}

func TestConnect_OtherPlatformMakesNoCall(t *testing.T) {
	fb, client := newFakeBackend(t)
	v := newTestView(t, client, nil, nil)

	target, err := v.Connect(context.Background(), "TikTok")

	require.NoError(t, err)
	assert.Empty(t, target)
	assert.Zero(t, fb.callCount(backend.EndpointInstagramLogin))
	assert.Nil(t, v.Snapshot().Notice)
}

func TestSchedulePost_MediaTypeAndInstant(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	tests := []struct {
		name      string
		image     *models.MediaFile
		mediaType string
	}{
		{name: "without image", mediaType: "carousel"},
		{name: "with image", image: &models.MediaFile{Name: "a.png", Data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}}, mediaType: "photo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, client := newFakeBackend(t)
			fb.set(backend.EndpointSchedulePost, http.StatusOK, `{"message": "scheduled"}`)
			fb.set(backend.EndpointPendingPosts, http.StatusOK, `{"pending_posts": []}`)
			v := newTestView(t, client, nil, rome)

			err := v.SchedulePost(context.Background(), models.ComposedPost{
				Content: "hello",
				Image:   tt.image,
				Date:    "2024-01-01",
				Time:    "11:00",
			})
			require.NoError(t, err)

			form := fb.form(backend.EndpointSchedulePost)
			assert.Equal(t, tt.mediaType, form["media_type"])
			assert.Equal(t, "hello", form["caption"])
			assert.Equal(t, "2024-01-01T10:00:00.000Z", form["scheduled_time"])
			assert.Equal(t, "Europe/Rome", form["timezone"])
			assert.Equal(t, 1, fb.callCount(backend.EndpointPendingPosts))
		})
	}
}

func TestSchedulePost_InvalidDateMakesNoCall(t *testing.T) {
	fb, client := newFakeBackend(t)
	v := newTestView(t, client, nil, nil)

	err := v.SchedulePost(context.Background(), models.ComposedPost{Content: "x", Date: "tomorrow", Time: "11:00"})

	assert.ErrorIs(t, err, models.ErrInvalidSchedule)
	assert.Zero(t, fb.callCount(backend.EndpointSchedulePost))
	snap := v.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.SeverityAlert, snap.Notice.Severity)
}

func TestSchedulePost_ServerErrorRaisesAlert(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointSchedulePost, http.StatusBadRequest, `{"error": "caption too long"}`)
	v := newTestView(t, client, nil, nil)

	err := v.SchedulePost(context.Background(), models.ComposedPost{Content: "x", Date: "2024-01-01", Time: "11:00"})

	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	snap := v.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, "Failed to schedule post: caption too long", snap.Notice.Message)
	assert.Equal(t, models.CategorySchedule, snap.Notice.Category)
	assert.Equal(t, models.SeverityAlert, snap.Notice.Severity)
	assert.Zero(t, fb.callCount(backend.EndpointPendingPosts))
}

type failingRepository struct{}

func (failingRepository) Get(ctx context.Context, userID, key string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingRepository) Put(ctx context.Context, userID, key, value string) error {
	return errors.New("disk on fire")
}

func TestToggleSection_SaveFailureKeepsState(t *testing.T) {
	_, client := newFakeBackend(t)
	v := newTestView(t, client, failingRepository{}, nil)

	next, err := v.ToggleSection(context.Background(), "scheduledPosts")

	require.NoError(t, err)
	assert.True(t, next.ScheduledPosts)
	snap := v.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.CategoryPreferences, snap.Notice.Category)
	assert.Equal(t, models.SeverityWarning, snap.Notice.Severity)
}

func TestViewRegistry_ReusesViewPerViewer(t *testing.T) {
	_, client := newFakeBackend(t)
	reg := NewViewRegistry(NewSectionService(repository.NewMemoryPreferenceRepository()), nil)

	a := reg.View(testViewer, time.UTC, client)
	b := reg.View(testViewer, time.UTC, client)
	c := reg.View(models.ViewerIdentity{Username: "other", UserID: "7"}, time.UTC, client)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)

	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	d := reg.View(testViewer, rome, client)
	assert.NotSame(t, a, d)
	assert.Equal(t, "Europe/Rome", d.Snapshot().Timezone)
}

func TestViewRegistry_DropsIdleViews(t *testing.T) {
	_, client := newFakeBackend(t)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := NewViewRegistry(NewSectionService(repository.NewMemoryPreferenceRepository()), nil).Limit(0, time.Minute)
	reg.now = func() time.Time { return clock }

	a := reg.View(testViewer, time.UTC, client)
	clock = clock.Add(2 * time.Minute)
	reg.View(models.ViewerIdentity{Username: "other", UserID: "7"}, time.UTC, client)

	assert.Equal(t, 1, reg.Len())
	assert.NotSame(t, a, reg.View(testViewer, time.UTC, client))
}

func TestViewRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	_, client := newFakeBackend(t)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := NewViewRegistry(NewSectionService(repository.NewMemoryPreferenceRepository()), nil).Limit(2, time.Hour)
	reg.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	first := models.ViewerIdentity{Username: "first", UserID: "1"}
	second := models.ViewerIdentity{Username: "second", UserID: "2"}

	a := reg.View(first, time.UTC, client)
	b := reg.View(second, time.UTC, client)
	assert.Same(t, a, reg.View(first, time.UTC, client))
	reg.View(models.ViewerIdentity{Username: "third", UserID: "3"}, time.UTC, client)

	assert.Equal(t, 2, reg.Len())
	assert.Same(t, a, reg.View(first, time.UTC, client))
	assert.NotSame(t, b, reg.View(second, time.UTC, client))
}

// blockingSections holds Load until release is closed.
type blockingSections struct {
	SectionService
	started chan struct{}
	release chan struct{}
}

func (b *blockingSections) Load(ctx context.Context, viewerID string) (models.SectionVisibility, error) {
	close(b.started)
	<-b.release
	return b.SectionService.Load(ctx, viewerID)
}

func TestRestoreSections_ToggleDuringLoadWins(t *testing.T) {
	_, client := newFakeBackend(t)
	repo := repository.NewMemoryPreferenceRepository()
	sections := &blockingSections{
		SectionService: NewSectionService(repo),
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	v := NewHomeView(HomeOptions{Viewer: testViewer, API: client, Sections: sections})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		v.RestoreSections(ctx)
	}()

	<-sections.started
	// Stored value before the toggle is all-closed; the load must not bring it back.
	_, err := v.ToggleSection(ctx, "accounts")
	require.NoError(t, err)
	close(sections.release)
	<-done

	stored, err := NewSectionService(repo).Load(ctx, testViewer.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.SectionVisibility{Accounts: true}, v.Sections())
	assert.Equal(t, stored, v.Sections())
}

func TestFetchConnectedAccounts_BarePlatformNames(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.set(backend.EndpointConnectedAccounts, http.StatusOK, `{"connected_accounts": ["instagram"]}`)
	v := newTestView(t, client, nil, nil)

	require.NoError(t, v.FetchConnectedAccounts(context.Background()))

	snap := v.Snapshot()
	assert.Nil(t, snap.Notice)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "instagram", snap.Accounts[0].DisplayName())
}
