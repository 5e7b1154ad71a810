package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbauto/orgchart/pkg/cache"
	"github.com/dbauto/orgchart/pkg/config"
	"github.com/dbauto/orgchart/pkg/org"
	"github.com/dbauto/orgchart/pkg/report"
	"github.com/dbauto/orgchart/pkg/store"
)

type fakeFetcher struct {
	users []org.Employee
	calls int
}

func (f *fakeFetcher) Users(ctx context.Context) ([]org.Employee, error) {
	f.calls++
	return f.users, nil
}

func testUsers() []org.Employee {
	return []org.Employee{
		{ID: "ceo", Name: "Avery Quinn", Title: "CEO", AccountEnabled: true},
		{ID: "vp", Name: "Blake Reyes", Title: "VP", ManagerID: "ceo", AccountEnabled: true,
			HireDate: time.Now().AddDate(0, 0, -5).Format("2006-01-02")},
		{ID: "gone", Name: "Cam Diaz", Title: "Eng", ManagerID: "vp", AccountEnabled: false},
		{ID: "guest", Name: "Dana Fox", Title: "Contractor", ManagerID: "ceo",
			AccountEnabled: true, UserType: "Guest"},
	}
}

func newTestRunner(t *testing.T, fetcher Fetcher) *Runner {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return NewRunner(fetcher, st, c, nil, logger)
}

func TestRefresh(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	snap, err := r.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	// Full directory is stored, excluded employees included.
	assert.Len(t, snap.Employees, 4)
	require.NotNil(t, snap.Tree)
	assert.Equal(t, "ceo", snap.Tree.ID)
	assert.Equal(t, 2, snap.Tree.Count(), "disabled and guest accounts filtered from the tree")

	byID := make(map[string]org.Employee)
	for _, e := range snap.Employees {
		byID[e.ID] = e
	}
	assert.Contains(t, byID["gone"].FilterReasons, org.FilterReasonDisabled)
	assert.Contains(t, byID["guest"].FilterReasons, org.FilterReasonGuest)
	assert.True(t, byID["vp"].IsNew, "recent hire marked new")
	assert.False(t, byID["ceo"].IsNew)

	// Refresh persisted the snapshot.
	loaded, err := r.Store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded.Employees, 4)
}

func TestExecuteRendersSVG(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	res, err := r.Execute(context.Background(), Options{Full: true})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls, "first run refreshes because no snapshot exists")
	assert.Equal(t, 4, res.Stats.EmployeeCount)
	assert.Equal(t, 2, res.Stats.VisibleCount)
	assert.NotEmpty(t, res.SnapshotHash)

	svg := string(res.Artifacts[FormatSVG])
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, "Avery Quinn")
	assert.NotContains(t, svg, "Cam Diaz", "filtered employees stay out of the chart")
}

func TestExecuteUsesCaches(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	first, err := r.Execute(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.LayoutHit)
	assert.False(t, first.CacheInfo.RenderHit)

	second, err := r.Execute(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.LayoutHit)
	assert.True(t, second.CacheInfo.RenderHit)
	assert.Equal(t, 1, fetcher.calls, "snapshot loaded from store on the second run")
	assert.Equal(t, first.Artifacts[FormatSVG], second.Artifacts[FormatSVG])

	// Refresh bypasses every cache.
	third, err := r.Execute(context.Background(), Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.LayoutHit)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRefreshStampsDisabledDates(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	snap, err := r.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	byID := make(map[string]org.Employee)
	for _, e := range snap.Employees {
		byID[e.ID] = e
	}
	assert.Equal(t, today, byID["gone"].DisabledDate, "first sighting of a disabled account stamps today")
	assert.Empty(t, byID["ceo"].DisabledDate)
	assert.Empty(t, byID["vp"].DisabledDate)

	rep, err := report.NewBuilder(snap.Employees, snap.Tree).Build(report.KindRecentlyDisabled, 365)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, "gone", rep.Entries[0].ID)
}

func TestRefreshCarriesDisabledDateForward(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	prior := &store.Snapshot{
		Employees: []org.Employee{
			{ID: "gone", Name: "Cam Diaz", AccountEnabled: false, DisabledDate: "2024-05-01"},
			{ID: "ceo", Name: "Avery Quinn", AccountEnabled: false, DisabledDate: "2024-06-01"},
		},
		FetchedAt: time.Now().UTC(),
	}
	require.NoError(t, r.Store.Save(context.Background(), prior))

	snap, err := r.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	byID := make(map[string]org.Employee)
	for _, e := range snap.Employees {
		byID[e.ID] = e
	}
	assert.Equal(t, "2024-05-01", byID["gone"].DisabledDate, "still-disabled account keeps its first-seen date")
	assert.Empty(t, byID["ceo"].DisabledDate, "re-enabled account loses the stamp")
}

type photoFakeFetcher struct {
	*fakeFetcher
	photos map[string]bool
}

func (f *photoFakeFetcher) HasPhoto(ctx context.Context, id string) (bool, error) {
	return f.photos[id], nil
}

func TestRefreshStampsPhotos(t *testing.T) {
	fetcher := &photoFakeFetcher{
		fakeFetcher: &fakeFetcher{users: testUsers()},
		photos:      map[string]bool{"ceo": true},
	}
	r := newTestRunner(t, fetcher)

	snap, err := r.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	byID := make(map[string]org.Employee)
	for _, e := range snap.Employees {
		byID[e.ID] = e
	}
	assert.True(t, byID["ceo"].HasPhoto)
	assert.False(t, byID["vp"].HasPhoto)
	assert.False(t, byID["gone"].HasPhoto, "disabled accounts are not checked")
}

func TestSnapshotCacheServesWhenStoreEmpty(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	first := NewRunner(fetcher, st, c, nil, logger)
	_, err = first.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	// Same cache, empty store, no fetcher: the snapshot cache must carry
	// the run.
	empty, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	second := NewRunner(nil, empty, c, nil, logger)

	res, err := second.Execute(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Stats.EmployeeCount)
	assert.Equal(t, 1, fetcher.calls)
}

func TestExecuteGraphvizSVG(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	res, err := r.Execute(context.Background(), Options{Formats: []string{FormatDOTSVG}})
	require.NoError(t, err)
	assert.Contains(t, string(res.Artifacts[FormatDOTSVG]), "<svg")
	assert.Contains(t, string(res.Artifacts[FormatDOTSVG]), "Avery Quinn")
}

func TestExecuteDOTAndXLSX(t *testing.T) {
	fetcher := &fakeFetcher{users: testUsers()}
	r := newTestRunner(t, fetcher)

	res, err := r.Execute(context.Background(), Options{Formats: []string{FormatDOT, FormatXLSX}})
	require.NoError(t, err)

	dot := string(res.Artifacts[FormatDOT])
	assert.Contains(t, dot, "digraph orgchart")
	assert.Contains(t, dot, `"ceo" -> "vp"`)
	assert.NotEmpty(t, res.Artifacts[FormatXLSX])
}

func TestOptionsValidation(t *testing.T) {
	r := newTestRunner(t, &fakeFetcher{users: testUsers()})

	_, err := r.Execute(context.Background(), Options{Formats: []string{"pdf"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")

	bad := config.DefaultChartSettings()
	bad.Layout.PackThreshold = -3
	_, err = r.Execute(context.Background(), Options{Settings: bad})
	require.Error(t, err)
}

func TestOptionsDefaultsIdempotent(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, []string{FormatSVG}, opts.Formats)
	assert.Equal(t, DefaultScale, opts.Scale)
	assert.Equal(t, "graph", opts.Source)
	require.NoError(t, opts.ValidateAndSetDefaults())
}

func TestFilterHashChangesWithFilters(t *testing.T) {
	a := Options{}
	require.NoError(t, a.ValidateAndSetDefaults())
	b := Options{}
	require.NoError(t, b.ValidateAndSetDefaults())
	b.Settings.Filters.HideGuests = !b.Settings.Filters.HideGuests

	assert.NotEqual(t, a.FilterHash(), b.FilterHash())
}
