package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbauto/orgchart/pkg/cache"
	"github.com/dbauto/orgchart/pkg/layout"
	"github.com/dbauto/orgchart/pkg/org"
	"github.com/dbauto/orgchart/pkg/render"
	"github.com/dbauto/orgchart/pkg/report"
	"github.com/dbauto/orgchart/pkg/store"
)

// Fetcher provides the employee directory. Implemented by
// [directory.Client]; tests plug in fakes.
type Fetcher interface {
	Users(ctx context.Context) ([]org.Employee, error)
}

// PhotoChecker is an optional Fetcher extension that reports whether an
// employee has a profile photo. Fetchers without photo support skip the
// HasPhoto stamp.
type PhotoChecker interface {
	HasPhoto(ctx context.Context, id string) (bool, error)
}

// Runner executes the refresh and render flows with caching. It is
// stateless except for its collaborators; multiple goroutines can share
// one Runner with different options.
type Runner struct {
	Fetcher Fetcher
	Store   store.Store
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer, a nil logger the package default.
func NewRunner(fetcher Fetcher, st store.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Fetcher: fetcher, Store: st, Cache: c, Keyer: keyer, Logger: logger}
}

// Refresh fetches the directory, applies filters, builds the hierarchy,
// and persists the snapshot. The stored employee list is the FULL
// directory, excluded records included, so reports can account for
// everyone.
func (r *Runner) Refresh(ctx context.Context, opts Options) (*store.Snapshot, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if r.Fetcher == nil {
		return nil, fmt.Errorf("no directory fetcher configured")
	}

	start := time.Now()
	employees, err := r.Fetcher.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch directory: %w", err)
	}
	r.Logger.Info("fetched directory", "employees", len(employees), "duration", time.Since(start))

	r.reconcile(ctx, employees)
	if checker, ok := r.Fetcher.(PhotoChecker); ok {
		r.stampPhotos(ctx, checker, employees)
	}

	newHireCutoff := time.Now().AddDate(0, 0, -opts.Settings.NewHireDays)
	for i := range employees {
		employees[i].IsNew = employees[i].HiredAfter(newHireCutoff)
	}

	filtered := org.ApplyFilters(employees, opts.Settings.Filters)

	tree, buildReport, err := org.BuildHierarchy(filtered.Kept, org.BuildOptions{
		TopUserEmail: opts.Settings.TopUserEmail,
		TopUserID:    opts.Settings.TopUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	r.Logger.Info("built hierarchy",
		"root", tree.ID,
		"placed", tree.Count(),
		"excluded", len(filtered.Excluded),
		"detached", len(buildReport.Detached),
		"rootReason", buildReport.RootReason)

	snap := &store.Snapshot{
		Employees: append(filtered.Kept, filtered.Excluded...),
		Tree:      tree,
		Source:    opts.Source,
		FetchedAt: time.Now().UTC(),
	}
	if r.Store != nil {
		if err := r.Store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}
	if data, err := json.Marshal(snap); err == nil {
		key := r.Keyer.SnapshotKey(opts.Source, opts.FilterHash())
		_ = r.Cache.Set(ctx, key, data, TTLSnapshot)
	}
	return snap, nil
}

// reconcile carries forward state that only exists across refreshes. The
// graph API reports accounts as disabled but never when that happened, so
// the first refresh observing an account disabled stamps today's date and
// later refreshes keep it. Re-enabled accounts lose the stamp. The last
// known photo flag is carried the same way so a refresh without a photo
// check does not drop it.
func (r *Runner) reconcile(ctx context.Context, employees []org.Employee) {
	prev := make(map[string]org.Employee)
	if r.Store != nil {
		if old, err := r.Store.Load(ctx); err == nil {
			for _, e := range old.Employees {
				prev[e.ID] = e
			}
		}
	}

	today := time.Now().UTC().Format("2006-01-02")
	for i := range employees {
		e := &employees[i]
		p, seen := prev[e.ID]
		if seen {
			e.HasPhoto = p.HasPhoto
		}
		if e.AccountEnabled {
			e.DisabledDate = ""
			continue
		}
		if seen && p.DisabledDate != "" {
			e.DisabledDate = p.DisabledDate
		} else {
			e.DisabledDate = today
		}
	}
}

// photoCheckWorkers bounds the concurrent photo lookups per refresh.
const photoCheckWorkers = 8

// stampPhotos sets HasPhoto on enabled employees. Lookup failures leave
// the carried-forward value in place; a flaky photo endpoint must not
// fail the refresh.
func (r *Runner) stampPhotos(ctx context.Context, checker PhotoChecker, employees []org.Employee) {
	sem := make(chan struct{}, photoCheckWorkers)
	var wg sync.WaitGroup
	for i := range employees {
		if !employees[i].AccountEnabled {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(e *org.Employee) {
			defer wg.Done()
			defer func() { <-sem }()
			if has, err := checker.HasPhoto(ctx, e.ID); err == nil {
				e.HasPhoto = has
			}
		}(&employees[i])
	}
	wg.Wait()
}

// Execute runs the render flow: load (or refresh) the snapshot, compute
// the layout, and render the requested artifacts, caching each stage.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	fetchStart := time.Now()
	snap, err := r.loadSnapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.EmployeeCount = len(snap.Employees)

	data, err := json.Marshal(snap.Employees)
	if err != nil {
		return nil, err
	}
	result.SnapshotHash = cache.Hash(data)

	layoutStart := time.Now()
	res, layoutHit, err := r.computeLayout(ctx, snap.Tree, result.SnapshotHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.VisibleCount = len(res.Nodes)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(res.Nodes),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	renderHit := true
	for _, format := range opts.Formats {
		artifact, hit, err := r.renderArtifact(ctx, snap, res, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = artifact
		renderHit = renderHit && hit
	}
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered artifacts",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// loadSnapshot returns the stored snapshot, falling back to the snapshot
// cache and finally to a refresh when there is none yet or a refresh was
// requested.
func (r *Runner) loadSnapshot(ctx context.Context, opts Options) (*store.Snapshot, error) {
	if opts.Refresh {
		return r.Refresh(ctx, opts)
	}

	var loadErr error
	if r.Store != nil {
		snap, err := r.Store.Load(ctx)
		if err == nil {
			return snap, nil
		}
		loadErr = err
	}

	key := r.Keyer.SnapshotKey(opts.Source, opts.FilterHash())
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var snap store.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
	}

	if r.Fetcher == nil && loadErr != nil {
		return nil, loadErr
	}
	return r.Refresh(ctx, opts)
}

func (r *Runner) computeLayout(ctx context.Context, tree *org.Node, snapshotHash string, opts Options) (layout.Result, bool, error) {
	key := r.Keyer.LayoutKey(snapshotHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var res layout.Result
			if err := json.Unmarshal(data, &res); err == nil {
				return res, true, nil
			}
		}
	}

	session, err := layout.NewSession(tree, opts.Settings.Layout)
	if err != nil {
		return layout.Result{}, false, err
	}
	res := session.ComputeExport(layout.ExportOptions{IncludeCollapsed: opts.Full})

	if data, err := json.Marshal(res); err == nil {
		_ = r.Cache.Set(ctx, key, data, TTLLayout)
	}
	return res, false, nil
}

func (r *Runner) renderArtifact(ctx context.Context, snap *store.Snapshot, res layout.Result, format string, opts Options) ([]byte, bool, error) {
	layoutData, err := json.Marshal(res)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.ArtifactKey(cache.Hash(layoutData), opts.ArtifactKeyOpts(format))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	var artifact []byte
	switch format {
	case FormatSVG:
		artifact = r.renderSVG(res, opts)
	case FormatPNG:
		svg := r.renderSVG(res, opts)
		artifact, err = render.ToPNG(ctx, svg, render.WithScale(opts.Scale))
	case FormatDOT:
		artifact = []byte(r.renderDOT(snap, opts))
	case FormatDOTSVG:
		artifact, err = render.SVGFromDOT(ctx, r.renderDOT(snap, opts))
	case FormatXLSX:
		artifact, err = report.WriteDirectoryXLSX(snap.Employees, opts.Settings.Columns)
	case FormatJSON:
		artifact, err = json.Marshal(res)
	}
	if err != nil {
		return nil, false, err
	}

	_ = r.Cache.Set(ctx, key, artifact, TTLArtifact)
	return artifact, false, nil
}

func (r *Runner) renderDOT(snap *store.Snapshot, opts Options) string {
	return render.ToDOT(snap.Tree, render.DOTOptions{
		Detailed:    true,
		LeftToRight: opts.Settings.Layout.Orientation == layout.Horizontal,
	})
}

func (r *Runner) renderSVG(res layout.Result, opts Options) []byte {
	svgOpts := []render.SVGOption{render.WithInteraction()}
	if opts.Title != "" {
		svgOpts = append(svgOpts, render.WithTitle(opts.Title))
	}
	if len(opts.Settings.Colors) > 0 {
		svgOpts = append(svgOpts, render.WithPalette(opts.Settings.Colors))
	}
	return render.RenderSVG(res, svgOpts...)
}
