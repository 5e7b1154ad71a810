// Package report derives audit views from the employee directory: people
// missing from the chart, disabled accounts, recent hires, and similar
// lists an HR or IT admin reviews. Reports always run over the full
// unfiltered directory so excluded employees still show up where relevant.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dbauto/orgchart/pkg/org"
)

// Kind identifies one report type. Kinds double as URL slugs.
type Kind string

const (
	KindMissingManager   Kind = "missing-manager"
	KindDisabledUsers    Kind = "disabled-users"
	KindRecentlyDisabled Kind = "recently-disabled"
	KindRecentlyHired    Kind = "recently-hired"
	KindLastSignIns      Kind = "last-sign-ins"
	KindDisabledLicensed Kind = "disabled-licensed"
	KindFilteredLicensed Kind = "filtered-licensed"
	KindFilteredUsers    Kind = "filtered-users"
)

// Kinds lists every report type in display order.
var Kinds = []Kind{
	KindMissingManager,
	KindDisabledUsers,
	KindRecentlyDisabled,
	KindRecentlyHired,
	KindLastSignIns,
	KindDisabledLicensed,
	KindFilteredLicensed,
	KindFilteredUsers,
}

// Reasons an employee appears on the missing-manager report.
const (
	ReasonNoManager       = "no_manager"
	ReasonManagerNotFound = "manager_not_found"
	ReasonManagerFiltered = "manager_filtered"
	ReasonDetached        = "detached"
)

// Entry is one report row: the employee plus an optional per-report note
// (the missing-manager reason, the filter reasons, the disable date).
type Entry struct {
	org.Employee
	Reason string `json:"reason,omitempty"`
}

// Report is a finished view ready for the API or an export.
type Report struct {
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Entries   []Entry   `json:"entries"`
	Generated time.Time `json:"generated"`
}

// Builder computes reports from one directory snapshot. The same builder
// serves every report kind, so the API handler constructs it once per
// request batch.
type Builder struct {
	employees []org.Employee
	inTree    map[string]bool
	byID      map[string]org.Employee
	rootID    string
	now       time.Time
}

// NewBuilder prepares report state from the full directory and the built
// tree. tree may be nil when hierarchy building failed; reports that do
// not need reachability still work.
func NewBuilder(employees []org.Employee, tree *org.Node) *Builder {
	b := &Builder{
		employees: employees,
		inTree:    make(map[string]bool),
		byID:      make(map[string]org.Employee, len(employees)),
		now:       time.Now(),
	}
	for _, e := range employees {
		if _, dup := b.byID[e.ID]; !dup {
			b.byID[e.ID] = e
		}
	}
	if tree != nil {
		b.rootID = tree.ID
		tree.Walk(func(n *org.Node) {
			b.inTree[n.ID] = true
		})
	}
	return b
}

// Build runs the named report. Unknown kinds return an error rather than
// an empty report so a typoed API path is distinguishable from no data.
func (b *Builder) Build(kind Kind, windowDays int) (Report, error) {
	switch kind {
	case KindMissingManager:
		return b.MissingManagers(), nil
	case KindDisabledUsers:
		return b.DisabledUsers(), nil
	case KindRecentlyDisabled:
		return b.RecentlyDisabled(windowDays), nil
	case KindRecentlyHired:
		return b.RecentlyHired(windowDays), nil
	case KindLastSignIns:
		return b.LastSignIns(windowDays), nil
	case KindDisabledLicensed:
		return b.DisabledLicensed(), nil
	case KindFilteredLicensed:
		return b.FilteredLicensed(), nil
	case KindFilteredUsers:
		return b.FilteredUsers(), nil
	default:
		return Report{}, fmt.Errorf("unknown report kind %q", kind)
	}
}

// MissingManagers lists active employees absent from the chart, each with
// the reason: no manager set, manager ID unknown, manager filtered out, or
// detached by a reporting cycle.
func (b *Builder) MissingManagers() Report {
	var entries []Entry
	for _, e := range b.employees {
		if !e.AccountEnabled || e.ID == b.rootID || b.inTree[e.ID] {
			continue
		}
		entries = append(entries, Entry{Employee: e, Reason: b.missingReason(e)})
	}
	return b.finish(KindMissingManager, "Employees missing from the chart", entries)
}

func (b *Builder) missingReason(e org.Employee) string {
	if len(e.FilterReasons) > 0 {
		return strings.Join(e.FilterReasons, ", ")
	}
	if e.ManagerID == "" {
		return ReasonNoManager
	}
	mgr, ok := b.byID[e.ManagerID]
	if !ok {
		return ReasonManagerNotFound
	}
	if len(mgr.FilterReasons) > 0 || !mgr.AccountEnabled {
		return ReasonManagerFiltered
	}
	return ReasonDetached
}

// DisabledUsers lists every disabled account.
func (b *Builder) DisabledUsers() Report {
	var entries []Entry
	for _, e := range b.employees {
		if e.AccountEnabled {
			continue
		}
		entries = append(entries, Entry{Employee: e, Reason: e.DisabledDate})
	}
	return b.finish(KindDisabledUsers, "Disabled accounts", entries)
}

// RecentlyDisabled lists accounts disabled inside the window. Accounts
// with no recorded disable date are excluded; the plain disabled report
// covers those.
func (b *Builder) RecentlyDisabled(windowDays int) Report {
	cutoff := b.now.AddDate(0, 0, -windowDays)
	var entries []Entry
	for _, e := range b.employees {
		if e.AccountEnabled {
			continue
		}
		when, ok := org.ParseDate(e.DisabledDate)
		if !ok || when.Before(cutoff) {
			continue
		}
		entries = append(entries, Entry{Employee: e, Reason: e.DisabledDate})
	}
	title := fmt.Sprintf("Accounts disabled in the last %d days", windowDays)
	return b.finish(KindRecentlyDisabled, title, entries)
}

// RecentlyHired lists employees hired inside the window.
func (b *Builder) RecentlyHired(windowDays int) Report {
	cutoff := b.now.AddDate(0, 0, -windowDays)
	var entries []Entry
	for _, e := range b.employees {
		if !e.HiredAfter(cutoff) {
			continue
		}
		entries = append(entries, Entry{Employee: e, Reason: e.HireDate})
	}
	title := fmt.Sprintf("Employees hired in the last %d days", windowDays)
	return b.finish(KindRecentlyHired, title, entries)
}

// LastSignIns lists enabled accounts with no sign-in inside the window.
// Disabled accounts are excluded; they have their own reports.
func (b *Builder) LastSignIns(windowDays int) Report {
	cutoff := b.now.AddDate(0, 0, -windowDays)
	var entries []Entry
	for _, e := range b.employees {
		if !e.AccountEnabled {
			continue
		}
		when, ok := org.ParseDate(e.LastSignIn)
		if ok && when.After(cutoff) {
			continue
		}
		reason := e.LastSignIn
		if reason == "" {
			reason = "never"
		}
		entries = append(entries, Entry{Employee: e, Reason: reason})
	}
	title := fmt.Sprintf("Accounts with no sign-in in the last %d days", windowDays)
	return b.finish(KindLastSignIns, title, entries)
}

// DisabledLicensed lists disabled accounts still holding paid licenses,
// the usual cleanup target after offboarding.
func (b *Builder) DisabledLicensed() Report {
	var entries []Entry
	for _, e := range b.employees {
		if e.AccountEnabled || e.LicenseCount == 0 {
			continue
		}
		reason := fmt.Sprintf("%d license(s)", e.LicenseCount)
		if len(e.LicenseSkus) > 0 {
			reason = strings.Join(e.LicenseSkus, ", ")
		}
		entries = append(entries, Entry{Employee: e, Reason: reason})
	}
	return b.finish(KindDisabledLicensed, "Disabled accounts with licenses", entries)
}

// FilteredLicensed lists filtered-out employees that still hold licenses.
// Filtering hides an account from the chart; it does not release its seat.
func (b *Builder) FilteredLicensed() Report {
	var entries []Entry
	for _, e := range b.employees {
		if len(e.FilterReasons) == 0 || e.LicenseCount == 0 {
			continue
		}
		reason := fmt.Sprintf("%d license(s)", e.LicenseCount)
		if len(e.LicenseSkus) > 0 {
			reason = strings.Join(e.LicenseSkus, ", ")
		}
		entries = append(entries, Entry{Employee: e, Reason: reason})
	}
	return b.finish(KindFilteredLicensed, "Filtered employees with licenses", entries)
}

// FilteredUsers lists employees excluded from the chart by the visibility
// filters, with the recorded reasons.
func (b *Builder) FilteredUsers() Report {
	var entries []Entry
	for _, e := range b.employees {
		if len(e.FilterReasons) == 0 {
			continue
		}
		entries = append(entries, Entry{Employee: e, Reason: strings.Join(e.FilterReasons, ", ")})
	}
	return b.finish(KindFilteredUsers, "Employees excluded by filters", entries)
}

func (b *Builder) finish(kind Kind, title string, entries []Entry) Report {
	sort.SliceStable(entries, func(i, j int) bool {
		di := strings.ToLower(entries[i].Department)
		dj := strings.ToLower(entries[j].Department)
		if di != dj {
			return di < dj
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return Report{Kind: kind, Title: title, Entries: entries, Generated: b.now}
}
