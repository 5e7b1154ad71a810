package org

import (
	"slices"
	"strings"
)

// FilterOptions controls which directory records are excluded from the
// rendered chart. Excluded employees are retained (with recorded reasons)
// so the filtered-users report can account for them.
type FilterOptions struct {
	HideDisabled bool `json:"hideDisabled"`
	HideGuests   bool `json:"hideGuests"`
	HideNoTitle  bool `json:"hideNoTitle"`

	// Ignore lists match case-insensitively. Names match against the
	// display name or email; departments and titles match exactly.
	IgnoredNames       []string `json:"ignoredNames,omitempty"`
	IgnoredDepartments []string `json:"ignoredDepartments,omitempty"`
	IgnoredTitles      []string `json:"ignoredTitles,omitempty"`
}

// FilterResult partitions a directory into records kept for the chart and
// records excluded with at least one recorded reason.
type FilterResult struct {
	Kept     []Employee
	Excluded []Employee
}

// ApplyFilters evaluates every record against opts. The input slice is not
// modified; excluded records carry their FilterReasons.
func ApplyFilters(employees []Employee, opts FilterOptions) FilterResult {
	ignoredNames := lowerSet(opts.IgnoredNames)
	ignoredDepts := lowerSet(opts.IgnoredDepartments)
	ignoredTitles := lowerSet(opts.IgnoredTitles)

	var res FilterResult
	for _, emp := range employees {
		var reasons []string
		if opts.HideDisabled && !emp.AccountEnabled {
			reasons = append(reasons, FilterReasonDisabled)
		}
		if opts.HideGuests && emp.IsGuest() {
			reasons = append(reasons, FilterReasonGuest)
		}
		if opts.HideNoTitle && strings.TrimSpace(emp.Title) == "" {
			reasons = append(reasons, FilterReasonNoTitle)
		}
		if ignoredNames[strings.ToLower(strings.TrimSpace(emp.Name))] ||
			ignoredNames[strings.ToLower(strings.TrimSpace(emp.Email))] {
			reasons = append(reasons, FilterReasonIgnored)
		}
		if ignoredDepts[strings.ToLower(strings.TrimSpace(emp.Department))] {
			reasons = append(reasons, FilterReasonDepartment)
		}
		if ignoredTitles[strings.ToLower(strings.TrimSpace(emp.Title))] {
			reasons = append(reasons, FilterReasonTitle)
		}

		if len(reasons) == 0 {
			res.Kept = append(res.Kept, emp)
			continue
		}
		emp.FilterReasons = reasons
		res.Excluded = append(res.Excluded, emp)
	}
	return res
}

// SplitList parses a comma- or semicolon-separated ignore list into its
// trimmed, non-empty entries. Settings store these lists as single strings.
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return slices.Clip(out)
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = true
		}
	}
	return set
}
