package org

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrEmptyDirectory is returned by BuildHierarchy when the employee
	// list is empty. Callers typically surface this as "no data yet".
	ErrEmptyDirectory = errors.New("empty employee list")

	// ErrNoRoot is returned when no root could be determined at all.
	// With a non-empty directory this only happens when every record was
	// rejected (e.g. all duplicates of a missing ID).
	ErrNoRoot = errors.New("no root employee found")
)

// ceoKeywords are matched against job titles (lowercased) when auto-detecting
// the top-level person among root candidates.
var ceoKeywords = []string{"chief executive", "ceo", "president", "chair", "director", "head"}

// BuildOptions selects the top of the reporting tree.
// TopUserEmail wins over TopUserID; with neither set the root is
// auto-detected from the data.
type BuildOptions struct {
	TopUserEmail string
	TopUserID    string
}

// BuildReport describes records the builder had to reject or detach.
// It is informational: a non-empty report does not imply an error.
type BuildReport struct {
	// DuplicateIDs lists IDs that appeared more than once; only the first
	// occurrence was kept.
	DuplicateIDs []string

	// Detached lists IDs present in the directory but not reachable from
	// the chosen root: manager references that point outside the
	// directory, or manager chains that form a cycle.
	Detached []string

	// RootReason records how the root was chosen, for operator logs.
	RootReason string
}

// BuildHierarchy assembles a flat employee list into a single reporting tree.
//
// Root selection order:
//  1. opts.TopUserEmail, matched against employee emails
//  2. opts.TopUserID
//  3. a record without a manager whose title matches an executive keyword
//  4. the first record without a manager
//  5. the record with the most direct reports (manager cycles, no true root)
//  6. the first record in the list
//
// The configured root always has its manager link severed and is removed from
// any other node's children. Manager chains forming cycles cannot reach the
// root; those records end up in BuildReport.Detached rather than looping the
// builder forever.
func BuildHierarchy(employees []Employee, opts BuildOptions) (*Node, BuildReport, error) {
	var report BuildReport
	if len(employees) == 0 {
		return nil, report, ErrEmptyDirectory
	}

	nodes := make(map[string]*Node, len(employees))
	order := make([]string, 0, len(employees))
	for _, emp := range employees {
		if emp.ID == "" {
			continue
		}
		if _, dup := nodes[emp.ID]; dup {
			report.DuplicateIDs = append(report.DuplicateIDs, emp.ID)
			continue
		}
		nodes[emp.ID] = &Node{Employee: emp}
		order = append(order, emp.ID)
	}
	if len(nodes) == 0 {
		return nil, report, ErrNoRoot
	}

	root := findConfiguredRoot(nodes, order, opts, &report)

	// Attach children in input order. The configured root never becomes a
	// child, no matter what its manager field says.
	var rootCandidates []*Node
	for _, id := range order {
		n := nodes[id]
		if root != nil && n.ID == root.ID {
			continue
		}
		if n.ManagerID != "" {
			if mgr, ok := nodes[n.ManagerID]; ok && mgr.ID != n.ID {
				mgr.Children = append(mgr.Children, n)
				continue
			}
		}
		if n.ManagerID == "" {
			rootCandidates = append(rootCandidates, n)
		}
	}

	if root == nil {
		root = autoDetectRoot(nodes, order, rootCandidates, &report)
	}
	if root == nil {
		return nil, report, ErrNoRoot
	}
	root.ManagerID = ""

	// A record may list the root as its subordinate; drop that link.
	for _, id := range order {
		n := nodes[id]
		n.Children = slices.DeleteFunc(n.Children, func(c *Node) bool {
			return c.ID == root.ID && n.ID != root.ID
		})
	}

	report.Detached = detachedIDs(root, nodes, order)
	return root, report, nil
}

// findConfiguredRoot resolves the explicitly configured top user, if any.
func findConfiguredRoot(nodes map[string]*Node, order []string, opts BuildOptions, report *BuildReport) *Node {
	email := strings.ToLower(strings.TrimSpace(opts.TopUserEmail))
	if email != "" {
		for _, id := range order {
			if strings.ToLower(strings.TrimSpace(nodes[id].Email)) == email {
				report.RootReason = fmt.Sprintf("configured top user email %s", email)
				return nodes[id]
			}
		}
	}
	if id := strings.TrimSpace(opts.TopUserID); id != "" {
		if n, ok := nodes[id]; ok {
			report.RootReason = fmt.Sprintf("configured top user id %s", id)
			return n
		}
	}
	return nil
}

// autoDetectRoot applies the fallback chain documented on BuildHierarchy.
func autoDetectRoot(nodes map[string]*Node, order []string, candidates []*Node, report *BuildReport) *Node {
	for _, c := range candidates {
		title := strings.ToLower(c.Title)
		for _, kw := range ceoKeywords {
			if strings.Contains(title, kw) {
				report.RootReason = fmt.Sprintf("title keyword %q among %d root candidates", kw, len(candidates))
				return c
			}
		}
	}
	if len(candidates) > 0 {
		report.RootReason = fmt.Sprintf("first of %d root candidates", len(candidates))
		return candidates[0]
	}

	// No record without a manager: the manager graph is cyclic. Pick the
	// node with the most direct reports so the largest chunk stays visible.
	var best *Node
	for _, id := range order {
		if best == nil || len(nodes[id].Children) > len(best.Children) {
			best = nodes[id]
		}
	}
	if best != nil && len(best.Children) > 0 {
		report.RootReason = fmt.Sprintf("most direct reports (%d)", len(best.Children))
		return best
	}
	if len(order) > 0 {
		report.RootReason = "first employee in list"
		return nodes[order[0]]
	}
	return nil
}

// detachedIDs returns the IDs not reachable from root, in input order.
func detachedIDs(root *Node, nodes map[string]*Node, order []string) []string {
	reachable := make(map[string]bool, len(nodes))
	root.Walk(func(n *Node) { reachable[n.ID] = true })

	var detached []string
	for _, id := range order {
		if !reachable[id] {
			detached = append(detached, id)
		}
	}
	return detached
}

// UniqueFieldValues collects the distinct non-empty values of one employee
// field, deduplicated case-insensitively and sorted case-insensitively.
// Used to populate the configuration UI's department and title dropdowns.
func UniqueFieldValues(employees []Employee, field func(Employee) string) []string {
	unique := make(map[string]string)
	for _, emp := range employees {
		v := strings.TrimSpace(field(emp))
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := unique[key]; !ok {
			unique[key] = v
		}
	}
	out := make([]string, 0, len(unique))
	for _, v := range unique {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}

// OptionLabels collects "Name <email>" labels for employee pickers,
// deduplicated by contact address and sorted case-insensitively.
func OptionLabels(employees []Employee) []string {
	options := make(map[string]string)
	for _, emp := range employees {
		label := emp.DisplayLabel()
		if label == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(emp.Email))
		if key == "" {
			key = strings.ToLower(label)
		}
		if _, ok := options[key]; !ok {
			options[key] = label
		}
	}
	out := make([]string, 0, len(options))
	for _, v := range options {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}
