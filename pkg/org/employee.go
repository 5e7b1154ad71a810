// Package org models the organization directory: flat employee records,
// the reporting hierarchy built from them, and visibility filtering.
//
// The directory is snapshot-oriented: a flat []Employee list is fetched from
// the identity provider, filtered, and assembled into a single-rooted tree of
// Node values. Snapshots are immutable for the duration of a render session
// and replaced wholesale on refresh.
package org

import (
	"strings"
	"time"
)

// Filter reasons recorded on employees removed from the visible directory.
const (
	FilterReasonDisabled   = "disabled"
	FilterReasonGuest      = "guest"
	FilterReasonNoTitle    = "no_title"
	FilterReasonIgnored    = "ignored"
	FilterReasonDepartment = "ignored_department"
	FilterReasonTitle      = "ignored_title"
)

// Employee is one directory entry as stored in snapshots.
// The JSON field names are the snapshot wire format and must stay stable
// across refreshes so cached files remain readable.
type Employee struct {
	ID            string   `json:"id" bson:"id"`
	Name          string   `json:"name" bson:"name"`
	Title         string   `json:"title,omitempty" bson:"title,omitempty"`
	Department    string   `json:"department,omitempty" bson:"department,omitempty"`
	Email         string   `json:"email,omitempty" bson:"email,omitempty"`
	Phone         string   `json:"phone,omitempty" bson:"phone,omitempty"`
	BusinessPhone string   `json:"businessPhone,omitempty" bson:"business_phone,omitempty"`
	ManagerID     string   `json:"managerId,omitempty" bson:"manager_id,omitempty"`
	Location      string   `json:"location,omitempty" bson:"location,omitempty"`
	City          string   `json:"city,omitempty" bson:"city,omitempty"`
	State         string   `json:"state,omitempty" bson:"state,omitempty"`
	Country       string   `json:"country,omitempty" bson:"country,omitempty"`
	HireDate      string   `json:"hireDate,omitempty" bson:"hire_date,omitempty"`
	LastSignIn    string   `json:"lastSignIn,omitempty" bson:"last_sign_in,omitempty"`
	DisabledDate  string   `json:"disabledDate,omitempty" bson:"disabled_date,omitempty"`
	AccountEnabled bool    `json:"accountEnabled" bson:"account_enabled"`
	UserType      string   `json:"userType,omitempty" bson:"user_type,omitempty"`
	HasPhoto      bool     `json:"hasPhoto,omitempty" bson:"has_photo,omitempty"`
	LicenseCount  int      `json:"licenseCount,omitempty" bson:"license_count,omitempty"`
	LicenseSkus   []string `json:"licenseSkus,omitempty" bson:"license_skus,omitempty"`
	IsNew         bool     `json:"isNew,omitempty" bson:"is_new,omitempty"`
	FilterReasons []string `json:"filterReasons,omitempty" bson:"filter_reasons,omitempty"`
}

// IsGuest reports whether the account is a guest (external) user.
func (e Employee) IsGuest() bool {
	return strings.EqualFold(e.UserType, "guest")
}

// HiredAfter reports whether the employee's hire date falls after t.
// Employees with a missing or unparsable hire date are never "after".
func (e Employee) HiredAfter(t time.Time) bool {
	hired, ok := ParseDate(e.HireDate)
	return ok && hired.After(t)
}

// DisplayLabel returns "Name <email>" when both are known, otherwise
// whichever is present.
func (e Employee) DisplayLabel() string {
	name := strings.TrimSpace(e.Name)
	contact := strings.TrimSpace(e.Email)
	switch {
	case name != "" && contact != "":
		return name + " <" + contact + ">"
	case name != "":
		return name
	default:
		return contact
	}
}

// ParseDate parses a snapshot date field, accepting RFC 3339 timestamps and
// plain YYYY-MM-DD dates. Returns false for empty or malformed values.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Node is one employee in the assembled reporting tree.
// Children are ordered as attached during hierarchy construction and the
// ordering is preserved through layout so connector paths never cross due
// to reordering alone.
type Node struct {
	Employee `bson:",inline"`
	Children []*Node `json:"children,omitempty" bson:"children,omitempty"`
}

// Walk visits n and every descendant in depth-first preorder.
// A visited set guards against malformed (cyclic) trees so traversal
// terminates even on corrupt input; revisited nodes are skipped.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	seen := make(map[string]bool)
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur == nil || seen[cur.ID] {
			return
		}
		seen[cur.ID] = true
		fn(cur)
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
}

// Find returns the node with the given ID, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(cur *Node) {
		if found == nil && cur.ID == id {
			found = cur
		}
	})
	return found
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) { total++ })
	return total
}

// Flatten walks the tree and returns the employees as a flat list in
// preorder. Children links are not carried over.
func (n *Node) Flatten() []Employee {
	var out []Employee
	n.Walk(func(cur *Node) {
		out = append(out, cur.Employee)
	})
	return out
}
