package org

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emp(id, name, managerID string) Employee {
	return Employee{ID: id, Name: name, ManagerID: managerID, AccountEnabled: true}
}

func TestBuildHierarchyBasic(t *testing.T) {
	employees := []Employee{
		emp("1", "Ada", ""),
		emp("2", "Grace", "1"),
		emp("3", "Alan", "1"),
		emp("4", "Edsger", "2"),
	}

	root, report, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.Equal(t, "1", root.ID)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "2", root.Children[0].ID)
	assert.Equal(t, "3", root.Children[1].ID)
	assert.Equal(t, 4, root.Count())
	assert.Empty(t, report.Detached)
	assert.Empty(t, report.DuplicateIDs)
}

func TestBuildHierarchyEmpty(t *testing.T) {
	_, _, err := BuildHierarchy(nil, BuildOptions{})
	assert.ErrorIs(t, err, ErrEmptyDirectory)
}

func TestBuildHierarchyTopUserEmail(t *testing.T) {
	employees := []Employee{
		{ID: "1", Name: "Ada", Email: "ada@example.com"},
		{ID: "2", Name: "Grace", Email: "grace@example.com", ManagerID: "1"},
	}

	root, _, err := BuildHierarchy(employees, BuildOptions{TopUserEmail: "Grace@example.com"})
	require.NoError(t, err)

	// The configured root has its manager link severed and is removed
	// from its former manager's children.
	assert.Equal(t, "2", root.ID)
	assert.Empty(t, root.ManagerID)
	assert.NotContains(t, treeIDs(root), "2")
}

func TestBuildHierarchyTopUserID(t *testing.T) {
	employees := []Employee{
		emp("1", "Ada", ""),
		emp("2", "Grace", "1"),
	}
	root, _, err := BuildHierarchy(employees, BuildOptions{TopUserID: "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", root.ID)
}

func TestBuildHierarchyTitleKeywordRoot(t *testing.T) {
	employees := []Employee{
		{ID: "1", Name: "Ada", Title: "Engineer"},
		{ID: "2", Name: "Grace", Title: "Chief Executive Officer"},
		{ID: "3", Name: "Alan", ManagerID: "2"},
	}
	root, report, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2", root.ID)
	assert.Contains(t, report.RootReason, "title keyword")
}

func TestBuildHierarchyManagerCycle(t *testing.T) {
	// a <-> b cycle plus a clean subtree; the builder must terminate and
	// report the unreachable pair.
	employees := []Employee{
		emp("root", "Ada", ""),
		emp("x", "Grace", "root"),
		emp("a", "Loop1", "b"),
		emp("b", "Loop2", "a"),
	}

	root, report, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "root", root.ID)
	assert.ElementsMatch(t, []string{"a", "b"}, report.Detached)
}

func TestBuildHierarchyAllCycle(t *testing.T) {
	// No record without a manager at all: root falls back to most reports.
	employees := []Employee{
		emp("a", "A", "c"),
		emp("b", "B", "a"),
		emp("c", "C", "a"),
	}
	root, report, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", root.ID)
	assert.Contains(t, report.RootReason, "most direct reports")
}

func TestBuildHierarchyDuplicateIDs(t *testing.T) {
	employees := []Employee{
		emp("1", "Ada", ""),
		emp("2", "Grace", "1"),
		emp("2", "Impostor", "1"),
	}
	root, report, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, report.DuplicateIDs)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "Grace", root.Children[0].Name)
}

func TestBuildHierarchyOrphanManager(t *testing.T) {
	employees := []Employee{
		emp("1", "Ada", ""),
		emp("2", "Grace", "ghost"),
	}
	_, report, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, report.Detached)
}

func TestFlattenRoundTrip(t *testing.T) {
	employees := []Employee{
		emp("1", "Ada", ""),
		emp("2", "Grace", "1"),
		emp("3", "Alan", "2"),
	}
	root, _, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)

	flat := root.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "1", flat[0].ID)
}

func TestUniqueFieldValues(t *testing.T) {
	employees := []Employee{
		{ID: "1", Department: "Engineering"},
		{ID: "2", Department: "engineering"},
		{ID: "3", Department: "Sales"},
		{ID: "4", Department: "  "},
	}
	got := UniqueFieldValues(employees, func(e Employee) string { return e.Department })
	assert.Equal(t, []string{"Engineering", "Sales"}, got)
}

func TestSearch(t *testing.T) {
	employees := []Employee{
		{ID: "1", Name: "Ada Lovelace", Title: "CEO"},
		{ID: "2", Name: "Grace Hopper", Title: "Engineer", ManagerID: "1"},
		{ID: "3", Name: "Alan Turing", Department: "Research", ManagerID: "2"},
	}
	root, _, err := BuildHierarchy(employees, BuildOptions{})
	require.NoError(t, err)

	hits := Search(root, "research")
	require.Len(t, hits, 1)
	assert.Equal(t, "3", hits[0].Employee.ID)
	assert.Equal(t, []string{"1", "2"}, hits[0].Path)

	assert.Empty(t, Search(root, ""))
	assert.Len(t, Search(root, "a"), 3)
}

func TestApplyFilters(t *testing.T) {
	employees := []Employee{
		{ID: "1", Name: "Ada", Title: "CEO", AccountEnabled: true},
		{ID: "2", Name: "Grace", AccountEnabled: false, Title: "Eng"},
		{ID: "3", Name: "Guest", AccountEnabled: true, UserType: "Guest", Title: "x"},
		{ID: "4", Name: "NoTitle", AccountEnabled: true},
		{ID: "5", Name: "Ignored", AccountEnabled: true, Title: "Eng"},
	}
	res := ApplyFilters(employees, FilterOptions{
		HideDisabled: true,
		HideGuests:   true,
		HideNoTitle:  true,
		IgnoredNames: []string{"ignored"},
	})

	require.Len(t, res.Kept, 1)
	assert.Equal(t, "1", res.Kept[0].ID)
	require.Len(t, res.Excluded, 4)

	byID := make(map[string][]string)
	for _, e := range res.Excluded {
		byID[e.ID] = e.FilterReasons
	}
	assert.Equal(t, []string{FilterReasonDisabled}, byID["2"])
	assert.Equal(t, []string{FilterReasonGuest}, byID["3"])
	assert.Equal(t, []string{FilterReasonNoTitle}, byID["4"])
	assert.Equal(t, []string{FilterReasonIgnored}, byID["5"])
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a, b; c"))
	assert.Empty(t, SplitList("  "))
}

func treeIDs(root *Node) []string {
	var ids []string
	root.Walk(func(n *Node) { ids = append(ids, n.ID) })
	return ids
}
