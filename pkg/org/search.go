package org

import "strings"

// Match is one search hit plus the chain of manager IDs leading to it,
// root first. The chain lets the UI expand collapsed ancestors before
// scrolling to the hit.
type Match struct {
	Employee Employee `json:"employee"`
	Path     []string `json:"path"`
}

// Search walks the tree and returns employees whose name, title, department
// or email contains the query, case-insensitively. An empty query returns
// no matches. Results come back in preorder, which keeps them stable across
// identical snapshots.
func Search(root *Node, query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if root == nil || query == "" {
		return nil
	}

	var matches []Match
	seen := make(map[string]bool)
	var walk func(n *Node, path []string)
	walk = func(n *Node, path []string) {
		if n == nil || seen[n.ID] {
			return
		}
		seen[n.ID] = true
		if matchesQuery(n.Employee, query) {
			matches = append(matches, Match{
				Employee: n.Employee,
				Path:     append([]string(nil), path...),
			})
		}
		childPath := append(path, n.ID)
		for _, c := range n.Children {
			walk(c, childPath)
		}
	}
	walk(root, nil)
	return matches
}

func matchesQuery(e Employee, query string) bool {
	for _, field := range []string{e.Name, e.Title, e.Department, e.Email} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
