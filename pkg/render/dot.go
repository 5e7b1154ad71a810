package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/dbauto/orgchart/pkg/org"
)

// DOTOptions configures DOT generation.
type DOTOptions struct {
	// Detailed includes title and department in node labels.
	// When false, only the employee name is shown.
	Detailed bool

	// LeftToRight lays the chart out horizontally.
	LeftToRight bool
}

// ToDOT converts an organization tree to Graphviz DOT format. The
// resulting DOT string can be rendered with [SVGFromDOT] when the
// hand-drawn chart renderer is not wanted, e.g. for quick CLI previews.
func ToDOT(root *org.Node, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph orgchart {\n")
	if opts.LeftToRight {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if root != nil {
		seen := make(map[string]bool)
		writeDOTNodes(&buf, root, opts, seen)
		buf.WriteString("\n")
		seen = make(map[string]bool)
		writeDOTEdges(&buf, root, seen)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeDOTNodes(buf *bytes.Buffer, n *org.Node, opts DOTOptions, seen map[string]bool) {
	if n == nil || seen[n.ID] {
		return
	}
	seen[n.ID] = true
	fmt.Fprintf(buf, "  %q [label=%q];\n", n.ID, dotLabel(n, opts.Detailed))
	for _, c := range n.Children {
		writeDOTNodes(buf, c, opts, seen)
	}
}

func writeDOTEdges(buf *bytes.Buffer, n *org.Node, seen map[string]bool) {
	if n == nil || seen[n.ID] {
		return
	}
	seen[n.ID] = true
	for _, c := range n.Children {
		fmt.Fprintf(buf, "  %q -> %q;\n", n.ID, c.ID)
		writeDOTEdges(buf, c, seen)
	}
}

func dotLabel(n *org.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	label := n.Name
	if n.Title != "" {
		label += "\n" + n.Title
	}
	if n.Department != "" {
		label += "\n" + n.Department
	}
	return label
}

// SVGFromDOT renders a DOT graph to SVG using Graphviz.
func SVGFromDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg tag so the document scales
// cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
