package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dbauto/orgchart/pkg/layout"
)

const cardInteractionCSS = `
    .card { transition: filter 0.15s ease; }
    .card:hover { filter: brightness(1.08); }
    .card-text { pointer-events: none; }`

// DefaultPalette colors cards by depth, cycling when the tree is deeper
// than the palette.
var DefaultPalette = []string{
	"#4f46e5", "#0d9488", "#d97706", "#9333ea", "#475569", "#b91c1c",
}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	palette         []string
	background      string
	fontFamily      string
	padding         float64
	showTitles      bool
	showDepartments bool
	interactive     bool
	title           string
}

func WithPalette(colors []string) SVGOption {
	return func(r *svgRenderer) {
		if len(colors) > 0 {
			r.palette = colors
		}
	}
}
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.fontFamily = f } }

func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

func WithoutTitles() SVGOption { return func(r *svgRenderer) { r.showTitles = false } }

func WithDepartments() SVGOption { return func(r *svgRenderer) { r.showDepartments = true } }

func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// RenderSVG draws a computed layout as a standalone SVG document. Cards are
// colored by depth, connectors drawn underneath, collapsed cards annotated
// with their hidden headcount.
func RenderSVG(res layout.Result, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	b := res.Bounds
	titlePad := 0.0
	if r.title != "" {
		titlePad = 40
	}
	minX := b.MinX - r.padding
	minY := b.MinY - r.padding - titlePad
	w := b.Width() + 2*r.padding
	h := b.Height() + 2*r.padding + titlePad
	if len(res.Nodes) == 0 {
		minX, minY, w, h = 0, 0, 1, 1
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX, minY, w, h, w, h)

	if r.interactive {
		fmt.Fprintf(&buf, "<style>%s</style>\n", cardInteractionCSS)
	}
	if r.background != "" {
		fmt.Fprintf(&buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q/>`+"\n",
			minX, minY, w, h, r.background)
	}
	if r.title != "" {
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-family=%q font-size="24" font-weight="bold" fill="#1e293b">%s</text>`+"\n",
			b.MinX, b.MinY-r.padding/2-10, r.fontFamily, escape(r.title))
	}

	for _, c := range res.Connectors {
		r.renderConnector(&buf, c)
	}
	for _, n := range res.Nodes {
		r.renderCard(&buf, n)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		palette:    DefaultPalette,
		fontFamily: "Helvetica, Arial, sans-serif",
		padding:    24,
		showTitles: true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *svgRenderer) renderConnector(buf *bytes.Buffer, c layout.Connector) {
	for _, line := range c.Lines {
		pts := make([]string, len(line))
		for i, p := range line {
			pts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
		}
		fmt.Fprintf(buf, `<polyline points="%s" fill="none" stroke="#94a3b8" stroke-width="1.5"/>`+"\n",
			strings.Join(pts, " "))
	}
}

func (r *svgRenderer) renderCard(buf *bytes.Buffer, n layout.Placed) {
	color := r.palette[n.Depth%len(r.palette)]
	x := n.X - n.W/2
	y := n.Y - n.H/2

	fmt.Fprintf(buf, `<g class="card" id="card-%s">`+"\n", escape(n.ID))
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s"/>`+"\n",
		x, y, n.W, n.H, color)

	nameY := n.Y
	if r.showTitles && n.Employee.Title != "" {
		nameY = n.Y - 8
	}
	fmt.Fprintf(buf, `<text class="card-text" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family=%q font-size="13" font-weight="bold" fill="#ffffff">%s</text>`+"\n",
		n.X, nameY, r.fontFamily, escape(truncate(n.Employee.Name, 24)))

	if r.showTitles && n.Employee.Title != "" {
		fmt.Fprintf(buf, `<text class="card-text" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family=%q font-size="11" fill="#e2e8f0">%s</text>`+"\n",
			n.X, n.Y+10, r.fontFamily, escape(truncate(n.Employee.Title, 28)))
	}

	if r.showDepartments && n.Employee.Department != "" {
		fmt.Fprintf(buf, `<text class="card-text" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family=%q font-size="9" fill="#cbd5e1">%s</text>`+"\n",
			n.X, n.Y+24, r.fontFamily, escape(truncate(n.Employee.Department, 30)))
	}

	if n.Collapsed && n.ChildCount > 0 {
		fmt.Fprintf(buf, `<circle cx="%.1f" cy="%.1f" r="10" fill="#ffffff" stroke="%s"/>`+"\n",
			n.X, y+n.H, color)
		fmt.Fprintf(buf, `<text class="card-text" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family=%q font-size="10" fill="#1e293b">+%d</text>`+"\n",
			n.X, y+n.H, r.fontFamily, n.ChildCount)
	}
	buf.WriteString("</g>\n")
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string { return escaper.Replace(s) }

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
