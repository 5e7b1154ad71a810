// Package render turns computed chart layouts into visual outputs.
//
// # Chart SVG
//
// [RenderSVG] draws a [layout.Result] as a standalone SVG document: cards
// colored by depth, elbow and bus connectors, collapsed-subtree badges.
// It is pure string assembly with no external dependencies and is the
// format every other output derives from.
//
//	res := session.ComputeExport(layout.ExportOptions{IncludeCollapsed: true})
//	svg := render.RenderSVG(res, render.WithTitle("Acme Corp"))
//
// # PNG
//
// [ToPNG] rasterizes any SVG with a headless browser, so the PNG pixels
// match what the browser shows. A Chrome or Chromium binary must be on
// PATH.
//
// # Node-link diagrams
//
// [ToDOT] and [SVGFromDOT] produce a plain Graphviz rendering of the
// reporting tree, useful for quick CLI previews where the full chart
// style is overkill.
package render
