// Package pkg provides the core libraries for the orgchart application.
//
// # Overview
//
// Orgchart mirrors a company directory into an interactive reporting
// chart. The pkg directory is organized by concern:
//
//  1. [org] - Domain model (employees, filtering, hierarchy, search)
//  2. [directory] - Identity provider graph API client
//  3. [layout] - Tidy-tree layout engine with overflow packing
//  4. [render] - SVG, DOT, and PNG artifact rendering
//  5. [report] - Staffing reports and spreadsheet export
//  6. [store], [cache] - Snapshot persistence and artifact caching
//  7. [pipeline] - Orchestration (fetch → filter → layout → render)
//
// # Architecture
//
// The typical data flow:
//
//	Identity Provider
//	         ↓  directory.Client.Users
//	[]org.Employee
//	         ↓  org.ApplyFilters, org.BuildHierarchy
//	*org.Node (reporting tree)
//	         ↓  layout.Session.Compute
//	layout.Result (positioned boxes and connectors)
//	         ↓  render.RenderSVG / render.ToDOT / render.ToPNG
//	artifacts
//
// The pipeline package drives this flow end to end, caching the layout
// and rendered artifacts keyed by content hashes so unchanged snapshots
// never recompute. The internal/server package serves the same pipeline
// over HTTP; internal/cli exposes it on the command line.
package pkg
