// Package render presents selections documents for people and tools.
//
// # Graphs
//
// [ToDOT] converts a [selection.Selections] document into Graphviz DOT,
// one node per interface and one edge per dependency or runner. [RenderSVG]
// lays the DOT out in-process with go-graphviz:
//
//	dot := render.ToDOT(sels, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Interfaces that are depended on but were not selected (recommended
// dependencies the solver had to leave out) are drawn dashed and grey.
//
// # Text
//
// [WriteTree] prints the dependency tree produced by [selection.GetTree]
// with one indented line per interface.
//
// # Summaries
//
// [NewSummary] flattens a selections document into a [Summary] that
// encodes to YAML for scripts and CI logs.
package render
