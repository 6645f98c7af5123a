package render

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/selection"
)

// Options configures graph rendering.
type Options struct {
	// Detailed adds the implementation ID, stability, architecture and
	// source to node labels. When false, only name and version are shown.
	Detailed bool
}

// ToDOT converts sels to Graphviz DOT. Nodes appear in selection order and
// edges in declaration order, so equal documents give identical output.
func ToDOT(sels *selection.Selections, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	missing := make(map[string]bool)
	var missingOrder []string
	var edges []string
	addEdge := func(from, to string, attrs ...string) {
		if !sels.Contains(to) && !missing[to] {
			missing[to] = true
			missingOrder = append(missingOrder, to)
		}
		line := fmt.Sprintf("  %q -> %q", from, to)
		if len(attrs) > 0 {
			line += " [" + strings.Join(attrs, ", ") + "]"
		}
		edges = append(edges, line+";\n")
	}

	for _, sel := range sels.Implementations {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(sel, opts.Detailed))}
		if sel.InterfaceURI == sels.InterfaceURI {
			attrs = append(attrs, "penwidth=2")
		}
		if sel.IsPackage() {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", sel.InterfaceURI, strings.Join(attrs, ", "))

		for _, dep := range sel.Dependencies {
			addEdge(sel.InterfaceURI, dep.InterfaceURI, depAttrs(dep)...)
		}
		for _, cmd := range sel.Commands {
			for _, dep := range cmd.Dependencies {
				addEdge(sel.InterfaceURI, dep.InterfaceURI, depAttrs(dep)...)
			}
			if cmd.Runner != nil {
				addEdge(sel.InterfaceURI, cmd.Runner.InterfaceURI, "style=bold", fmt.Sprintf("label=%q", "runs "+cmd.Name))
			}
		}
	}
	for _, uri := range missingOrder {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey, fontcolor=black];\n",
			uri, shortName(uri)+"\n(not selected)")
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func depAttrs(dep model.Dependency) []string {
	var attrs []string
	if !dep.IsEssential() {
		attrs = append(attrs, "style=dashed")
	}
	if !dep.Versions.IsAny() {
		attrs = append(attrs, fmt.Sprintf("label=%q", dep.Versions.String()))
	}
	return attrs
}

func fmtLabel(sel *selection.Selection, detailed bool) string {
	label := shortName(sel.InterfaceURI) + " " + sel.Version.String()
	if !detailed {
		return label
	}
	parts := []string{
		"id: " + sel.ID,
		"stability: " + sel.Stability.String(),
		"arch: " + sel.Architecture.String(),
	}
	if src := Source(sel); src != "" {
		parts = append(parts, "source: "+src)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// shortName derives a display name from a feed URI: the last path element
// without its ".xml" suffix.
func shortName(uri string) string {
	name := path.Base(strings.TrimSuffix(uri, "/"))
	name = strings.TrimSuffix(name, ".xml")
	if name == "" || name == "." || name == "/" {
		return uri
	}
	return name
}

// Source describes where a selection's files come from: the distribution
// for native packages, the directory for local implementations and the
// strongest digest otherwise.
func Source(sel *selection.Selection) string {
	switch sel.Identity() {
	case model.IdentityPackage:
		return sel.Distribution + " package " + sel.Package
	case model.IdentityLocalPath:
		return sel.LocalPath
	case model.IdentityDigest:
		return sel.Digest.Best()
	}
	return ""
}

// RenderSVG lays out a DOT graph with Graphviz and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "render SVG")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from
// the origin with explicit pixel dimensions.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
