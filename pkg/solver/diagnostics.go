package solver

import (
	"fmt"
	"strings"

	"github.com/matzehuels/feedsolve/pkg/version"
)

// Rejection explains why one candidate was not selected.
type Rejection struct {
	ID      string
	Version version.Version
	Reason  Reason
	// Detail names the restriction or requirement involved, if any.
	Detail string
}

// InterfaceReport lists the candidates of one interface that were rejected.
type InterfaceReport struct {
	InterfaceURI string
	Candidates   int
	Rejected     []Rejection
	// FeedError is set when the interface's feed could not be loaded.
	FeedError string
}

// Failure describes why no selection exists. It implements error so that
// [Solver.Solve] can return it wrapped in a NO_SOLUTION error.
type Failure struct {
	// InterfaceURI is the first interface that ran out of candidates.
	InterfaceURI string
	// Interfaces holds a report per visited interface, in visit order.
	Interfaces []InterfaceReport
	// GaveUp is set when the search hit its backtracking limit.
	GaveUp bool
}

// Report returns the report for uri, or nil.
func (f *Failure) Report(uri string) *InterfaceReport {
	for i := range f.Interfaces {
		if f.Interfaces[i].InterfaceURI == uri {
			return &f.Interfaces[i]
		}
	}
	return nil
}

func (f *Failure) Error() string {
	if f.GaveUp {
		return "search limit reached before a selection was found"
	}
	return "no usable implementation of " + f.InterfaceURI
}

// String renders the failure with every rejected candidate.
func (f *Failure) String() string {
	var b strings.Builder
	b.WriteString(f.Error())
	for _, r := range f.Interfaces {
		if len(r.Rejected) == 0 && r.FeedError == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d candidates)", r.InterfaceURI, r.Candidates)
		if r.FeedError != "" {
			fmt.Fprintf(&b, "\n  feed: %s", r.FeedError)
		}
		for _, rej := range r.Rejected {
			fmt.Fprintf(&b, "\n  %s (%s): %s", rej.Version, rej.ID, rej.Reason)
			if rej.Detail != "" {
				fmt.Fprintf(&b, ": %s", rej.Detail)
			}
		}
	}
	return b.String()
}

// diagnostics accumulates rejections over the whole search. It is not
// rolled back: a reason recorded on an abandoned branch still explains
// why that candidate was given up.
type diagnostics struct {
	order     []string
	reports   map[string]*InterfaceReport
	seen      map[string]map[string]bool
	exhausted string
}

func newDiagnostics() *diagnostics {
	return &diagnostics{
		reports: make(map[string]*InterfaceReport),
		seen:    make(map[string]map[string]bool),
	}
}

func (d *diagnostics) report(uri string) *InterfaceReport {
	r, ok := d.reports[uri]
	if !ok {
		r = &InterfaceReport{InterfaceURI: uri}
		d.reports[uri] = r
		d.seen[uri] = make(map[string]bool)
		d.order = append(d.order, uri)
	}
	return r
}

func (d *diagnostics) visit(uri string, candidates int) {
	d.report(uri).Candidates = candidates
}

func (d *diagnostics) feedError(uri string, err error) {
	d.report(uri).FeedError = err.Error()
}

// reject records the first reason given for each candidate.
func (d *diagnostics) reject(uri string, c *Candidate, reason Reason, detail string) {
	r := d.report(uri)
	if d.seen[uri][c.Impl.ID] {
		return
	}
	d.seen[uri][c.Impl.ID] = true
	r.Rejected = append(r.Rejected, Rejection{
		ID:      c.Impl.ID,
		Version: c.Impl.Version,
		Reason:  reason,
		Detail:  detail,
	})
}

func (d *diagnostics) exhaust(uri string) {
	d.report(uri)
	if d.exhausted == "" {
		d.exhausted = uri
	}
}

func (d *diagnostics) failure(root string, gaveUp bool) *Failure {
	f := &Failure{InterfaceURI: d.exhausted, GaveUp: gaveUp}
	if f.InterfaceURI == "" {
		f.InterfaceURI = root
	}
	for _, uri := range d.order {
		f.Interfaces = append(f.Interfaces, *d.reports[uri])
	}
	return f
}
