package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/feedsolve/pkg/config"
	"github.com/matzehuels/feedsolve/pkg/distro"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/observability"
	"github.com/matzehuels/feedsolve/pkg/selection"
	"github.com/matzehuels/feedsolve/pkg/store"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Engine is anything that can attempt a solve.
type Engine interface {
	TrySolve(ctx context.Context, req model.Requirements) (*Result, error)
}

// Options configures a Solver. All fields are optional.
type Options struct {
	// Store reports which implementations are cached.
	Store store.Store
	// Distro provides native package candidates.
	Distro distro.Manager
	// Config supplies network policy, help-with-testing and preferences.
	// Nil uses config.Default().
	Config *config.Config
	// Host is the platform to solve for; zero uses model.Host().
	Host model.Architecture
	// MaxBacktracks bounds the search; 0 means unlimited.
	MaxBacktracks int
	Logger        *log.Logger
}

// Result is the outcome of TrySolve. Exactly one of Selections and Failure
// is set.
type Result struct {
	Selections *selection.Selections
	Failure    *Failure
	// Omitted lists recommended dependencies left unsatisfied.
	Omitted    []Omission
	Backtracks int
}

// Solved reports whether a selection was found.
func (r *Result) Solved() bool { return r.Selections != nil }

// Solver selects one implementation per interface by backtracking search.
// A Solver holds no per-solve state and may be used concurrently; each
// solve builds its own candidate memo and graph.
type Solver struct {
	feeds  feed.Provider
	opts   Options
	cfg    config.Config
	logger *log.Logger
}

// New creates a Solver reading feeds from feeds.
func New(feeds feed.Provider, opts Options) *Solver {
	s := &Solver{feeds: feeds, opts: opts, logger: opts.Logger}
	if opts.Config != nil {
		s.cfg = *opts.Config
	} else {
		s.cfg = config.Default()
	}
	if s.opts.Host == (model.Architecture{}) {
		s.opts.Host = model.Host()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Solve is TrySolve returning a NO_SOLUTION error (wrapping *Failure)
// instead of a failed Result.
func (s *Solver) Solve(ctx context.Context, req model.Requirements) (*selection.Selections, error) {
	res, err := s.TrySolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Solved() {
		return nil, errs.Wrap(errs.ErrCodeNoSolution, res.Failure, "cannot select %s", req.InterfaceURI)
	}
	return res.Selections, nil
}

// TrySolve searches for a consistent selection for req. A missing solution
// is reported in Result.Failure with a nil error. Errors are returned for
// invalid requirements, for feed failures on essential dependencies and
// for cancellation (wrapping the context error).
func (s *Solver) TrySolve(ctx context.Context, req model.Requirements) (res *Result, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Solver()
	hooks.OnSolveStart(ctx, req.InterfaceURI)
	defer func() {
		stats := observability.SolveStats{Outcome: outcome(res, err)}
		if res != nil {
			stats.Backtracks = res.Backtracks
			stats.Omitted = len(res.Omitted)
			if res.Selections != nil {
				stats.Selected = len(res.Selections.Implementations)
			}
		}
		hooks.OnSolveComplete(ctx, req.InterfaceURI, stats, time.Since(start), err)
	}()

	pol := s.policy(req)
	sr := &search{
		ctx:      ctx,
		provider: newCandidateProvider(s.feeds, s.opts.Distro, s.opts.Store, pol, s.logger),
		graph:    newGraph(),
		diag:     newDiagnostics(),
		logger:   s.logger,
		limit:    s.opts.MaxBacktracks,
		os:       pol.arch.OS,
	}

	command := req.EffectiveCommand()
	root := demand{uri: req.InterfaceURI, command: command, versions: version.Any(), essential: true}
	ok := sr.run([]demand{root})

	if sr.err != nil {
		if errors.Is(sr.err, context.Canceled) || errors.Is(sr.err, context.DeadlineExceeded) {
			return nil, errs.Wrap(errs.ErrCodeCanceled, sr.err, "solve %s canceled", req.InterfaceURI)
		}
		return nil, sr.err
	}

	res = &Result{Backtracks: sr.backtracks}
	if !ok {
		res.Failure = sr.diag.failure(req.InterfaceURI, sr.gaveUp)
		s.logger.Debug("no solution", "interface", req.InterfaceURI, "backtracks", sr.backtracks)
		return res, nil
	}

	sels := selection.New(req.InterfaceURI, command)
	sels.Source = req.Source
	for _, uri := range sr.graph.selections() {
		n := sr.graph.get(uri)
		sels.Add(selection.FromImplementation(n.candidate.Impl, n.commands...))
	}
	res.Selections = sels
	res.Omitted = slices.Clone(sr.graph.omissions)
	s.logger.Debug("solved", "interface", req.InterfaceURI,
		"selected", len(sels.Implementations), "backtracks", sr.backtracks)
	return res, nil
}

// Candidates returns every implementation considered for uri under req,
// ranked best first with unsuitable ones last. It does not search, so a
// suitable candidate here may still be rejected by a dependency conflict.
func (s *Solver) Candidates(ctx context.Context, req model.Requirements, uri string) ([]*Candidate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if uri == "" {
		uri = req.InterfaceURI
	}
	p := newCandidateProvider(s.feeds, s.opts.Distro, s.opts.Store, s.policy(req), s.logger)
	list, err := p.get(ctx, uri)
	if err != nil && ctx.Err() != nil {
		return nil, errs.Wrap(errs.ErrCodeCanceled, ctx.Err(), "list candidates for %s", uri)
	}
	return list, err
}

func (s *Solver) policy(req model.Requirements) policy {
	pol := policy{
		req:             req,
		arch:            model.Requirements{Architecture: req.Architecture}.ForHost(s.opts.Host),
		network:         s.cfg.NetworkUse,
		helpWithTesting: s.cfg.HelpWithTesting,
		prefs:           s.cfg.Preferences,
	}
	if pol.network == "" {
		pol.network = feed.NetworkFull
	}
	// Dependencies of a source build run on the host; archFor keeps src
	// for the root only.
	if pol.arch.CPU == model.CPUSource {
		pol.arch.CPU = s.opts.Host.CPU
	}
	return pol
}

func outcome(res *Result, err error) string {
	switch {
	case errs.Is(err, errs.ErrCodeCanceled):
		return "canceled"
	case err != nil:
		return "error"
	case res != nil && res.Solved():
		return "solved"
	}
	return "no_solution"
}

type demandKind int

const (
	demandInterface demandKind = iota
	// demandCommit marks the end of an implementation's dependencies.
	demandCommit
)

// demand asks for an interface to be selected.
type demand struct {
	kind      demandKind
	uri       string
	command   string
	versions  version.Range
	essential bool
	// from is the ID of the implementation that declared the demand;
	// empty for the root.
	from string
}

// search is the state of one solve. Demands form an explicit stack of
// pending work; choosing a candidate pushes its dependencies on top so
// that they are satisfied before later siblings, and a failure anywhere
// further along backtracks into the latest choice.
type search struct {
	ctx      context.Context
	provider *candidateProvider
	graph    *graph
	diag     *diagnostics
	logger   *log.Logger
	os       model.OS

	limit      int
	backtracks int
	gaveUp     bool
	err        error
}

func (s *search) halted() bool { return s.err != nil || s.gaveUp }

// run satisfies every demand on stack, top (last) first.
func (s *search) run(stack []demand) bool {
	if s.halted() {
		return false
	}
	if len(stack) == 0 {
		return true
	}
	top := len(stack) - 1
	d := stack[top]
	rest := stack[:top:top]

	if d.kind == demandCommit {
		s.graph.commit(d.uri)
		return s.run(rest)
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if n := s.graph.get(d.uri); n.selected() {
		return s.reuse(d, n, rest)
	}
	return s.explore(d, rest)
}

// explore tries the candidates of an unselected interface in rank order.
func (s *search) explore(d demand, rest []demand) bool {
	cands, err := s.provider.get(s.ctx, d.uri)
	if err != nil {
		if s.ctx.Err() != nil {
			s.err = s.ctx.Err()
			return false
		}
		s.diag.feedError(d.uri, err)
		if !d.essential {
			return s.omit(d, rest, "feed unavailable: "+err.Error())
		}
		s.err = err
		return false
	}
	s.diag.visit(d.uri, len(cands))

	n := s.graph.get(d.uri)
	for _, c := range cands {
		if reason, detail := s.check(d, n, c); reason != ReasonNone {
			s.diag.reject(d.uri, c, reason, detail)
			continue
		}

		m := s.graph.mark()
		s.logger.Debug("attempt", "interface", d.uri, "version", c.Impl.Version, "id", c.Impl.ID)
		next, conflict := s.choose(d, c)
		if conflict == "" && s.run(append(rest, next...)) {
			return true
		}
		if s.halted() {
			return false
		}
		s.graph.rollback(m)
		s.backtracks++
		if conflict != "" {
			s.logger.Debug("conflict", "interface", d.uri, "id", c.Impl.ID, "detail", conflict)
			s.diag.reject(d.uri, c, ReasonRestricted, conflict)
		} else {
			s.logger.Debug("backtrack", "interface", d.uri, "id", c.Impl.ID)
			s.diag.reject(d.uri, c, ReasonDependencyFailed, "")
		}
		if s.limit > 0 && s.backtracks >= s.limit {
			s.gaveUp = true
			return false
		}
	}

	s.diag.exhaust(d.uri)
	if !d.essential {
		return s.omit(d, rest, "no usable implementation")
	}
	s.graph.fail(d.uri)
	return false
}

// check applies the demand's own requirements and the restrictions
// collected so far to a candidate.
func (s *search) check(d demand, n node, c *Candidate) (Reason, string) {
	if !c.Suitable() {
		return c.Reason, ""
	}
	if !d.versions.Contains(c.Impl.Version) {
		return ReasonRestricted, fmt.Sprintf("%s requires version %s", requester(d.from), d.versions)
	}
	if e, ok := n.allows(c.Impl); !ok {
		return ReasonRestricted, describe(e)
	}
	if d.command != "" && c.Impl.Command(d.command) == nil {
		return ReasonMissingCommand, d.command
	}
	return ReasonNone, ""
}

// reuse satisfies a demand for an interface that is already selected.
// Revisiting a tentative node (a dependency cycle) is treated as satisfied.
func (s *search) reuse(d demand, n node, rest []demand) bool {
	impl := n.candidate.Impl
	if !d.versions.Contains(impl.Version) {
		if !d.essential {
			return s.omit(d, rest, fmt.Sprintf("selected version %s is outside %s", impl.Version, d.versions))
		}
		return false
	}
	if d.command == "" || n.hasCommand(d.command) {
		if !d.essential && !d.versions.IsAny() {
			s.graph.restrict(d.uri, edge{Restriction: model.Restriction{InterfaceURI: d.uri, Versions: d.versions}, from: d.from})
		}
		return s.run(rest)
	}

	cmd := impl.Command(d.command)
	if cmd == nil {
		if !d.essential {
			return s.omit(d, rest, "selected implementation has no command "+d.command)
		}
		s.diag.reject(d.uri, n.candidate, ReasonMissingCommand, d.command)
		return false
	}
	m := s.graph.mark()
	s.graph.addCommand(d.uri, d.command)
	next, conflict := s.commandDemands(impl, cmd)
	if conflict == "" && s.run(append(rest, reversed(next)...)) {
		return true
	}
	if s.halted() || d.essential {
		return false
	}
	s.graph.rollback(m)
	return s.omit(d, rest, "command "+d.command+" cannot be satisfied")
}

// omit skips a recommended demand and continues with the rest.
func (s *search) omit(d demand, rest []demand, reason string) bool {
	s.logger.Debug("omit", "interface", d.uri, "from", d.from, "reason", reason)
	s.graph.omit(Omission{InterfaceURI: d.uri, RequiredBy: d.from, Reason: reason})
	return s.run(rest)
}

// choose selects c for d's interface and returns the demands to push, or
// a description of the restriction it conflicts with.
func (s *search) choose(d demand, c *Candidate) ([]demand, string) {
	impl := c.Impl
	s.graph.choose(d.uri, c)
	if !d.essential && !d.versions.IsAny() {
		s.graph.restrict(d.uri, edge{Restriction: model.Restriction{InterfaceURI: d.uri, Versions: d.versions}, from: d.from})
	}

	demands, conflict := s.requirements(impl.ID, impl.Dependencies, impl.Restrictions)
	if conflict != "" {
		return nil, conflict
	}
	if d.command != "" {
		s.graph.addCommand(d.uri, d.command)
		more, conflict := s.commandDemands(impl, impl.Command(d.command))
		if conflict != "" {
			return nil, conflict
		}
		demands = append(demands, more...)
	}

	next := []demand{{kind: demandCommit, uri: d.uri}}
	return append(next, reversed(demands)...), ""
}

// commandDemands returns the demands of a command: its dependencies first,
// then its runner.
func (s *search) commandDemands(impl *model.Implementation, cmd *model.Command) ([]demand, string) {
	demands, conflict := s.requirements(impl.ID, cmd.Dependencies, cmd.Restrictions)
	if conflict != "" {
		return nil, conflict
	}
	if cmd.Runner != nil {
		more, conflict := s.dependency(impl.ID, cmd.Runner.Dependency, []string{cmd.Runner.CommandName()})
		if conflict != "" {
			return nil, conflict
		}
		demands = append(demands, more...)
	}
	return demands, ""
}

// requirements records restrictions and turns dependencies into demands
// in declaration order.
func (s *search) requirements(from string, deps []model.Dependency, restrictions []model.Restriction) ([]demand, string) {
	for _, r := range restrictions {
		e := edge{Restriction: r, from: from}
		if !s.graph.restrict(r.InterfaceURI, e) {
			return nil, describe(e)
		}
	}
	var demands []demand
	for _, dep := range deps {
		if !dep.AppliesTo(s.os) {
			continue
		}
		more, conflict := s.dependency(from, dep, executableCommands(dep))
		if conflict != "" {
			return nil, conflict
		}
		demands = append(demands, more...)
	}
	return demands, ""
}

func (s *search) dependency(from string, dep model.Dependency, commands []string) ([]demand, string) {
	if dep.IsEssential() && !dep.Versions.IsAny() {
		e := edge{Restriction: model.Restriction{InterfaceURI: dep.InterfaceURI, Versions: dep.Versions}, from: from}
		if !s.graph.restrict(dep.InterfaceURI, e) {
			return nil, describe(e)
		}
	}
	if len(commands) == 0 {
		commands = []string{""}
	}
	demands := make([]demand, 0, len(commands))
	for _, cmd := range commands {
		demands = append(demands, demand{
			uri:       dep.InterfaceURI,
			command:   cmd,
			versions:  dep.Versions,
			essential: dep.IsEssential(),
			from:      from,
		})
	}
	return demands, ""
}

// executableCommands lists the commands a dependency's executable bindings
// need on the target.
func executableCommands(dep model.Dependency) []string {
	var out []string
	for _, b := range dep.Bindings {
		if b.Kind != model.BindExecutableInVar && b.Kind != model.BindExecutableInPath {
			continue
		}
		name := b.Command
		if name == "" {
			name = model.CommandRun
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func reversed(ds []demand) []demand {
	out := slices.Clone(ds)
	slices.Reverse(out)
	return out
}

func requester(id string) string {
	if id == "" {
		return "the requirements"
	}
	return id
}

func describe(e edge) string {
	msg := fmt.Sprintf("%s restricts %s to %s", requester(e.from), e.InterfaceURI, e.Versions)
	if len(e.Distributions) > 0 {
		msg += fmt.Sprintf(" (distributions %v)", e.Distributions)
	}
	return msg
}
