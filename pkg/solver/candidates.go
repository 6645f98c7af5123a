package solver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/feedsolve/pkg/config"
	"github.com/matzehuels/feedsolve/pkg/distro"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/observability"
	"github.com/matzehuels/feedsolve/pkg/store"
)

// Reason explains why a candidate cannot be selected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonIncompatibleOS
	ReasonIncompatibleCPU
	ReasonSourceMismatch
	ReasonVersionExcluded
	ReasonBuggy
	ReasonInsecure
	ReasonOfflineUncached
	ReasonDistributionNotAllowed
	ReasonInvalidIdentity

	// Assigned during search rather than by the candidate provider.
	ReasonRestricted
	ReasonMissingCommand
	ReasonDependencyFailed
)

var reasonText = map[Reason]string{
	ReasonNone:                   "usable",
	ReasonIncompatibleOS:         "incompatible OS",
	ReasonIncompatibleCPU:        "incompatible CPU",
	ReasonSourceMismatch:         "source/binary mismatch",
	ReasonVersionExcluded:        "version excluded by requirements",
	ReasonBuggy:                  "marked buggy",
	ReasonInsecure:               "marked insecure",
	ReasonOfflineUncached:        "not cached and network use is offline",
	ReasonDistributionNotAllowed: "distribution not allowed",
	ReasonInvalidIdentity:        "no valid identity",
	ReasonRestricted:             "excluded by a restriction",
	ReasonMissingCommand:         "missing required command",
	ReasonDependencyFailed:       "dependencies cannot be satisfied",
}

func (r Reason) String() string { return reasonText[r] }

// Candidate is one implementation considered for an interface.
type Candidate struct {
	Impl *model.Implementation
	// Reason is ReasonNone for suitable candidates.
	Reason Reason
	// Stability is the effective rating after user overrides.
	Stability model.Stability
	Cached    bool
}

// Suitable reports whether the candidate passed filtering.
func (c *Candidate) Suitable() bool { return c.Reason == ReasonNone }

// policy holds the inputs of candidate filtering and ranking for one solve.
type policy struct {
	req model.Requirements
	// arch is the target platform for dependencies; the root may instead
	// be solved for source (see archFor).
	arch            model.Architecture
	network         feed.NetworkUse
	helpWithTesting bool
	prefs           config.Preferences
}

// candidateProvider produces ranked candidates per interface and memoizes
// them for the lifetime of one solve.
type candidateProvider struct {
	feeds  feed.Provider
	distro distro.Manager
	store  store.Store
	policy policy
	logger *log.Logger

	memo map[string]*candidateSet
}

type candidateSet struct {
	list []*Candidate
	err  error
}

func newCandidateProvider(feeds feed.Provider, pm distro.Manager, st store.Store, p policy, logger *log.Logger) *candidateProvider {
	return &candidateProvider{
		feeds:  feeds,
		distro: pm,
		store:  st,
		policy: p,
		logger: logger,
		memo:   make(map[string]*candidateSet),
	}
}

// get returns the ranked candidates for uri, suitable ones first.
func (p *candidateProvider) get(ctx context.Context, uri string) ([]*Candidate, error) {
	if set, ok := p.memo[uri]; ok {
		return set.list, set.err
	}
	list, err := p.load(ctx, uri)
	if err == nil || ctx.Err() == nil {
		p.memo[uri] = &candidateSet{list: list, err: err}
	}
	if err == nil {
		suitable := 0
		for _, c := range list {
			if c.Suitable() {
				suitable++
			}
		}
		observability.Solver().OnCandidates(ctx, uri, len(list), suitable)
	}
	return list, err
}

func (p *candidateProvider) load(ctx context.Context, uri string) ([]*Candidate, error) {
	impls, err := p.implementations(ctx, uri)
	if err != nil {
		return nil, err
	}
	list := make([]*Candidate, 0, len(impls))
	for _, impl := range impls {
		list = append(list, p.assess(impl))
	}
	slices.SortStableFunc(list, p.compare)
	return list, nil
}

// implementations gathers the implementations of uri from its main feed,
// matching supplementary feeds, user-registered feeds and native packages.
// Duplicate IDs keep the first occurrence.
func (p *candidateProvider) implementations(ctx context.Context, uri string) ([]*model.Implementation, error) {
	main, err := p.feeds.GetFeed(ctx, uri)
	if err != nil {
		return nil, err
	}

	feeds := []*model.Feed{main}
	for _, ref := range main.Feeds {
		if !p.refMatches(uri, ref) {
			continue
		}
		f, err := p.extraFeed(ctx, uri, ref.Source, false)
		if err != nil {
			return nil, err
		}
		if f != nil {
			feeds = append(feeds, f)
		}
	}
	for _, src := range p.policy.prefs.ExtraFeeds(uri) {
		f, err := p.extraFeed(ctx, uri, src, true)
		if err != nil {
			return nil, err
		}
		if f != nil {
			feeds = append(feeds, f)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*model.Implementation
	add := func(impl *model.Implementation) {
		if seen[impl.ID] {
			return
		}
		seen[impl.ID] = true
		out = append(out, impl)
	}
	for _, f := range feeds {
		for _, impl := range f.Implementations {
			c := *impl
			c.InterfaceURI = uri
			add(&c)
		}
		for _, pkg := range f.PackageImplementations {
			impls, err := p.packages(ctx, uri, f.URI, pkg)
			if err != nil {
				return nil, err
			}
			for _, impl := range impls {
				add(impl)
			}
		}
	}
	return out, nil
}

// extraFeed loads a supplementary feed of uri. A user-registered feed that
// declares feed-for other interfaces is skipped with a warning.
func (p *candidateProvider) extraFeed(ctx context.Context, uri, src string, userRegistered bool) (*model.Feed, error) {
	if src == uri {
		return nil, nil
	}
	f, err := p.feeds.GetFeed(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", src, err)
	}
	if userRegistered && len(f.FeedFor) > 0 && !slices.Contains(f.FeedFor, uri) {
		p.logger.Warn("feed does not declare feed-for this interface", "interface", uri, "feed", src)
		return nil, nil
	}
	return f, nil
}

// archFor returns the platform candidates of uri must run on.
func (p policy) archFor(uri string) model.Architecture {
	if uri == p.req.InterfaceURI && p.req.Source {
		return model.Architecture{OS: p.arch.OS, CPU: model.CPUSource}
	}
	return p.arch
}

func (p *candidateProvider) refMatches(uri string, ref model.FeedReference) bool {
	arch := p.policy.archFor(uri)
	if ref.Architecture.OS != "" && !ref.Architecture.OS.RunsOn(arch.OS) {
		return false
	}
	if ref.Architecture.CPU != "" && ref.Architecture.CPU != model.CPUAll && !ref.Architecture.CPU.RunsOn(arch.CPU) {
		return false
	}
	if len(ref.Langs) == 0 || len(p.policy.req.Languages) == 0 {
		return true
	}
	return langScore(ref.Langs, p.policy.req.Languages) > 1
}

func (p *candidateProvider) packages(ctx context.Context, uri, feedURI string, pkg model.PackageImplementation) ([]*model.Implementation, error) {
	if p.distro == nil {
		return nil, nil
	}
	found, err := distro.QueryAllowed(ctx, p.distro, pkg.Package, p.policy.req.Distributions)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", pkg.Package, err)
	}
	var out []*model.Implementation
	for _, impl := range found {
		if !pkg.MatchesDistribution(impl.Distribution) {
			continue
		}
		c := *impl
		c.InterfaceURI = uri
		c.FromFeed = feedURI
		c.Commands = append(slices.Clone(pkg.Commands), c.Commands...)
		c.Dependencies = append(slices.Clone(pkg.Dependencies), c.Dependencies...)
		c.Restrictions = append(slices.Clone(pkg.Restrictions), c.Restrictions...)
		c.Bindings = append(slices.Clone(pkg.Bindings), c.Bindings...)
		if c.Stability == model.StabilityUnset {
			c.Stability = model.StabilityPackaged
		}
		out = append(out, &c)
	}
	return out, nil
}

func (p *candidateProvider) assess(impl *model.Implementation) *Candidate {
	c := &Candidate{Impl: impl, Stability: impl.Stability, Cached: p.isCached(impl)}
	if s := p.policy.prefs.UserStability(impl.ID); s != model.StabilityUnset {
		c.Stability = s
	}
	c.Reason = p.reason(c)
	return c
}

func (p *candidateProvider) reason(c *Candidate) Reason {
	impl := c.Impl
	req := p.policy.req
	arch := p.policy.archFor(impl.InterfaceURI)

	switch {
	case impl.Identity() == model.IdentityNone:
		return ReasonInvalidIdentity
	case (impl.Architecture.CPU == model.CPUSource) != (arch.CPU == model.CPUSource):
		return ReasonSourceMismatch
	case !impl.Architecture.OS.RunsOn(arch.OS):
		return ReasonIncompatibleOS
	case !impl.Architecture.CPU.RunsOn(arch.CPU):
		return ReasonIncompatibleCPU
	case !req.Restriction(impl.InterfaceURI).Contains(impl.Version):
		return ReasonVersionExcluded
	case len(req.Distributions) > 0 && !slices.Contains(req.Distributions, impl.DistributionName()):
		return ReasonDistributionNotAllowed
	case c.Stability == model.StabilityBuggy:
		return ReasonBuggy
	case c.Stability == model.StabilityInsecure:
		return ReasonInsecure
	case p.policy.network == feed.NetworkOffline && !c.Cached:
		return ReasonOfflineUncached
	}
	return ReasonNone
}

func (p *candidateProvider) isCached(impl *model.Implementation) bool {
	switch impl.Identity() {
	case model.IdentityLocalPath:
		return true
	case model.IdentityPackage:
		return impl.Installed
	case model.IdentityDigest:
		return p.store != nil && p.store.Contains(impl.Digest)
	}
	return false
}

// stabilityPolicy is the rating at or above which candidates of uri are
// considered equally good.
func (p *candidateProvider) stabilityPolicy(uri string) model.Stability {
	if s := p.policy.prefs.StabilityPolicy(uri); s != model.StabilityUnset {
		return s
	}
	if p.policy.helpWithTesting {
		return model.StabilityTesting
	}
	return model.StabilityStable
}

// compare orders candidates most preferable first.
func (p *candidateProvider) compare(a, b *Candidate) int {
	if d := cmpBool(a.Suitable(), b.Suitable()); d != 0 {
		return d
	}
	if d := cmpBool(a.Stability == model.StabilityPreferred, b.Stability == model.StabilityPreferred); d != 0 {
		return d
	}
	if langs := p.policy.req.Languages; len(langs) > 0 {
		if d := langScore(b.Impl.Langs, langs) - langScore(a.Impl.Langs, langs); d != 0 {
			return d
		}
	}
	if d := cmpBool(a.Cached, b.Cached); d != 0 {
		return d
	}
	policy := p.stabilityPolicy(a.Impl.InterfaceURI)
	if d := int(min(b.Stability, policy)) - int(min(a.Stability, policy)); d != 0 {
		return d
	}
	if d := b.Impl.Version.Compare(a.Impl.Version); d != 0 {
		return d
	}
	if d := cmpBool(a.Impl.IsPackage() && a.Impl.Installed, b.Impl.IsPackage() && b.Impl.Installed); d != 0 {
		return d
	}
	return p.archDistance(a.Impl) - p.archDistance(b.Impl)
}

func (p *candidateProvider) archDistance(impl *model.Implementation) int {
	arch := p.policy.archFor(impl.InterfaceURI)
	return max(impl.Architecture.OS.Distance(arch.OS), 0) +
		max(impl.Architecture.CPU.Distance(arch.CPU), 0)
}

// cmpBool sorts true before false.
func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	}
	return 1
}

// langScore rates how well langs matches the wanted languages: 2 for a
// match (exact or by language prefix, so "en" matches "en_GB"), 1 when no
// languages are declared and 0 otherwise.
func langScore(langs, wanted []string) int {
	if len(langs) == 0 {
		return 1
	}
	for _, l := range langs {
		for _, w := range wanted {
			if strings.EqualFold(l, w) || langBase(l) == langBase(w) {
				return 2
			}
		}
	}
	return 0
}

func langBase(lang string) string {
	base, _, _ := strings.Cut(strings.ToLower(lang), "_")
	return base
}
