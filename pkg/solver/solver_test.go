package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/feedsolve/pkg/config"
	"github.com/matzehuels/feedsolve/pkg/distro"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/store"
	"github.com/matzehuels/feedsolve/pkg/version"
)

func TestStabilityPolicy(t *testing.T) {
	provider := func() feed.Provider {
		return feed.NewMemoryProvider(feedOf(appURI,
			impl("1.0", withStability(model.StabilityStable)),
			impl("2.0", withStability(model.StabilityTesting)),
		))
	}

	res, err := newTestSolver(provider(), testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))

	cfg := testConfig()
	cfg.HelpWithTesting = true
	res, err = newTestSolver(provider(), cfg).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "2.0", selectedVersion(t, res, appURI))
}

func TestInterfaceStabilityPolicyOverridesHelpWithTesting(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI,
		impl("1.0"),
		impl("2.0", withStability(model.StabilityTesting)),
	))
	cfg := testConfig()
	cfg.HelpWithTesting = true
	cfg.Interfaces = map[string]config.InterfacePreferences{appURI: {StabilityPolicy: model.StabilityStable}}

	res, err := newTestSolver(p, cfg).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
}

func TestUserPreferredWins(t *testing.T) {
	old := impl("1.0")
	p := feed.NewMemoryProvider(feedOf(appURI, impl("2.0"), old))
	cfg := testConfig()
	cfg.Implementations = map[string]config.ImplementationPreferences{old.ID: {UserStability: model.StabilityPreferred}}

	res, err := newTestSolver(p, cfg).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
}

func TestVersionRangeUnsatisfiable(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, "2.0..!3.0"))),
		feedOf(libURI, impl("1.5"), impl("3.0")),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.False(t, res.Solved())
	require.NotNil(t, res.Failure)
	assert.Equal(t, libURI, res.Failure.InterfaceURI)

	report := res.Failure.Report(libURI)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Candidates)
	require.Len(t, report.Rejected, 2)
	for _, r := range report.Rejected {
		assert.Equal(t, ReasonRestricted, r.Reason)
		assert.Contains(t, r.Detail, "2.0..!3.0")
	}
	assert.Contains(t, res.Failure.String(), libURI)
}

func TestDiamond(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""), requires(utilURI, ""))),
		feedOf(libURI, impl("1.0", requires(baseURI, "1.0..!3.0"))),
		feedOf(utilURI, impl("1.0", requires(baseURI, "2.0..!4.0"))),
		feedOf(baseURI, impl("1.0"), impl("2.0"), impl("3.0"), impl("3.5")),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, "2.0", selectedVersion(t, res, baseURI))
	assert.Equal(t, []string{appURI, libURI, baseURI, utilURI}, res.Selections.URIs())
}

func TestDiamondBacktracksIntoSharedDependency(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""), requires(utilURI, ""))),
		feedOf(libURI, impl("1.0", requires(baseURI, "..!3.0"))),
		feedOf(utilURI, impl("1.0", requires(baseURI, "..!2.0"))),
		feedOf(baseURI, impl("1.0"), impl("2.0"), impl("2.6"), impl("3.0")),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, "1.0", selectedVersion(t, res, baseURI))
	assert.Positive(t, res.Backtracks)
}

func TestDiamondEmptyIntersection(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""), requires(utilURI, ""))),
		feedOf(libURI, impl("1.0", requires(baseURI, "1.0..!2.0"))),
		feedOf(utilURI, impl("1.0", requires(baseURI, "3.0..!4.0"))),
		feedOf(baseURI, impl("1.0"), impl("3.0")),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.False(t, res.Solved())
}

func TestSiblingBacktracking(t *testing.T) {
	// The best lib (2.0) conflicts with util's restriction, which is only
	// discovered after lib was chosen.
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""), requires(utilURI, ""))),
		feedOf(libURI, impl("1.0"), impl("2.0")),
		feedOf(utilURI, impl("1.0", restricts(libURI, "..!2.0"))),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, "1.0", selectedVersion(t, res, libURI))
	assert.Equal(t, "1.0", selectedVersion(t, res, utilURI))
}

func TestRestrictionOnUnselectedInterface(t *testing.T) {
	// Restrictions do not pull in the restricted interface.
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", restricts(libURI, "none"))),
	)
	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.False(t, res.Selections.Contains(libURI))
}

func TestExtraRestrictions(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, "")), impl("2.0", requires(libURI, ""))),
		feedOf(libURI, impl("1.0"), impl("2.0")),
	)
	req := model.NewRequirements(appURI)
	req.ExtraRestrictions = map[string]version.Range{
		appURI: version.MustParseRange("..!2.0"),
		libURI: version.MustParseRange("1.0"),
	}

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
	assert.Equal(t, "1.0", selectedVersion(t, res, libURI))
}

func TestRecommendedOmitted(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0",
			recommends(extraURI, ""),
			recommends(libURI, "5.0.."),
			requires(utilURI, ""),
		)),
		feedOf(libURI, impl("1.0")),
		feedOf(utilURI, impl("1.0")),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.False(t, res.Selections.Contains(extraURI))
	assert.False(t, res.Selections.Contains(libURI))
	assert.True(t, res.Selections.Contains(utilURI))

	require.Len(t, res.Omitted, 2)
	assert.Equal(t, extraURI, res.Omitted[0].InterfaceURI)
	assert.Contains(t, res.Omitted[0].Reason, "feed unavailable")
	assert.Equal(t, libURI, res.Omitted[1].InterfaceURI)
	assert.Equal(t, "sha256new_1.0", res.Omitted[1].RequiredBy)
}

func TestRecommendedSelectedWhenPossible(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", recommends(libURI, ""))),
		feedOf(libURI, impl("1.0")),
	)
	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, libURI))
	assert.Empty(t, res.Omitted)
}

func TestRunnerChain(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", runsWith(pythonURI))),
		feedOf(pythonURI, impl("3.11", runsWith(baseURI)), impl("2.7", withStability(model.StabilityBuggy))),
		feedOf(baseURI, impl("1.0")),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, []string{appURI, pythonURI, baseURI}, res.Selections.URIs())

	py := res.Selections.Get(pythonURI)
	require.NotNil(t, py.Command(model.CommandRun), "runner command must be selected")
	assert.Equal(t, "3.11", py.Version.String())
	assert.Equal(t, model.CommandRun, res.Selections.Command)
}

func TestRunnerMissingCommand(t *testing.T) {
	noRun := impl("1.0")
	noRun.Commands = nil
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", runsWith(pythonURI))),
		feedOf(pythonURI, noRun),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.False(t, res.Solved())
	report := res.Failure.Report(pythonURI)
	require.NotNil(t, report)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, ReasonMissingCommand, report.Rejected[0].Reason)
}

func TestCommandAddedToReusedSelection(t *testing.T) {
	// lib is first selected as a plain dependency and later needed as
	// util's runner, so its run command is added to the existing selection.
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""), runsWith(utilURI))),
		feedOf(libURI, impl("1.0")),
		feedOf(utilURI, impl("1.0", runsWith(libURI))),
	)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, []string{appURI, libURI, utilURI}, res.Selections.URIs())
	assert.NotNil(t, res.Selections.Get(libURI).Command(model.CommandRun))

	req := model.NewRequirements(appURI)
	req.Command = model.CommandPtr("")
	res, err = newTestSolver(p, testConfig()).TrySolve(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Nil(t, res.Selections.Root().Command(model.CommandRun))
	assert.Nil(t, res.Selections.Get(libURI).Command(model.CommandRun))
	assert.False(t, res.Selections.Contains(utilURI), "runners are only needed for selected commands")
}

func TestCycle(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""))),
		feedOf(libURI, impl("1.0", requires(appURI, ""))),
	)
	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, []string{appURI, libURI}, res.Selections.URIs())
}

func TestCycleWithRestriction(t *testing.T) {
	// lib's dependency back on app rejects the preferred app version.
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("2.0", requires(libURI, "")), impl("1.0", requires(libURI, ""))),
		feedOf(libURI, impl("1.0", requires(appURI, "..!2.0"))),
	)
	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
}

func TestArchitectureFiltering(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI,
		impl("3.0", withArch("Windows-x86_64")),
		impl("2.0", withArch("Linux-aarch64")),
		impl("1.5", withArch("*-src")),
		impl("1.0", withArch("Linux-i686")),
	))
	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
}

func TestCandidateReasons(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI,
		impl("5.0", withArch("Windows-*")),
		impl("4.0", withArch("Linux-ppc")),
		impl("3.0", withArch("*-src")),
		impl("2.0", withStability(model.StabilityBuggy)),
		impl("1.0", withStability(model.StabilityInsecure)),
	))
	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.False(t, res.Solved())

	got := map[string]Reason{}
	for _, r := range res.Failure.Report(appURI).Rejected {
		got[r.Version.String()] = r.Reason
	}
	assert.Equal(t, map[string]Reason{
		"5.0": ReasonIncompatibleOS,
		"4.0": ReasonIncompatibleCPU,
		"3.0": ReasonSourceMismatch,
		"2.0": ReasonBuggy,
		"1.0": ReasonInsecure,
	}, got)
}

func TestSourceRequirement(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI,
			impl("2.0"),
			impl("1.0", withArch("*-src"), withCommand(model.CommandCompile), requires(libURI, "")),
		),
		feedOf(libURI, impl("1.0"), impl("0.9", withArch("*-src"))),
	)
	req := model.NewRequirements(appURI)
	req.Source = true

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
	assert.Equal(t, "1.0", selectedVersion(t, res, libURI), "dependencies of a source build are binaries")
	assert.Equal(t, model.CommandCompile, res.Selections.Command)
	assert.True(t, res.Selections.Source)
}

func TestCachedPreferred(t *testing.T) {
	cached := impl("1.0")
	p := feed.NewMemoryProvider(feedOf(appURI, impl("2.0"), cached))
	st := store.Memory{cached.Digest.Best(): "/store/1.0"}
	withStore := func(o *Options) { o.Store = st }

	for _, nu := range []feed.NetworkUse{feed.NetworkFull, feed.NetworkMinimal, feed.NetworkOffline} {
		t.Run(string(nu), func(t *testing.T) {
			cfg := testConfig()
			cfg.NetworkUse = nu
			res, err := newTestSolver(p, cfg, withStore).TrySolve(context.Background(), model.NewRequirements(appURI))
			require.NoError(t, err)
			assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
		})
	}

	t.Run("default config", func(t *testing.T) {
		res, err := New(p, Options{Host: testHost, Store: st}).TrySolve(context.Background(), model.NewRequirements(appURI))
		require.NoError(t, err)
		assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
	})

	t.Run("offline rejects uncached", func(t *testing.T) {
		cfg := testConfig()
		cfg.NetworkUse = feed.NetworkOffline
		cands, err := newTestSolver(p, cfg, withStore).Candidates(context.Background(), model.NewRequirements(appURI), "")
		require.NoError(t, err)
		require.Len(t, cands, 2)
		assert.Equal(t, ReasonNone, cands[0].Reason)
		assert.Equal(t, ReasonOfflineUncached, cands[1].Reason)

		cfg.NetworkUse = feed.NetworkFull
		cands, err = newTestSolver(p, cfg, withStore).Candidates(context.Background(), model.NewRequirements(appURI), "")
		require.NoError(t, err)
		assert.True(t, cands[1].Suitable(), "uncached candidates stay usable online")
	})
}

func TestNativePackages(t *testing.T) {
	pm := distro.NewMemory("Debian")
	pm.Add("python3", "3.12", model.Architecture{OS: model.OSLinux, CPU: model.CPUX86_64}, true)

	pyFeed := feedOf(pythonURI, impl("3.11"))
	pyFeed.PackageImplementations = []model.PackageImplementation{{
		Package:       "python3",
		Distributions: []string{"Debian"},
		Commands:      []model.Command{{Name: model.CommandRun, Path: "/usr/bin/python3"}},
	}}
	p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0", runsWith(pythonURI))), pyFeed)

	res, err := newTestSolver(p, testConfig(), func(o *Options) { o.Distro = pm }).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.True(t, res.Solved())
	py := res.Selections.Get(pythonURI)
	assert.Equal(t, "3.12", py.Version.String())
	assert.Equal(t, "python3", py.Package)
	assert.Equal(t, "Debian", py.Distribution)
	assert.True(t, py.IsPackage())

	req := model.NewRequirements(appURI)
	req.Distributions = []string{"0install"}
	res, err = newTestSolver(p, testConfig(), func(o *Options) { o.Distro = pm }).TrySolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "3.11", selectedVersion(t, res, pythonURI))
}

func TestSupplementaryFeeds(t *testing.T) {
	const linuxFeed = "http://example.com/app-linux.xml"
	const winFeed = "http://example.com/app-windows.xml"
	const devFeed = "/home/dev/app.xml"

	main := feedOf(appURI, impl("1.0"))
	main.Feeds = []model.FeedReference{
		{Source: linuxFeed, Architecture: model.Architecture{OS: model.OSLinux, CPU: model.CPUAll}},
		{Source: winFeed, Architecture: model.Architecture{OS: model.OSWindows, CPU: model.CPUAll}},
	}
	linux := feedOf(linuxFeed, impl("1.5"), impl("1.0"))
	windows := feedOf(winFeed, impl("3.0"))
	dev := feedOf(devFeed, impl("2.0"))
	dev.FeedFor = []string{appURI}
	p := feed.NewMemoryProvider(main, linux, windows, dev)

	res, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	sel := res.Selections.Root()
	assert.Equal(t, "1.5", sel.Version.String())
	assert.Equal(t, linuxFeed, sel.FromFeed)
	assert.Equal(t, appURI, sel.InterfaceURI)

	cfg := testConfig()
	cfg.Interfaces = map[string]config.InterfacePreferences{appURI: {ExtraFeeds: []string{devFeed}}}
	res, err = newTestSolver(p, cfg).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "2.0", selectedVersion(t, res, appURI))
}

func TestInvalidRequirements(t *testing.T) {
	s := newTestSolver(feed.NewMemoryProvider(), testConfig())
	_, err := s.TrySolve(context.Background(), model.NewRequirements(""))
	require.Error(t, err)
	assert.True(t, errs.IsInputError(err))
}

func TestEssentialFeedErrorPropagates(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0", requires(libURI, ""))))
	_, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrNotFound)
	assert.True(t, errs.Is(err, errs.ErrCodeFeedNotFound))
}

func TestCanceled(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestSolver(p, testConfig()).TrySolve(ctx, model.NewRequirements(appURI))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errs.Is(err, errs.ErrCodeCanceled))
}

func TestCanceledMidSolve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, ""))),
		feedOf(libURI, impl("1.0")),
	)
	p := feed.ProviderFunc(func(c context.Context, uri string) (*model.Feed, error) {
		if uri == libURI {
			cancel()
		}
		return inner.GetFeed(context.Background(), uri)
	})

	_, err := newTestSolver(p, testConfig()).TrySolve(ctx, model.NewRequirements(appURI))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveNoSolution(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0", withStability(model.StabilityBuggy))))
	_, err := newTestSolver(p, testConfig()).Solve(context.Background(), model.NewRequirements(appURI))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeNoSolution))

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, appURI, failure.InterfaceURI)
}

func TestMaxBacktracks(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("3.0", requires(libURI, "")), impl("2.0", requires(libURI, "")), impl("1.0")),
		feedOf(libURI, impl("1.0", withStability(model.StabilityBuggy))),
	)
	res, err := newTestSolver(p, testConfig(), func(o *Options) { o.MaxBacktracks = 1 }).
		TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	require.False(t, res.Solved())
	assert.True(t, res.Failure.GaveUp)

	res, err = newTestSolver(p, testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "1.0", selectedVersion(t, res, appURI))
}

func TestResolveIsIdempotent(t *testing.T) {
	p := feed.NewCachingProvider(feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, "")), impl("2.0", requires(libURI, "1.0"))),
		feedOf(libURI, impl("1.0"), impl("1.1")),
	))
	s := newTestSolver(p, testConfig())

	first, err := s.Solve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	second, err := s.Solve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)

	a, err := first.ToXML()
	require.NoError(t, err)
	b, err := second.ToXML()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCandidatesListing(t *testing.T) {
	p := feed.NewMemoryProvider(
		feedOf(appURI, impl("1.0", requires(libURI, "")), impl("2.0", requires(libURI, ""))),
		feedOf(libURI, impl("1.0"), impl("3.0", withStability(model.StabilityBuggy)), impl("2.0")),
	)
	s := newTestSolver(p, testConfig())

	cands, err := s.Candidates(context.Background(), model.NewRequirements(appURI), "")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "2.0", cands[0].Impl.Version.String())

	cands, err = s.Candidates(context.Background(), model.NewRequirements(appURI), libURI)
	require.NoError(t, err)
	require.Len(t, cands, 3)
	assert.Equal(t, "2.0", cands[0].Impl.Version.String())
	assert.Equal(t, "1.0", cands[1].Impl.Version.String())
	assert.Equal(t, ReasonBuggy, cands[2].Reason)
	assert.False(t, cands[2].Suitable())

	_, err = s.Candidates(context.Background(), model.Requirements{}, "")
	assert.Error(t, err)
}

func TestPackageManagerFailure(t *testing.T) {
	pyFeed := packageOnlyFeed(pythonURI, "python3")
	withBroken := func(o *Options) { o.Distro = brokenManager{} }

	t.Run("essential", func(t *testing.T) {
		p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0", runsWith(pythonURI))), pyFeed)
		res, err := newTestSolver(p, testConfig(), withBroken).TrySolve(context.Background(), model.NewRequirements(appURI))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errs.Is(err, errs.ErrCodePackageManager), "got %v", err)
		assert.Contains(t, err.Error(), "database locked")
	})

	t.Run("recommended", func(t *testing.T) {
		p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0", recommends(pythonURI, ""))), pyFeed)
		res, err := newTestSolver(p, testConfig(), withBroken).TrySolve(context.Background(), model.NewRequirements(appURI))
		require.NoError(t, err)
		require.True(t, res.Solved())
		assert.Nil(t, res.Selections.Get(pythonURI))
		require.Len(t, res.Omitted, 1)
		assert.Equal(t, pythonURI, res.Omitted[0].InterfaceURI)
		assert.Contains(t, res.Omitted[0].Reason, "database locked")
	})
}

func TestSupplementaryFeedFailure(t *testing.T) {
	const extraURI = "http://example.com/app-extra.xml"
	main := feedOf(appURI, impl("1.0"))
	main.Feeds = []model.FeedReference{{Source: extraURI}}

	_, err := newTestSolver(feed.NewMemoryProvider(main), testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.Error(t, err)
	assert.True(t, errors.Is(err, feed.ErrNotFound), "got %v", err)
	assert.Contains(t, err.Error(), extraURI)

	extra := feedOf(extraURI, impl("2.0"))
	res, err := newTestSolver(feed.NewMemoryProvider(main, extra), testConfig()).TrySolve(context.Background(), model.NewRequirements(appURI))
	require.NoError(t, err)
	assert.Equal(t, "2.0", selectedVersion(t, res, appURI))
}

func TestSourceCPURequiresSource(t *testing.T) {
	p := feed.NewMemoryProvider(feedOf(appURI, impl("1.0")))
	req := model.NewRequirements(appURI)
	req.Architecture.CPU = model.CPUSource

	_, err := newTestSolver(p, testConfig()).TrySolve(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errs.IsInputError(err), "got %v", err)
}
