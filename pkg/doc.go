// Package pkg provides the libraries behind feedsolve, a dependency solver
// for 0install feeds.
//
// # Overview
//
// Given a set of requirements (an interface URI, an optional command, a
// target architecture and version restrictions), feedsolve chooses exactly
// one implementation of every interface the program needs so that all
// dependency and restriction constraints hold. The packages are layered:
//
//  1. [version] and [model] - the version grammar and the feed data model
//  2. [feed], [distro] and [store] - where candidates come from: remote and
//     local feeds, native package managers, and the implementation store
//  3. [solver] - candidate ranking and the backtracking search
//  4. [selection] - the resulting selections document and its utilities
//  5. [render] - DOT, SVG, text and YAML views of a selections document
//
// Supporting packages: [config] (TOML settings and preferences), [cache]
// (file/Redis byte caches for downloaded feeds), [httputil] (rate-limited
// retrying HTTP client), [observability] (metrics hooks) and [errors]
// (code-typed errors).
//
// # Data Flow
//
//	Requirements
//	     ↓
//	[feed] providers + [distro] packages + [store] contents
//	     ↓
//	[solver] (candidates → graph → backtracking search)
//	     ↓
//	[selection] Selections document (XML)
//
// # Quick Start
//
//	feeds := feed.NewCachingProvider(feed.Router{
//	    Local:  feed.NewLocalProvider(logger),
//	    Remote: feed.NewHTTPProvider(feed.HTTPOptions{Logger: logger}),
//	})
//
//	cfg := config.Default()
//	s := solver.New(feeds, solver.Options{Config: &cfg, Logger: logger})
//	res, err := s.TrySolve(ctx, model.NewRequirements("https://example.com/app.xml"))
//	if err != nil {
//	    return err
//	}
//	if !res.Solved() {
//	    fmt.Println(res.Failure)
//	    return nil
//	}
//	res.Selections.Encode(os.Stdout)
package pkg
