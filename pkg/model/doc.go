// Package model defines the feed data model consumed by the solver.
//
// # Overview
//
// An interface is identified by a URI (an http(s) URL or an absolute local
// path). Feeds describe the implementations available for an interface:
//
//   - [Feed]: one document for one interface, listing [Implementation] and
//     [PackageImplementation] entries plus references to supplementary feeds
//   - [Implementation]: a versioned, architecture-specific realization with
//     [Command] entry points, [Dependency] edges, [Restriction] edges and
//     [Binding] declarations
//   - [Requirements]: the solver input (root interface, command, architecture,
//     languages, extra version restrictions, allowed distributions)
//
// Every Implementation has exactly one identity source: a local path, a
// native package identifier, or a content-addressed [ManifestDigest]. See
// [Implementation.Validate].
//
// Model values are built fresh from feed data for every solve; nothing in
// this package is shared mutable state.
package model
