// Package version implements 0install-style implementation versions and
// version ranges.
//
// # Versions
//
// A version is a dotted list of non-negative integers, optionally followed
// by any number of "-modifier[dotted-list]" suffixes:
//
//	1.2.3
//	1.0-pre3    pre-release
//	1.0-rc1     release candidate
//	1.0-2       packaging revision (empty modifier)
//	1.0-post    post-release
//
// Modifiers order as pre < rc < (none) < post, so
//
//	1.0-pre < 1.0-pre1 < 1.0-rc1 < 1.0 < 1.0-1 < 1.0-post < 1.0.1
//
// A dotted list that is a prefix of another sorts first ("1" < "1.0").
//
// # Ranges
//
// A [Range] is a set of disjoint intervals over versions. Ranges are written
// as "|"-separated parts:
//
//	1.2         exactly 1.2
//	!1.2        anything except 1.2
//	1.2..!2.0   1.2 or later, but before 2.0
//	1.2..       1.2 or later
//	..!2.0      before 2.0
//	~1.2        1.2 or any later version with the same major number
//
// [Range.String] produces a canonical form that [ParseRange] accepts again.
// Because intersections can produce bounds the classic syntax cannot express,
// the canonical form also uses "!1.2.." (exclusive lower bound) and "..2.0"
// (inclusive upper bound). The empty range is written "none".
//
// The zero Range is unrestricted; use [None] for the empty range.
package version
