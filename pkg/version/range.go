package version

import (
	"slices"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
)

// bound is one end of an interval. An infinite bound ignores v and inclusive.
type bound struct {
	v         Version
	inclusive bool
	infinite  bool
}

type interval struct {
	lo, hi bound
}

// compareLower orders lower bounds: -inf first; at equal versions an
// inclusive bound admits more and sorts first.
func compareLower(a, b bound) int {
	switch {
	case a.infinite && b.infinite:
		return 0
	case a.infinite:
		return -1
	case b.infinite:
		return 1
	}
	if c := a.v.Compare(b.v); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return -1
	}
	return 1
}

// compareUpper orders upper bounds: +inf last; at equal versions an
// inclusive bound admits more and sorts last.
func compareUpper(a, b bound) int {
	switch {
	case a.infinite && b.infinite:
		return 0
	case a.infinite:
		return 1
	case b.infinite:
		return -1
	}
	if c := a.v.Compare(b.v); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return 1
	}
	return -1
}

func (iv interval) isEmpty() bool {
	if iv.lo.infinite || iv.hi.infinite {
		return false
	}
	c := iv.lo.v.Compare(iv.hi.v)
	return c > 0 || (c == 0 && !(iv.lo.inclusive && iv.hi.inclusive))
}

func (iv interval) contains(v Version) bool {
	if !iv.lo.infinite {
		c := v.Compare(iv.lo.v)
		if c < 0 || (c == 0 && !iv.lo.inclusive) {
			return false
		}
	}
	if !iv.hi.infinite {
		c := v.Compare(iv.hi.v)
		if c > 0 || (c == 0 && !iv.hi.inclusive) {
			return false
		}
	}
	return true
}

// gapBetween reports whether no version lies in both or between an interval
// ending at hi and one starting at lo, i.e. they cannot be merged.
func gapBetween(hi, lo bound) bool {
	if hi.infinite || lo.infinite {
		return false
	}
	c := hi.v.Compare(lo.v)
	return c < 0 || (c == 0 && !hi.inclusive && !lo.inclusive)
}

func (iv interval) isPoint() bool {
	return !iv.lo.infinite && !iv.hi.infinite && iv.lo.inclusive && iv.hi.inclusive && iv.lo.v.Equal(iv.hi.v)
}

func (iv interval) isFull() bool { return iv.lo.infinite && iv.hi.infinite }

var full = interval{lo: bound{infinite: true}, hi: bound{infinite: true}}

// Range is a set of versions made of disjoint intervals. Ranges are values
// and never mutated after construction. The zero Range is unrestricted.
type Range struct {
	restricted bool
	ivs        []interval // sorted, disjoint, non-adjacent; only used when restricted
}

// Any returns the unrestricted range.
func Any() Range { return Range{} }

// None returns the empty range; it contains no version.
func None() Range { return Range{restricted: true} }

// Exact returns the range containing only v.
func Exact(v Version) Range {
	return fromIntervals(interval{lo: bound{v: v, inclusive: true}, hi: bound{v: v, inclusive: true}})
}

// AtLeast returns the range of versions >= v.
func AtLeast(v Version) Range {
	return fromIntervals(interval{lo: bound{v: v, inclusive: true}, hi: bound{infinite: true}})
}

// Before returns the range of versions < v.
func Before(v Version) Range {
	return fromIntervals(interval{lo: bound{infinite: true}, hi: bound{v: v}})
}

// Between returns the half-open range [lo, hi). A zero lo or hi leaves that
// end open.
func Between(lo, hi Version) Range {
	iv := full
	if !lo.IsZero() {
		iv.lo = bound{v: lo, inclusive: true}
	}
	if !hi.IsZero() {
		iv.hi = bound{v: hi}
	}
	return fromIntervals(iv)
}

// Not returns the range of every version except v.
func Not(v Version) Range {
	return fromIntervals(
		interval{lo: bound{infinite: true}, hi: bound{v: v}},
		interval{lo: bound{v: v}, hi: bound{infinite: true}},
	)
}

// Compatible returns v or any later version with the same major number.
func Compatible(v Version) Range { return Between(v, v.NextMajor()) }

// fromIntervals normalizes ivs into a Range.
func fromIntervals(ivs ...interval) Range {
	ivs = slices.DeleteFunc(slices.Clone(ivs), interval.isEmpty)
	slices.SortStableFunc(ivs, func(a, b interval) int { return compareLower(a.lo, b.lo) })

	out := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if n := len(out); n > 0 && !gapBetween(out[n-1].hi, iv.lo) {
			if compareUpper(iv.hi, out[n-1].hi) > 0 {
				out[n-1].hi = iv.hi
			}
			continue
		}
		out = append(out, iv)
	}
	if len(out) == 1 && out[0].isFull() {
		return Any()
	}
	return Range{restricted: true, ivs: out}
}

func (r Range) intervals() []interval {
	if !r.restricted {
		return []interval{full}
	}
	return r.ivs
}

// IsAny reports whether r contains every version.
func (r Range) IsAny() bool { return !r.restricted }

// IsEmpty reports whether r contains no version.
func (r Range) IsEmpty() bool { return r.restricted && len(r.ivs) == 0 }

// Contains reports whether v lies in r.
func (r Range) Contains(v Version) bool {
	if !r.restricted {
		return true
	}
	for _, iv := range r.ivs {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// Intersect returns the versions contained in both r and o.
func (r Range) Intersect(o Range) Range {
	switch {
	case !r.restricted:
		return o
	case !o.restricted:
		return r
	}
	var out []interval
	a, b := r.ivs, o.ivs
	for i, j := 0, 0; i < len(a) && j < len(b); {
		iv := interval{lo: a[i].lo, hi: a[i].hi}
		if compareLower(b[j].lo, iv.lo) > 0 {
			iv.lo = b[j].lo
		}
		if compareUpper(b[j].hi, iv.hi) < 0 {
			iv.hi = b[j].hi
		}
		if !iv.isEmpty() {
			out = append(out, iv)
		}
		if compareUpper(a[i].hi, b[j].hi) < 0 {
			i++
		} else {
			j++
		}
	}
	return fromIntervals(out...)
}

// Union returns the versions contained in r or o.
func (r Range) Union(o Range) Range {
	if !r.restricted || !o.restricted {
		return Any()
	}
	return fromIntervals(append(slices.Clone(r.ivs), o.ivs...)...)
}

// Equal reports whether r and o contain exactly the same versions.
func (r Range) Equal(o Range) bool {
	if r.restricted != o.restricted {
		return false
	}
	return slices.EqualFunc(r.ivs, o.ivs, func(a, b interval) bool {
		return compareLower(a.lo, b.lo) == 0 && compareUpper(a.hi, b.hi) == 0
	})
}

// String returns the canonical form of r, accepted by [ParseRange].
func (r Range) String() string {
	switch {
	case !r.restricted:
		return ".."
	case len(r.ivs) == 0:
		return "none"
	case len(r.ivs) == 2 && r.ivs[0].lo.infinite && r.ivs[1].hi.infinite &&
		!r.ivs[0].hi.inclusive && !r.ivs[1].lo.inclusive && r.ivs[0].hi.v.Equal(r.ivs[1].lo.v):
		return "!" + r.ivs[0].hi.v.String()
	}
	parts := make([]string, len(r.ivs))
	for i, iv := range r.ivs {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " | ")
}

func (iv interval) String() string {
	if iv.isPoint() {
		return iv.lo.v.String()
	}
	var b strings.Builder
	if !iv.lo.infinite {
		if !iv.lo.inclusive {
			b.WriteByte('!')
		}
		b.WriteString(iv.lo.v.String())
	}
	b.WriteString("..")
	if !iv.hi.infinite {
		if !iv.hi.inclusive {
			b.WriteByte('!')
		}
		b.WriteString(iv.hi.v.String())
	}
	return b.String()
}

// ParseRange parses the range syntax described in the package documentation.
// An empty string is the unrestricted range.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Any(), nil
	}
	var ivs []interval
	for _, part := range strings.Split(s, "|") {
		r, err := parsePart(strings.TrimSpace(part))
		if err != nil {
			return Range{}, errs.Wrap(errs.ErrCodeInvalidRange, err, "invalid version range %q", s)
		}
		ivs = append(ivs, r.intervals()...)
	}
	return fromIntervals(ivs...), nil
}

// MustParseRange is like [ParseRange] but panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parsePart(p string) (Range, error) {
	switch {
	case p == "":
		return Range{}, errs.New(errs.ErrCodeInvalidRange, "empty range part")
	case p == "none":
		return None(), nil
	case p == "..":
		return Any(), nil
	case strings.HasPrefix(p, "~"):
		v, err := Parse(p[1:])
		if err != nil {
			return Range{}, err
		}
		return Compatible(v), nil
	}

	lo, hi, isInterval := strings.Cut(p, "..")
	if !isInterval {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			v, err := Parse(rest)
			if err != nil {
				return Range{}, err
			}
			return Not(v), nil
		}
		v, err := Parse(p)
		if err != nil {
			return Range{}, err
		}
		return Exact(v), nil
	}

	iv := full
	if lo != "" {
		raw, excl := strings.CutPrefix(lo, "!")
		v, err := Parse(raw)
		if err != nil {
			return Range{}, err
		}
		iv.lo = bound{v: v, inclusive: !excl}
	}
	if hi != "" {
		raw, excl := strings.CutPrefix(hi, "!")
		v, err := Parse(raw)
		if err != nil {
			return Range{}, err
		}
		iv.hi = bound{v: v, inclusive: !excl}
	}
	return fromIntervals(iv), nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Range) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Range) UnmarshalText(b []byte) error {
	parsed, err := ParseRange(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
