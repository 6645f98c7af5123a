package version

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
)

// Modifier weights. Numeric components are interleaved with these when
// comparing.
const (
	modPre  = -2
	modRC   = -1
	modNone = 0
	modPost = 1
)

var (
	modifierRE = regexp.MustCompile(`-([a-z]*)`)

	modifierValues = map[string]int{"pre": modPre, "rc": modRC, "": modNone, "post": modPost}
	modifierNames  = map[int]string{modPre: "pre", modRC: "rc", modNone: "", modPost: "post"}
)

// Version is a parsed implementation version. Versions are immutable; the
// zero value is not a valid version (see [Version.IsZero]).
type Version struct {
	// lists[i] is followed by mods[i]; both slices have the same length.
	lists [][]int
	mods  []int
}

// Parse parses a version string. It returns an INVALID_VERSION error if s
// does not follow the grammar described in the package documentation.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, errs.New(errs.ErrCodeInvalidVersion, "empty version string")
	}

	// Split "1.0-pre3-post" into ["1.0", "pre", "3", "post", ""]: even indices
	// are dotted lists, odd indices are modifier names.
	var parts []string
	last := 0
	for _, loc := range modifierRE.FindAllStringSubmatchIndex(s, -1) {
		parts = append(parts, s[last:loc[0]], s[loc[2]:loc[3]])
		last = loc[1]
	}
	parts = append(parts, s[last:])

	if parts[len(parts)-1] == "" && len(parts) > 1 {
		parts = parts[:len(parts)-1] // ends with a modifier
	} else {
		parts = append(parts, "")
	}

	v := Version{
		lists: make([][]int, 0, len(parts)/2),
		mods:  make([]int, 0, len(parts)/2),
	}
	for i := 0; i < len(parts); i += 2 {
		list, err := parseDotted(parts[i])
		if err != nil || (i == 0 && len(list) == 0) {
			return Version{}, errs.New(errs.ErrCodeInvalidVersion, "invalid version %q", s)
		}
		mod, ok := modifierValues[parts[i+1]]
		if !ok {
			return Version{}, errs.New(errs.ErrCodeInvalidVersion, "invalid version %q: unknown modifier %q", s, parts[i+1])
		}
		v.lists = append(v.lists, list)
		v.mods = append(v.mods, mod)
	}
	return v, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseDotted(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	fields := strings.Split(s, ".")
	out := make([]int, len(fields))
	for i, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return nil, strconv.ErrSyntax
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return len(v.lists) == 0 }

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to,
// or after o. The zero Version sorts before every valid version.
func (v Version) Compare(o Version) int {
	n := min(len(v.lists), len(o.lists))
	for i := 0; i < n; i++ {
		if c := slices.Compare(v.lists[i], o.lists[i]); c != 0 {
			return c
		}
		if c := cmpInt(v.mods[i], o.mods[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(v.lists), len(o.lists))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal reports whether v and o denote the same version ("1.00" equals "1.0").
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Major returns the first component of the version, or 0 for the zero Version.
func (v Version) Major() int {
	if v.IsZero() || len(v.lists[0]) == 0 {
		return 0
	}
	return v.lists[0][0]
}

// NextMajor returns the smallest plain version with a higher major number,
// e.g. "2" for "1.4-rc1".
func (v Version) NextMajor() Version {
	return Version{lists: [][]int{{v.Major() + 1}}, mods: []int{modNone}}
}

// String returns the canonical string form of v.
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	var b strings.Builder
	writeDotted(&b, v.lists[0])
	for i := 1; i < len(v.lists); i++ {
		b.WriteByte('-')
		b.WriteString(modifierNames[v.mods[i-1]])
		writeDotted(&b, v.lists[i])
	}
	if last := v.mods[len(v.mods)-1]; last != modNone {
		b.WriteByte('-')
		b.WriteString(modifierNames[last])
	}
	return b.String()
}

func writeDotted(b *strings.Builder, list []int) {
	for i, n := range list {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
