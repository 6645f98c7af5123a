package distro

import (
	"regexp"
	"strings"

	"github.com/matzehuels/feedsolve/pkg/version"
)

var distroVersionRe = regexp.MustCompile(
	`^(\d+(?:\.\d+)*)(?:([~+.]?)([a-zA-Z]+)(\d+(?:\.\d+)*)?)?(?:[-_](\d+(?:\.\d+)*))?`)

// CleanVersion converts a distribution version string to the feed version
// grammar. Epochs are dropped, "~rc1" becomes "-rc1", alpha/beta suffixes
// become "-pre" and other letter suffixes "-post". A packaging revision
// ("-3ubuntu1") is kept as a trailing "-3". It reports false when nothing
// usable remains.
func CleanVersion(raw string) (version.Version, bool) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, ':'); i >= 0 && isDigits(s[:i]) {
		s = s[i+1:]
	}
	m := distroVersionRe.FindStringSubmatch(s)
	if m == nil {
		return version.Version{}, false
	}

	var b strings.Builder
	b.WriteString(m[1])
	if letters := strings.ToLower(m[3]); letters != "" {
		b.WriteString("-")
		b.WriteString(modifierFor(m[2], letters))
		b.WriteString(m[4])
	}
	if m[5] != "" {
		b.WriteString("-")
		b.WriteString(m[5])
	}

	v, err := version.Parse(b.String())
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

func modifierFor(sep, letters string) string {
	switch {
	case letters == "rc":
		return "rc"
	case sep == "~", letters == "pre", letters == "alpha", letters == "a",
		letters == "beta", letters == "b", letters == "dev":
		return "pre"
	}
	return "post"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
