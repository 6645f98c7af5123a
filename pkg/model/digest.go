package model

import "strings"

// ManifestDigest holds the content hashes of an implementation directory.
// Any non-empty field identifies the implementation in a store.
type ManifestDigest struct {
	Sha1New   string `json:"sha1new,omitempty"`
	Sha256    string `json:"sha256,omitempty"`
	Sha256New string `json:"sha256new,omitempty"`
}

// IsZero reports whether no digest is known.
func (d ManifestDigest) IsZero() bool {
	return d.Sha1New == "" && d.Sha256 == "" && d.Sha256New == ""
}

// IDs returns the store identifiers for every known digest, strongest first.
func (d ManifestDigest) IDs() []string {
	var ids []string
	if d.Sha256New != "" {
		ids = append(ids, "sha256new_"+d.Sha256New)
	}
	if d.Sha256 != "" {
		ids = append(ids, "sha256="+d.Sha256)
	}
	if d.Sha1New != "" {
		ids = append(ids, "sha1new="+d.Sha1New)
	}
	return ids
}

// Best returns the strongest store identifier, or "" if none is known.
func (d ManifestDigest) Best() string {
	if ids := d.IDs(); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// ParseDigestID recovers a digest from a store identifier such as
// "sha256new_ABC" or "sha1new=abc".
func ParseDigestID(id string) (ManifestDigest, bool) {
	switch {
	case strings.HasPrefix(id, "sha256new_"):
		return ManifestDigest{Sha256New: strings.TrimPrefix(id, "sha256new_")}, true
	case strings.HasPrefix(id, "sha256="):
		return ManifestDigest{Sha256: strings.TrimPrefix(id, "sha256=")}, true
	case strings.HasPrefix(id, "sha1new="):
		return ManifestDigest{Sha1New: strings.TrimPrefix(id, "sha1new=")}, true
	}
	return ManifestDigest{}, false
}
