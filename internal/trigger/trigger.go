// Package trigger decides whether a version-control reference should
// start a release. Only tag refs carrying a plain semantic version
// (three numeric components, optionally v-prefixed) qualify.
package trigger

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

const tagRefPrefix = "refs/tags/"

// Match extracts the release tag from a reference string. It accepts
// fully qualified tag refs ("refs/tags/v1.2.3") and bare tags
// ("v1.2.3"). The tag is returned verbatim, prefix included.
//
// A reference that does not name a release tag is not an error; Match
// reports ok=false and the caller is expected to ignore the event.
func Match(ref string) (tag string, ok bool) {
	if ref == "" {
		return "", false
	}

	tag = ref
	if strings.HasPrefix(ref, "refs/") {
		if !strings.HasPrefix(ref, tagRefPrefix) {
			// Branch pushes and other ref types never trigger a release
			return "", false
		}
		tag = strings.TrimPrefix(ref, tagRefPrefix)
	}

	if !isReleaseVersion(tag) {
		return "", false
	}
	return tag, true
}

// isReleaseVersion reports whether s is exactly {major}.{minor}.{patch},
// optionally v-prefixed. Prerelease and build-metadata suffixes are
// rejected: v1.2.3-rc1 is a candidate, not a release.
func isReleaseVersion(s string) bool {
	s = strings.TrimPrefix(s, "v")
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return false
	}
	return v.Prerelease() == "" && v.Metadata() == ""
}
