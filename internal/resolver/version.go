package resolver

import (
	goversion "github.com/hashicorp/go-version"
)

// placeholder versions never participate in update decisions.
func placeholderVersion(v string) bool {
	return v == "" || v == "latest" || v == "unknown"
}

// Compare orders two version strings. Structured comparison is used when
// both parse; otherwise any difference counts as newer-available, reported
// as -1.
func Compare(a, b string) int {
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	if a == b {
		return 0
	}
	return -1
}

// UpdateAvailable reports whether latest is newer than installed. Unknown
// or placeholder versions on either side never signal an update.
func UpdateAvailable(installed, latest string) bool {
	if placeholderVersion(installed) || placeholderVersion(latest) {
		return false
	}
	return Compare(installed, latest) < 0
}
