// Package catalog defines package descriptors and loads them from a
// directory of TOML records, one file per package.
package catalog

import (
	"fmt"
	"strings"

	"github.com/benpak/benpak/internal/platform"
)

// Kind identifies the archive format a package is distributed as.
type Kind string

const (
	KindTarGz    Kind = "tar_gz"
	KindTarBz2   Kind = "tar_bz2"
	KindTarXz    Kind = "tar_xz"
	KindDeb      Kind = "deb"
	KindAppImage Kind = "appimage"
)

// String returns the string representation of the archive kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a supported archive format.
func (k Kind) IsValid() bool {
	switch k {
	case KindTarGz, KindTarBz2, KindTarXz, KindDeb, KindAppImage:
		return true
	default:
		return false
	}
}

// IsTar returns true for the tar-family kinds.
func (k Kind) IsTar() bool {
	return k == KindTarGz || k == KindTarBz2 || k == KindTarXz
}

// Extension returns the conventional file extension for the kind.
func (k Kind) Extension() string {
	switch k {
	case KindTarGz:
		return "tar.gz"
	case KindTarBz2:
		return "tar.bz2"
	case KindTarXz:
		return "tar.xz"
	case KindDeb:
		return "deb"
	case KindAppImage:
		return "AppImage"
	default:
		return "bin"
	}
}

// Descriptor is the static metadata describing one installable package.
// The resolver fills in LatestVersion and DownloadURL before any lifecycle
// operation runs.
type Descriptor struct {
	// Identifier is the unique key; it names the install subtree.
	Identifier string `toml:"id"`
	// Name is the human-readable display name.
	Name string `toml:"name"`
	// Description is shown in listings and launcher entries.
	Description string `toml:"description"`
	// Icon is a symbolic icon reference used when no icon file is found.
	Icon string `toml:"icon"`
	// Kind is the archive format of the downloaded artifact.
	Kind Kind `toml:"type"`
	// URLTemplate is the download URL, with optional {version}, {os},
	// {arch} and {vendor_arch} placeholders.
	URLTemplate string `toml:"url_template"`
	// Executable overrides the launchable binary name (default: Identifier).
	Executable string `toml:"executable,omitempty"`
	// BinPath is an optional relative path hint to the binary inside the
	// extracted subtree. Trusted before any search.
	BinPath string `toml:"bin_path,omitempty"`
	// Repo is an optional upstream "owner/name" GitHub repository hint.
	Repo string `toml:"repo,omitempty"`
	// Strategy selects how the latest version and URL are resolved
	// ("static", "redirect", "github", "scrape"). Empty picks github when
	// Repo is set, redirect otherwise.
	Strategy string `toml:"strategy,omitempty"`
	// LinkPattern is a regular expression selecting the download link on
	// a scraped vendor page.
	LinkPattern string `toml:"link_pattern,omitempty"`
	// DeclaredVersion is the version pinned in the descriptor, if any.
	DeclaredVersion string `toml:"version,omitempty"`

	// Resolver-observed fields. Not read from descriptor files.
	LatestVersion string `toml:"-"`
	DownloadURL   string `toml:"-"`
}

// ExecutableName returns the binary name to search for.
func (d *Descriptor) ExecutableName() string {
	if d.Executable != "" {
		return d.Executable
	}
	return d.Identifier
}

// ExpandURL substitutes template placeholders into the download URL.
func (d *Descriptor) ExpandURL(info *platform.Info) string {
	url := d.URLTemplate
	version := d.LatestVersion
	if version == "" {
		version = d.DeclaredVersion
	}
	url = strings.ReplaceAll(url, "{version}", version)
	if info != nil {
		url = strings.ReplaceAll(url, "{os}", info.OS)
		url = strings.ReplaceAll(url, "{arch}", info.Arch)
		url = strings.ReplaceAll(url, "{vendor_arch}", info.VendorArch())
	}
	return url
}

// Validate checks that the descriptor has the fields the engine relies on.
func (d *Descriptor) Validate() error {
	if d.Identifier == "" {
		return fmt.Errorf("descriptor missing id")
	}
	if strings.ContainsAny(d.Identifier, "/\\ ") {
		return fmt.Errorf("descriptor %q: id must not contain path separators or spaces", d.Identifier)
	}
	if d.Name == "" {
		return fmt.Errorf("descriptor %q: missing name", d.Identifier)
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("descriptor %q: unsupported archive type %q", d.Identifier, d.Kind)
	}
	if d.URLTemplate == "" && d.Repo == "" {
		return fmt.Errorf("descriptor %q: needs url_template or repo", d.Identifier)
	}
	return nil
}
