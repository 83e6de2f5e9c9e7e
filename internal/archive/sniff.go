package archive

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/benpak/benpak/internal/catalog"
)

// acceptedMIMEs maps each archive kind to the MIME types its artifact may
// legitimately detect as. AppImages are ELF binaries and detect as any of
// the ELF subtypes depending on how they were linked.
var acceptedMIMEs = map[catalog.Kind][]string{
	catalog.KindTarGz:  {"application/gzip"},
	catalog.KindTarBz2: {"application/x-bzip2"},
	catalog.KindTarXz:  {"application/x-xz"},
	catalog.KindDeb:    {"application/vnd.debian.binary-package", "application/x-archive"},
	catalog.KindAppImage: {
		"application/x-elf",
		"application/x-executable",
		"application/x-sharedlib",
	},
}

// verifyKind checks the artifact's magic bytes against the declared kind.
// It runs before any subtree mutation.
func verifyKind(kind catalog.Kind, artifactPath string) error {
	detected, err := mimetype.DetectFile(artifactPath)
	if err != nil {
		return fmt.Errorf("sniff %s: %w", artifactPath, err)
	}

	accepted, ok := acceptedMIMEs[kind]
	if !ok {
		return fmt.Errorf("unsupported archive kind %q", kind)
	}

	for _, want := range accepted {
		if detected.Is(want) {
			return nil
		}
	}

	return &TypeMismatchError{
		Declared: kind.String(),
		Detected: detected.String(),
		Path:     artifactPath,
	}
}
