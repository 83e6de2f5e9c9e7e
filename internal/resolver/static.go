package resolver

import (
	"context"
	"fmt"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/platform"
)

// Static resolves descriptors whose URL template is already concrete. The
// version is whatever the descriptor pins, or "latest" when it pins nothing.
type Static struct{}

func (r *Static) Resolve(_ context.Context, desc *catalog.Descriptor, info *platform.Info) (*Resolution, error) {
	if desc.URLTemplate == "" {
		return nil, fmt.Errorf("static resolution needs url_template")
	}
	version := desc.DeclaredVersion
	if version == "" {
		version = "latest"
	}
	desc.LatestVersion = version
	return &Resolution{Version: version, URL: desc.ExpandURL(info)}, nil
}
