package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/platform"
)

const githubAPI = "https://api.github.com"

// GitHub resolves the latest release of an "owner/name" repository through
// the public releases API. The tag names the version; the asset list names
// the artifact unless the descriptor carries its own URL template.
type GitHub struct {
	client  *retryablehttp.Client
	baseURL string
}

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

func (r *GitHub) Resolve(ctx context.Context, desc *catalog.Descriptor, info *platform.Info) (*Resolution, error) {
	if desc.Repo == "" {
		return nil, fmt.Errorf("github resolution needs repo")
	}
	base := r.baseURL
	if base == "" {
		base = githubAPI
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", base, desc.Repo)

	resp, err := doGet(ctx, r.client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding release for %s: %w", desc.Repo, err)
	}
	version := strings.TrimPrefix(rel.TagName, "v")
	if version == "" {
		return nil, fmt.Errorf("release for %s has no tag", desc.Repo)
	}

	if desc.URLTemplate != "" {
		desc.LatestVersion = version
		return &Resolution{Version: version, URL: desc.ExpandURL(info)}, nil
	}

	downloadURL, err := pickAsset(rel.Assets, desc.Kind, info)
	if err != nil {
		return nil, fmt.Errorf("release %s of %s: %w", rel.TagName, desc.Repo, err)
	}
	return &Resolution{Version: version, URL: downloadURL}, nil
}

// pickAsset selects the release asset matching the descriptor's archive kind
// and the running architecture. Among kind matches, an asset naming the
// architecture wins over one that only names the OS.
func pickAsset(assets []asset, kind catalog.Kind, info *platform.Info) (string, error) {
	suffix := "." + strings.ToLower(kind.Extension())
	best := ""
	bestScore := -1
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		score := 0
		if info != nil {
			if strings.Contains(name, strings.ToLower(info.VendorArch())) || strings.Contains(name, info.Arch) {
				score += 2
			}
			if strings.Contains(name, info.OS) {
				score++
			}
		}
		if score > bestScore {
			best = a.DownloadURL
			bestScore = score
		}
	}
	if best == "" {
		return "", fmt.Errorf("no %s asset", suffix)
	}
	return best, nil
}
