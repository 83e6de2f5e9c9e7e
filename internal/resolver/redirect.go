package resolver

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/platform"
)

// dottedVersion matches the first dotted numeric run in a URL or filename.
var dottedVersion = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)*)`)

// Redirect resolves vendors that publish a stable "download latest" URL
// which redirects to the versioned artifact. The version is read off the
// redirect target's filename.
type Redirect struct {
	client *retryablehttp.Client
}

func (r *Redirect) Resolve(ctx context.Context, desc *catalog.Descriptor, info *platform.Info) (*Resolution, error) {
	if desc.URLTemplate == "" {
		return nil, fmt.Errorf("redirect resolution needs url_template")
	}
	url := desc.ExpandURL(info)

	target, err := r.redirectTarget(ctx, url)
	if err != nil {
		return nil, err
	}
	if target == "" {
		// No redirect issued. The stable URL is the artifact itself.
		target = url
	}
	return &Resolution{Version: versionFromURL(target), URL: target}, nil
}

// redirectTarget issues a HEAD request without following redirects and
// returns the Location header, or "" when the endpoint answers directly.
func (r *Redirect) redirectTarget(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	// Redirect detection must see the 3xx itself, so retries and redirect
	// following are both off for this probe.
	client := &http.Client{
		Timeout: r.client.HTTPClient.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, err := resp.Location()
		if err != nil {
			return "", fmt.Errorf("HEAD %s: redirect without location", url)
		}
		return loc.String(), nil
	case resp.StatusCode == http.StatusOK:
		return "", nil
	default:
		return "", fmt.Errorf("HEAD %s: unexpected status %d", url, resp.StatusCode)
	}
}

// versionFromURL extracts a dotted version from the final path segment,
// falling back to the whole URL, then to "latest".
func versionFromURL(url string) string {
	if m := dottedVersion.FindString(path.Base(url)); m != "" {
		return m
	}
	if m := dottedVersion.FindString(url); m != "" {
		return m
	}
	return "latest"
}
