// Package resolver determines the latest available version and download
// URL for a package descriptor. Each upstream publishing style (GitHub
// releases, redirecting "latest" endpoints, scraped download pages, pinned
// URLs) is covered by its own strategy behind a single interface.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/platform"
)

// Vendor endpoints occasionally reject default Go user agents.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Resolution is the outcome of a version lookup.
type Resolution struct {
	// Version is the latest version string, or "latest" when the upstream
	// does not expose one.
	Version string
	// URL is the concrete artifact URL to download.
	URL string
}

// Resolver determines the latest version and download URL for a package.
type Resolver interface {
	Resolve(ctx context.Context, desc *catalog.Descriptor, info *platform.Info) (*Resolution, error)
}

// Error wraps a resolution failure with the package it concerns.
type Error struct {
	Identifier string
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Identifier, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Service dispatches descriptors to the strategy their metadata selects.
type Service struct {
	client *retryablehttp.Client

	// BaseURL overrides the GitHub API endpoint in tests.
	BaseURL string
}

// NewService builds a resolver service with a shared retrying HTTP client.
func NewService(timeout time.Duration) *Service {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil
	client.HTTPClient.Timeout = timeout
	return &Service{client: client}
}

// For returns the strategy a descriptor selects. An explicit strategy field
// wins; otherwise descriptors with a repo use GitHub releases and the rest
// follow redirects on their download URL.
func (s *Service) For(desc *catalog.Descriptor) (Resolver, error) {
	switch desc.Strategy {
	case "static":
		return &Static{}, nil
	case "redirect":
		return &Redirect{client: s.client}, nil
	case "github":
		return &GitHub{client: s.client, baseURL: s.BaseURL}, nil
	case "scrape":
		return &Scrape{client: s.client}, nil
	case "":
		if desc.Repo != "" {
			return &GitHub{client: s.client, baseURL: s.BaseURL}, nil
		}
		if desc.DeclaredVersion != "" {
			return &Static{}, nil
		}
		return &Redirect{client: s.client}, nil
	default:
		return nil, fmt.Errorf("unknown resolver strategy %q", desc.Strategy)
	}
}

// Resolve runs the selected strategy and records the outcome on the
// descriptor so later lifecycle stages see a concrete version and URL.
func (s *Service) Resolve(ctx context.Context, desc *catalog.Descriptor, info *platform.Info) (*Resolution, error) {
	strategy, err := s.For(desc)
	if err != nil {
		return nil, &Error{Identifier: desc.Identifier, Cause: err}
	}
	res, err := strategy.Resolve(ctx, desc, info)
	if err != nil {
		return nil, &Error{Identifier: desc.Identifier, Cause: err}
	}
	desc.LatestVersion = res.Version
	desc.DownloadURL = res.URL
	return res, nil
}

func doGet(ctx context.Context, client *retryablehttp.Client, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp, nil
}
