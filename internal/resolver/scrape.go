package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/platform"
)

// Scrape resolves vendors that only publish a human download page. The
// descriptor's URL template names the page and link_pattern selects the
// artifact link on it.
type Scrape struct {
	client *retryablehttp.Client
}

func (r *Scrape) Resolve(ctx context.Context, desc *catalog.Descriptor, info *platform.Info) (*Resolution, error) {
	if desc.URLTemplate == "" {
		return nil, fmt.Errorf("scrape resolution needs url_template")
	}
	pattern, err := linkPattern(desc)
	if err != nil {
		return nil, err
	}
	pageURL := desc.ExpandURL(info)

	resp, err := doGet(ctx, r.client, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	var match string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if pattern.MatchString(href) {
			match = href
			return false
		}
		return true
	})
	if match == "" {
		return nil, fmt.Errorf("no link on %s matches %s", pageURL, pattern)
	}

	resolved, err := absoluteURL(pageURL, match)
	if err != nil {
		return nil, err
	}
	return &Resolution{Version: versionFromURL(resolved), URL: resolved}, nil
}

// linkPattern compiles the descriptor's link pattern, defaulting to links
// ending in the archive kind's extension.
func linkPattern(desc *catalog.Descriptor) (*regexp.Regexp, error) {
	expr := desc.LinkPattern
	if expr == "" {
		expr = regexp.QuoteMeta("."+desc.Kind.Extension()) + "$"
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: bad link_pattern: %w", desc.Identifier, err)
	}
	return pattern, nil
}

// absoluteURL resolves a possibly relative link against the page it was
// found on.
func absoluteURL(page, link string) (string, error) {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link, nil
	}
	base, err := url.Parse(page)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("bad link %q: %w", link, err)
	}
	return base.ResolveReference(ref).String(), nil
}
