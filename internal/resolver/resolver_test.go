package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/platform"
)

func linuxAmd64() *platform.Info {
	return &platform.Info{OS: "linux", Arch: "amd64"}
}

func TestStaticResolve(t *testing.T) {
	desc := &catalog.Descriptor{
		Identifier:      "tool",
		Kind:            catalog.KindTarGz,
		URLTemplate:     "https://vendor.example/{version}/tool-{vendor_arch}.tar.gz",
		DeclaredVersion: "3.1.0",
	}
	res, err := (&Static{}).Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Version != "3.1.0" {
		t.Errorf("Version = %q, want 3.1.0", res.Version)
	}
	want := "https://vendor.example/3.1.0/tool-x86_64.tar.gz"
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestStaticResolveNoVersion(t *testing.T) {
	desc := &catalog.Descriptor{
		Identifier:  "tool",
		Kind:        catalog.KindAppImage,
		URLTemplate: "https://vendor.example/tool.AppImage",
	}
	res, err := (&Static{}).Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Version != "latest" {
		t.Errorf("Version = %q, want latest", res.Version)
	}
}

func TestRedirectResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latest":
			http.Redirect(w, r, "/files/tool-2.5.1.tar.gz", http.StatusFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	desc := &catalog.Descriptor{
		Identifier:  "tool",
		Kind:        catalog.KindTarGz,
		URLTemplate: srv.URL + "/latest",
	}
	res, err := (&Redirect{client: svc.client}).Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Version != "2.5.1" {
		t.Errorf("Version = %q, want 2.5.1", res.Version)
	}
	if want := srv.URL + "/files/tool-2.5.1.tar.gz"; res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestRedirectResolveNoRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	desc := &catalog.Descriptor{
		Identifier:  "tool",
		Kind:        catalog.KindTarGz,
		URLTemplate: srv.URL + "/stable/tool.tar.gz",
	}
	res, err := (&Redirect{client: svc.client}).Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.URL != srv.URL+"/stable/tool.tar.gz" {
		t.Errorf("URL = %q, want stable URL back", res.URL)
	}
	if res.Version != "latest" {
		t.Errorf("Version = %q, want latest", res.Version)
	}
}

func TestGitHubResolvePicksAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/tool/releases/latest" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"tag_name": "v1.2.3",
			"assets": [
				{"name": "tool-1.2.3-darwin-x86_64.tar.gz", "browser_download_url": "https://dl.example/darwin.tar.gz"},
				{"name": "tool-1.2.3-linux-aarch64.tar.gz", "browser_download_url": "https://dl.example/arm.tar.gz"},
				{"name": "tool-1.2.3-linux-x86_64.tar.gz", "browser_download_url": "https://dl.example/amd64.tar.gz"},
				{"name": "tool-1.2.3-linux-x86_64.deb", "browser_download_url": "https://dl.example/amd64.deb"}
			]
		}`)
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	svc.BaseURL = srv.URL
	desc := &catalog.Descriptor{
		Identifier: "tool",
		Name:       "Tool",
		Kind:       catalog.KindTarGz,
		Repo:       "acme/tool",
	}
	res, err := svc.Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", res.Version)
	}
	if res.URL != "https://dl.example/amd64.tar.gz" {
		t.Errorf("URL = %q, want the linux x86_64 tarball", res.URL)
	}
	if desc.LatestVersion != "1.2.3" || desc.DownloadURL != res.URL {
		t.Errorf("descriptor not updated: version %q url %q", desc.LatestVersion, desc.DownloadURL)
	}
}

func TestGitHubResolveTemplateWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v9.0.1", "assets": []}`)
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	svc.BaseURL = srv.URL
	desc := &catalog.Descriptor{
		Identifier:  "tool",
		Kind:        catalog.KindDeb,
		Repo:        "acme/tool",
		URLTemplate: "https://dl.example/{version}/tool_{version}_amd64.deb",
	}
	res, err := svc.Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := "https://dl.example/9.0.1/tool_9.0.1_amd64.deb"; res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestGitHubResolveNoAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v1.0.0", "assets": [{"name": "tool.zip", "browser_download_url": "https://dl.example/tool.zip"}]}`)
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	svc.BaseURL = srv.URL
	desc := &catalog.Descriptor{Identifier: "tool", Kind: catalog.KindTarGz, Repo: "acme/tool"}
	if _, err := svc.Resolve(context.Background(), desc, linuxAmd64()); err == nil {
		t.Fatal("expected error when no asset matches the archive kind")
	}
}

func TestScrapeResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/docs/install">Install guide</a>
			<a href="/downloads/tool-4.2.0-linux.tar.xz">Download for Linux</a>
			<a href="/downloads/tool-4.2.0-win.zip">Download for Windows</a>
		</body></html>`)
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	desc := &catalog.Descriptor{
		Identifier:  "tool",
		Kind:        catalog.KindTarXz,
		Strategy:    "scrape",
		URLTemplate: srv.URL + "/download",
		LinkPattern: `linux\.tar\.xz$`,
	}
	res, err := svc.Resolve(context.Background(), desc, linuxAmd64())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Version != "4.2.0" {
		t.Errorf("Version = %q, want 4.2.0", res.Version)
	}
	if want := srv.URL + "/downloads/tool-4.2.0-linux.tar.xz"; res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestScrapeResolveNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/about">About</a></body></html>`)
	}))
	defer srv.Close()

	svc := NewService(5 * time.Second)
	desc := &catalog.Descriptor{
		Identifier:  "tool",
		Kind:        catalog.KindTarGz,
		Strategy:    "scrape",
		URLTemplate: srv.URL + "/download",
	}
	if _, err := svc.Resolve(context.Background(), desc, linuxAmd64()); err == nil {
		t.Fatal("expected error when no link matches")
	}
}

func TestForDispatch(t *testing.T) {
	svc := NewService(5 * time.Second)
	tests := []struct {
		name string
		desc catalog.Descriptor
		want string
	}{
		{"explicit static", catalog.Descriptor{Strategy: "static"}, "*resolver.Static"},
		{"explicit scrape", catalog.Descriptor{Strategy: "scrape"}, "*resolver.Scrape"},
		{"repo implies github", catalog.Descriptor{Repo: "a/b"}, "*resolver.GitHub"},
		{"pinned implies static", catalog.Descriptor{DeclaredVersion: "1.0"}, "*resolver.Static"},
		{"default redirect", catalog.Descriptor{URLTemplate: "https://x/y"}, "*resolver.Redirect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := svc.For(&tt.desc)
			if err != nil {
				t.Fatalf("For: %v", err)
			}
			if got := fmt.Sprintf("%T", r); got != tt.want {
				t.Errorf("strategy = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := svc.For(&catalog.Descriptor{Strategy: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestVersionFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x/files/tool-2.5.1.tar.gz", "2.5.1"},
		{"https://x/2024.1/tool.deb", "2024.1"},
		{"https://x/stable/tool.deb", "latest"},
	}
	for _, tt := range tests {
		if got := versionFromURL(tt.url); got != tt.want {
			t.Errorf("versionFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestUpdateAvailable(t *testing.T) {
	tests := []struct {
		installed string
		latest    string
		want      bool
	}{
		{"1.0.0", "1.1.0", true},
		{"1.1.0", "1.1.0", false},
		{"2.0.0", "1.9.9", false},
		{"1.0.0", "latest", false},
		{"latest", "1.0.0", false},
		{"unknown", "1.0.0", false},
		{"", "1.0.0", false},
		{"2024.01.15", "2024.02.01", true},
		{"build-a", "build-b", true},
		{"build-a", "build-a", false},
	}
	for _, tt := range tests {
		if got := UpdateAvailable(tt.installed, tt.latest); got != tt.want {
			t.Errorf("UpdateAvailable(%q, %q) = %v, want %v", tt.installed, tt.latest, got, tt.want)
		}
	}
}
