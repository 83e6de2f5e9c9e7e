// Package lifecycle orchestrates the install, uninstall and launch flow of
// packages, composing resolution, download, extraction, process guarding
// and environment registration behind one manager.
package lifecycle

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benpak/benpak/internal/archive"
	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/config"
	"github.com/benpak/benpak/internal/desktop"
	"github.com/benpak/benpak/internal/download"
	"github.com/benpak/benpak/internal/executable"
	"github.com/benpak/benpak/internal/platform"
	"github.com/benpak/benpak/internal/procguard"
	"github.com/benpak/benpak/internal/resolver"
	"github.com/benpak/benpak/internal/shellpath"
)

// Download dominates install time, so it owns the first 70% of reported
// progress and extraction the rest.
const downloadShare = 70

// ProgressFunc receives overall install progress from 0 to 100.
type ProgressFunc func(percent int)

// PromptFunc decides whether blocking processes should be terminated.
// Returning false cancels the uninstall and leaves everything intact.
type PromptFunc func(matches []procguard.Match) bool

// InstallResult summarizes a completed installation.
type InstallResult struct {
	Identifier     string
	Version        string
	Subtree        string
	ExecutablePath string
	Duration       time.Duration
}

// InstalledPackage is one row of the installed listing.
type InstalledPackage struct {
	Identifier  string
	Version     string
	InstalledAt time.Time
}

// Update pairs an installed package with a newer upstream version.
type Update struct {
	Identifier string
	Installed  string
	Latest     string
}

// Manager drives the package lifecycle.
type Manager struct {
	settings   config.Settings
	logger     *zap.Logger
	platform   *platform.Info
	resolver   resolver.Resolver
	downloader *download.Downloader
	extractor  *archive.Extractor
	guard      *procguard.Guard
	registrar  *shellpath.Registrar
	desktop    *desktop.Manager
	index      *stateIndex

	installing atomic.Bool
}

// Config holds configuration for the lifecycle manager.
type Config struct {
	// Settings carries the user preferences. InstallDir is required.
	Settings config.Settings
	// PlatformInfo contains OS and architecture information.
	PlatformInfo *platform.Info
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Resolver defaults to the strategy-dispatching service.
	Resolver resolver.Resolver
	// Registrar defaults to one honoring Settings.PreferredShell.
	Registrar *shellpath.Registrar
	// Desktop defaults to the user applications directory.
	Desktop *desktop.Manager
	// StagingDir is where downloads land before extraction.
	StagingDir string
}

// NewManager creates a lifecycle manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Settings.InstallDir == "" {
		return nil, fmt.Errorf("InstallDir is required")
	}
	if cfg.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	res := cfg.Resolver
	if res == nil {
		res = resolver.NewService(cfg.Settings.DownloadTimeout)
	}
	registrar := cfg.Registrar
	if registrar == nil {
		registrar = shellpath.NewRegistrar(cfg.Settings.PreferredShell)
	}
	desk := cfg.Desktop
	if desk == nil {
		var err error
		desk, err = desktop.NewManager()
		if err != nil {
			return nil, fmt.Errorf("desktop manager: %w", err)
		}
	}
	staging := cfg.StagingDir
	if staging == "" {
		staging = filepath.Join(os.TempDir(), "benpak")
	}

	return &Manager{
		settings:   cfg.Settings,
		logger:     logger,
		platform:   cfg.PlatformInfo,
		resolver:   res,
		downloader: download.New(staging, cfg.Settings.DownloadTimeout),
		extractor:  archive.NewExtractor(cfg.Settings.InstallDir),
		guard:      procguard.NewGuard(cfg.Settings.InstallDir),
		registrar:  registrar,
		desktop:    desk,
		index:      newStateIndex(),
	}, nil
}

// State returns the tracked lifecycle record for an identifier.
func (m *Manager) State(identifier string) (Record, bool) {
	return m.index.get(identifier)
}

// Subtree returns the install subtree path for an identifier.
func (m *Manager) Subtree(identifier string) string {
	return m.extractor.Subtree(identifier)
}

// populated reports whether a subtree exists and holds any content. An
// empty directory, left by an interrupted operation, does not count as an
// installation.
func populated(subtree string) bool {
	entries, err := os.ReadDir(subtree)
	return err == nil && len(entries) > 0
}

// Install resolves, downloads and extracts a package, then registers it on
// PATH and in the launcher per settings. Only one install runs at a time.
func (m *Manager) Install(ctx context.Context, desc *catalog.Descriptor, progress ProgressFunc) (*InstallResult, error) {
	if !m.installing.CompareAndSwap(false, true) {
		return nil, ErrInstallInFlight
	}
	defer m.installing.Store(false)

	if err := desc.Validate(); err != nil {
		return nil, &InstallError{Identifier: desc.Identifier, Stage: "validate", Cause: err}
	}

	start := time.Now()
	op := m.index.begin(desc.Identifier, StateDownloading)
	logger := m.logger.With(
		zap.String("package", desc.Identifier),
		zap.String("operation", op.String()),
	)
	fail := func(stage string, err error) (*InstallResult, error) {
		m.index.advance(desc.Identifier, StateAbsent)
		return nil, &InstallError{Identifier: desc.Identifier, Stage: stage, Cause: err}
	}

	// Debian payloads link against Debian-family libraries; unpacking one
	// elsewhere usually runs, but not always. Worth a warning, not a refusal.
	if desc.Kind == catalog.KindDeb && !m.platform.IsDebianFamily() {
		field := zap.String("family", m.platform.Family)
		if d := m.platform.GetDistro(); d != nil {
			field = zap.String("distro", d.ID)
		}
		logger.Warn("installing a Debian package on a non-Debian distribution", field)
	}

	res, err := m.resolver.Resolve(ctx, desc, m.platform)
	if err != nil {
		return fail("resolve", err)
	}
	logger.Info("resolved package",
		zap.String("version", res.Version),
		zap.String("url", res.URL))

	artifact, err := m.downloader.Fetch(ctx, res.URL, artifactName(desc, res.URL), func(p int) {
		report(progress, p*downloadShare/100)
	})
	if err != nil {
		return fail("download", err)
	}
	defer m.downloader.Cleanup(artifact)

	m.index.advance(desc.Identifier, StateExtracting)
	result, err := m.extractor.Extract(desc, artifact, func(p int) {
		report(progress, downloadShare+p*(100-downloadShare)/100)
	})
	if err != nil {
		return fail("extract", err)
	}
	m.index.finish(desc.Identifier, StateInstalled, result.Version)
	logger.Info("extracted package",
		zap.String("version", result.Version),
		zap.Duration("took", result.Duration))

	// Registration failures leave a working install behind, so they are
	// logged rather than returned.
	exePath := m.register(desc, result.Subtree, logger)

	report(progress, 100)
	return &InstallResult{
		Identifier:     desc.Identifier,
		Version:        result.Version,
		Subtree:        result.Subtree,
		ExecutablePath: exePath,
		Duration:       time.Since(start),
	}, nil
}

// register wires the installed package into PATH and the launcher per
// settings. Returns the resolved executable path, or "" when none found.
func (m *Manager) register(desc *catalog.Descriptor, subtree string, logger *zap.Logger) string {
	exePath, err := executable.Resolve(desc, subtree)
	if err != nil {
		logger.Warn("no launchable executable found", zap.Error(err))
		return ""
	}

	if m.settings.AutoConfigurePath {
		added, err := m.registrar.Register(desc.Identifier, filepath.Dir(exePath))
		switch {
		case err != nil:
			logger.Warn("PATH registration failed", zap.Error(err))
		case added:
			logger.Info("added to PATH", zap.String("dir", filepath.Dir(exePath)))
		}
	}
	if m.settings.CreateDesktopShortcuts {
		created, err := m.desktop.Create(desc, exePath, subtree)
		switch {
		case err != nil:
			logger.Warn("desktop entry creation failed", zap.Error(err))
		case created:
			logger.Info("created desktop entry", zap.String("path", m.desktop.EntryPath(desc.Identifier)))
		}
	}
	return exePath
}

// Uninstall removes a package's subtree and its registrations. Running
// processes block removal unless terminated, either after the prompt
// confirms or immediately when forceKill is set. A package that was never
// installed returns (false, nil).
func (m *Manager) Uninstall(ctx context.Context, identifier string, forceKill bool, prompt PromptFunc) (bool, error) {
	subtree := m.extractor.Subtree(identifier)
	if !populated(subtree) {
		return false, nil
	}

	op := m.index.begin(identifier, StateVerifyingProcesses)
	logger := m.logger.With(
		zap.String("package", identifier),
		zap.String("operation", op.String()),
	)

	matches, err := m.guard.FindRunning(ctx, identifier)
	if err != nil {
		m.index.advance(identifier, StateInstalled)
		return false, fmt.Errorf("scanning processes for %s: %w", identifier, err)
	}
	if len(matches) > 0 {
		if !forceKill && (prompt == nil || !prompt(matches)) {
			m.index.advance(identifier, StateBlocked)
			logger.Info("uninstall cancelled, processes still running",
				zap.Int("count", len(matches)))
			return false, nil
		}

		m.index.advance(identifier, StateTerminating)
		logger.Info("terminating processes", zap.Int("count", len(matches)))
		m.guard.Terminate(ctx, matches)

		select {
		case <-ctx.Done():
			m.index.advance(identifier, StateBlocked)
			return false, ctx.Err()
		case <-time.After(m.settings.TerminationGrace):
		}

		m.index.advance(identifier, StateReverifying)
		survivors, err := m.guard.FindRunning(ctx, identifier)
		if err != nil {
			m.index.advance(identifier, StateBlocked)
			return false, fmt.Errorf("re-scanning processes for %s: %w", identifier, err)
		}
		if len(survivors) > 0 {
			m.index.advance(identifier, StateBlocked)
			return false, &procguard.TerminationError{Identifier: identifier, Survivors: survivors}
		}
	}

	// The subtree only goes away after both deregistrations succeed, so a
	// failure here leaves a still-launchable install to retry against.
	if removed, err := m.registrar.Deregister(identifier); err != nil {
		m.index.advance(identifier, StateInstalled)
		return false, fmt.Errorf("removing PATH entry for %s: %w", identifier, err)
	} else if removed {
		logger.Info("removed from PATH")
	}
	if removed, err := m.desktop.Remove(identifier); err != nil {
		m.index.advance(identifier, StateInstalled)
		return false, fmt.Errorf("removing desktop entry for %s: %w", identifier, err)
	} else if removed {
		logger.Info("removed desktop entry")
	}

	if err := os.RemoveAll(subtree); err != nil {
		return false, fmt.Errorf("removing %s: %w", subtree, err)
	}
	m.index.finish(identifier, StateRemoved, "")
	logger.Info("uninstalled package")
	return true, nil
}

// Launch starts the package's executable detached in its own session, with
// the subtree as working directory. It does not wait for the process.
func (m *Manager) Launch(ctx context.Context, desc *catalog.Descriptor) (string, error) {
	subtree := m.extractor.Subtree(desc.Identifier)
	if !populated(subtree) {
		return "", &NotInstalledError{Identifier: desc.Identifier}
	}

	exePath, err := executable.Resolve(desc, subtree)
	if err != nil {
		return "", fmt.Errorf("launching %s: %w", desc.Identifier, err)
	}

	// Deliberately not CommandContext: the process must outlive the caller.
	cmd := exec.Command(exePath)
	cmd.Dir = subtree
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("launching %s: %w", desc.Identifier, err)
	}
	m.logger.Info("launched package",
		zap.String("package", desc.Identifier),
		zap.String("executable", exePath),
		zap.Int("pid", cmd.Process.Pid))
	if err := cmd.Process.Release(); err != nil {
		m.logger.Warn("releasing launched process", zap.Error(err))
	}
	return exePath, nil
}

// Installed lists the packages present under the install root, sorted by
// identifier.
func (m *Manager) Installed() ([]InstalledPackage, error) {
	entries, err := os.ReadDir(m.settings.InstallDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", m.settings.InstallDir, err)
	}

	var packages []InstalledPackage
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subtree := filepath.Join(m.settings.InstallDir, entry.Name())
		if !populated(subtree) {
			continue
		}
		version := archive.ReadMarker(subtree)
		if version == "" {
			version = "unknown"
		}
		installedAt := time.Time{}
		if info, err := os.Stat(filepath.Join(subtree, archive.VersionMarker)); err == nil {
			installedAt = info.ModTime()
		} else if info, err := entry.Info(); err == nil {
			installedAt = info.ModTime()
		}
		packages = append(packages, InstalledPackage{
			Identifier:  entry.Name(),
			Version:     version,
			InstalledAt: installedAt,
		})
	}
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Identifier < packages[j].Identifier
	})
	return packages, nil
}

// InstalledVersion returns the recorded version of an installed package.
func (m *Manager) InstalledVersion(identifier string) (string, bool) {
	subtree := m.extractor.Subtree(identifier)
	if !populated(subtree) {
		return "", false
	}
	version := archive.ReadMarker(subtree)
	if version == "" {
		version = "unknown"
	}
	return version, true
}

// CheckUpdates resolves the latest version of every installed package that
// has a descriptor and reports the ones running behind. Resolution failures
// are logged and skipped so one dead vendor endpoint does not hide the rest.
func (m *Manager) CheckUpdates(ctx context.Context, descriptors []catalog.Descriptor) ([]Update, error) {
	installed, err := m.Installed()
	if err != nil {
		return nil, err
	}

	var updates []Update
	for _, pkg := range installed {
		desc, ok := catalog.Find(descriptors, pkg.Identifier)
		if !ok {
			continue
		}
		res, err := m.resolver.Resolve(ctx, desc, m.platform)
		if err != nil {
			m.logger.Warn("update check failed",
				zap.String("package", pkg.Identifier),
				zap.Error(err))
			continue
		}
		if resolver.UpdateAvailable(pkg.Version, res.Version) {
			updates = append(updates, Update{
				Identifier: pkg.Identifier,
				Installed:  pkg.Version,
				Latest:     res.Version,
			})
		}
	}
	return updates, nil
}

func report(progress ProgressFunc, percent int) {
	if progress != nil {
		progress(percent)
	}
}

// artifactName derives the staging filename from the URL's last path
// segment, falling back to the identifier plus the kind's extension.
func artifactName(desc *catalog.Descriptor, rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
			return base
		}
	}
	return desc.Identifier + "." + desc.Kind.Extension()
}
