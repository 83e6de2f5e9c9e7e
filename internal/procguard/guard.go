// Package procguard finds and terminates OS processes belonging to an
// installed package, so an uninstall never deletes files out from under a
// running application.
//
// The guard only classifies and signals processes; it never touches the
// filesystem.
package procguard

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Match rules, in the priority order they are applied to each process.
const (
	// RuleExePath: the process executable resolves inside the subtree.
	RuleExePath = "exe-path"
	// RuleName: the process name equals a known executable filename
	// inside the subtree.
	RuleName = "name"
	// RuleArgument: a command-line argument contains the subtree path.
	RuleArgument = "argument"
)

const (
	// termWait bounds the graceful-termination wait per process.
	termWait = 3 * time.Second
	// pollInterval is the liveness re-check cadence during termWait.
	pollInterval = 100 * time.Millisecond
)

// Match is a process associated with an installed package.
type Match struct {
	PID     int32
	Name    string
	Exe     string
	Cmdline []string
	Rule    string
}

func (m Match) String() string {
	return fmt.Sprintf("%s (pid %d)", m.Name, m.PID)
}

// TerminationError reports processes that survived termination.
type TerminationError struct {
	Identifier string
	Survivors  []Match
}

func (e *TerminationError) Error() string {
	names := make([]string, len(e.Survivors))
	for i, m := range e.Survivors {
		names[i] = m.String()
	}
	return fmt.Sprintf("processes of %s still running: %s",
		e.Identifier, strings.Join(names, ", "))
}

// Guard classifies running processes against install subtrees.
type Guard struct {
	installRoot string
}

// NewGuard creates a guard for packages installed under installRoot.
func NewGuard(installRoot string) *Guard {
	return &Guard{installRoot: installRoot}
}

// FindRunning enumerates all OS processes once and returns those matching
// the package, deduplicated by pid. Each process is classified by the
// first rule that applies: executable path inside the subtree, process
// name equal to a known executable filename, or an argument containing
// the subtree path.
func (g *Guard) FindRunning(ctx context.Context, identifier string) ([]Match, error) {
	subtree := filepath.Join(g.installRoot, identifier)
	if _, err := os.Stat(subtree); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat subtree: %w", err)
	}

	knownNames := executableNames(subtree)

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var matches []Match
	seen := make(map[int32]bool)

	for _, p := range procs {
		if seen[p.Pid] {
			continue
		}

		m, ok := classify(ctx, p, subtree, knownNames)
		if !ok {
			continue
		}

		seen[p.Pid] = true
		matches = append(matches, m)
	}

	return matches, nil
}

// classify applies the match rules to one process. Processes that vanish
// or deny access mid-scan are skipped.
func classify(ctx context.Context, p *process.Process, subtree string, knownNames map[string]bool) (Match, bool) {
	prefix := subtree + string(os.PathSeparator)

	name, _ := p.NameWithContext(ctx)
	exe, _ := p.ExeWithContext(ctx)
	cmdline, _ := p.CmdlineSliceWithContext(ctx)

	rule := ""
	switch {
	case exe != "" && strings.HasPrefix(exe, prefix):
		rule = RuleExePath
	case name != "" && knownNames[name]:
		rule = RuleName
	case argContains(cmdline, subtree):
		rule = RuleArgument
	default:
		return Match{}, false
	}

	return Match{
		PID:     p.Pid,
		Name:    name,
		Exe:     exe,
		Cmdline: cmdline,
		Rule:    rule,
	}, true
}

// Terminate attempts graceful termination of each match, waits a bounded
// interval, then force-kills survivors. It returns true only when every
// process is confirmed dead.
func (g *Guard) Terminate(ctx context.Context, matches []Match) bool {
	allDead := true

	for _, m := range matches {
		p, err := process.NewProcessWithContext(ctx, m.PID)
		if err != nil {
			// Already gone.
			continue
		}

		_ = p.TerminateWithContext(ctx)

		if waitForExit(ctx, p, termWait) {
			continue
		}

		_ = p.KillWithContext(ctx)

		if !waitForExit(ctx, p, termWait) {
			allDead = false
		}
	}

	return allDead
}

// waitForExit polls process liveness until it exits or the wait elapses.
func waitForExit(ctx context.Context, p *process.Process, wait time.Duration) bool {
	deadline := time.Now().Add(wait)

	for time.Now().Before(deadline) {
		running, err := p.IsRunningWithContext(ctx)
		if err != nil || !running {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}

	running, err := p.IsRunningWithContext(ctx)
	return err != nil || !running
}

// executableNames collects the filenames of executable files inside a
// subtree, for the name-equality rule.
func executableNames(subtree string) map[string]bool {
	names := make(map[string]bool)

	filepath.WalkDir(subtree, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err == nil && info.Mode().Perm()&0111 != 0 {
			names[d.Name()] = true
		}
		return nil
	})

	return names
}

// argContains reports whether any argument mentions the subtree path.
func argContains(cmdline []string, subtree string) bool {
	for _, arg := range cmdline {
		if strings.Contains(arg, subtree) {
			return true
		}
	}
	return false
}
