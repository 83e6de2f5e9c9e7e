package shellpath

import (
	"bufio"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// DetectShell determines the user's shell. Resolution order: the
// preference override, the $SHELL environment variable, the login shell
// from the OS user record, then bash as the default.
func DetectShell(preference string) ShellType {
	if preference != "" && preference != "auto" {
		if s := ShellType(strings.ToLower(preference)); s.IsValid() {
			return s
		}
	}

	if env := os.Getenv("SHELL"); env != "" {
		if s := parseShellFromPath(env); s.IsValid() {
			return s
		}
	}

	if s := parseShellFromPath(loginShell()); s.IsValid() {
		return s
	}

	return ShellBash
}

// parseShellFromPath extracts the shell type from a shell binary path
// ("/usr/bin/zsh" -> zsh).
func parseShellFromPath(shellPath string) ShellType {
	if shellPath == "" {
		return ShellUnknown
	}

	switch strings.ToLower(filepath.Base(shellPath)) {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

// loginShell reads the current user's shell from the passwd database.
// os/user does not expose the shell field, so the record is parsed
// directly; any failure returns "".
func loginShell() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, u.Username+":") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) >= 7 {
			return fields[6]
		}
	}

	return ""
}
