package securefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tickertool/ticker-tool/internal/constants"
)

// EnvFolder maps TICKER_ENV to a state subfolder. Production uses no subfolder.
func EnvFolder() (string, error) {
	raw := strings.TrimSpace(os.Getenv(constants.EnvFolderVar))
	switch strings.ToLower(raw) {
	case "", "prod", "production":
		return "", nil
	case "local":
		return "local", nil
	case "dev", "develop", "development":
		return "develop", nil
	default:
		return "", fmt.Errorf("invalid %s %q (allowed: local, develop, empty)", constants.EnvFolderVar, raw)
	}
}

// ConfigPathCandidates returns state file paths to try, in priority order:
// SNAP_REAL_HOME, HOME, then os.UserConfigDir.
func ConfigPathCandidates(app, filename string) ([]string, error) {
	if app == "" {
		return nil, errors.New("app must not be empty")
	}
	if filename == "" {
		return nil, errors.New("filename must not be empty")
	}
	envFolder, err := EnvFolder()
	if err != nil {
		return nil, err
	}

	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	homeStyle := func(home string) string {
		return filepath.Join(home, ".config", app, envFolder, filename)
	}

	if realHome := os.Getenv("SNAP_REAL_HOME"); realHome != "" {
		add(homeStyle(realHome))
	}
	if home := os.Getenv("HOME"); home != "" {
		add(homeStyle(home))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		add(filepath.Join(dir, app, envFolder, filename))
	} else if len(paths) == 0 {
		return nil, fmt.Errorf("UserConfigDir: %w", err)
	}

	return paths, nil
}

// ResolvePath picks the first existing candidate, else the first candidate.
func ResolvePath(app, filename string) (string, error) {
	cands, err := ConfigPathCandidates(app, filename)
	if err != nil {
		return "", err
	}
	if len(cands) == 0 {
		return "", errors.New("no config path candidates returned")
	}
	for _, p := range cands {
		if Exists(p) {
			return p, nil
		}
	}
	return cands[0], nil
}
