package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bgentry/go-netrc/netrc"
	log "github.com/sirupsen/logrus"
)

// netrcPath returns the credentials file: override, $NETRC, then ~/.netrc.
func netrcPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("NETRC"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".netrc"), nil
}

// lookupNetrc returns the login and password stored for host, or those of
// the default entry when host has none.
func lookupNetrc(override, host string) (string, string, error) {
	path, err := netrcPath(override)
	if err != nil {
		return "", "", err
	}

	m, err := netrc.FindMachine(path, host)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if m == nil {
		return "", "", fmt.Errorf("no entry for %s in %s", host, path)
	}
	if m.IsDefault() {
		log.WithField("host", host).Debug("using default netrc entry")
	}
	return m.Login, m.Password, nil
}
