// Package identity provides host and build identity for the daemon.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime/debug"
)

// DefaultVersion is reported when no release metadata is available.
const DefaultVersion = "0.1.0-dev"

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "iohat"
	}
	return h
}

// GetVersion reports the release version. A metadata.json in configDir
// wins, then the module version stamped into the binary, then DefaultVersion.
func GetVersion(configDir string) string {
	if v := versionFromDir(configDir); v != "" {
		return v
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return DefaultVersion
}

func versionFromDir(dir string) string {
	if dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return ""
	}
	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return ""
	}
	return meta.Version
}
