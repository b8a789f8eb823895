// Package version reports the ttsgate build version.
// Values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/GTAManRCRX/wrapper-offline-fixed/version.version=1.2.0"
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	devVersion     = "dev"
	shortCommitLen = 7
)

// Set via -ldflags.
var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// GetVersion returns the version string, falling back to the module version
// recorded in build info when no ldflags value was set.
func GetVersion() string {
	if version != devVersion {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return devVersion
}

// buildSetting looks up a key from the embedded VCS settings.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// Commit returns the short git commit, or "" when unknown.
func Commit() string {
	commit := gitCommit
	if commit == "" {
		commit = buildSetting("vcs.revision")
	}
	return commit[:min(shortCommitLen, len(commit))]
}

// GetVersionInfo returns the multi-line string printed by `ttsgate version`.
func GetVersionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ttsgate version %s", GetVersion())
	if commit := Commit(); commit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", commit)
		if gitCommit == "" && buildSetting("vcs.modified") == "true" {
			b.WriteString(" (dirty)")
		}
	}
	if buildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", buildDate)
	}
	return b.String()
}

// GetBuildInfo returns version details as slog key-value pairs.
func GetBuildInfo() []any {
	attrs := []any{"version", GetVersion()}
	if commit := Commit(); commit != "" {
		attrs = append(attrs, "commit", commit)
	}
	if buildDate != "" {
		attrs = append(attrs, "built", buildDate)
	}
	return attrs
}
