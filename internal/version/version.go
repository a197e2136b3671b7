// Package version reports this build's identity: version/commit/time
// baked in via -ldflags, the Go toolchain that built it, and which
// cartridge mappers it was built with support for.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"nesemu/internal/cartridge"
)

var (
	// Set at build time via -ldflags; left at these defaults for a plain
	// `go build`.
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	BuildUser = "unknown"
)

// BuildInfo is a snapshot of one build's identity, resolved once from the
// ldflags vars above plus the runtime and Go module metadata.
type BuildInfo struct {
	Version    string
	GitCommit  string
	BuildTime  string
	BuildUser  string
	GoVersion  string
	Platform   string
	Arch       string
	CGOEnabled bool

	SupportedMappers []uint8
}

// Current resolves this process's build information, falling back to
// `go build`'s own embedded VCS metadata when the ldflags vars were never
// set (i.e. a local, non-release build).
func Current() BuildInfo {
	info := BuildInfo{
		Version:          Version,
		GitCommit:        GitCommit,
		BuildTime:        BuildTime,
		BuildUser:        BuildUser,
		GoVersion:        runtime.Version(),
		Platform:         runtime.GOOS,
		Arch:             runtime.GOARCH,
		SupportedMappers: cartridge.SupportedMappers(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "unknown" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if info.BuildTime == "unknown" {
					info.BuildTime = setting.Value
				}
			case "CGO_ENABLED":
				info.CGOEnabled = setting.Value == "1"
			}
		}
	}

	return info
}

// Short returns a compact version string: the release version, or a
// dev-<commit7> tag when no release version was baked in.
func (b BuildInfo) Short() string {
	if b.Version != "dev" {
		return b.Version
	}
	if len(b.GitCommit) >= 7 {
		return fmt.Sprintf("dev-%s", b.GitCommit[:7])
	}
	return b.Version
}

// Detailed formats a one-line build summary suitable for a -version flag.
func (b BuildInfo) Detailed() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "nesemu version %s", b.Version)

	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if len(commit) >= 7 {
			commit = commit[:7]
		}
		fmt.Fprintf(&sb, " (commit %s)", commit)
	}

	if b.BuildTime != "unknown" {
		if parsed, err := time.Parse(time.RFC3339, b.BuildTime); err == nil {
			fmt.Fprintf(&sb, " built on %s", parsed.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintf(&sb, " built on %s", b.BuildTime)
		}
	}

	fmt.Fprintf(&sb, " with %s for %s/%s", b.GoVersion, b.Platform, b.Arch)

	if b.BuildUser != "unknown" {
		fmt.Fprintf(&sb, " by %s", b.BuildUser)
	}

	return sb.String()
}

// Print writes a multi-line build banner to stdout, including which
// mapper IDs this build can load cartridges for.
func (b BuildInfo) Print() {
	fmt.Println("nesemu - NES Emulator")
	fmt.Printf("Version:           %s\n", b.Version)
	fmt.Printf("Git Commit:        %s\n", b.GitCommit)
	fmt.Printf("Build Time:        %s\n", b.BuildTime)
	fmt.Printf("Build User:        %s\n", b.BuildUser)
	fmt.Printf("Go Version:        %s\n", b.GoVersion)
	fmt.Printf("Platform:          %s/%s\n", b.Platform, b.Arch)
	fmt.Printf("CGO Enabled:       %t\n", b.CGOEnabled)
	fmt.Printf("Supported mappers: %v\n", b.SupportedMappers)
}

// PrintBuildInfo resolves and prints the current build's banner.
func PrintBuildInfo() {
	Current().Print()
}

// GetVersion returns the current build's compact version string.
func GetVersion() string {
	return Current().Short()
}
