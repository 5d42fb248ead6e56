package context

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	Semantic  string
	Commit    string
	Dirty     bool
	GoVersion string
}

// GetVersion extracts the version information embedded in the binary by the Go
// toolchain.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("build information is unavailable")
	}

	v := &VersionInfo{
		Semantic:  strings.TrimPrefix(bi.Main.Version, "v"),
		GoVersion: bi.GoVersion,
	}
	if v.Semantic == "" || v.Semantic == "(devel)" {
		v.Semantic = "dev"
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Commit = s.Value
		case "vcs.modified":
			v.Dirty = s.Value == "true"
		}
	}

	return v, nil
}

// String returns the version in a format suitable for the --version flag.
func (v *VersionInfo) String() string {
	var sb strings.Builder
	sb.WriteString(v.Semantic)
	if v.Commit != "" {
		commit := v.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&sb, " (%s", commit)
		if v.Dirty {
			sb.WriteString("-dirty")
		}
		sb.WriteString(")")
	}
	if v.GoVersion != "" {
		fmt.Fprintf(&sb, " %s", v.GoVersion)
	}

	return sb.String()
}
