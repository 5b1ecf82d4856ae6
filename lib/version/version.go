// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/docagent/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	commit, buildTime, dirty := GitCommit, BuildTime, false
	if commit == "unknown" {
		commit, buildTime, dirty = vcsStamp(buildTime)
	}
	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, buildTime)
}

// Print writes "name version" with the Go version and platform to w.
func Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		name, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// vcsStamp reads the revision recorded by the toolchain. buildTime is
// returned unchanged when no commit time is recorded.
func vcsStamp(buildTime string) (commit, stampTime string, dirty bool) {
	commit, stampTime = "unknown", buildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, stampTime, false
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.time":
			stampTime = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return commit, stampTime, dirty
}
