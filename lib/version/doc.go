// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the docagent
// binary.
//
// [GitCommit], [BuildTime] and [Version] are injected at build time
// via -ldflags -X. When they are not injected, [Info] falls back to the
// VCS stamp the Go toolchain embeds in module builds.
package version
