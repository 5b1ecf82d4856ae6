// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for docagent.
//
// Configuration comes from a single file named by either the
// DOCAGENT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). The file is merged over [Default], so it only needs
// the values it changes. Without a file the console runs on defaults.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${DOCAGENT_ROOT}, and ${VAR:-default} patterns are expanded.
// Secrets are never stored in the file: api_key_env names the
// environment variable the key is read from.
//
// This package depends on no other docagent packages.
package config
