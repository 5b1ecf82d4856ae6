// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Export collects the document from source and writes it to path: as
// HTML when the extension is .html or .htm, as Markdown otherwise.
// Returns the exported document.
func Export(source Source, path string) (Document, error) {
	document := Collect(source)

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		rendered, err := document.HTML()
		if err != nil {
			return Document{}, err
		}
		data = rendered
	default:
		data = []byte(document.Markdown())
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Document{}, fmt.Errorf("document: writing %s: %w", path, err)
	}
	return document, nil
}
