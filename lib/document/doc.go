// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package document assembles the chapters written during a session
// into a single report.
//
// Chapter text lives in the memory store under documentContent.<name>
// keys, in the order given by the outline saved under
// documentOutline.chapters. [Collect] reads them back, [Document.Markdown]
// renders the report as Markdown, and [Document.HTML] converts that
// Markdown with goldmark. [Export] picks the format from the file
// extension.
package document
