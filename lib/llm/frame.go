// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bufio"
	"io"
	"strings"
)

// doneSentinel is the payload of the frame that ends a stream.
const doneSentinel = "[DONE]"

// FrameScanner reads the "data:" frames of a chat completions stream.
//
// The service writes one JSON payload per "data:" line. Each such line
// is a frame on its own; lines are never joined. Blank lines, comment
// lines (starting with ":") and the other server-sent-event fields
// (event, id, retry) are skipped.
//
// Usage:
//
//	scanner := NewFrameScanner(body)
//	for scanner.Next() {
//	    payload := scanner.Frame()
//	    // process payload
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type FrameScanner struct {
	reader  *bufio.Reader
	current string
	err     error
}

// NewFrameScanner creates a scanner that reads frames from reader.
func NewFrameScanner(reader io.Reader) *FrameScanner {
	return &FrameScanner{
		reader: bufio.NewReaderSize(reader, 64*1024),
	}
}

// Next advances to the next frame. Returns false when the stream ends
// (EOF) or a read error occurs. After Next returns false, call [Err]
// to distinguish EOF from errors.
func (scanner *FrameScanner) Next() bool {
	scanner.current = ""
	if scanner.err != nil {
		return false
	}

	for {
		line, err := scanner.reader.ReadString('\n')
		if err != nil && line == "" {
			scanner.err = err
			return false
		}
		// A final line without a trailing newline is still a frame;
		// the EOF is reported on the following call.
		if err != nil {
			scanner.err = err
		}

		line = strings.TrimRight(line, "\r\n")
		payload, isData := strings.CutPrefix(line, "data:")
		if isData {
			scanner.current = strings.TrimSpace(payload)
			return true
		}

		if scanner.err != nil {
			return false
		}
	}
}

// Frame returns the payload of the most recent frame with the "data:"
// prefix and surrounding whitespace removed. Only valid after [Next]
// returns true.
func (scanner *FrameScanner) Frame() string {
	return scanner.current
}

// Err returns the first read error encountered. Returns nil if
// scanning ended due to a clean EOF.
func (scanner *FrameScanner) Err() error {
	if scanner.err == io.EOF {
		return nil
	}
	return scanner.err
}
