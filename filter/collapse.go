// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package filter

import (
	"bytes"
	"sync"
)

// Collapse reduces carriage-return progress output to its final state.
// Text is held back until a newline arrives; each completed line is then
// emitted with everything up to its last carriage return removed.
// A trailing carriage return before the newline (CRLF) is dropped.
//
// Only the text after the last carriage return is kept while a line is
// pending, so a stream that redraws forever without a newline holds at most
// one segment. It is safe for concurrent use.
type Collapse struct {
	partial bytes.Buffer // Final segment of the line after the last newline.
	last    string       // Last line emitted, without its newline.
	mu      sync.Mutex
}

// NewCollapse creates a Collapse with no pending data.
func NewCollapse() *Collapse {
	return &Collapse{}
}

// Filter implements tee.Filter.
func (c *Collapse) Filter(p []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []byte{}

	for {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			break
		}

		c.partial.Write(p[:i])

		line := finalSegment(c.partial.Bytes())
		out = append(out, line...)
		out = append(out, '\n')
		c.last = string(line)

		c.partial.Reset()

		p = p[i+1:]
	}

	c.partial.Write(p)
	c.trim()

	return out, nil
}

// trim drops the pending text before the last carriage return.
// A single trailing carriage return is kept so CRLF is still recognised.
func (c *Collapse) trim() {
	b := c.partial.Bytes()
	body := bytes.TrimSuffix(b, []byte{'\r'})

	i := bytes.LastIndexByte(body, '\r')
	if i < 0 {
		return
	}

	kept := bytes.Clone(b[i+1:])
	c.partial.Reset()
	c.partial.Write(kept)
}

// Flush returns the pending partial line, collapsed, and clears it.
func (c *Collapse) Flush() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := bytes.Clone(finalSegment(c.partial.Bytes()))
	c.partial.Reset()

	return out
}

func (c *Collapse) pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.partial.String()
}

func (c *Collapse) lastLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last
}

// finalSegment returns the part of line after its last carriage return,
// ignoring a single trailing one.
func finalSegment(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\r'})

	if i := bytes.LastIndexByte(line, '\r'); i >= 0 {
		return line[i+1:]
	}

	return line
}
