// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// terminalProgress renders progress updates on a single line using
// carriage returns, with a percentage and ETA when a total is known.
type terminalProgress struct {
	mu        sync.Mutex
	w         io.Writer
	lastWidth int
}

func newTerminalProgress(w io.Writer) *terminalProgress {
	return &terminalProgress{w: w}
}

func (p *terminalProgress) OnProgress(status string, current, total, etaSeconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := status
	if total > 0 && current > 0 {
		line = fmt.Sprintf("%s [%d/%d %.0f%%]", status, current, total, float64(current)/float64(total)*100)
		if etaSeconds > 0 {
			line += " ETA " + formatETA(etaSeconds)
		}
	}

	// Pad with spaces so a shorter line fully overwrites the previous one.
	padding := ""
	if w := len(line); w < p.lastWidth {
		padding = strings.Repeat(" ", p.lastWidth-w)
	}
	p.lastWidth = len(line)

	fmt.Fprintf(p.w, "\r%s%s", line, padding)
	if total > 0 && current >= total {
		fmt.Fprintln(p.w)
		p.lastWidth = 0
	}
}

func formatETA(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
