// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newTerminalProgress(&buf)

	p.OnProgress("Fetched 12 items from somefan (3/10)", 3, 10, 14)
	out := buf.String()
	if !strings.HasPrefix(out, "\r") {
		t.Errorf("progress line should start with carriage return: %q", out)
	}
	if !strings.Contains(out, "[3/10 30%]") {
		t.Errorf("missing progress fraction: %q", out)
	}
	if !strings.Contains(out, "ETA 14s") {
		t.Errorf("missing eta: %q", out)
	}

	// A shorter follow-up line must fully overwrite the longer one.
	buf.Reset()
	p.OnProgress("Done", 10, 10, 0)
	out = buf.String()
	if !strings.Contains(out, "Done") || !strings.Contains(out, " ") {
		t.Errorf("short line not padded: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("completed progress should end the line: %q", out)
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{5, "5s"},
		{59, "59s"},
		{60, "1m00s"},
		{95, "1m35s"},
		{3600, "1h00m"},
		{3725, "1h02m"},
	}
	for _, tt := range tests {
		if got := formatETA(tt.seconds); got != tt.want {
			t.Errorf("formatETA(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
