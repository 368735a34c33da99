// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package log

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func capture(t *testing.T, l Level) *bytes.Buffer {
	var out bytes.Buffer
	SetOutput(&out)
	SetLevel(l)
	now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		now = time.Now
	})
	return &out
}

func TestLevels(t *testing.T) {
	out := capture(t, LevelInfo)
	Debug("hidden")
	Info("update done", "panel", "2.7", "frames", 16)
	Error("update failed", errors.New("bus timeout"), "op", "clear")
	want := "2025-01-02T03:04:05Z [INFO] update done panel=2.7 frames=16\n" +
		"2025-01-02T03:04:05Z [ERROR] update failed err=\"bus timeout\" op=clear\n"
	if diff := cmp.Diff(out.String(), want); diff != "" {
		t.Errorf("output difference (-got +want):\n%s", diff)
	}
}

func TestErrorOnly(t *testing.T) {
	out := capture(t, LevelError)
	Info("hidden")
	Error("shown", nil)
	if diff := cmp.Diff(out.String(), "2025-01-02T03:04:05Z [ERROR] shown err=<nil>\n"); diff != "" {
		t.Errorf("output difference (-got +want):\n%s", diff)
	}
}

func TestFormatKVs(t *testing.T) {
	if got := formatKVs("a", 1, 2, "b", "c"); got != " a=1" {
		t.Errorf("formatKVs() = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("debug"); err != nil || l != LevelDebug {
		t.Errorf("ParseLevel(debug) = %s, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) succeeded")
	}
}
