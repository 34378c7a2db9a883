// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func testRecord(level slog.Level, msg string) slog.Record {
	return slog.NewRecord(time.Now(), level, msg, 0)
}

// =============================================================================
// Ring Tests
// =============================================================================

func TestRing_Empty(t *testing.T) {
	r := NewRing(4)
	if got := r.Entries(); len(got) != 0 {
		t.Errorf("Entries() on empty ring = %d entries, want 0", len(got))
	}
}

func TestRing_PartialFill(t *testing.T) {
	r := NewRing(4)
	r.add(Entry{Message: "one"})
	r.add(Entry{Message: "two"})

	got := r.Entries()
	if len(got) != 2 {
		t.Fatalf("Entries() = %d entries, want 2", len(got))
	}
	if got[0].Message != "one" || got[1].Message != "two" {
		t.Errorf("Entries() order = [%s, %s], want [one, two]", got[0].Message, got[1].Message)
	}
}

func TestRing_WrapAround(t *testing.T) {
	r := NewRing(3)
	for i := 1; i <= 5; i++ {
		r.add(Entry{Message: fmt.Sprintf("msg-%d", i)})
	}

	got := r.Entries()
	if len(got) != 3 {
		t.Fatalf("Entries() = %d entries, want 3", len(got))
	}
	// Oldest surviving record first.
	want := []string{"msg-3", "msg-4", "msg-5"}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("Entries()[%d] = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestRing_EntriesReturnsCopy(t *testing.T) {
	r := NewRing(4)
	r.add(Entry{Message: "original"})

	first := r.Entries()
	first[0].Message = "mutated"

	second := r.Entries()
	if second[0].Message != "original" {
		t.Error("Entries() should return a copy, not a reference")
	}
}

func TestRing_ConcurrentAdd(t *testing.T) {
	r := NewRing(64)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.add(Entry{Message: "msg"})
		}(i)
	}
	wg.Wait()

	if got := r.Entries(); len(got) != 64 {
		t.Errorf("Entries() = %d entries, want full ring of 64", len(got))
	}
}

// =============================================================================
// ringHandler Tests
// =============================================================================

func TestRingHandler_Enabled(t *testing.T) {
	h := NewRing(4).handler(slog.LevelWarn)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should not be enabled at Warn threshold")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Warn should be enabled at Warn threshold")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("Error should be enabled at Warn threshold")
	}
}

func TestRingHandler_Handle(t *testing.T) {
	r := NewRing(4)
	h := r.handler(slog.LevelInfo)

	if err := h.Handle(context.Background(), testRecord(slog.LevelError, "boom")); err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}

	got := r.Entries()
	if len(got) != 1 {
		t.Fatalf("Entries() = %d entries, want 1", len(got))
	}
	if got[0].Message != "boom" {
		t.Errorf("Message = %q, want boom", got[0].Message)
	}
	if got[0].Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", got[0].Level)
	}
	if got[0].Time == "" {
		t.Error("Time should be populated")
	}
}

// =============================================================================
// fanoutHandler Tests
// =============================================================================

func TestFanoutHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	debug := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	errOnly := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})

	fh := &fanoutHandler{handlers: []slog.Handler{debug, errOnly}}
	if !fh.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Debug should be enabled when any child accepts it")
	}

	fh = &fanoutHandler{handlers: []slog.Handler{errOnly}}
	if fh.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should not be enabled when no child accepts it")
	}
}

func TestFanoutHandler_Handle_LevelFiltering(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelDebug})
	h2 := slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError})

	fh := &fanoutHandler{handlers: []slog.Handler{h1, h2}}
	if err := fh.Handle(context.Background(), testRecord(slog.LevelInfo, "hello")); err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}

	if buf1.Len() == 0 {
		t.Error("debug handler should have received the record")
	}
	if buf2.Len() != 0 {
		t.Error("error-only handler should not have received the record")
	}
}

func TestFanoutHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	fh := &fanoutHandler{handlers: []slog.Handler{slog.NewTextHandler(&buf, nil)}}

	child := fh.WithAttrs([]slog.Attr{slog.String("key", "value")})
	if _, ok := child.(*fanoutHandler); !ok {
		t.Fatal("WithAttrs() should return *fanoutHandler")
	}

	_ = child.Handle(context.Background(), testRecord(slog.LevelInfo, "attrs"))
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("output should carry the attached attr: %s", buf.String())
	}
}

// =============================================================================
// Setup Tests
// =============================================================================

func TestSetup_WritesJSONAndRing(t *testing.T) {
	var buf bytes.Buffer
	ring := Setup(Config{Level: slog.LevelInfo, RingSize: 8, Writer: &buf})

	slog.Info("pool replenished", "generated", 3)

	if !strings.Contains(buf.String(), `"msg":"pool replenished"`) {
		t.Errorf("stderr stream should be JSON with the message: %s", buf.String())
	}

	entries := ring.Entries()
	if len(entries) != 1 {
		t.Fatalf("ring has %d entries, want 1", len(entries))
	}
	if entries[0].Message != "pool replenished" {
		t.Errorf("ring message = %q, want 'pool replenished'", entries[0].Message)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	ring := Setup(Config{Level: slog.LevelWarn, RingSize: 8, Writer: &buf})

	slog.Debug("dropped")
	slog.Info("also dropped")
	slog.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Errorf("records below Warn should be filtered: %s", buf.String())
	}
	entries := ring.Entries()
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("ring should hold only the Warn record, got %+v", entries)
	}
}

func TestSetup_DefaultRingSize(t *testing.T) {
	var buf bytes.Buffer
	ring := Setup(Config{Writer: &buf})

	for i := 0; i < DefaultRingSize+10; i++ {
		slog.Info("fill")
	}
	if got := len(ring.Entries()); got != DefaultRingSize {
		t.Errorf("ring retained %d entries, want %d", got, DefaultRingSize)
	}
}
