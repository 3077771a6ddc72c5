// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestMarshalDeterministic(t *testing.T) {
	// Map key order must not leak into the encoding: two maps with
	// the same entries encode to identical bytes.
	first, err := Marshal(map[string]int{"alpha": 1, "beta": 2, "gamma": 3})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	second, err := Marshal(map[string]int{"gamma": 3, "alpha": 1, "beta": 2})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("encodings differ: %x vs %x", first, second)
	}
}

func TestRoundTripStruct(t *testing.T) {
	type sessionInfo struct {
		ID        int64  `cbor:"id"`
		Transport string `cbor:"transport"`
		Lines     int64  `cbor:"lines"`
	}

	in := sessionInfo{ID: 7, Transport: "tcp", Lines: 42}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var out sessionInfo
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// A newer daemon may add fields; an older client must still
	// decode the ones it knows.
	data, err := Marshal(map[string]any{"id": 1, "future_field": "x"})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var out struct {
		ID int64 `cbor:"id"`
	}
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out.ID != 1 {
		t.Errorf("ID = %d, want 1", out.ID)
	}
}

func TestAnyDecodeUsesStringMaps(t *testing.T) {
	data, err := Marshal(map[string]any{"nested": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var out any
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	top, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", out)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", top["nested"])
	}
}

func TestRawMessageDefersDecode(t *testing.T) {
	type envelope struct {
		Action  string     `cbor:"action"`
		Payload RawMessage `cbor:"payload,omitempty"`
	}

	payload, err := Marshal(map[string]string{"target": "7"})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	data, err := Marshal(envelope{Action: "close", Payload: payload})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var out envelope
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out.Action != "close" {
		t.Errorf("Action = %q, want %q", out.Action, "close")
	}

	var inner map[string]string
	if err := Unmarshal(out.Payload, &inner); err != nil {
		t.Fatalf("Unmarshal(payload) error: %v", err)
	}
	if inner["target"] != "7" {
		t.Errorf("payload target = %q, want %q", inner["target"], "7")
	}
}

func TestStreamEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)
	for _, value := range []string{"one", "two"} {
		if err := encoder.Encode(value); err != nil {
			t.Fatalf("Encode(%q) error: %v", value, err)
		}
	}

	decoder := NewDecoder(&buf)
	for _, want := range []string{"one", "two"} {
		var got string
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if got != want {
			t.Errorf("Decode() = %q, want %q", got, want)
		}
	}
}
