// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1}, // substitution
		{"abc", "ab", 1},  // deletion
		{"ab", "abc", 1},  // insertion
		{"abc", "bac", 2}, // transposition (counted as 2 edits)
		{"kitten", "sitting", 3},
		{"attach", "attch", 1},
		{"sessions", "sesions", 1},
		{"status", "stauts", 2},
		{"close", "clsoe", 2},
	}

	for _, test := range tests {
		got := levenshtein(test.a, test.b)
		if got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestLevenshtein_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"abc", "abd"},
		{"hello", "helo"},
		{"attach", "attch"},
	}

	for _, pair := range pairs {
		forward := levenshtein(pair[0], pair[1])
		reverse := levenshtein(pair[1], pair[0])
		if forward != reverse {
			t.Errorf("levenshtein(%q, %q) = %d, but reverse = %d",
				pair[0], pair[1], forward, reverse)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "attach"},
		{Name: "status"},
		{Name: "sessions"},
		{Name: "close"},
		{Name: "version"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"attch", "attach"},       // missing letter
		{"atach", "attach"},       // missing letter
		{"sesions", "sessions"},   // missing letter
		{"sessionss", "sessions"}, // extra letter
		{"vrsion", "version"},     // missing letter
		{"clsoe", "close"},        // transposition
		{"zzzzzzzzz", ""},         // nothing close
		{"a", ""},                 // too short to match well
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got := suggestCommand(test.input, commands)
			if got != test.want {
				t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestSuggestFlag(t *testing.T) {
	makeFlagSet := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.String("socket", "", "")
		flagSet.String("serial", "", "")
		flagSet.String("tcp", "", "")
		flagSet.Int("baud", 115200, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "close typo with double dash",
			args: []string{"--sokcet"},
			want: "--socket",
		},
		{
			name: "close typo with single dash",
			args: []string{"-sokcet"},
			want: "--socket",
		},
		{
			name: "serial typo",
			args: []string{"--seral"},
			want: "--serial",
		},
		{
			name: "baud typo",
			args: []string{"--buad"},
			want: "--baud",
		},
		{
			name: "nothing close",
			args: []string{"--zzzzzzzzz"},
			want: "",
		},
		{
			name: "no flags",
			args: []string{"positional"},
			want: "",
		},
		{
			name: "flag with equals",
			args: []string{"--sokcet=/tmp/q.sock"},
			want: "--socket",
		},
		{
			name: "known flag skipped",
			args: []string{"--socket", "--seral"},
			want: "--serial",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := suggestFlag(test.args, makeFlagSet())
			if got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
