// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "strings"

// delimiters is the token separator set. Runs of these bytes split a
// line into tokens; every other byte is token content.
const delimiters = " \t"

// Tokenize appends the tokens of line to argv and returns the extended
// slice. Tokens are sub-slices of line: no bytes are copied and no
// memory is allocated as long as argv has spare capacity, so the
// returned views are only valid while line is.
//
// Runs of consecutive delimiters collapse (empty tokens are never
// produced) and leading or trailing delimiters are ignored. Scanning
// stops at end of line or once argv reaches its capacity; in the
// latter case the remaining text is dropped silently. Truncation is a
// policy, not an error — a console line with more arguments than the
// vector holds is dispatched with the arguments that fit.
//
// An empty line, or one holding only delimiters, appends nothing.
func Tokenize(line []byte, argv [][]byte) [][]byte {
	i := 0
	for len(argv) < cap(argv) {
		for i < len(line) && isDelimiter(line[i]) {
			i++
		}
		if i == len(line) {
			break
		}
		start := i
		for i < len(line) && !isDelimiter(line[i]) {
			i++
		}
		argv = append(argv, line[start:i])
	}
	return argv
}

func isDelimiter(c byte) bool {
	return strings.IndexByte(delimiters, c) >= 0
}
