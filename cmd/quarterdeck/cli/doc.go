// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the quarterdeck operator
// tool: a small command tree with pflag flag sets, structured help
// output, typo suggestions for unknown commands and flags, and
// categorized errors (ToolError) so exit paths read uniformly.
package cli
