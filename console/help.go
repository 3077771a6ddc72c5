// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "fmt"

// helpName is the reserved command answered before table lookup.
const helpName = "help"

// runHelp implements the built-in help command. "help <name>" with
// exactly one target prints that command's usage line; every other
// argument count falls back to the banner.
func (d *Dispatcher) runHelp(argv [][]byte) {
	if len(argv) == 2 {
		target := argv[1]
		if string(target) == helpName {
			fmt.Fprintf(d.out, "Usage: %s [command]\n", helpName)
			return
		}
		if cmd := d.lookup(target); cmd != nil {
			fmt.Fprintf(d.out, "Usage: %s %s\n", cmd.Name, cmd.Help)
			return
		}
		fmt.Fprintf(d.out, "Unknown command: %s\n", target)
		return
	}
	d.printBanner()
}

// printBanner lists every dispatchable name: the help built-in first,
// then the table in registration order, space-separated on one line.
func (d *Dispatcher) printBanner() {
	fmt.Fprintf(d.out, "Usage: %s [command]\n", helpName)
	fmt.Fprintf(d.out, "Commands: %s ", helpName)
	for i := range d.table {
		fmt.Fprintf(d.out, "%s ", d.table[i].Name)
	}
	fmt.Fprintln(d.out)
}
