// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/quarterdeck-io/quarterdeck/console"
	"github.com/quarterdeck-io/quarterdeck/lib/version"
)

// commandTable builds the daemon's built-in console commands. Slice
// order is the help-banner order.
func (d *daemon) commandTable() []console.Command {
	return []console.Command{
		{Name: "echo", Help: "[text ...]", Run: d.cmdEcho},
		{Name: "uptime", Help: "", Run: d.cmdUptime},
		{Name: "version", Help: "", Run: d.cmdVersion},
		{Name: "sessions", Help: "", Run: d.cmdSessions},
		{Name: "loglevel", Help: "[debug|info|warn|error]", Run: d.cmdLogLevel},
	}
}

func (d *daemon) cmdEcho(out io.Writer, argv [][]byte) {
	line := bytes.Join(argv[1:], []byte(" "))
	line = append(line, '\n')
	out.Write(line)
}

func (d *daemon) cmdUptime(out io.Writer, argv [][]byte) {
	uptime := d.clock.Now().Sub(d.startedAt).Round(time.Second)
	fmt.Fprintf(out, "up %s\n", uptime)
}

func (d *daemon) cmdVersion(out io.Writer, argv [][]byte) {
	fmt.Fprintf(out, "quarterdeck %s\n", version.Info())
}

func (d *daemon) cmdSessions(out io.Writer, argv [][]byte) {
	infos := d.manager.Snapshot()
	if len(infos) == 0 {
		fmt.Fprintln(out, "no active sessions")
		return
	}
	now := d.clock.Now()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRANSPORT\tREMOTE\tCONNECTED\tIDLE\tLINES")
	for _, info := range infos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			info.ID,
			info.Transport,
			info.Remote,
			info.ConnectedAt.Format(time.RFC3339),
			now.Sub(info.LastActivity).Round(time.Second),
			info.Lines,
		)
	}
	w.Flush()
}

func (d *daemon) cmdLogLevel(out io.Writer, argv [][]byte) {
	if len(argv) == 1 {
		fmt.Fprintf(out, "log level: %s\n", strings.ToLower(d.level.Level().String()))
		return
	}
	level, err := parseLevel(string(argv[1]))
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}
	d.level.Set(level)
	fmt.Fprintf(out, "log level set to %s\n", strings.ToLower(level.String()))
	d.logger.Info("log level changed", "level", strings.ToLower(level.String()))
}
