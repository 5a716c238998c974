package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SanjoDeundiak/procspawn/pkg/lib"
)

func printSummary(w io.Writer, id string, c *lib.Command, st *lib.ProcessStatus) {
	state, pid, exit, took := "", "", "", ""
	if st != nil {
		state = st.State.String()
		pid = strconv.Itoa(st.PID)
		if st.Exit != nil {
			exit = st.Exit.String()
		}
		if st.EndTime != nil {
			took = st.EndTime.Sub(st.StartTime).Round(time.Millisecond).String()
		}
	}
	cmd := ""
	if c != nil {
		all := append([]string{c.Command}, c.Args...)
		cmd = strings.TrimSpace(strings.Join(all, " "))
	}

	cols := []struct {
		head, val string
		min       int
	}{
		{"ID", id, 36},
		{"PID", pid, 3},
		{"STATE", state, 7},
		{"EXIT", exit, 4},
		{"TOOK", took, 4},
		{"COMMAND", cmd, 7},
	}

	var sep, head, row strings.Builder
	sep.WriteString("+")
	head.WriteString("|")
	row.WriteString("|")
	for _, col := range cols {
		width := max(col.min, len(col.head), len(col.val))
		sep.WriteString("-" + strings.Repeat("-", width) + "-+")
		head.WriteString(" " + pad(col.head, width) + " |")
		row.WriteString(" " + pad(col.val, width) + " |")
	}
	fmt.Fprintln(w, sep.String())
	fmt.Fprintln(w, head.String())
	fmt.Fprintln(w, sep.String())
	fmt.Fprintln(w, row.String())
	fmt.Fprintln(w, sep.String())
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
