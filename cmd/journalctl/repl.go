package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/marketsim/exchange-sim/internal/journal"
)

// runRepl opens an interactive session over one journal file, following
// gurre-prime-fix-md-go/fixclient/repl.go's readline setup (prompt,
// history file, prefix completion) and fields-based command dispatch.
func runRepl(path string) error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("tail"),
		readline.PcItem("range"),
		readline.PcItem("timerange"),
		readline.PcItem("idxrange"),
		readline.PcItem("count"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "journalctl> ",
		HistoryFile:     "/tmp/journalctl_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("journalctl: readline init: %w", err)
	}
	defer rl.Close()

	indexPath := path + ".idx.sqlite"

	fmt.Printf("journalctl: inspecting %s (type 'help' for commands)\n", path)
	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "tail":
			n := 20
			if len(parts) > 1 {
				if v, err := strconv.Atoi(parts[1]); err == nil {
					n = v
				}
			}
			entries, err := journal.Latest(path, n, nil)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, e := range entries {
				printEntry(e)
			}
		case "timerange":
			if len(parts) < 3 {
				fmt.Println("usage: timerange <from-ts> <to-ts>")
				continue
			}
			fromTs, err1 := strconv.ParseInt(parts[1], 10, 64)
			toTs, err2 := strconv.ParseInt(parts[2], 10, 64)
			if err1 != nil || err2 != nil {
				fmt.Println("error: from-ts/to-ts must be numeric unix-nano timestamps")
				continue
			}
			if err := journal.ReplayByTime(path, nil, fromTs, toTs, func(e journal.Entry) error {
				printEntry(e)
				return nil
			}); err != nil {
				fmt.Println("error:", err)
			}
		case "range":
			if len(parts) < 3 {
				fmt.Println("usage: range <from> <to>")
				continue
			}
			from, err1 := parseUint32(parts[1])
			to, err2 := parseUint32(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Println("error: from/to must be numeric sequence numbers")
				continue
			}
			if err := journal.ReplayRange(path, from, to, func(e journal.Entry) error {
				printEntry(e)
				return nil
			}); err != nil {
				fmt.Println("error:", err)
			}
		case "idxrange":
			if len(parts) < 3 {
				fmt.Println("usage: idxrange <from> <to> (requires 'journalctl index' to have been run first)")
				continue
			}
			from, err1 := parseUint32(parts[1])
			to, err2 := parseUint32(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Println("error: from/to must be numeric sequence numbers")
				continue
			}
			rows, err := queryIndexRange(indexPath, from, to)
			if err != nil {
				fmt.Println("error:", err, "(run 'journalctl index", path, "' first)")
				continue
			}
			for _, r := range rows {
				fmt.Printf("seq=%-8d ts=%d bytes=%d\n", r[0], r[1], r[2])
			}
		case "count":
			n, err := journal.EntryCount(path)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(n)
		case "help":
			fmt.Println("commands: tail [n] | range <from> <to> | timerange <from-ts> <to-ts> | idxrange <from> <to> | count | exit")
		case "exit", "quit":
			return nil
		default:
			fmt.Printf("unknown command %q (try 'help')\n", parts[0])
		}
	}
}
