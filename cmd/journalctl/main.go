// Command journalctl is an operator tool for inspecting a session's
// on-disk journal (internal/journal): tailing recent entries, replaying
// a sequence-number range, counting entries, or opening an interactive
// REPL. Grounded on gurre-prime-fix-md-go/fixclient/repl.go's
// readline-driven command loop, generalized from FIX market-data/order
// commands to journal-inspection commands over this simulator's own
// binary log format.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marketsim/exchange-sim/internal/journal"
	"github.com/marketsim/exchange-sim/internal/model"
)

// parseDirection maps a --direction flag value ("", "in"/"inbound",
// "out"/"outbound") to the optional filter journal.Latest/ReplayByTime
// take, where nil means "either direction".
func parseDirection(s string) (*model.Direction, error) {
	switch s {
	case "":
		return nil, nil
	case "in", "inbound":
		d := model.DirectionInbound
		return &d, nil
	case "out", "outbound":
		d := model.DirectionOutbound
		return &d, nil
	default:
		return nil, fmt.Errorf("journalctl: --direction must be \"in\" or \"out\", got %q", s)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "journalctl",
		Short: "Inspect exchange simulator session journals",
	}

	var n int
	var tailDirection string
	tail := &cobra.Command{
		Use:   "tail <path>",
		Short: "print the last N entries of a journal file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(tailDirection)
			if err != nil {
				return err
			}
			entries, err := journal.Latest(args[0], n, dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				printEntry(e)
			}
			return nil
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of entries to print")
	tail.Flags().StringVar(&tailDirection, "direction", "", "restrict to \"in\" or \"out\" (default: either)")

	var fromTs, toTs int64
	var timeDirection string
	timerange := &cobra.Command{
		Use:   "timerange <path>",
		Short: "print entries whose timestamp falls in [--from-ts, --to-ts]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(timeDirection)
			if err != nil {
				return err
			}
			return journal.ReplayByTime(args[0], dir, fromTs, toTs, func(e journal.Entry) error {
				printEntry(e)
				return nil
			})
		},
	}
	timerange.Flags().Int64Var(&fromTs, "from-ts", 0, "first timestamp, unix nanos (inclusive)")
	timerange.Flags().Int64Var(&toTs, "to-ts", 0, "last timestamp, unix nanos (inclusive, 0 = through end of log)")
	timerange.Flags().StringVar(&timeDirection, "direction", "", "restrict to \"in\" or \"out\" (default: either)")

	streams := &cobra.Command{
		Use:   "streams <dir>",
		Short: "list the stream names (journal files) found in a journal directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := journal.StreamNames(args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	var from, to uint64
	rangeCmd := &cobra.Command{
		Use:   "range <path>",
		Short: "print entries whose sequence number falls in [--from, --to]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journal.ReplayRange(args[0], uint32(from), uint32(to), func(e journal.Entry) error {
				printEntry(e)
				return nil
			})
		},
	}
	rangeCmd.Flags().Uint64Var(&from, "from", 0, "first sequence number (inclusive)")
	rangeCmd.Flags().Uint64Var(&to, "to", 0, "last sequence number (inclusive, 0 = through end of log)")

	count := &cobra.Command{
		Use:   "count <path>",
		Short: "print the number of entries in a journal file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := journal.EntryCount(args[0])
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	}

	var indexPath string
	index := &cobra.Command{
		Use:   "index <path>",
		Short: "build a sqlite index of a journal file's entry headers for fast range lookups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexPath == "" {
				indexPath = args[0] + ".idx.sqlite"
			}
			n, err := buildIndex(args[0], indexPath)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d entries into %s\n", n, indexPath)
			return nil
		},
	}
	index.Flags().StringVar(&indexPath, "out", "", "sqlite database path (default <path>.idx.sqlite)")

	repl := &cobra.Command{
		Use:   "repl <path>",
		Short: "interactive journal inspector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(args[0])
		},
	}

	root.AddCommand(tail, rangeCmd, timerange, streams, count, index, repl)
	return root
}

func printEntry(e journal.Entry) {
	dir := "IN "
	if e.Direction == model.DirectionOutbound {
		dir = "OUT"
	}
	preview := previewRaw(e.Raw)
	fmt.Printf("seq=%-8d %s ts=%d bytes=%-5d %s\n", e.SeqNum, dir, e.Timestamp, len(e.Raw), preview)
}

// previewRaw renders raw message bytes for display: FIX's SOH-delimited
// tag=value text becomes readable once SOH is swapped for '|'; binary
// protocols fall back to a length-bounded hex dump.
func previewRaw(raw []byte) string {
	printable := true
	for _, b := range raw {
		if b == 0x01 {
			continue
		}
		if b < 0x20 || b > 0x7e {
			printable = false
			break
		}
	}
	if printable {
		out := make([]byte, len(raw))
		for i, b := range raw {
			if b == 0x01 {
				out[i] = '|'
			} else {
				out[i] = b
			}
		}
		return string(out)
	}
	max := len(raw)
	if max > 32 {
		max = 32
	}
	return "hex:" + hexDump(raw[:max])
}

func hexDump(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
