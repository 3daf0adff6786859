// fesh is an interactive shell for playing with the fast-estimate
// data structures.
//
// Usage:
//
//	fesh [opts]
//
// Options:
//
//	-u, --uniq-size    Linear counter bitmap size in 4 byte words (default: 100000)
//	-t, --top-size     Stream summary capacity (default: 1000)
//	    --hash         Hash function for the linear counter: md5 or xxhash
//
// Commands (in REPL):
//
//	offer <line>          Feed one line to both estimators
//	offer! <n> <line>     Feed the same line n times
//	top [k]               Show the k most frequent lines (default: 10)
//	uniq                  Show the distinct-line estimate
//	stats                 Show occupancy and tracking details
//	reset                 Discard both estimators and start over
//	help                  Show this help
//	exit / quit / q       Exit
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/bazhenov/fast-estimate/pkg/linearcount"
	"github.com/bazhenov/fast-estimate/pkg/streamsummary"
)

const (
	defaultUniqSize = 100000
	defaultTopSize  = 1000
	defaultTopShow  = 10
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	uniqSize := flag.Int("uniq-size", defaultUniqSize, "linear counter bitmap size in 4 byte words")
	flag.IntVar(uniqSize, "u", defaultUniqSize, "shorthand for -uniq-size")
	topSize := flag.Int("top-size", defaultTopSize, "stream summary capacity")
	flag.IntVar(topSize, "t", defaultTopSize, "shorthand for -top-size")
	hashName := flag.String("hash", "md5", "hash function: md5 or xxhash")
	flag.Parse()

	if *uniqSize < 1 || *topSize < 1 {
		return errors.New("sizes must be positive")
	}

	repl := &REPL{
		uniqSize: *uniqSize,
		topSize:  *topSize,
		hashName: *hashName,
	}

	if err := repl.reset(); err != nil {
		return err
	}

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	uniqSize int
	topSize  int
	hashName string

	counter *linearcount.Counter
	summary *streamsummary.Summary
	liner   *liner.State
}

// reset replaces both estimators with empty ones.
func (r *REPL) reset() error {
	hash := linearcount.MD5

	switch r.hashName {
	case "md5":
	case "xxhash":
		hash = linearcount.XXHash
	default:
		return fmt.Errorf("unknown hash function: %q", r.hashName)
	}

	counter, err := linearcount.NewWithHash(r.uniqSize, hash)
	if err != nil {
		return err
	}

	summary, err := streamsummary.New(r.topSize)
	if err != nil {
		return err
	}

	r.counter = counter
	r.summary = summary

	return nil
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".fesh_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	// Set up liner for readline-style input
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	// Configure liner
	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	// Load history
	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("fesh - estimator shell (uniq_size=%d, top_size=%d, hash=%s)\n", r.uniqSize, r.topSize, r.hashName)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("fesh> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Add to history
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "offer":
			r.cmdOffer(line, args)

		case "offer!":
			r.cmdOfferRepeat(line, args)

		case "top":
			r.cmdTop(args)

		case "uniq", "distinct":
			r.cmdUniq()

		case "stats", "info":
			r.cmdStats()

		case "reset":
			r.cmdReset()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"offer", "offer!", "top", "uniq", "distinct",
		"stats", "info", "reset", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  offer <line>          Feed one line to both estimators")
	fmt.Println("  offer! <n> <line>     Feed the same line n times")
	fmt.Println("  top [k]               Show the k most frequent lines (default: 10)")
	fmt.Println("  uniq                  Show the distinct-line estimate")
	fmt.Println("  stats                 Show occupancy and tracking details")
	fmt.Println("  reset                 Discard both estimators and start over")
	fmt.Println("  help                  Show this help")
	fmt.Println("  exit / quit / q       Exit")
	fmt.Println()
	fmt.Println("Lines: everything after the command word (and the count for offer!),")
	fmt.Println("with leading and trailing whitespace trimmed and interior whitespace preserved.")
}

// payload returns everything after the first n space-separated words of
// line, preserving interior whitespace.
func payload(line string, n int) string {
	rest := strings.TrimLeft(line, " \t")
	for range n {
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}

		rest = strings.TrimLeft(rest[idx:], " \t")
	}

	return rest
}

func (r *REPL) cmdOffer(line string, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: offer <line>")

		return
	}

	data := payload(line, 1)
	r.counter.Offer(data)
	count := r.summary.Offer(data)

	fmt.Printf("ok (count=%d)\n", count)
}

func (r *REPL) cmdOfferRepeat(line string, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: offer! <n> <line>")

		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		fmt.Printf("Invalid count: %s\n", args[0])

		return
	}

	data := payload(line, 2)

	var count uint64
	for range n {
		r.counter.Offer(data)
		count = r.summary.Offer(data)
	}

	fmt.Printf("ok (count=%d)\n", count)
}

func (r *REPL) cmdTop(args []string) {
	limit := defaultTopShow

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Printf("Invalid limit: %s\n", args[0])

			return
		}

		limit = n
	}

	items := r.summary.Top()
	if len(items) == 0 {
		fmt.Println("(nothing tracked yet)")

		return
	}

	if len(items) > limit {
		items = items[:limit]
	}

	for _, item := range items {
		fmt.Printf("%6d : %s", item.Count, item.Data)

		if item.Epsilon > 0 {
			fmt.Printf("  (overestimated by at most %d)", item.Epsilon)
		}

		fmt.Println()
	}
}

func (r *REPL) cmdUniq() {
	fmt.Printf("~%d distinct lines\n", r.counter.Estimate())
}

func (r *REPL) cmdStats() {
	fmt.Printf("observed:        %d offers\n", r.summary.Observed())
	fmt.Printf("distinct:        ~%d (linear counting)\n", r.counter.Estimate())
	fmt.Printf("bitmap:          %d words, occupancy %.4f%%\n", r.uniqSize, r.counter.Occupancy()*100)
	fmt.Printf("tracked:         %d of %d lines\n", r.summary.Len(), r.topSize)
}

func (r *REPL) cmdReset() {
	if err := r.reset(); err != nil {
		fmt.Println("reset failed:", err)

		return
	}

	fmt.Println("ok")
}
