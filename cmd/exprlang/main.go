// Command exprlang is the reference host for the exprlang library: an
// interactive REPL plus a one-shot eval mode. Sessions can be pre-seeded with
// variable bindings from a YAML file.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/pkg/profile"
	"github.com/sahilm/fuzzy"

	"github.com/lognarly/exprlang"
)

const (
	appName     = "exprlang"
	historyFile = ".exprlang_history"
	prompt      = "==> "
)

var (
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	outStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle = lipgloss.NewStyle().Faint(true)
)

func main() {
	os.Exit(run())
}

type replCmd struct {
	Seed string `help:"YAML file of variable bindings to pre-seed the session." type:"existingfile"`
}

type evalCmd struct {
	Seed string `help:"YAML file of variable bindings to pre-seed the session." type:"existingfile"`
	Expr string `arg:"" help:"Expression to evaluate."`
}

type rootCmd struct {
	Profile bool `help:"Write a CPU profile to the working directory."`

	Repl replCmd `cmd:"" default:"withargs" help:"Start the interactive REPL."`
	Eval evalCmd `cmd:"" help:"Evaluate one expression and print its result."`
}

func run() int {
	var root rootCmd
	ctx := kong.Parse(&root,
		kong.Name(appName),
		kong.Description("One-line expression playground: arithmetic, strings, arrays and filter/all/any predicates."),
		kong.UsageOnError(),
	)

	if root.Profile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	switch ctx.Command() {
	case "repl":
		return cmdRepl(root.Repl)
	case "eval <expr>":
		return cmdEval(root.Eval)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, ctx.Command())
		return 2
	}
}

func newSession(seedPath string) (*exprlang.Session, error) {
	sess := exprlang.NewSession()
	if seedPath != "" {
		data, err := os.ReadFile(seedPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", seedPath, err)
		}
		if err := sess.SeedYAML(data); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// -----------------------------------------------------------------------------
// eval
// -----------------------------------------------------------------------------

func cmdEval(c evalCmd) int {
	sess, err := newSession(c.Seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	defer sess.Close()

	res := sess.Eval(c.Expr)
	if !res.OK {
		fmt.Fprintln(os.Stderr, res.Err)
		return 1
	}
	fmt.Println(res.Result)
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(c replCmd) int {
	fmt.Printf("%s REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", appName)

	sess, err := newSession(c.Seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("%s: %v", appName, err)))
		return 1
	}
	defer sess.Close()

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(sess))

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
			return 1
		}

		code := strings.TrimSpace(line)
		if code == "" {
			continue
		}
		if strings.HasPrefix(code, ":") {
			if done := replCommand(sess, code); done {
				return 0
			}
			ln.AppendHistory(line)
			continue
		}

		// Go through Parse/EvalProgram directly so errors can be rendered
		// with a caret snippet; Session.Eval flattens them to one line.
		prog, perr := exprlang.Parse(code)
		if perr != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render(exprlang.WrapErrorWithSource(perr, code).Error()))
			ln.AppendHistory(line)
			continue
		}
		v, everr := exprlang.EvalProgram(prog, sess.Env())
		if everr != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render(exprlang.WrapErrorWithSource(everr, code).Error()))
			ln.AppendHistory(line)
			continue
		}
		fmt.Println(outStyle.Render(exprlang.FormatValue(v)))
		ln.AppendHistory(line)
	}
}

// replCommand handles ":"-prefixed REPL commands; it reports whether the REPL
// should exit.
func replCommand(sess *exprlang.Session, code string) bool {
	switch strings.ToLower(code) {
	case ":quit", ":q":
		return true
	case ":reset":
		sess.Reset()
		fmt.Println(dimStyle.Render("session reset"))
	case ":vars":
		env := sess.Env()
		names := env.Names()
		if len(names) == 0 {
			fmt.Println(dimStyle.Render("no variables bound"))
			return false
		}
		sort.Strings(names)
		for _, name := range names {
			v, _ := env.Get(name)
			fmt.Printf("%s = %s\n", name, outStyle.Render(exprlang.FormatValue(v)))
		}
	case ":help", ":h":
		fmt.Print(`REPL commands:
  :vars    List current variable bindings
  :reset   Discard all bindings
  :quit    Exit the REPL
`)
	default:
		fmt.Println(dimStyle.Render("unknown command; type :help"))
	}
	return false
}

// completer fuzzy-completes the word under the cursor against builtin
// function names, keywords, and the session's variable names.
func completer(sess *exprlang.Session) liner.Completer {
	return func(line string) []string {
		start := len(line)
		for start > 0 {
			c := line[start-1]
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
				start--
				continue
			}
			break
		}
		word := line[start:]
		if word == "" {
			return nil
		}

		candidates := append(exprlang.BuiltinNames(), "true", "false", "not")
		candidates = append(candidates, sess.Env().Names()...)
		sort.Strings(candidates)

		var out []string
		for _, m := range fuzzy.Find(word, candidates) {
			out = append(out, line[:start]+m.Str)
		}
		return out
	}
}
