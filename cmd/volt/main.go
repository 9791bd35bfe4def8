package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	volt "github.com/volt-lang/volt"
)

const (
	appName     = "volt"
	historyFile = ".volt_history"
	promptMain  = "> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("Volt %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", volt.Version)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl(nil))
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "eval":
		os.Exit(cmdEval(os.Args[2:]))
	case "version":
		fmt.Println(volt.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		// Bare filename works as shorthand for run.
		if strings.HasSuffix(cmd, ".js") {
			os.Exit(cmdRun(os.Args[1:]))
		}
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Volt %s (built %s)

Usage:
  %s run <file.js> [--] [args...]   Run a script.
  %s repl                           Start the REPL (default with no args).
  %s eval <code>                    Evaluate a one-liner and print the result.
  %s version                        Print the compiled version

`, volt.Version, volt.BuildDate, appName, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.js> [--] [args...]\n", appName)
		return 2
	}

	file := args[0]
	argv := args[1:]
	if len(argv) > 0 && argv[0] == "--" {
		argv = argv[1:]
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ip := volt.NewInterpreter()
	publishScriptArgs(ip, file, argv)

	if _, err := ip.EvalNamedSource(file, string(src)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// publishScriptArgs exposes the entry path and arguments to the script as
// globalThis.process, the shape most scripts already expect.
func publishScriptArgs(ip *volt.Interpreter, file string, argv []string) {
	path := file
	if abs, err := filepath.Abs(file); err == nil {
		path = abs
	}
	elems := make([]volt.Value, 0, len(argv)+2)
	elems = append(elems, volt.Str(appName), volt.Str(path))
	for _, a := range argv {
		elems = append(elems, volt.Str(a))
	}
	process := ip.NewObject()
	process.SetOwn("argv", volt.ObjVal(ip.NewArray(elems)))
	ip.GlobalObject().SetOwn("process", volt.ObjVal(process))
}

// -----------------------------------------------------------------------------
// eval
// -----------------------------------------------------------------------------

func cmdEval(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s eval <code>\n", appName)
		return 2
	}
	ip := volt.NewInterpreter()
	v, err := ip.EvalSource(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if !v.IsUndefined() {
		fmt.Println(volt.PrintValue(v))
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

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

	volt.EnableColor = true
	ip := volt.NewInterpreter()

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			switch strings.TrimSpace(strings.ToLower(code)) {
			case ":quit":
				return 0
			default:
				fmt.Printf("unknown command. Type :quit to exit.\n")
			}
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		v, err := ip.EvalPersistentSource(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		if !v.IsUndefined() {
			fmt.Println(volt.PrintValue(v))
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe accumulates lines until the parser stops reporting the
// input as incomplete, giving multi-line continuation without a syntax-aware
// prompt.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := volt.ParseInteractive(src); perr == nil {
			return src, true
		} else if volt.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
