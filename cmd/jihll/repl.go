package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/funvibe/jihll/internal/config"
	"github.com/funvibe/jihll/internal/store"
)

const banner = `jihll REPL. Type "exit" to quit, ":help" for commands.`

const replHelp = `Commands:
  exit            quit
  :globals        list global variables
  :disasm         toggle bytecode output
  :wait           wait for spawned tasks and report their faults
  :save [path]    snapshot data globals to SQLite
  :load [path]    restore a snapshot
  :help           show this text`

// session interprets REPL input lines against one app
type session struct {
	app    *app
	disasm bool
}

// execute handles one line of input and reports whether the session ends.
func (s *session) execute(input string) bool {
	line := strings.TrimSpace(input)
	if line == "" {
		return false
	}
	if line == config.ExitCommand {
		return true
	}

	if strings.HasPrefix(line, ":") {
		fields := strings.Fields(line)
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		if err := s.command(fields[0], arg); err != nil {
			fmt.Fprintf(s.app.stderr, "Error: %s\n", err)
		}
		return false
	}

	for _, err := range s.app.runSource("<repl>", input) {
		fmt.Fprintf(s.app.stderr, "Error: %s\n", err.Error())
	}
	return false
}

func (s *session) command(name, arg string) error {
	out := s.app.stdout

	switch name {
	case ":help":
		fmt.Fprintln(out, replHelp)

	case ":globals":
		globals := s.app.machine.Globals()
		for _, name := range globals.Names() {
			v, _ := globals.Get(name)
			if v.IsNative() {
				continue
			}
			fmt.Fprintf(out, "%s = %s\n", name, v)
		}

	case ":disasm":
		s.disasm = !s.disasm
		if s.disasm {
			s.app.backend.SetDisassembly(out)
			fmt.Fprintln(out, "disassembly on")
		} else {
			s.app.backend.SetDisassembly(nil)
			fmt.Fprintln(out, "disassembly off")
		}

	case ":wait":
		if err := s.app.machine.Wait(); err != nil {
			for _, fault := range unjoin(err) {
				fmt.Fprintf(s.app.stderr, "spawned task: %s\n", fault)
			}
		}

	case ":save":
		db, err := store.Open(s.snapshotPath(arg))
		if err != nil {
			return err
		}
		defer db.Close()
		saved, skipped, err := db.Save(s.app.machine.Globals())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d globals to %s\n", saved, db.Path())
		s.app.logger.Debug("snapshot saved", "path", db.Path(), "saved", saved, "skipped", len(skipped))

	case ":load":
		path := s.snapshotPath(arg)
		if _, err := os.Stat(path); err != nil {
			return err
		}
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.Restore(s.app.machine.Globals())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "loaded %d globals from %s\n", n, db.Path())

	default:
		return fmt.Errorf("unknown command %s (try :help)", name)
	}
	return nil
}

func (s *session) snapshotPath(arg string) string {
	if arg != "" {
		return arg
	}
	return s.app.cfg.Snapshot
}

// historyPath resolves a relative history file against the home directory
func historyPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, name)
}

func runREPL(a *app) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      a.cfg.REPL.Prompt,
		HistoryFile: historyPath(a.cfg.REPL.History),
		Stdout:      a.stdout,
		Stderr:      a.stderr,
	})
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitFault
	}
	defer rl.Close()

	fmt.Fprintln(a.stdout, banner)
	s := &session{app: a}
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // Ctrl-D
			break
		}
		if s.execute(line) {
			break
		}
	}

	// Let spawned tasks finish before the process exits
	if err := a.machine.Wait(); err != nil {
		for _, fault := range unjoin(err) {
			fmt.Fprintf(a.stderr, "spawned task: %s\n", fault)
		}
	}
	return exitOK
}
