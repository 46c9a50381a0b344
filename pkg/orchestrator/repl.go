package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/tools"
)

// REPL is the interactive brain console: reads a line, plans it, executes
// the planned tool call, prints the outcome.
type REPL struct {
	planner  Planner
	registry *tools.Registry
	out      io.Writer
}

func NewREPL(planner Planner, registry *tools.Registry) *REPL {
	return &REPL{
		planner:  planner,
		registry: registry,
		out:      os.Stdout,
	}
}

// Run drives the console until EOF, Ctrl+C, or "exit".
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "brain> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".mirrorbrain_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(r.out, "MirrorBrain console. Type /tools to list tools, exit to quit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(r.out, "Goodbye!")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
		if input == "/tools" {
			for _, desc := range r.registry.Descriptors() {
				fmt.Fprintf(r.out, "  %-20s %s\n", desc.Name, desc.Description)
			}
			continue
		}

		r.handle(ctx, input)
	}
}

func (r *REPL) handle(ctx context.Context, input string) {
	decision, err := r.planner.Decide(ctx, input, r.registry.Descriptors())
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}

	if decision.Call == nil {
		fmt.Fprintf(r.out, "%s\n", decision.Reply)
		return
	}

	fmt.Fprintf(r.out, "-> %s\n", decision.Call.Name)
	result := r.registry.Execute(ctx, decision.Call.Name, decision.Call.Args)
	if result.IsError {
		fmt.Fprintf(r.out, "Error: %s\n", result.ForLLM)
		return
	}

	fmt.Fprintf(r.out, "%s\n", result.ForLLM)
	if result.Data != nil {
		if data, err := json.MarshalIndent(result.Data, "", "  "); err == nil {
			fmt.Fprintf(r.out, "%s\n", data)
		}
	}
}
