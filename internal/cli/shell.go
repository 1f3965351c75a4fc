package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
)

// lineReader is the part of *readline.Instance the shell loop needs.
type lineReader interface {
	Readline() (string, error)
}

// Shell runs an interactive prompt until quit, EOF or ctx ends. Ctrl-C at
// the prompt clears the line; during a command it stops that command only.
func Shell(ctx context.Context, r *Runner) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "burstfire> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh := *r
	sh.Out = rl.Stdout()
	return sh.loop(ctx, rl, func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, os.Interrupt)
	})
}

func (r *Runner) loop(ctx context.Context, in lineReader, cmdCtx func(context.Context) (context.Context, context.CancelFunc)) error {
	fmt.Fprintln(r.Out, help)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := in.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(r.Out, "Exiting...")
				return nil
			}
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch strings.ToLower(parts[0]) {
		case "quit", "exit", "q":
			fmt.Fprintln(r.Out, "Exiting...")
			return nil
		}

		cctx, cancel := cmdCtx(ctx)
		err = r.Exec(cctx, parts)
		cancel()
		if err != nil {
			fmt.Fprintf(r.Out, "Error: %v\n", err)
		}
	}
}
