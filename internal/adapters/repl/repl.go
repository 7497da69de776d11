package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"stock-ledger/internal/adapters/cli"
	"stock-ledger/internal/app"
	"stock-ledger/internal/core"
)

var errExit = errors.New("exit")

// Run starts the interactive loop. Each line is a command, with or without a
// leading slash; the one-shot CLI commands are all available, plus the
// interactive /new-rfq wizard.
func Run(ctx context.Context, svc app.ApplicationService, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Stock Ledger")
	fmt.Fprintln(out, "Type /help for commands, /exit to quit.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if err := dispatch(ctx, svc, reader, out, input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				printError(out, err)
			}
		}
		if readErr != nil {
			fmt.Fprintln(out)
			return
		}
	}
}

func dispatch(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "help", "h":
		_ = cli.Run(ctx, svc, nil, out)
		fmt.Fprintln(out, "  new-rfq   <vendor-id>                         interactive RFQ entry")
		fmt.Fprintln(out, "  exit                                          leave the shell")
		return nil

	case "exit", "quit", "e", "q":
		return errExit

	case "new-rfq":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /new-rfq <vendor-id>")
			return nil
		}
		handleNewRFQ(ctx, reader, out, svc, args[0])
		return nil
	}

	return cli.Run(ctx, svc, append([]string{cmd}, args...), out)
}

func printError(out io.Writer, err error) {
	switch {
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintf(out, "%v  (type /help for all commands)\n", err)
	case core.KindOf(err) == core.CodeStorage:
		fmt.Fprintf(out, "Error: %v\n", err)
	default:
		fmt.Fprintf(out, "%s: %v\n", core.KindOf(err), err)
	}
}
