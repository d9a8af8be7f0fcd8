package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/sylt-lang/sylt/lang/lexer"
	"github.com/sylt-lang/sylt/lang/sylterr"
	"github.com/sylt-lang/sylt/lang/token"
)

// Tokenize runs the lexer phase only, printing one line per token.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	var errs sylterr.List
	toks := lexer.ScanAll(src, 1, func(pos token.Pos, msg string) {
		errs = append(errs, &sylterr.Error{Kind: sylterr.SyntaxError, File: path, Line: pos.Line, Message: msg})
	})

	for _, t := range toks {
		fmt.Fprintf(stdio.Stdout, "%s\n", t.Token)
	}

	if len(errs) > 0 {
		sylterr.Print(stdio.Stderr, errs)
		return errs
	}
	return nil
}
