package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/aheadvm/declc/decompile"
	"github.com/aheadvm/declc/decompile/ir"
	"github.com/aheadvm/declc/decompile/listing"
)

func main() {
	listingCmd := &cli.Command{
		Name:   "listing",
		Action: listingAct,
		Args:   cli.Args{},
	}

	decompileCmd := &cli.Command{
		Name:   "decompile",
		Action: decompileAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "declc",
		Description: "declc inspects and decompiles CFG+instruction program fixtures",
		Commands: []*cli.Command{
			listingCmd,
			decompileCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func listingAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		p, err := loadProgram(a)
		if err != nil {
			return errors.Wrap(err, "listing %v", a)
		}

		tlog.SpanFromContext(ctx).Printw("loaded program", "name", a, "blocks", p.BasicBlockCount())

		fmt.Print(listing.Build(p))
	}

	return nil
}

func decompileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	debug := os.Getenv("DECLC_DEBUG") != ""

	d := decompile.New(nil)

	for _, a := range c.Args {
		p, err := loadProgram(a)
		if err != nil {
			return errors.Wrap(err, "decompile %v", a)
		}

		method := ir.MethodReference{
			ClassName: filepath.Dir(a),
			Name:      filepath.Base(a),
		}
		opts := ir.DecompilerOptions{FriendlyToDebugger: debug}

		node, err := d.DecompileRegular(ctx, method, p, opts)
		if err != nil {
			if de, ok := err.(*decompile.DecompilationError); ok {
				fmt.Fprintf(os.Stderr, "%s\n", de.Listing)
			}
			return errors.Wrap(err, "decompile %v", a)
		}

		fmt.Printf("%s: %+v\n", a, node.Body)
	}

	return nil
}
