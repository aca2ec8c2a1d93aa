package main

import (
	"context"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackssa/compiler"
	"github.com/slowlang/stackssa/compiler/bytecode"
	"github.com/slowlang/stackssa/compiler/format"
	"github.com/slowlang/stackssa/compiler/symbolic"
	"github.com/slowlang/stackssa/compiler/wire"
)

func main() {
	cfgCmd := &cli.Command{
		Name:        "cfg",
		Description: "print block graphs",
		Action:      cfgAct,
		Args:        cli.Args{},
	}

	domCmd := &cli.Command{
		Name:        "dom",
		Description: "print dominator sets and the backbone",
		Action:      domAct,
		Args:        cli.Args{},
	}

	exportCmd := &cli.Command{
		Name:        "export",
		Description: "write the finished graph in the hand-off form",
		Action:      exportAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "output file"),
		},
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print assembled listing",
		Action:      asmAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "stackssa",
		Description: "stackssa translates stack bytecode listings into ssa block graphs",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("log", "stderr", "log output file (or stderr)"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("keep-dead", false, "keep unreachable blocks"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			cfgCmd,
			domCmd,
			exportCmd,
			asmCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	w := os.Stderr

	if name := c.String("log"); name != "" && name != "stderr" {
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}

		w = f
	}

	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(w, tlog.LstdFlags))

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func cfgAct(c *cli.Command) (err error) {
	return eachFile(c, func(ctx context.Context, e *symbolic.Executor) ([]byte, error) {
		b := hfmt.Appendf(nil, "func %s(%v)\n", e.Code().Name, e.Code().Args)

		return format.Format(ctx, b, e.Graph(), e.Doms())
	})
}

func domAct(c *cli.Command) (err error) {
	return eachFile(c, func(ctx context.Context, e *symbolic.Executor) ([]byte, error) {
		b := hfmt.Appendf(nil, "func %s\n", e.Code().Name)

		for _, blk := range e.Graph().Blocks() {
			b = hfmt.Appendf(b, "\t%v: %v\n", blk, e.Doms().Of(blk))
		}

		b = hfmt.Appendf(b, "backbone: %v\n", e.Backbone())

		if d := e.Dead(); len(d) != 0 {
			b = hfmt.Appendf(b, "dead: %v\n", d)
		}

		return b, nil
	})
}

func exportAct(c *cli.Command) (err error) {
	if len(c.Args) != 1 {
		return errors.New("expected exactly one listing")
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	e, err := compiler.CompileFile(ctx, c.Args[0], options(c))
	if err != nil {
		return errors.Wrap(err, "compile %v", c.Args[0])
	}

	data, err := wire.Encode(e.Code().Name, e.Code().Args, e.Graph())
	if err != nil {
		return errors.Wrap(err, "encode")
	}

	if c.String("output") == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	err = os.WriteFile(c.String("output"), data, 0o644)
	if err != nil {
		return errors.Wrap(err, "write output")
	}

	tlog.Printw("exported", "func", e.Code().Name, "size", len(data), "output", c.String("output"))

	return nil
}

func asmAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		code, err := bytecode.LoadFile(a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		b := hfmt.Appendf(nil, "%s: %s args %v consts %v\n", a, code.Name, code.Args, code.Consts)
		b = bytecode.Disassemble(b, code)

		_, err = os.Stdout.Write(b)
		if err != nil {
			return err
		}
	}

	return nil
}

func eachFile(c *cli.Command, f func(ctx context.Context, e *symbolic.Executor) ([]byte, error)) error {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		e, err := compiler.CompileFile(ctx, a, options(c))
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		b, err := f(ctx, e)
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return err
		}
	}

	return nil
}

func options(c *cli.Command) symbolic.Options {
	return symbolic.Options{
		KeepDead: c.Bool("keep-dead"),
	}
}
