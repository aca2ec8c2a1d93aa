package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackssa/compiler/bytecode"
	"github.com/slowlang/stackssa/compiler/symbolic"
)

func CompileFile(ctx context.Context, name string, opts symbolic.Options) (e *symbolic.Executor, err error) {
	code, err := bytecode.LoadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "load listing")
	}

	tlog.SpanFromContext(ctx).Printw("listing loaded", "name", name, "func", code.Name, "insts", len(code.Instructions()))

	return Compile(ctx, code, opts)
}

// Compile interprets code into a block graph with all the passes applied.
func Compile(ctx context.Context, code *bytecode.Code, opts symbolic.Options) (e *symbolic.Executor, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "func", code.Name)
	defer tr.Finish("err", &err)

	e = symbolic.New(code, opts)

	err = e.Interpret(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "interpret %v", code.Name)
	}

	return e, nil
}
