package symbolic

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackssa/compiler/bytecode"
	"github.com/slowlang/stackssa/compiler/ir"
	"github.com/slowlang/stackssa/compiler/pass"
	"github.com/slowlang/stackssa/compiler/set"
)

type (
	Options struct {
		// KeepDead leaves unreachable blocks in the graph.
		KeepDead bool
	}

	// Executor translates one code object into a block graph
	// by interpreting it over an abstract stack.
	Executor struct {
		Options

		code   *bytecode.Code
		blocks *ir.Graph

		pending   set.Bits[int]
		processed set.Bits[int]

		cur  *ir.Block
		line int

		tr tlog.Span

		done     bool
		doms     *pass.Doms
		backbone []*ir.Block
		dead     []*ir.Block
	}
)

func New(code *bytecode.Code, opts Options) *Executor {
	e := &Executor{
		Options:   opts,
		code:      code,
		blocks:    ir.NewGraph(),
		pending:   set.MakeBits(0),
		processed: set.MakeBits(0),
	}

	for _, off := range code.Labels() {
		e.blocks.Block(off)
	}

	e.pending.Set(0)

	return e
}

// Interpret builds the graph and runs the dominator, dead block
// and phi completion passes over it.
func (e *Executor) Interpret(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "symbolic: interpret", "func", e.code.Name, "insts", len(e.code.Instructions()), "labels", len(e.code.Labels()))
	defer tr.Finish("err", &err)

	if e.done {
		return errors.New("already interpreted")
	}

	e.done = true
	e.tr = tr

	err = checkSignature(e.code.Signature)
	if err != nil {
		return err
	}

	for {
		off, ok := e.pending.First()
		if !ok {
			break
		}

		e.pending.Clear(off)

		if e.processed.IsSet(off) {
			continue
		}

		e.processed.Set(off)

		err = e.run(off)
		if err != nil {
			return err
		}
	}

	e.doms = pass.Dominators(ctx, e.blocks)
	e.backbone = e.doms.Backbone(e.blocks)

	if !e.KeepDead {
		e.dead = pass.StripDead(ctx, e.blocks)

		for _, b := range e.dead {
			e.doms.Forget(b)
		}

		e.backbone = e.doms.Backbone(e.blocks)
	}

	err = pass.CompletePhis(ctx, e.blocks, len(e.code.Instructions())+len(e.code.Args)+1)
	if err != nil {
		return errors.Wrap(err, "complete phis")
	}

	pass.VerifyPhis(e.blocks)

	tr.Printw("graph built", "blocks", e.blocks.Len(), "insts", e.blocks.Insts(), "dead", len(e.dead), "backbone", e.backbone)

	return nil
}

func (e *Executor) run(off int) error {
	e.cur = e.blocks.Block(off)

	if e.tr.If("symbolic_block") {
		e.tr.Printw("block start", "block", e.cur)
	}

	if off == 0 {
		e.pushArguments()
	}

	for {
		in, ok := e.code.At(off)
		if !ok {
			return errors.New("block %v falls off the end of the code at offset %d", e.cur, off)
		}

		err := e.step(in)
		if err != nil {
			return err
		}

		off = in.Next

		if e.cur.IsTerminated() {
			break
		}

		if e.blocks.Has(off) {
			e.jump(e.blocks.Block(off))
			break
		}
	}

	if e.tr.If("symbolic_block") {
		e.tr.Printw("block done", "block", e.cur, "code", len(e.cur.Code), "stack", len(e.cur.Stack), "phis", len(e.cur.Phis()), "succs", e.cur.Succs)
	}

	return nil
}

func (e *Executor) step(in bytecode.Instruction) error {
	e.line = in.Line

	if e.tr.If("symbolic_inst") {
		e.tr.Printw("inst", "block", e.cur, "inst", in, "op", in.Op, "stack", len(e.cur.Stack))
	}

	h := handlers[in.Op]
	if h == nil {
		return &UnsupportedBytecodeError{Op: in.Op, Offset: in.Offset, Line: in.Line}
	}

	err := h(e, in)
	if err != nil {
		return errors.Wrap(err, "offset %d line %d", in.Offset, in.Line)
	}

	return nil
}

func checkSignature(sig bytecode.Signature) error {
	switch {
	case sig.Defaults != 0:
		return &UnsupportedSignatureError{Reason: "default parameter values"}
	case sig.VarArgs != "":
		return &UnsupportedSignatureError{Reason: "variadic positional parameter *" + sig.VarArgs}
	case sig.KwArgs != "":
		return &UnsupportedSignatureError{Reason: "variadic keyword parameter **" + sig.KwArgs}
	}

	return nil
}

func (e *Executor) pushArguments() {
	e.line = e.code.FirstLine() - 1

	for i, name := range e.code.Args {
		e.pushInsert(ir.Arg{Num: i, Name: name})
	}
}

// Line is the source line of the instruction being interpreted.
func (e *Executor) Line() int { return e.line }

func (e *Executor) Code() *bytecode.Code { return e.code }

func (e *Executor) Graph() *ir.Graph { return e.blocks }

func (e *Executor) Doms() *pass.Doms { return e.doms }

// Backbone is the dominator set of the last block.
func (e *Executor) Backbone() []*ir.Block { return e.backbone }

// Dead are the blocks removed as unreachable.
func (e *Executor) Dead() []*ir.Block { return e.dead }

func (e *Executor) insert(v ir.Value) *ir.Inst {
	return e.cur.Append(e.line, v)
}

func (e *Executor) pushInsert(v ir.Value) *ir.Inst {
	x := e.insert(v)
	e.cur.Push(x)

	return x
}

func (e *Executor) pop() *ir.Inst {
	x := e.cur.Pop(e.line)

	e.tracePhi(x)

	return x
}

func (e *Executor) peek() *ir.Inst {
	x := e.cur.Peek(e.line)

	e.tracePhi(x)

	return x
}

func (e *Executor) tracePhi(x *ir.Inst) {
	if !e.tr.If("phi") {
		return
	}

	if p, ok := x.Phi(); ok {
		e.tr.Printw("stack underflow", "block", e.cur, "phi", x, "slot", p.Slot, "line", e.line)
	}
}

func (e *Executor) call(callee ir.Callee, args []*ir.Inst, kws []ir.Keyword) *ir.Inst {
	return e.pushInsert(ir.Call{Callee: callee, Args: args, Kws: kws})
}

func (e *Executor) jump(target *ir.Block) {
	e.pending.Set(target.Offset)
	e.cur.Terminate(e.line, ir.Jump{Target: target})
}

func (e *Executor) branch(cond *ir.Inst, t, f *ir.Block) {
	e.pending.Set(t.Offset)
	e.pending.Set(f.Offset)
	e.cur.Terminate(e.line, ir.Branch{Cond: cond, True: t, False: f})
}
