package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/stackssa/compiler/ir"
	"github.com/slowlang/stackssa/compiler/pass"
)

// Format appends a text form of a graph, block or instruction.
// doms may be nil.
func Format(ctx context.Context, b []byte, x any, doms *pass.Doms) ([]byte, error) {
	return format(ctx, b, x, doms, 0)
}

func format(ctx context.Context, b []byte, x any, doms *pass.Doms, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ir.Graph:
		return formatGraph(ctx, b, x, doms, d)
	case *ir.Block:
		return formatBlock(ctx, b, x, doms, d)
	case *ir.Inst:
		return formatInst(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatGraph(ctx context.Context, b []byte, g *ir.Graph, doms *pass.Doms, d int) (_ []byte, err error) {
	for i, blk := range g.Blocks() {
		if i != 0 {
			b = append(b, '\n')
		}

		b, err = formatBlock(ctx, b, blk, doms, d)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", blk)
		}
	}

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, x *ir.Block, doms *pass.Doms, d int) (_ []byte, err error) {
	b = app(b, d, "%v:", x)
	b = append(b, "\t\t; preds:"...)
	b = appendBlocks(b, x.Preds)

	if doms != nil {
		b = append(b, "  doms:"...)
		b = appendBlocks(b, doms.Of(x))
	}

	b = append(b, '\n')

	for _, in := range x.Code {
		b, err = formatInst(ctx, b, in, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "inst %v", in)
		}
	}

	return formatTerm(ctx, b, x.Term, d+1)
}

func formatInst(ctx context.Context, b []byte, x *ir.Inst, d int) (_ []byte, err error) {
	b = app(b, d, "%v = ", x)

	switch v := x.Value.(type) {
	case ir.Arg:
		b = app(b, 0, "arg %d %s", v.Num, v.Name)
	case ir.Const:
		b = appendConst(b, v.Value)
	case ir.Global:
		b = app(b, 0, "global %s", v.Name)
	case ir.Load:
		b = app(b, 0, "load %s", v.Name)
	case ir.Store:
		b = app(b, 0, "store %s, %v", v.Name, v.Value)
	case ir.Call:
		b = append(b, "call "...)

		switch c := v.Callee.(type) {
		case ir.Operator:
			b = append(b, string(c)...)
		case *ir.Inst:
			b = app(b, 0, "%v", c)
		default:
			return nil, errors.New("unsupported callee: %T", c)
		}

		b = append(b, '(')

		for i, a := range v.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = app(b, 0, "%v", a)
		}

		for i, kw := range v.Kws {
			if i != 0 || len(v.Args) != 0 {
				b = append(b, ", "...)
			}

			b = app(b, 0, "%s=%v", kw.Name, kw.Value)
		}

		b = append(b, ')')
	case *ir.Phi:
		b = app(b, 0, "phi.%d [", v.Slot)

		for i, pb := range v.Incomings.Blocks() {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = app(b, 0, "%v: %v", pb, v.Incomings.Values()[i])
		}

		b = append(b, ']')

		if !v.Complete() {
			b = append(b, " incomplete"...)
		}
	default:
		return nil, errors.New("unsupported value: %T", v)
	}

	if x.Line != 0 {
		b = app(b, 0, "\t; line %d", x.Line)
	}

	b = append(b, '\n')

	return b, nil
}

func formatTerm(ctx context.Context, b []byte, t ir.Terminator, d int) ([]byte, error) {
	switch t := t.(type) {
	case nil:
		b = app(b, d, "<unterminated>\n")
	case ir.Jump:
		b = app(b, d, "jump %v\n", t.Target)
	case ir.Branch:
		b = app(b, d, "branch %v, %v, %v\n", t.Cond, t.True, t.False)
	case ir.Ret:
		b = app(b, d, "ret %v\n", t.Value)
	case ir.RetVoid:
		b = app(b, d, "retvoid\n")
	default:
		return nil, errors.New("unsupported terminator: %T", t)
	}

	return b, nil
}

func appendConst(b []byte, v any) []byte {
	switch v := v.(type) {
	case string:
		return hfmt.Appendf(b, "const %q", v)
	default:
		return hfmt.Appendf(b, "const %v", v)
	}
}

func appendBlocks(b []byte, l []*ir.Block) []byte {
	if len(l) == 0 {
		return append(b, " -"...)
	}

	for _, x := range l {
		b = app(b, 0, " %v", x)
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
