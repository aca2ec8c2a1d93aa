package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/stackssa/compiler/ir"
	"github.com/slowlang/stackssa/compiler/pass"
)

func TestFormat(t *testing.T) {
	ctx := context.Background()
	g := ir.NewGraph()

	b0 := g.Block(0)
	b3 := g.Block(3)
	b6 := g.Block(6)

	a := b0.Append(1, ir.Arg{Num: 0, Name: "a"})
	k := b0.Append(2, ir.Const{Value: "k"})
	f := b0.Append(2, ir.Global{Name: "f"})
	c := b0.Append(2, ir.Call{Callee: f, Args: []*ir.Inst{a}, Kws: []ir.Keyword{{Name: "key", Value: k}}})
	b0.Push(c)

	b0.Terminate(2, ir.Branch{Cond: a, True: b3, False: b6})

	s := b3.Append(3, ir.Store{Name: "x", Value: a})
	b3.Push(s)
	b3.Terminate(3, ir.Jump{Target: b6})

	p := b6.Pop(4)
	b6.Terminate(4, ir.Ret{Value: p})

	require.NoError(t, pass.CompletePhis(ctx, g, 10))

	doms := pass.Dominators(ctx, g)

	b, err := Format(ctx, nil, g, doms)
	require.NoError(t, err)

	t.Logf("graph\n%s", b)

	exp := "b0:\t\t; preds: -  doms: b0\n" +
		"\t%0 = arg 0 a\t; line 1\n" +
		"\t%1 = const \"k\"\t; line 2\n" +
		"\t%2 = global f\t; line 2\n" +
		"\t%3 = call %2(%0, key=%1)\t; line 2\n" +
		"\tbranch %0, b3, b6\n" +
		"\n" +
		"b3:\t\t; preds: b0  doms: b0 b3\n" +
		"\t%4 = store x, %0\t; line 3\n" +
		"\tjump b6\n" +
		"\n" +
		"b6:\t\t; preds: b0 b3  doms: b0 b6\n" +
		"\t%5 = phi.0 [b0: %3, b3: %4]\t; line 4\n" +
		"\tret %5\n"

	assert.Equal(t, exp, string(b))
}

func TestFormatInst(t *testing.T) {
	ctx := context.Background()
	g := ir.NewGraph()

	b0 := g.Block(0)

	x := b0.Append(0, ir.Load{Name: "v"})
	y := b0.Append(0, ir.Call{Callee: ir.OpAdd, Args: []*ir.Inst{x, x}})
	p := b0.EntrySlot(0, 0)

	b, err := Format(ctx, nil, y, nil)
	require.NoError(t, err)
	assert.Equal(t, "%1 = call add(%0, %0)\n", string(b))

	b, err = Format(ctx, nil, p, nil)
	require.NoError(t, err)
	assert.Equal(t, "%2 = phi.0 [] incomplete\n", string(b))

	b, err = Format(ctx, nil, b0, nil)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<unterminated>")

	_, err = Format(ctx, nil, 5, nil)
	assert.Error(t, err)
}
