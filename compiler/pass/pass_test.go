package pass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/stackssa/compiler/ir"
)

// diamond builds
//
//	b0 -> b3, b6
//	b3 -> b9
//	b6 -> b9
//	b12 unreachable
func diamond() (g *ir.Graph, b0, b3, b6, b9, b12 *ir.Block) {
	g = ir.NewGraph()

	b0 = g.Block(0)
	b3 = g.Block(3)
	b6 = g.Block(6)
	b9 = g.Block(9)
	b12 = g.Block(12)

	cond := b0.Append(1, ir.Arg{Num: 0, Name: "c"})

	b0.Terminate(1, ir.Branch{Cond: cond, True: b3, False: b6})
	b3.Terminate(2, ir.Jump{Target: b9})
	b6.Terminate(3, ir.Jump{Target: b9})
	b9.Terminate(4, ir.RetVoid{})
	b12.Terminate(5, ir.RetVoid{})

	return
}

func TestDominators(t *testing.T) {
	ctx := context.Background()
	g, b0, b3, b6, b9, b12 := diamond()

	d := Dominators(ctx, g)

	assert.Equal(t, []*ir.Block{b0}, d.Of(b0))
	assert.Equal(t, []*ir.Block{b0, b3}, d.Of(b3))
	assert.Equal(t, []*ir.Block{b0, b6}, d.Of(b6))
	assert.Equal(t, []*ir.Block{b0, b9}, d.Of(b9))
	assert.Equal(t, []*ir.Block{b0, b3, b6, b9, b12}, d.Of(b12), "unreachable block keeps the full set")

	assert.True(t, d.Dominates(b0, b9))
	assert.False(t, d.Dominates(b3, b9))

	assert.Equal(t, []*ir.Block{b0, b3, b6, b9, b12}, d.Backbone(g))

	dead := StripDead(ctx, g)
	assert.Equal(t, []*ir.Block{b12}, dead)
	assert.False(t, g.Has(12))

	d.Forget(b12)

	assert.Equal(t, []*ir.Block{b0, b9}, d.Backbone(g))
	assert.False(t, d.Dominates(b12, b12))
}

func TestDominatorsLoop(t *testing.T) {
	ctx := context.Background()
	g := ir.NewGraph()

	b0 := g.Block(0)
	hdr := g.Block(3)
	body := g.Block(6)
	exit := g.Block(9)

	cond := hdr.Append(2, ir.Arg{Num: 0, Name: "c"})

	b0.Terminate(1, ir.Jump{Target: hdr})
	hdr.Terminate(2, ir.Branch{Cond: cond, True: body, False: exit})
	body.Terminate(3, ir.Jump{Target: hdr})
	exit.Terminate(4, ir.RetVoid{})

	d := Dominators(ctx, g)

	assert.Equal(t, []*ir.Block{b0, hdr}, d.Of(hdr))
	assert.Equal(t, []*ir.Block{b0, hdr, body}, d.Of(body))
	assert.Equal(t, []*ir.Block{b0, hdr, exit}, d.Backbone(g))
}

func TestStripDeadKeepsEntry(t *testing.T) {
	g := ir.NewGraph()
	b0 := g.Block(0)
	b0.Terminate(1, ir.RetVoid{})

	dead := StripDead(context.Background(), g)

	assert.Empty(t, dead)
	assert.Equal(t, []*ir.Block{b0}, g.Blocks())
}

func TestCompletePhis(t *testing.T) {
	g := ir.NewGraph()

	b0 := g.Block(0)
	b3 := g.Block(3)
	b6 := g.Block(6)
	b9 := g.Block(9)

	z := b0.Append(1, ir.Const{Value: "z"})
	b0.Push(z)

	cond := b0.Append(1, ir.Arg{Num: 0, Name: "c"})

	y := b6.Append(3, ir.Const{Value: "y"})
	b6.Push(y)

	p := b9.Pop(4)
	b9.Terminate(4, ir.Ret{Value: p})

	b0.Terminate(1, ir.Branch{Cond: cond, True: b3, False: b6})
	b3.Terminate(2, ir.Jump{Target: b9})
	b6.Terminate(3, ir.Jump{Target: b9})

	err := CompletePhis(context.Background(), g, 10)
	require.NoError(t, err)

	VerifyPhis(g)

	phi, _ := p.Phi()

	// b3 leaves z on the stack untouched: it passes through b3's own phi.
	require.Len(t, b3.Phis(), 1)
	through := b3.Phis()[0]

	v, ok := phi.Incomings.Get(b3)
	assert.True(t, ok)
	assert.Same(t, through, v)

	v, ok = phi.Incomings.Get(b6)
	assert.True(t, ok)
	assert.Same(t, y, v)

	tp, _ := through.Phi()
	assert.True(t, tp.Complete())

	v, _ = tp.Incomings.Get(b0)
	assert.Same(t, z, v)
}

func TestCompletePhisEntryUnderflow(t *testing.T) {
	g := ir.NewGraph()

	b0 := g.Block(0)
	x := b0.Pop(1)
	b0.Terminate(1, ir.Ret{Value: x})

	err := CompletePhis(context.Background(), g, 10)
	assert.ErrorContains(t, err, "stack underflow at function entry")

	assert.Panics(t, func() {
		VerifyPhis(g)
	})
}

func TestCompletePhisDepthBound(t *testing.T) {
	g := ir.NewGraph()

	b0 := g.Block(0)
	b3 := g.Block(3)

	b0.Terminate(1, ir.Jump{Target: b3})

	x := b3.EntrySlot(2, 5)
	b3.Terminate(2, ir.Ret{Value: x})

	err := CompletePhis(context.Background(), g, 4)
	assert.ErrorContains(t, err, "deeper")
}
