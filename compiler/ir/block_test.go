package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockStack(t *testing.T) {
	g := NewGraph()
	b := g.Block(0)

	x := b.Append(1, Const{Value: 1})
	b.Push(x)

	assert.Same(t, x, b.Peek(1))
	assert.Same(t, x, b.Pop(1))
	assert.Empty(t, b.Stack)
	assert.Empty(t, b.Phis())
}

func TestBlockUnderflow(t *testing.T) {
	g := NewGraph()
	b := g.Block(10)

	c := b.Append(1, Const{Value: 1})

	p0 := b.Peek(2)
	assert.True(t, p0.IsPhi())
	assert.Same(t, p0, b.Peek(2), "peek does not consume")
	assert.Same(t, p0, b.Pop(2))

	p1 := b.Pop(3)
	assert.NotSame(t, p0, p1)

	assert.Same(t, p0, b.EntrySlot(0, 0), "same slot same phi")
	assert.Same(t, p1, b.EntrySlot(0, 1))

	assert.Equal(t, []*Inst{p0, p1}, b.Phis())
	assert.Equal(t, []*Inst{p0, p1, c}, b.Code, "phis lead the block")

	ph, ok := p1.Phi()
	require.True(t, ok)
	assert.Equal(t, 1, ph.Slot)
	assert.False(t, ph.Complete())
	assert.Same(t, b, p1.Block)
}

func TestBlockExitSlot(t *testing.T) {
	g := NewGraph()
	b := g.Block(0)

	b.Pop(1) // consume entry slot 0

	x := b.Append(1, Load{Name: "a"})
	b.Push(x)

	v, through := b.ExitSlot(1, 0)
	assert.Same(t, x, v)
	assert.False(t, through)

	v, through = b.ExitSlot(1, 1)
	assert.True(t, through)
	assert.Same(t, b.EntrySlot(1, 1), v, "below the local stack are the unconsumed entry slots")
}

func TestBlockTerminate(t *testing.T) {
	g := NewGraph()
	a := g.Block(0)
	b := g.Block(3)
	c := g.Block(6)

	cond := a.Append(1, Arg{Num: 0, Name: "x"})

	a.Terminate(2, Branch{Cond: cond, True: b, False: c})
	b.Terminate(3, Jump{Target: c})

	assert.Equal(t, []*Block{b, c}, a.Succs)
	assert.Equal(t, []*Block{a, b}, c.Preds)
	assert.Equal(t, 1, a.Line())
	assert.Equal(t, 3, b.Line(), "empty block takes the terminator line")

	requireInconsistent(t, func() {
		a.Terminate(4, RetVoid{})
	})

	a.Connect(b)
	assert.Equal(t, []*Block{b, c}, a.Succs, "edges are not duplicated")
	assert.Equal(t, []*Block{a}, b.Preds)

	assert.True(t, a.IsTerminated())
	assert.False(t, c.IsTerminated())
	assert.False(t, c.IsDead())
	assert.True(t, g.Block(9).IsDead())
}

func TestIncomings(t *testing.T) {
	g := NewGraph()
	a := g.Block(0)
	b := g.Block(3)

	x := a.Append(1, Const{Value: 1})

	var in Incomings

	in.Add(a, x)

	v, ok := in.Get(a)
	assert.True(t, ok)
	assert.Same(t, x, v)

	_, ok = in.Get(b)
	assert.False(t, ok)

	requireInconsistent(t, func() {
		in.Add(a, x)
	})

	assert.Equal(t, 1, in.Len())
}

func requireInconsistent(t *testing.T, f func()) {
	t.Helper()

	defer func() {
		t.Helper()

		p := recover()
		require.NotNil(t, p, "expected panic")

		err, ok := p.(*InconsistencyError)
		require.True(t, ok, "unexpected panic: %v", p)

		t.Logf("panic: %v", err)
	}()

	f()
}
