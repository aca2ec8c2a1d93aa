package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/stackssa/compiler/bytecode"
	"github.com/slowlang/stackssa/compiler/ir"
)

func TestEncodeDecode(t *testing.T) {
	g := ir.NewGraph()

	b0 := g.Block(0)
	b3 := g.Block(3)
	b6 := g.Block(6)

	a := b0.Append(1, ir.Arg{Num: 0, Name: "a"})
	n := b0.Append(1, ir.Const{Value: bytecode.None})
	c := b0.Append(2, ir.Call{Callee: ir.OpNot, Args: []*ir.Inst{a}})
	b0.Push(n)
	b0.Terminate(2, ir.Branch{Cond: c, True: b3, False: b6})

	s := b3.Append(3, ir.Store{Name: "x", Value: a})
	b3.Push(s)
	b3.Terminate(3, ir.Jump{Target: b6})

	p := b6.Pop(4)
	ph, _ := p.Phi()
	ph.Incomings.Add(b0, n)
	ph.Incomings.Add(b3, s)
	ph.Seal()

	b6.Terminate(4, ir.Ret{Value: p})

	data, err := Encode("f", []string{"a"}, g)
	require.NoError(t, err)

	again, err := Encode("f", []string{"a"}, g)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is deterministic")

	f, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "f", f.Name)
	assert.Equal(t, []string{"a"}, f.Args)
	require.Len(t, f.Blocks, 3)

	assert.Equal(t, []int{0, 3, 6}, []int{f.Blocks[0].Offset, f.Blocks[1].Offset, f.Blocks[2].Offset})
	assert.Equal(t, []int{3, 6}, f.Blocks[0].Succs)
	assert.Equal(t, []int{0, 3}, f.Blocks[2].Preds)

	assert.Equal(t, Term{Kind: TermBranch, Value: c.ID, Targets: []int{3, 6}}, f.Blocks[0].Term)
	assert.Equal(t, Term{Kind: TermJump, Targets: []int{6}}, f.Blocks[1].Term)
	assert.Equal(t, Term{Kind: TermRet, Value: p.ID}, f.Blocks[2].Term)

	insts := f.Blocks[0].Insts
	require.Len(t, insts, 3)
	assert.Equal(t, Inst{ID: a.ID, Line: 1, Kind: KindArg, Name: "a"}, insts[0])
	assert.Equal(t, KindNone, insts[1].Kind)
	assert.Nil(t, insts[1].Const)
	assert.Equal(t, "not", insts[2].Callee)
	assert.Equal(t, []int{a.ID}, insts[2].Args)

	assert.Equal(t, Inst{ID: s.ID, Line: 3, Kind: KindStore, Name: "x", Value: a.ID}, f.Blocks[1].Insts[0])

	phi := f.Blocks[2].Insts[0]
	assert.Equal(t, KindPhi, phi.Kind)
	assert.Equal(t, []Incoming{{Block: 0, Value: n.ID}, {Block: 3, Value: s.ID}}, phi.Incomings)
}

func TestFlattenUnterminated(t *testing.T) {
	g := ir.NewGraph()

	b0 := g.Block(0)
	b0.Terminate(1, ir.RetVoid{})

	g.Block(7) // unreachable, never interpreted

	f, err := Flatten("f", nil, g)
	require.NoError(t, err)
	require.Len(t, f.Blocks, 1)
	assert.Equal(t, 0, f.Blocks[0].Offset)

	b9 := g.Block(9)
	b0.Connect(b9)

	_, err = Flatten("f", nil, g)
	assert.ErrorContains(t, err, "unsupported terminator")
}

func TestConstTypes(t *testing.T) {
	g := ir.NewGraph()
	b0 := g.Block(0)

	vals := []any{int64(5), int64(0), int64(-3), 1.5, true, "s"}

	for _, v := range vals {
		b0.Append(1, ir.Const{Value: v})
	}

	b0.Terminate(1, ir.RetVoid{})

	data, err := Encode("f", nil, g)
	require.NoError(t, err)

	f, err := Decode(data)
	require.NoError(t, err)

	require.Len(t, f.Blocks[0].Insts, len(vals))

	for i, v := range vals {
		x := f.Blocks[0].Insts[i]

		assert.Equal(t, KindConst, x.Kind)
		assert.Equal(t, v, x.Const, "const %d", i)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00})
	assert.Error(t, err)
}
