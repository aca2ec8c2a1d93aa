package ir

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Block is a basic block keyed by the offset of its first instruction.
	Block struct {
		Offset int

		Code     []*Inst
		Term     Terminator
		TermLine int

		// Stack is the abstract operand stack local to the block.
		// Values below it are the entry slots, see EntrySlot.
		Stack []*Inst

		Preds []*Block
		Succs []*Block

		g *Graph

		slots []*Inst // entry slot phis, leading Code
		used  int     // entry slots popped
	}
)

func (b *Block) Append(line int, v Value) *Inst {
	x := b.g.newInst(line, v)
	x.Block = b

	b.Code = append(b.Code, x)

	return x
}

func (b *Block) Push(x *Inst) {
	b.Stack = append(b.Stack, x)
}

// Pop removes the top of the local stack.
// With the local stack empty it consumes the next entry slot instead.
func (b *Block) Pop(line int) *Inst {
	if l := len(b.Stack); l != 0 {
		x := b.Stack[l-1]
		b.Stack = b.Stack[:l-1]

		return x
	}

	x := b.EntrySlot(line, b.used)
	b.used++

	return x
}

// Peek is Pop without consuming.
func (b *Block) Peek(line int) *Inst {
	if l := len(b.Stack); l != 0 {
		return b.Stack[l-1]
	}

	return b.EntrySlot(line, b.used)
}

// EntrySlot returns the phi standing for the value depth slots
// below the top of the stack the block was entered with.
// Phis are created on first use and kept in slot order
// at the head of the block.
func (b *Block) EntrySlot(line, depth int) *Inst {
	for len(b.slots) <= depth {
		x := b.g.newInst(line, &Phi{Slot: len(b.slots)})
		x.Block = b

		pos := len(b.slots)

		b.Code = append(b.Code, nil)
		copy(b.Code[pos+1:], b.Code[pos:])
		b.Code[pos] = x

		b.slots = append(b.slots, x)
	}

	return b.slots[depth]
}

// ExitSlot returns the value depth slots below the top of the stack
// the block leaves with. Slots deeper than the local stack
// pass through from the block entry.
func (b *Block) ExitSlot(line, depth int) (x *Inst, through bool) {
	if l := len(b.Stack); depth < l {
		return b.Stack[l-1-depth], false
	}

	return b.EntrySlot(line, b.used+depth-len(b.Stack)), true
}

// Phis are the leading phi instructions.
func (b *Block) Phis() []*Inst { return b.slots }

// Terminate sets the block terminator and connects it to the targets.
func (b *Block) Terminate(line int, t Terminator) {
	if b.Term != nil {
		Inconsistent("block %v is already terminated with %T", b, b.Term)
	}

	b.Term = t
	b.TermLine = line

	for _, s := range t.Targets() {
		b.Connect(s)
	}
}

func (b *Block) Connect(next *Block) {
	if !contains(b.Succs, next) {
		b.Succs = append(b.Succs, next)
	}

	if !contains(next.Preds, b) {
		next.Preds = append(next.Preds, b)
	}
}

func (b *Block) IsTerminated() bool { return b.Term != nil }

// IsDead reports a block nothing jumps to and which jumps nowhere.
func (b *Block) IsDead() bool { return len(b.Preds) == 0 && len(b.Succs) == 0 }

// Line is the first known source line of the block.
func (b *Block) Line() int {
	for _, x := range b.Code {
		if x.Line != 0 {
			return x.Line
		}
	}

	return b.TermLine
}

func (b *Block) String() string {
	if b == nil {
		return "<nil>"
	}

	return "b" + strconv.Itoa(b.Offset)
}

func (b *Block) TlogAppend(buf []byte) []byte {
	var e tlwire.Encoder

	if b == nil {
		return e.AppendNil(buf)
	}

	return e.AppendFormat(buf, "b%d", b.Offset)
}

func contains(l []*Block, b *Block) bool {
	for _, x := range l {
		if x == b {
			return true
		}
	}

	return false
}
