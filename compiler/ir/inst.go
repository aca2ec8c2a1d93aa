package ir

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Value is one of Arg, Const, Global, Load, Store, Call, *Phi.
	Value interface {
		isValue()
	}

	Inst struct {
		ID    int
		Line  int
		Block *Block
		Value Value
	}

	Arg struct {
		Num  int
		Name string
	}

	Const struct {
		Value any
	}

	Global struct {
		Name string
	}

	Load struct {
		Name string
	}

	Store struct {
		Name  string
		Value *Inst
	}

	Call struct {
		Callee Callee
		Args   []*Inst
		Kws    []Keyword
	}

	// Phi stands for entry stack slot Slot (0 is the top) of its block.
	Phi struct {
		Slot      int
		Incomings Incomings

		complete bool
	}

	Keyword struct {
		Name  string
		Value *Inst
	}

	// Callee is an Operator or a computed *Inst.
	Callee interface {
		isCallee()
	}

	Operator string

	Incomings struct {
		blocks []*Block
		values []*Inst
	}
)

const (
	OpPos    Operator = "pos"
	OpNeg    Operator = "neg"
	OpInvert Operator = "invert"
	OpNot    Operator = "not"

	OpAdd      Operator = "add"
	OpSub      Operator = "sub"
	OpMul      Operator = "mul"
	OpFloorDiv Operator = "floordiv"
	OpTrueDiv  Operator = "truediv"
	OpMod      Operator = "mod"
	OpPow      Operator = "pow"
	OpLshift   Operator = "lshift"
	OpRshift   Operator = "rshift"
	OpAnd      Operator = "and"
	OpOr       Operator = "or"
	OpXor      Operator = "xor"

	OpLt Operator = "lt"
	OpLe Operator = "le"
	OpEq Operator = "eq"
	OpNe Operator = "ne"
	OpGt Operator = "gt"
	OpGe Operator = "ge"

	OpIter      Operator = "iter"
	OpIterValid Operator = "itervalid"
	OpIterNext  Operator = "iternext"
)

func (Arg) isValue()    {}
func (Const) isValue()  {}
func (Global) isValue() {}
func (Load) isValue()   {}
func (Store) isValue()  {}
func (Call) isValue()   {}
func (*Phi) isValue()   {}

func (Operator) isCallee() {}
func (*Inst) isCallee()    {}

func (x *Inst) Phi() (*Phi, bool) {
	p, ok := x.Value.(*Phi)
	return p, ok
}

func (x *Inst) IsPhi() bool {
	_, ok := x.Value.(*Phi)
	return ok
}

func (x *Inst) String() string {
	if x == nil {
		return "<nil>"
	}

	return "%" + strconv.Itoa(x.ID)
}

func (x *Inst) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if x == nil {
		return e.AppendNil(b)
	}

	return e.AppendFormat(b, "%%%d", x.ID)
}

func (p *Phi) Complete() bool { return p.complete }

// Seal marks the phi as having all its incomings resolved.
func (p *Phi) Seal() { p.complete = true }

// Add records the value flowing in from b.
// A predecessor can be added only once.
func (in *Incomings) Add(b *Block, v *Inst) {
	if _, ok := in.Get(b); ok {
		Inconsistent("duplicated incoming block %v for phi", b)
	}

	in.blocks = append(in.blocks, b)
	in.values = append(in.values, v)
}

func (in *Incomings) Get(b *Block) (*Inst, bool) {
	for i, x := range in.blocks {
		if x == b {
			return in.values[i], true
		}
	}

	return nil, false
}

func (in *Incomings) Len() int { return len(in.blocks) }

func (in *Incomings) Blocks() []*Block { return in.blocks }

func (in *Incomings) Values() []*Inst { return in.values }
