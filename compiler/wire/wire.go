// Package wire is the hand-off form of a finished graph.
// Blocks are referred to by offset and instructions by ID.
package wire

import (
	"github.com/fxamacker/cbor/v2"
	"tlog.app/go/errors"

	"github.com/slowlang/stackssa/compiler/bytecode"
	"github.com/slowlang/stackssa/compiler/ir"
)

type (
	Func struct {
		Name   string   `cbor:"1,keyasint"`
		Args   []string `cbor:"2,keyasint,omitempty"`
		Blocks []Block  `cbor:"3,keyasint"`
	}

	Block struct {
		Offset int    `cbor:"1,keyasint"`
		Preds  []int  `cbor:"2,keyasint,omitempty"`
		Succs  []int  `cbor:"3,keyasint,omitempty"`
		Insts  []Inst `cbor:"4,keyasint,omitempty"`
		Term   Term   `cbor:"5,keyasint"`
	}

	Inst struct {
		ID   int    `cbor:"1,keyasint"`
		Line int    `cbor:"2,keyasint,omitempty"`
		Kind string `cbor:"3,keyasint"`

		Num   int    `cbor:"4,keyasint,omitempty"`
		Name  string `cbor:"5,keyasint,omitempty"`
		Const any    `cbor:"6,keyasint,omitempty"`

		// Value is the stored value of a store.
		Value int `cbor:"7,keyasint,omitempty"`

		Callee   string    `cbor:"8,keyasint,omitempty"`
		CalleeID int       `cbor:"9,keyasint,omitempty"`
		Args     []int     `cbor:"10,keyasint,omitempty"`
		Kws      []Keyword `cbor:"11,keyasint,omitempty"`

		Slot      int        `cbor:"12,keyasint,omitempty"`
		Incomings []Incoming `cbor:"13,keyasint,omitempty"`
	}

	Keyword struct {
		Name  string `cbor:"1,keyasint"`
		Value int    `cbor:"2,keyasint"`
	}

	Incoming struct {
		Block int `cbor:"1,keyasint"`
		Value int `cbor:"2,keyasint"`
	}

	Term struct {
		Kind    string `cbor:"1,keyasint"`
		Value   int    `cbor:"2,keyasint,omitempty"`
		Targets []int  `cbor:"3,keyasint,omitempty"`
	}
)

const (
	KindArg    = "arg"
	KindConst  = "const"
	KindNone   = "none"
	KindGlobal = "global"
	KindLoad   = "load"
	KindStore  = "store"
	KindCall   = "call"
	KindPhi    = "phi"

	TermJump    = "jump"
	TermBranch  = "branch"
	TermRet     = "ret"
	TermRetVoid = "retvoid"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	// integer constants stay int64 whatever their sign
	dm, err := cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}.DecMode()
	if err != nil {
		panic(err)
	}

	encMode = em
	decMode = dm
}

// Encode flattens g and encodes it as canonical CBOR.
func Encode(name string, args []string, g *ir.Graph) ([]byte, error) {
	f, err := Flatten(name, args, g)
	if err != nil {
		return nil, err
	}

	data, err := encMode.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}

	return data, nil
}

func Decode(data []byte) (*Func, error) {
	var f Func

	err := decMode.Unmarshal(data, &f)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}

	return &f, nil
}

// Flatten converts g into the pointer free form.
// Dead blocks left without a terminator are skipped.
func Flatten(name string, args []string, g *ir.Graph) (*Func, error) {
	f := &Func{
		Name: name,
		Args: args,
	}

	for _, b := range g.Blocks() {
		if b.Term == nil && b.IsDead() {
			continue
		}

		x := Block{
			Offset: b.Offset,
			Preds:  offsets(b.Preds),
			Succs:  offsets(b.Succs),
		}

		for _, in := range b.Code {
			y, err := flattenInst(in)
			if err != nil {
				return nil, errors.Wrap(err, "block %v", b)
			}

			x.Insts = append(x.Insts, y)
		}

		switch t := b.Term.(type) {
		case ir.Jump:
			x.Term = Term{Kind: TermJump, Targets: offsets(t.Targets())}
		case ir.Branch:
			x.Term = Term{Kind: TermBranch, Value: t.Cond.ID, Targets: offsets(t.Targets())}
		case ir.Ret:
			x.Term = Term{Kind: TermRet, Value: t.Value.ID}
		case ir.RetVoid:
			x.Term = Term{Kind: TermRetVoid}
		default:
			return nil, errors.New("block %v: unsupported terminator: %T", b, t)
		}

		f.Blocks = append(f.Blocks, x)
	}

	return f, nil
}

func flattenInst(in *ir.Inst) (x Inst, err error) {
	x = Inst{
		ID:   in.ID,
		Line: in.Line,
	}

	switch v := in.Value.(type) {
	case ir.Arg:
		x.Kind, x.Num, x.Name = KindArg, v.Num, v.Name
	case ir.Const:
		x.Kind, x.Const = KindConst, v.Value

		if v.Value == bytecode.None {
			x.Kind, x.Const = KindNone, nil
		}
	case ir.Global:
		x.Kind, x.Name = KindGlobal, v.Name
	case ir.Load:
		x.Kind, x.Name = KindLoad, v.Name
	case ir.Store:
		x.Kind, x.Name, x.Value = KindStore, v.Name, v.Value.ID
	case ir.Call:
		x.Kind = KindCall

		switch c := v.Callee.(type) {
		case ir.Operator:
			x.Callee = string(c)
		case *ir.Inst:
			x.CalleeID = c.ID
		default:
			return x, errors.New("unsupported callee: %T", c)
		}

		x.Args = ids(v.Args)

		for _, kw := range v.Kws {
			x.Kws = append(x.Kws, Keyword{Name: kw.Name, Value: kw.Value.ID})
		}
	case *ir.Phi:
		x.Kind, x.Slot = KindPhi, v.Slot

		vals := v.Incomings.Values()

		for i, b := range v.Incomings.Blocks() {
			x.Incomings = append(x.Incomings, Incoming{Block: b.Offset, Value: vals[i].ID})
		}
	default:
		return x, errors.New("unsupported value: %T", v)
	}

	return x, nil
}

func offsets(l []*ir.Block) []int {
	if len(l) == 0 {
		return nil
	}

	r := make([]int, len(l))

	for i, b := range l {
		r[i] = b.Offset
	}

	return r
}

func ids(l []*ir.Inst) []int {
	if len(l) == 0 {
		return nil
	}

	r := make([]int, len(l))

	for i, x := range l {
		r[i] = x.ID
	}

	return r
}
