package symbolic

import (
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/stackssa/compiler/bytecode"
	"github.com/slowlang/stackssa/compiler/ir"
)

type (
	opHandler func(e *Executor, in bytecode.Instruction) error
)

var handlers = [256]opHandler{
	bytecode.LoadConst:  (*Executor).loadConst,
	bytecode.LoadFast:   (*Executor).loadFast,
	bytecode.LoadGlobal: (*Executor).loadGlobal,
	bytecode.StoreFast:  (*Executor).storeFast,

	bytecode.UnaryPositive: unary(ir.OpPos),
	bytecode.UnaryNegative: unary(ir.OpNeg),
	bytecode.UnaryInvert:   unary(ir.OpInvert),
	bytecode.UnaryNot:      unary(ir.OpNot),

	bytecode.BinaryAdd:         binary(ir.OpAdd),
	bytecode.BinarySubtract:    binary(ir.OpSub),
	bytecode.BinaryMultiply:    binary(ir.OpMul),
	bytecode.BinaryDivide:      binary(ir.OpFloorDiv),
	bytecode.BinaryFloorDivide: binary(ir.OpFloorDiv),
	bytecode.BinaryTrueDivide:  binary(ir.OpTrueDiv),
	bytecode.BinaryModulo:      binary(ir.OpMod),
	bytecode.BinaryPower:       binary(ir.OpPow),
	bytecode.BinaryRshift:      binary(ir.OpRshift),
	bytecode.BinaryLshift:      binary(ir.OpLshift),
	bytecode.BinaryAnd:         binary(ir.OpAnd),
	bytecode.BinaryOr:          binary(ir.OpOr),
	bytecode.BinaryXor:         binary(ir.OpXor),

	bytecode.InplaceAdd:         binary(ir.OpAdd),
	bytecode.InplaceSubtract:    binary(ir.OpSub),
	bytecode.InplaceMultiply:    binary(ir.OpMul),
	bytecode.InplaceDivide:      binary(ir.OpFloorDiv),
	bytecode.InplaceFloorDivide: binary(ir.OpFloorDiv),
	bytecode.InplaceTrueDivide:  binary(ir.OpTrueDiv),
	bytecode.InplaceModulo:      binary(ir.OpMod),
	bytecode.InplacePower:       binary(ir.OpPow),
	bytecode.InplaceRshift:      binary(ir.OpRshift),
	bytecode.InplaceLshift:      binary(ir.OpLshift),
	bytecode.InplaceAnd:         binary(ir.OpAnd),
	bytecode.InplaceOr:          binary(ir.OpOr),
	bytecode.InplaceXor:         binary(ir.OpXor),

	bytecode.CompareOp:    (*Executor).compareOp,
	bytecode.CallFunction: (*Executor).callFunction,
	bytecode.GetIter:      (*Executor).getIter,
	bytecode.ForIter:      (*Executor).forIter,

	bytecode.PopJumpIfTrue:    (*Executor).popJumpIfTrue,
	bytecode.PopJumpIfFalse:   (*Executor).popJumpIfFalse,
	bytecode.JumpIfTrue:       (*Executor).jumpIfTrue,
	bytecode.JumpIfFalse:      (*Executor).jumpIfFalse,
	bytecode.JumpIfTrueOrPop:  (*Executor).jumpIfTrue,
	bytecode.JumpIfFalseOrPop: (*Executor).jumpIfFalse,
	bytecode.JumpAbsolute:     (*Executor).jumpTo,
	bytecode.JumpForward:      (*Executor).jumpTo,

	bytecode.ReturnValue: (*Executor).returnValue,

	bytecode.SetupLoop: nop,
	bytecode.PopBlock:  nop,
}

var compareOps = map[string]ir.Operator{
	"<":  ir.OpLt,
	"<=": ir.OpLe,
	"==": ir.OpEq,
	"!=": ir.OpNe,
	">":  ir.OpGt,
	">=": ir.OpGe,
}

// Supported reports whether the executor has a handler for op.
func Supported(op bytecode.Opcode) bool {
	return handlers[op] != nil
}

func nop(e *Executor, in bytecode.Instruction) error { return nil }

func unary(op ir.Operator) opHandler {
	return func(e *Executor, in bytecode.Instruction) error {
		x := e.pop()
		e.call(op, []*ir.Inst{x}, nil)

		return nil
	}
}

func binary(op ir.Operator) opHandler {
	return func(e *Executor, in bytecode.Instruction) error {
		e.binaryOp(op)
		return nil
	}
}

func (e *Executor) binaryOp(op ir.Operator) {
	r := e.pop()
	l := e.pop()

	e.call(op, []*ir.Inst{l, r}, nil)
}

func (e *Executor) loadConst(in bytecode.Instruction) error {
	if in.Arg < 0 || in.Arg >= len(e.code.Consts) {
		return errors.New("const index %d out of range", in.Arg)
	}

	e.pushInsert(ir.Const{Value: e.code.Consts[in.Arg]})

	return nil
}

func (e *Executor) loadFast(in bytecode.Instruction) error {
	name, err := e.varname(in.Arg)
	if err != nil {
		return err
	}

	e.pushInsert(ir.Load{Name: name})

	return nil
}

func (e *Executor) loadGlobal(in bytecode.Instruction) error {
	if in.Arg < 0 || in.Arg >= len(e.code.Names) {
		return errors.New("global name index %d out of range", in.Arg)
	}

	e.pushInsert(ir.Global{Name: e.code.Names[in.Arg]})

	return nil
}

func (e *Executor) storeFast(in bytecode.Instruction) error {
	name, err := e.varname(in.Arg)
	if err != nil {
		return err
	}

	x := e.pop()
	e.pushInsert(ir.Store{Name: name, Value: x})

	return nil
}

func (e *Executor) varname(i int) (string, error) {
	if i < 0 || i >= len(e.code.VarNames) {
		return "", errors.New("local variable index %d out of range", i)
	}

	return e.code.VarNames[i], nil
}

func (e *Executor) compareOp(in bytecode.Instruction) error {
	var name string

	if in.Arg >= 0 && in.Arg < len(bytecode.CompareOps) {
		name = bytecode.CompareOps[in.Arg]
	}

	op, ok := compareOps[name]
	if !ok {
		return &UnsupportedBytecodeError{Op: in.Op, Offset: in.Offset, Line: in.Line, Detail: "comparison " + quote(name, in.Arg)}
	}

	e.binaryOp(op)

	return nil
}

// callFunction pops keyword pairs, then positional arguments, then the callee.
// The low byte of the argument is the positional count,
// the next byte is the keyword count.
func (e *Executor) callFunction(in bytecode.Instruction) error {
	argc := in.Arg & 0xff
	kwsc := (in.Arg >> 8) & 0xff

	kws := make([]ir.Keyword, kwsc)

	for i := kwsc - 1; i >= 0; i-- {
		val := e.pop()
		key := e.pop()

		c, ok := key.Value.(ir.Const)
		if !ok {
			return &InvalidArgumentError{Offset: in.Offset, Line: in.Line, Reason: "keyword must be a constant"}
		}

		name, ok := c.Value.(string)
		if !ok {
			return &InvalidArgumentError{Offset: in.Offset, Line: in.Line, Reason: "keyword must be a string constant"}
		}

		kws[i] = ir.Keyword{Name: name, Value: val}
	}

	args := make([]*ir.Inst, argc)

	for i := argc - 1; i >= 0; i-- {
		args[i] = e.pop()
	}

	fn := e.pop()

	if len(kws) == 0 {
		kws = nil
	}

	e.call(fn, args, kws)

	return nil
}

func (e *Executor) getIter(in bytecode.Instruction) error {
	x := e.pop()
	e.call(ir.OpIter, []*ir.Inst{x}, nil)

	return nil
}

// forIter checks the iterator in the loop header and advances it
// at the top of the loop body. The advance is emitted into the body
// block while the header is still being interpreted.
func (e *Executor) forIter(in bytecode.Instruction) error {
	it := e.peek()

	exit := e.blocks.Block(in.Target())
	body := e.blocks.Block(in.Next)

	if e.processed.IsSet(body.Offset) {
		ir.Inconsistent("loop body %v is interpreted before its header %v", body, e.cur)
	}

	e.call(ir.OpIterValid, []*ir.Inst{it}, nil)
	pred := e.pop()

	e.branch(pred, body, exit)

	hdr := e.cur
	e.cur = body

	e.call(ir.OpIterNext, []*ir.Inst{it}, nil)

	e.cur = hdr

	return nil
}

func (e *Executor) popJumpIfTrue(in bytecode.Instruction) error {
	e.branch(e.pop(), e.blocks.Block(in.Target()), e.blocks.Block(in.Next))
	return nil
}

func (e *Executor) popJumpIfFalse(in bytecode.Instruction) error {
	e.branch(e.pop(), e.blocks.Block(in.Next), e.blocks.Block(in.Target()))
	return nil
}

// jumpIfTrue and jumpIfFalse leave the condition on the stack
// for both successors.
func (e *Executor) jumpIfTrue(in bytecode.Instruction) error {
	e.branch(e.peek(), e.blocks.Block(in.Target()), e.blocks.Block(in.Next))
	return nil
}

func (e *Executor) jumpIfFalse(in bytecode.Instruction) error {
	e.branch(e.peek(), e.blocks.Block(in.Next), e.blocks.Block(in.Target()))
	return nil
}

func (e *Executor) jumpTo(in bytecode.Instruction) error {
	e.jump(e.blocks.Block(in.Target()))
	return nil
}

func (e *Executor) returnValue(in bytecode.Instruction) error {
	x := e.pop()

	if c, ok := x.Value.(ir.Const); ok && c.Value == bytecode.None {
		e.cur.Terminate(e.line, ir.RetVoid{})
		return nil
	}

	e.cur.Terminate(e.line, ir.Ret{Value: x})

	return nil
}

func quote(name string, arg int) string {
	if name == "" {
		return "#" + strconv.Itoa(arg)
	}

	return "'" + name + "'"
}
