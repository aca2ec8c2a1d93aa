package bytecode

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	Opcode uint8

	opinfo struct {
		name string
		arg  bool
		jump jumpKind
	}

	jumpKind uint8
)

const (
	noJump jumpKind = iota
	jumpRel
	jumpAbs
)

// Opcode values. Everything at or above HaveArgument carries a 2 byte argument.
const (
	Stop          Opcode = 0
	PopTop        Opcode = 1
	RotTwo        Opcode = 2
	RotThree      Opcode = 3
	DupTop        Opcode = 4
	Nop           Opcode = 9
	UnaryPositive Opcode = 10
	UnaryNegative Opcode = 11
	UnaryNot      Opcode = 12
	UnaryInvert   Opcode = 15

	BinaryPower        Opcode = 19
	BinaryMultiply     Opcode = 20
	BinaryDivide       Opcode = 21
	BinaryModulo       Opcode = 22
	BinaryAdd          Opcode = 23
	BinarySubtract     Opcode = 24
	BinarySubscr       Opcode = 25
	BinaryFloorDivide  Opcode = 26
	BinaryTrueDivide   Opcode = 27
	InplaceFloorDivide Opcode = 28
	InplaceTrueDivide  Opcode = 29

	InplaceAdd      Opcode = 55
	InplaceSubtract Opcode = 56
	InplaceMultiply Opcode = 57
	InplaceDivide   Opcode = 58
	InplaceModulo   Opcode = 59

	BinaryLshift  Opcode = 62
	BinaryRshift  Opcode = 63
	BinaryAnd     Opcode = 64
	BinaryXor     Opcode = 65
	BinaryOr      Opcode = 66
	InplacePower  Opcode = 67
	GetIter       Opcode = 68
	InplaceLshift Opcode = 75
	InplaceRshift Opcode = 76
	InplaceAnd    Opcode = 77
	InplaceXor    Opcode = 78
	InplaceOr     Opcode = 79
	BreakLoop     Opcode = 80
	ReturnValue   Opcode = 83
	PopBlock      Opcode = 87

	HaveArgument Opcode = 90

	StoreName        Opcode = 90
	ForIter          Opcode = 93
	StoreGlobal      Opcode = 97
	LoadConst        Opcode = 100
	LoadName         Opcode = 101
	BuildTuple       Opcode = 102
	LoadAttr         Opcode = 106
	CompareOp        Opcode = 107
	JumpForward      Opcode = 110
	JumpIfFalseOrPop Opcode = 111
	JumpIfTrueOrPop  Opcode = 112
	JumpAbsolute     Opcode = 113
	PopJumpIfFalse   Opcode = 114
	PopJumpIfTrue    Opcode = 115
	LoadGlobal       Opcode = 116
	SetupLoop        Opcode = 120
	LoadFast         Opcode = 124
	StoreFast        Opcode = 125
	CallFunction     Opcode = 131

	// Classic relative peek branches. The numbers are local to this
	// assembler and do not collide with the rest of the table.
	JumpIfFalse Opcode = 148
	JumpIfTrue  Opcode = 149
)

var ops = [256]opinfo{
	Stop:          {name: "STOP_CODE"},
	PopTop:        {name: "POP_TOP"},
	RotTwo:        {name: "ROT_TWO"},
	RotThree:      {name: "ROT_THREE"},
	DupTop:        {name: "DUP_TOP"},
	Nop:           {name: "NOP"},
	UnaryPositive: {name: "UNARY_POSITIVE"},
	UnaryNegative: {name: "UNARY_NEGATIVE"},
	UnaryNot:      {name: "UNARY_NOT"},
	UnaryInvert:   {name: "UNARY_INVERT"},

	BinaryPower:        {name: "BINARY_POWER"},
	BinaryMultiply:     {name: "BINARY_MULTIPLY"},
	BinaryDivide:       {name: "BINARY_DIVIDE"},
	BinaryModulo:       {name: "BINARY_MODULO"},
	BinaryAdd:          {name: "BINARY_ADD"},
	BinarySubtract:     {name: "BINARY_SUBTRACT"},
	BinarySubscr:       {name: "BINARY_SUBSCR"},
	BinaryFloorDivide:  {name: "BINARY_FLOOR_DIVIDE"},
	BinaryTrueDivide:   {name: "BINARY_TRUE_DIVIDE"},
	InplaceFloorDivide: {name: "INPLACE_FLOOR_DIVIDE"},
	InplaceTrueDivide:  {name: "INPLACE_TRUE_DIVIDE"},

	InplaceAdd:      {name: "INPLACE_ADD"},
	InplaceSubtract: {name: "INPLACE_SUBTRACT"},
	InplaceMultiply: {name: "INPLACE_MULTIPLY"},
	InplaceDivide:   {name: "INPLACE_DIVIDE"},
	InplaceModulo:   {name: "INPLACE_MODULO"},

	BinaryLshift:  {name: "BINARY_LSHIFT"},
	BinaryRshift:  {name: "BINARY_RSHIFT"},
	BinaryAnd:     {name: "BINARY_AND"},
	BinaryXor:     {name: "BINARY_XOR"},
	BinaryOr:      {name: "BINARY_OR"},
	InplacePower:  {name: "INPLACE_POWER"},
	GetIter:       {name: "GET_ITER"},
	InplaceLshift: {name: "INPLACE_LSHIFT"},
	InplaceRshift: {name: "INPLACE_RSHIFT"},
	InplaceAnd:    {name: "INPLACE_AND"},
	InplaceXor:    {name: "INPLACE_XOR"},
	InplaceOr:     {name: "INPLACE_OR"},
	BreakLoop:     {name: "BREAK_LOOP"},
	ReturnValue:   {name: "RETURN_VALUE"},
	PopBlock:      {name: "POP_BLOCK"},

	StoreName:        {name: "STORE_NAME", arg: true},
	ForIter:          {name: "FOR_ITER", arg: true, jump: jumpRel},
	StoreGlobal:      {name: "STORE_GLOBAL", arg: true},
	LoadConst:        {name: "LOAD_CONST", arg: true},
	LoadName:         {name: "LOAD_NAME", arg: true},
	BuildTuple:       {name: "BUILD_TUPLE", arg: true},
	LoadAttr:         {name: "LOAD_ATTR", arg: true},
	CompareOp:        {name: "COMPARE_OP", arg: true},
	JumpForward:      {name: "JUMP_FORWARD", arg: true, jump: jumpRel},
	JumpIfFalseOrPop: {name: "JUMP_IF_FALSE_OR_POP", arg: true, jump: jumpAbs},
	JumpIfTrueOrPop:  {name: "JUMP_IF_TRUE_OR_POP", arg: true, jump: jumpAbs},
	JumpAbsolute:     {name: "JUMP_ABSOLUTE", arg: true, jump: jumpAbs},
	PopJumpIfFalse:   {name: "POP_JUMP_IF_FALSE", arg: true, jump: jumpAbs},
	PopJumpIfTrue:    {name: "POP_JUMP_IF_TRUE", arg: true, jump: jumpAbs},
	LoadGlobal:       {name: "LOAD_GLOBAL", arg: true},
	SetupLoop:        {name: "SETUP_LOOP", arg: true, jump: jumpRel},
	LoadFast:         {name: "LOAD_FAST", arg: true},
	StoreFast:        {name: "STORE_FAST", arg: true},
	CallFunction:     {name: "CALL_FUNCTION", arg: true},
	JumpIfFalse:      {name: "JUMP_IF_FALSE", arg: true, jump: jumpRel},
	JumpIfTrue:       {name: "JUMP_IF_TRUE", arg: true, jump: jumpRel},
}

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(ops))

	for op, x := range ops {
		if x.name != "" {
			m[x.name] = Opcode(op)
		}
	}

	return m
}()

// CompareOps is indexed by the COMPARE_OP argument.
var CompareOps = []string{"<", "<=", "==", "!=", ">", ">=", "in", "not in", "is", "is not", "exception match", "BAD"}

func LookupOpcode(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

func (op Opcode) Valid() bool { return ops[op].name != "" }

func (op Opcode) HasArg() bool { return op >= HaveArgument }

func (op Opcode) IsJump() bool { return ops[op].jump != noJump }

func (op Opcode) IsRelJump() bool { return ops[op].jump == jumpRel }

func (op Opcode) IsAbsJump() bool { return ops[op].jump == jumpAbs }

// Size is the encoded length of an instruction with this opcode.
func (op Opcode) Size() int {
	if op.HasArg() {
		return 3
	}

	return 1
}

func (op Opcode) String() string {
	if n := ops[op].name; n != "" {
		return n
	}

	return "<" + strconv.Itoa(int(op)) + ">"
}

func (op Opcode) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "%v", op)
}
