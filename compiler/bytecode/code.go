package bytecode

import (
	"sort"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	Instruction struct {
		Offset int
		Op     Opcode
		Arg    int
		Line   int
		Next   int
	}

	// Signature is the declared parameter list of the source function.
	Signature struct {
		Args     []string
		Defaults int
		VarArgs  string
		KwArgs   string
	}

	Code struct {
		Name string

		Signature

		Consts   []any
		VarNames []string
		Names    []string

		insts  []Instruction
		index  map[int]int
		labels []int
	}

	NoneType struct{}
)

// None is the "no value" constant. Returning it is a void return.
var None NoneType

func (NoneType) String() string { return "None" }

// NewCode indexes insts by offset and finds all branch targets.
// insts must be ordered by offset and linked through Next.
func NewCode(name string, sig Signature, consts []any, varnames, names []string, insts []Instruction) (*Code, error) {
	c := &Code{
		Name:      name,
		Signature: sig,
		Consts:    consts,
		VarNames:  varnames,
		Names:     names,
		insts:     insts,
		index:     make(map[int]int, len(insts)),
	}

	labels := map[int]struct{}{}

	for i, in := range insts {
		if i != 0 && insts[i-1].Next != in.Offset {
			return nil, errors.New("instruction at %d is not linked from previous one (next %d)", in.Offset, insts[i-1].Next)
		}

		if !in.Op.Valid() {
			return nil, errors.New("invalid opcode %d at %d", in.Op, in.Offset)
		}

		c.index[in.Offset] = i

		if in.Op.IsJump() {
			labels[in.Target()] = struct{}{}
		}
	}

	for l := range labels {
		if _, ok := c.index[l]; !ok {
			return nil, errors.New("branch target %d is not an instruction offset", l)
		}

		c.labels = append(c.labels, l)
	}

	sort.Ints(c.labels)

	return c, nil
}

// Target is the branch destination of a jump instruction.
func (in Instruction) Target() int {
	if in.Op.IsRelJump() {
		return in.Next + in.Arg
	}

	return in.Arg
}

func (in Instruction) String() string {
	if !in.Op.HasArg() {
		return strconv.Itoa(in.Offset) + " " + in.Op.String()
	}

	return strconv.Itoa(in.Offset) + " " + in.Op.String() + " " + strconv.Itoa(in.Arg)
}

func (in Instruction) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)
	b = e.AppendKeyInt(b, "off", in.Offset)
	b = e.AppendKeyInt(b, "op", int(in.Op))
	b = e.AppendKeyInt(b, "arg", in.Arg)
	b = e.AppendKeyInt(b, "line", in.Line)

	return b
}

func (c *Code) At(off int) (Instruction, bool) {
	i, ok := c.index[off]
	if !ok {
		return Instruction{}, false
	}

	return c.insts[i], true
}

func (c *Code) Has(off int) bool {
	_, ok := c.index[off]
	return ok
}

func (c *Code) Instructions() []Instruction { return c.insts }

// Labels are all branch target offsets in ascending order.
func (c *Code) Labels() []int { return c.labels }

func (c *Code) IsLabel(off int) bool {
	i := sort.SearchInts(c.labels, off)

	return i < len(c.labels) && c.labels[i] == off
}

// FirstLine is the source line of the first instruction.
func (c *Code) FirstLine() int {
	if len(c.insts) == 0 {
		return 0
	}

	return c.insts[0].Line
}

// ParseConst parses a constant table literal: None, True, False,
// integers, floats and single or double quoted strings.
func ParseConst(s string) (any, error) {
	s = strings.TrimSpace(s)

	switch s {
	case "None":
		return None, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "":
		return nil, errors.New("empty constant")
	}

	if q := s[0]; (q == '\'' || q == '"') && len(s) >= 2 && s[len(s)-1] == q {
		if q == '\'' {
			return s[1 : len(s)-1], nil
		}

		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, errors.Wrap(err, "string constant")
		}

		return v, nil
	}

	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("unsupported constant: %q", s)
	}

	return v, nil
}
