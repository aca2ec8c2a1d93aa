package bytecode

import (
	"strconv"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

type (
	asmLine struct {
		n    int // listing line
		op   Opcode
		arg  string
		line int // source line
		off  int
	}
)

// Assemble translates a text listing into linked instructions.
//
//	# comment
//	.line 3
//	loop:
//	    LOAD_FAST 0
//	    POP_JUMP_IF_FALSE done
//
// Jump operands may be label names. They are resolved to an absolute
// offset or to a delta from the next instruction depending on the opcode.
func Assemble(src string, firstLine int) (insts []Instruction, err error) {
	var lines []asmLine

	labels := map[string]int{}
	off := 0
	srcline := firstLine

	for n, l := range strings.Split(src, "\n") {
		n++

		if p := strings.IndexByte(l, '#'); p >= 0 {
			l = l[:p]
		}

		f := strings.Fields(l)
		if len(f) == 0 {
			continue
		}

		if f[0] == ".line" {
			if len(f) != 2 {
				return nil, errors.New("asm line %d: .line expects one argument", n)
			}

			srcline, err = strconv.Atoi(f[1])
			if err != nil {
				return nil, errors.Wrap(err, "asm line %d", n)
			}

			continue
		}

		if name, ok := strings.CutSuffix(f[0], ":"); ok && len(f) == 1 {
			if _, dup := labels[name]; dup {
				return nil, errors.New("asm line %d: duplicated label %q", n, name)
			}

			labels[name] = off

			continue
		}

		op, ok := LookupOpcode(f[0])
		if !ok {
			return nil, errors.New("asm line %d: unknown mnemonic %q", n, f[0])
		}

		x := asmLine{n: n, op: op, line: srcline, off: off}

		switch {
		case op.HasArg() && len(f) == 2:
			x.arg = f[1]
		case !op.HasArg() && len(f) == 1:
		default:
			return nil, errors.New("asm line %d: %v: wrong number of operands", n, op)
		}

		lines = append(lines, x)
		off += op.Size()
	}

	insts = make([]Instruction, len(lines))

	for i, x := range lines {
		in := Instruction{
			Offset: x.off,
			Op:     x.op,
			Line:   x.line,
			Next:   x.off + x.op.Size(),
		}

		if x.op.HasArg() {
			in.Arg, err = x.operand(in, labels)
			if err != nil {
				return nil, err
			}
		}

		insts[i] = in
	}

	return insts, nil
}

func (x asmLine) operand(in Instruction, labels map[string]int) (int, error) {
	if v, err := strconv.Atoi(x.arg); err == nil {
		return v, nil
	}

	target, ok := labels[x.arg]
	if !ok {
		return 0, errors.New("asm line %d: undefined label %q", x.n, x.arg)
	}

	switch {
	case in.Op.IsAbsJump():
		return target, nil
	case in.Op.IsRelJump():
		if target < in.Next {
			return 0, errors.New("asm line %d: %v cannot jump backwards to %q", x.n, in.Op, x.arg)
		}

		return target - in.Next, nil
	default:
		return 0, errors.New("asm line %d: %v does not take a label", x.n, in.Op)
	}
}

// Disassemble appends a listing of c with offsets, lines and label marks.
func Disassemble(b []byte, c *Code) []byte {
	line := -1

	for _, in := range c.insts {
		mark := "  "
		if c.IsLabel(in.Offset) {
			mark = ">>"
		}

		if in.Line != line {
			line = in.Line
			b = hfmt.Appendf(b, "%4d ", line)
		} else {
			b = append(b, "     "...)
		}

		b = hfmt.Appendf(b, "%s %4d %-22v", mark, in.Offset, in.Op)

		if in.Op.HasArg() {
			b = hfmt.Appendf(b, " %d", in.Arg)
			b = c.appendArgInfo(b, in)
		}

		b = append(b, '\n')
	}

	return b
}

func (c *Code) appendArgInfo(b []byte, in Instruction) []byte {
	switch {
	case in.Op.IsJump():
		return hfmt.Appendf(b, " (to %d)", in.Target())
	case in.Op == LoadConst && in.Arg < len(c.Consts):
		return hfmt.Appendf(b, " (%v)", c.Consts[in.Arg])
	case (in.Op == LoadFast || in.Op == StoreFast) && in.Arg < len(c.VarNames):
		return hfmt.Appendf(b, " (%s)", c.VarNames[in.Arg])
	case in.Op == LoadGlobal && in.Arg < len(c.Names):
		return hfmt.Appendf(b, " (%s)", c.Names[in.Arg])
	case in.Op == CompareOp && in.Arg < len(CompareOps):
		return hfmt.Appendf(b, " (%s)", CompareOps[in.Arg])
	}

	return b
}
