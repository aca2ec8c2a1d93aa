package bytecode

import (
	"os"

	"github.com/BurntSushi/toml"
	"tlog.app/go/errors"
)

type (
	// Listing is the on-disk form of a code object.
	Listing struct {
		Name      string   `toml:"name"`
		Args      []string `toml:"args"`
		Defaults  int      `toml:"defaults"`
		VarArgs   string   `toml:"varargs"`
		KwArgs    string   `toml:"kwargs"`
		VarNames  []string `toml:"varnames"`
		Names     []string `toml:"names"`
		Consts    []string `toml:"consts"`
		FirstLine int      `toml:"firstline"`
		Code      string   `toml:"code"`
	}
)

func LoadFile(name string) (*Code, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	c, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", name)
	}

	return c, nil
}

func Decode(data []byte) (*Code, error) {
	var l Listing

	md, err := toml.Decode(string(data), &l)
	if err != nil {
		return nil, errors.Wrap(err, "decode listing")
	}

	if und := md.Undecoded(); len(und) != 0 {
		return nil, errors.New("unknown listing keys: %v", und)
	}

	return l.Build()
}

// Build assembles the listing into a code object.
func (l *Listing) Build() (*Code, error) {
	consts := make([]any, len(l.Consts))

	for i, s := range l.Consts {
		v, err := ParseConst(s)
		if err != nil {
			return nil, errors.Wrap(err, "const %d", i)
		}

		consts[i] = v
	}

	varnames := l.VarNames
	if varnames == nil {
		varnames = l.Args
	}

	first := l.FirstLine
	if first == 0 {
		first = 1
	}

	insts, err := Assemble(l.Code, first)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}

	sig := Signature{
		Args:     l.Args,
		Defaults: l.Defaults,
		VarArgs:  l.VarArgs,
		KwArgs:   l.KwArgs,
	}

	return NewCode(l.Name, sig, consts, varnames, l.Names, insts)
}
