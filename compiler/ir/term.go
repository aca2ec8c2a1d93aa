package ir

type (
	Terminator interface {
		Targets() []*Block
	}

	Jump struct {
		Target *Block
	}

	Branch struct {
		Cond  *Inst
		True  *Block
		False *Block
	}

	Ret struct {
		Value *Inst
	}

	RetVoid struct{}
)

func (t Jump) Targets() []*Block    { return []*Block{t.Target} }
func (t Branch) Targets() []*Block  { return []*Block{t.True, t.False} }
func (t Ret) Targets() []*Block     { return nil }
func (t RetVoid) Targets() []*Block { return nil }
