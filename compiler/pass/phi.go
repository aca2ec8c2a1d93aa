package pass

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackssa/compiler/ir"
)

// CompletePhis resolves the incomings of every phi.
//
// A phi for entry slot k takes from each predecessor the value k slots
// below the top of the stack the predecessor exits with. If the
// predecessor stack is too shallow the value passes through it and the
// predecessor gets its own phi, completed the same way.
// maxDepth bounds the slot depth.
func CompletePhis(ctx context.Context, g *ir.Graph, maxDepth int) error {
	tr := tlog.SpanFromContext(ctx)

	var q []*ir.Inst

	for _, b := range g.Blocks() {
		q = append(q, b.Phis()...)
	}

	for len(q) != 0 {
		x := q[0]
		q = q[1:]

		p, _ := x.Phi()
		if p.Complete() {
			continue
		}

		b := x.Block

		if len(b.Preds) == 0 {
			return errors.New("block %v: stack underflow at function entry (slot %d, line %d)", b, p.Slot, x.Line)
		}

		if p.Slot >= maxDepth {
			return errors.New("block %v: stack slot %d is deeper than the function can reach", b, p.Slot)
		}

		for _, pred := range b.Preds {
			v, through := pred.ExitSlot(pred.Line(), p.Slot)

			p.Incomings.Add(pred, v)

			if through {
				q = append(q, pred.Phis()...)
			}

			if tr.If("phi") {
				tr.Printw("phi incoming", "phi", x, "block", b, "slot", p.Slot, "pred", pred, "value", v, "through", through)
			}
		}

		p.Seal()
	}

	return nil
}

// VerifyPhis panics if any phi is left unresolved
// or does not cover exactly the block predecessors.
func VerifyPhis(g *ir.Graph) {
	for _, b := range g.Blocks() {
		for _, x := range b.Phis() {
			p, _ := x.Phi()

			if !p.Complete() {
				ir.Inconsistent("phi %v in %v is incomplete", x, b)
			}

			if p.Incomings.Len() != len(b.Preds) {
				ir.Inconsistent("phi %v in %v has %d incomings for %d preds", x, b, p.Incomings.Len(), len(b.Preds))
			}
		}
	}
}
