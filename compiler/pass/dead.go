package pass

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/stackssa/compiler/ir"
)

// StripDead removes blocks with neither incoming nor outgoing edges.
// The entry block is kept even when it is the only block.
func StripDead(ctx context.Context, g *ir.Graph) (dead []*ir.Block) {
	tr := tlog.SpanFromContext(ctx)
	entry := g.Entry()

	for _, b := range g.Blocks() {
		if b != entry && b.IsDead() {
			dead = append(dead, b)
		}
	}

	for _, b := range dead {
		g.Remove(b)

		tr.V("dead").Printw("dead block removed", "block", b, "code", len(b.Code))
	}

	return dead
}
