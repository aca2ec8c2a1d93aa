package pass

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/stackssa/compiler/ir"
	"github.com/slowlang/stackssa/compiler/set"
)

type (
	// Doms maps each block to the set of blocks dominating it, itself included.
	Doms struct {
		blocks []*ir.Block
		index  map[*ir.Block]int
		sets   []set.Bits[int]

		gone set.Bits[int]
	}
)

// Dominators solves dom(b) = {b} ∪ ⋂ dom(p) for p in preds(b)
// starting from dom(entry) = {entry} and dom(b) = all blocks.
// Blocks without predecessors other than the entry keep the full set.
func Dominators(ctx context.Context, g *ir.Graph) *Doms {
	tr := tlog.SpanFromContext(ctx)

	d := &Doms{
		blocks: append([]*ir.Block{}, g.Blocks()...),
		gone:   set.MakeBits(0),
	}

	n := len(d.blocks)

	d.index = make(map[*ir.Block]int, n)
	d.sets = make([]set.Bits[int], n)

	entry := g.Entry()

	for i, b := range d.blocks {
		d.index[b] = i

		if b == entry {
			d.sets[i] = set.MakeBits(0)
			d.sets[i].Set(i)

			continue
		}

		d.sets[i] = set.Fill(0, n)
	}

	for iter := 0; ; iter++ {
		changed := false

		for i, b := range d.blocks {
			if b == entry || len(b.Preds) == 0 {
				continue
			}

			var x set.Bits[int]

			for j, p := range b.Preds {
				if j == 0 {
					x = d.sets[d.index[p]].Copy()
				} else {
					x.Intersect(d.sets[d.index[p]])
				}
			}

			x.Set(i)

			if x.Equal(d.sets[i]) {
				continue
			}

			d.sets[i] = x
			changed = true
		}

		if tr.If("dom") {
			tr.Printw("dominators iteration", "iter", iter, "changed", changed)
		}

		if !changed {
			break
		}
	}

	return d
}

// Of returns the dominators of b ordered by offset.
func (d *Doms) Of(b *ir.Block) []*ir.Block {
	i, ok := d.index[b]
	if !ok {
		return nil
	}

	var l []*ir.Block

	d.sets[i].Range(func(j int) bool {
		if !d.gone.IsSet(j) {
			l = append(l, d.blocks[j])
		}

		return true
	})

	return l
}

// Dominates reports whether every path from the entry to b passes through a.
func (d *Doms) Dominates(a, b *ir.Block) bool {
	i, ok := d.index[a]
	if !ok || d.gone.IsSet(i) {
		return false
	}

	j, ok := d.index[b]
	if !ok {
		return false
	}

	return d.sets[j].IsSet(i)
}

// Backbone is the dominator set of the last block:
// the blocks on every path from the entry to the end of the function.
func (d *Doms) Backbone(g *ir.Graph) []*ir.Block {
	return d.Of(g.Last())
}

// Forget drops a removed block from all the sets.
func (d *Doms) Forget(b *ir.Block) {
	if i, ok := d.index[b]; ok {
		d.gone.Set(i)
	}
}
