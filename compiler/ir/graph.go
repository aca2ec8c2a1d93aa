package ir

import "sort"

type (
	// Graph is the set of blocks of one function keyed by offset.
	Graph struct {
		blocks map[int]*Block
		sorted []*Block

		ninst int
	}
)

func NewGraph() *Graph {
	return &Graph{
		blocks: make(map[int]*Block),
	}
}

// Block returns the block at off creating it if needed.
func (g *Graph) Block(off int) *Block {
	if b, ok := g.blocks[off]; ok {
		return b
	}

	b := &Block{
		Offset: off,
		g:      g,
	}

	g.blocks[off] = b
	g.sorted = nil

	return b
}

func (g *Graph) Lookup(off int) (*Block, bool) {
	b, ok := g.blocks[off]
	return b, ok
}

func (g *Graph) Has(off int) bool {
	_, ok := g.blocks[off]
	return ok
}

// Remove deletes a block. It must have no edges left.
func (g *Graph) Remove(b *Block) {
	if len(b.Preds) != 0 || len(b.Succs) != 0 {
		Inconsistent("remove connected block %v (preds %v, succs %v)", b, b.Preds, b.Succs)
	}

	if g.blocks[b.Offset] != b {
		Inconsistent("remove foreign block %v", b)
	}

	delete(g.blocks, b.Offset)
	g.sorted = nil
}

// Blocks returns all the blocks ordered by offset.
// The slice is shared until the next insertion or removal.
func (g *Graph) Blocks() []*Block {
	if g.sorted != nil {
		return g.sorted
	}

	g.sorted = make([]*Block, 0, len(g.blocks))

	for _, b := range g.blocks {
		g.sorted = append(g.sorted, b)
	}

	sort.Slice(g.sorted, func(i, j int) bool {
		return g.sorted[i].Offset < g.sorted[j].Offset
	})

	return g.sorted
}

// Last is the block with the highest offset.
func (g *Graph) Last() *Block {
	l := g.Blocks()
	if len(l) == 0 {
		return nil
	}

	return l[len(l)-1]
}

// Entry is the block at offset 0.
func (g *Graph) Entry() *Block {
	return g.blocks[0]
}

func (g *Graph) Len() int { return len(g.blocks) }

// Insts is the number of instructions ever allocated in the graph.
func (g *Graph) Insts() int { return g.ninst }

func (g *Graph) newInst(line int, v Value) *Inst {
	x := &Inst{
		ID:    g.ninst,
		Line:  line,
		Value: v,
	}

	g.ninst++

	return x
}
