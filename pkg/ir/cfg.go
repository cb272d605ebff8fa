package ir

import "fmt"

// BasicBlock is a maximal run of sentences with a single entry and a
// terminator at its end (or at the end of the program).
type BasicBlock struct {
	Label      string // the entry label, or a synthetic name if unlabeled
	Synthetic  bool   // true when Label was generated, not authored
	Sentences  []Sentence
	Successors []string // labels of successor blocks, 0/1/2 entries
}

// Graph is a labelled directed graph of basic blocks in program order.
type Graph struct {
	Blocks []*BasicBlock
	byName map[string]*BasicBlock
}

// Block looks up a block by its label.
func (g *Graph) Block(label string) *BasicBlock {
	return g.byName[label]
}

// Build walks a Program (mirroring the teacher's DFS-style single pass
// over a sentence/operation list) and partitions it into basic blocks.
// A new block starts at every labelled sentence; a block closes at a
// terminator sentence (Jmp, IfJmp, Return, FuncEnd). No optimization is
// performed at this layer.
func Build(prog Program) (*Graph, error) {
	g := &Graph{byName: map[string]*BasicBlock{}}

	var current *BasicBlock
	synthCounter := 0
	newSynthetic := func() *BasicBlock {
		synthCounter++
		name := fmt.Sprintf("_bb%d", synthCounter)
		b := &BasicBlock{Label: name, Synthetic: true}
		g.Blocks = append(g.Blocks, b)
		g.byName[name] = b
		return b
	}

	for _, s := range prog {
		if s.Label != "" {
			b := g.byName[s.Label]
			if b == nil {
				b = &BasicBlock{Label: s.Label}
				g.Blocks = append(g.Blocks, b)
				g.byName[s.Label] = b
			}
			current = b
		} else if current == nil {
			// A FuncEnd right after a closed block has no entry of its
			// own; it closes the preceding block instead of opening one.
			if s.Op == FuncEnd && len(g.Blocks) > 0 {
				last := g.Blocks[len(g.Blocks)-1]
				last.Sentences = append(last.Sentences, s)
				continue
			}
			current = newSynthetic()
		}

		current.Sentences = append(current.Sentences, s)

		switch s.Op {
		case Jmp:
			current.Successors = append(current.Successors, s.Label2Or(s.Value))
			current = nil
		case IfJmp:
			current.Successors = append(current.Successors, s.TrueLabel, s.FalseLabel)
			current = nil
		case Return, FuncEnd:
			current = nil
		}
	}

	return g, nil
}

// Label2Or is a small accessor helper: Jmp sentences store their target
// label in Value (the op-specific mnemonic/target field), this makes
// that explicit at call sites instead of reading .Value directly.
func (s Sentence) Label2Or(fallback string) string {
	if s.Value != "" {
		return s.Value
	}
	return fallback
}
