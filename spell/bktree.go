package spell

import (
	"math"

	"github.com/maastricht-university/emotion-dataset/lexicon"
)

type bkNode struct {
	word     string
	order    int
	children map[int]*bkNode
}

// BKTree indexes the lexicon in a Burkhard-Keller tree so a lookup only
// visits subtrees the triangle inequality cannot rule out.
type BKTree struct {
	root *bkNode
}

func NewBKTree(lex *lexicon.Lexicon) *BKTree {
	t := &BKTree{}
	for i := 0; i < lex.Len(); i++ {
		t.insert(lex.At(i), i)
	}
	return t
}

func (t *BKTree) insert(word string, order int) {
	if t.root == nil {
		t.root = &bkNode{word: word, order: order}
		return
	}
	n := t.root
	for {
		d := distance(word, n.word)
		if d == 0 {
			return
		}
		child, ok := n.children[d]
		if !ok {
			if n.children == nil {
				n.children = make(map[int]*bkNode)
			}
			n.children[d] = &bkNode{word: word, order: order}
			return
		}
		n = child
	}
}

// Correct returns the nearest word, breaking ties by lexicon order.
func (t *BKTree) Correct(token string) Match {
	if t.root == nil {
		return Match{Word: token}
	}

	best, bestOrder := math.MaxInt, math.MaxInt
	var word string
	stack := []*bkNode{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := distance(token, n.word)
		if d < best || (d == best && n.order < bestOrder) {
			best, bestOrder, word = d, n.order, n.word
		}
		// Entries at distance <= best from token sit under edges in [d-best, d+best].
		for k, child := range n.children {
			if k >= d-best && k <= d+best {
				stack = append(stack, child)
			}
		}
	}
	return Match{Word: word, Distance: best}
}
