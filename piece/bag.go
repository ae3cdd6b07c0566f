package piece

import (
	"math/rand/v2"
	"slices"
)

// Bag deals every enabled shape once, in random order, before refilling.
// The first shape of a game is never S, Z or O when anything else is
// enabled.
type Bag struct {
	r     *rand.Rand
	kinds []Kind
	bag   []Kind
	drawn bool
}

func NewBag(mask ShapeMask, r *rand.Rand) (*Bag, error) {
	kinds := mask.Kinds()
	if len(kinds) == 0 {
		return nil, ErrNoShapes
	}
	b := &Bag{r: r, kinds: kinds}
	b.fill()
	return b, nil
}

func (b *Bag) fill() {
	b.bag = append(b.bag[:0], b.kinds...)
	b.r.Shuffle(len(b.bag), func(i, j int) { b.bag[i], b.bag[j] = b.bag[j], b.bag[i] })
}

// Len is the number of shapes left before the next refill.
func (b *Bag) Len() int { return len(b.bag) }

// Peek returns the next shape without drawing it.
func (b *Bag) Peek() Kind {
	if len(b.bag) == 0 {
		b.fill()
	}
	if !b.drawn {
		b.avoidBadStart()
	}
	return b.bag[len(b.bag)-1]
}

func (b *Bag) Draw() Kind {
	k := b.Peek()
	b.bag = b.bag[:len(b.bag)-1]
	b.drawn = true
	return k
}

func (b *Bag) avoidBadStart() {
	bad := []Kind{S, Z, O}
	last := len(b.bag) - 1
	if !slices.Contains(bad, b.bag[last]) {
		return
	}
	for i := range last {
		if !slices.Contains(bad, b.bag[i]) {
			b.bag[i], b.bag[last] = b.bag[last], b.bag[i]
			return
		}
	}
}
