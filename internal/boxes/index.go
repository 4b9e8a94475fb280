package boxes

import (
	"math"
	"sort"

	"github.com/tidwall/rtree"
)

// indexMargin widens the search window so floating point rounding in the
// window bounds never drops an amount the exact predicates would admit.
const indexMargin = 1e-6

type amountItem struct {
	tok     Token
	vcenter float64
}

// amountIndex holds a page's amount candidates sorted by vertical center
// (stable, so token order breaks ties) and an R-tree over (left, vcenter).
// Items with a non-finite coordinate stay out of the tree and are returned
// for every query.
type amountIndex struct {
	items     []amountItem
	tree      rtree.RTreeG[int]
	unindexed []int
}

func newAmountIndex(amounts []Token) *amountIndex {
	items := make([]amountItem, len(amounts))
	for i, a := range amounts {
		items[i] = amountItem{tok: a, vcenter: a.VCenter()}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].vcenter < items[j].vcenter
	})

	idx := &amountIndex{items: items}
	for i, it := range items {
		if !finite(it.tok.Left) || !finite(it.vcenter) {
			idx.unindexed = append(idx.unindexed, i)
			continue
		}
		pt := [2]float64{it.tok.Left, it.vcenter}
		idx.tree.Insert(pt, pt, i)
	}
	return idx
}

// candidates returns, in sorted order, the items that may satisfy the alignment
// and rightward constraints for code. Callers still apply the exact predicates.
func (idx *amountIndex) candidates(code Token, yTolerance float64) []int {
	yc := code.VCenter()
	if !finite(code.Right) || !finite(yc) {
		all := make([]int, len(idx.items))
		for i := range all {
			all[i] = i
		}
		return all
	}
	lo := [2]float64{code.Right - maxLeftSlack - indexMargin, yc - yTolerance - indexMargin}
	hi := [2]float64{math.MaxFloat64, yc + yTolerance + indexMargin}

	hits := append([]int(nil), idx.unindexed...)
	idx.tree.Search(lo, hi, func(_, _ [2]float64, i int) bool {
		hits = append(hits, i)
		return true
	})
	sort.Ints(hits)
	return hits
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
