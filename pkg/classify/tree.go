package classify

import (
	"math/rand/v2"
	"slices"

	"github.com/JaimeStill/jobcheck/pkg/features"
)

const minGain = 1e-12

// TreeNode is one node of a presence-split decision tree. Internal nodes test
// whether Feature is non-zero in the input; leaves have Feature -1 and carry
// Value (a fraud probability for forests, an additive score for boosting).
type TreeNode struct {
	Feature int
	Absent  int
	Present int
	Value   float64
}

// Tree is a decision tree stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []TreeNode
}

func (t Tree) eval(v features.Vector) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if present(v, n.Feature) {
			i = n.Present
		} else {
			i = n.Absent
		}
	}
}

// presence accumulates per-feature statistics over the samples of one node.
// Scratch arrays are sized to the feature space and reset after each node.
type presence struct {
	acc     [][2]float64
	mark    []bool
	touched []int
}

func newPresence(dim int) *presence {
	return &presence{
		acc:  make([][2]float64, dim),
		mark: make([]bool, dim),
	}
}

// collect adds stat(s) to every feature present in each sample and returns
// the touched features in increasing order.
func (p *presence) collect(X []features.Vector, samples []int, stat func(s int) [2]float64) []int {
	touched := p.touched[:0]
	for _, s := range samples {
		st := stat(s)
		for _, f := range X[s].Indices {
			if !p.mark[f] {
				p.mark[f] = true
				touched = append(touched, f)
			}
			p.acc[f][0] += st[0]
			p.acc[f][1] += st[1]
		}
	}
	slices.Sort(touched)
	p.touched = touched
	return touched
}

func (p *presence) reset() {
	for _, f := range p.touched {
		p.acc[f] = [2]float64{}
		p.mark[f] = false
	}
	p.touched = p.touched[:0]
}

func partition(X []features.Vector, samples []int, feature int) (absent, with []int) {
	for _, s := range samples {
		if present(X[s], feature) {
			with = append(with, s)
		} else {
			absent = append(absent, s)
		}
	}
	return absent, with
}

// giniBuilder grows a weighted Gini classification tree with random feature
// sub-sampling at each split.
type giniBuilder struct {
	X        []features.Vector
	y        []int
	weight   []float64
	maxDepth int
	maxFeat  int
	rng      *rand.Rand
	scratch  *presence
	nodes    []TreeNode
}

func (b *giniBuilder) build(samples []int) Tree {
	b.nodes = nil
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

func (b *giniBuilder) grow(samples []int, depth int) int {
	var total [2]float64
	for _, s := range samples {
		total[b.y[s]] += b.weight[s]
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Value: fraction(total)})

	if total[0] <= 0 || total[1] <= 0 || len(samples) < 2 || depth >= b.maxDepth {
		return node
	}

	touched := b.scratch.collect(b.X, samples, func(s int) [2]float64 {
		var st [2]float64
		st[b.y[s]] = b.weight[s]
		return st
	})

	parent := gini(total)
	sum := total[0] + total[1]
	best, bestGain := -1, minGain

	for _, f := range b.candidates(touched) {
		with := b.scratch.acc[f]
		without := [2]float64{max(total[0]-with[0], 0), max(total[1]-with[1], 0)}
		wWith, wWithout := with[0]+with[1], without[0]+without[1]
		if wWith <= minGain || wWithout <= minGain {
			continue
		}
		gain := parent - (wWith/sum)*gini(with) - (wWithout/sum)*gini(without)
		if gain > bestGain {
			best, bestGain = f, gain
		}
	}
	b.scratch.reset()

	if best < 0 {
		return node
	}

	absent, with := partition(b.X, samples, best)
	if len(absent) == 0 || len(with) == 0 {
		return node
	}
	a := b.grow(absent, depth+1)
	p := b.grow(with, depth+1)
	b.nodes[node] = TreeNode{Feature: best, Absent: a, Present: p, Value: b.nodes[node].Value}
	return node
}

func (b *giniBuilder) candidates(touched []int) []int {
	if b.maxFeat <= 0 || len(touched) <= b.maxFeat {
		return touched
	}

	pool := slices.Clone(touched)
	for i := range b.maxFeat {
		j := i + b.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	picked := pool[:b.maxFeat]
	slices.Sort(picked)
	return picked
}

// gradientBuilder grows a regression tree on log-loss gradients and hessians
// using the second-order split gain.
type gradientBuilder struct {
	X        []features.Vector
	grad     []float64
	hess     []float64
	lambda   float64
	maxDepth int
	scratch  *presence
	nodes    []TreeNode
}

func (b *gradientBuilder) build(samples []int) Tree {
	b.nodes = nil
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

func (b *gradientBuilder) grow(samples []int, depth int) int {
	var g, h float64
	for _, s := range samples {
		g += b.grad[s]
		h += b.hess[s]
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Value: g / (h + b.lambda)})

	if len(samples) < 2 || depth >= b.maxDepth {
		return node
	}

	touched := b.scratch.collect(b.X, samples, func(s int) [2]float64 {
		return [2]float64{b.grad[s], b.hess[s]}
	})

	parent := g * g / (h + b.lambda)
	best, bestGain := -1, minGain

	for _, f := range touched {
		gw, hw := b.scratch.acc[f][0], b.scratch.acc[f][1]
		gOut, hOut := g-gw, h-hw
		if hw <= minGain || hOut <= minGain {
			continue
		}
		gain := gw*gw/(hw+b.lambda) + gOut*gOut/(hOut+b.lambda) - parent
		if gain > bestGain {
			best, bestGain = f, gain
		}
	}
	b.scratch.reset()

	if best < 0 {
		return node
	}

	absent, with := partition(b.X, samples, best)
	if len(absent) == 0 || len(with) == 0 {
		return node
	}
	a := b.grow(absent, depth+1)
	p := b.grow(with, depth+1)
	b.nodes[node] = TreeNode{Feature: best, Absent: a, Present: p, Value: b.nodes[node].Value}
	return node
}

func gini(c [2]float64) float64 {
	t := c[0] + c[1]
	if t <= 0 {
		return 0
	}
	p0, p1 := c[0]/t, c[1]/t
	return 1 - p0*p0 - p1*p1
}

func fraction(c [2]float64) float64 {
	t := c[0] + c[1]
	if t <= 0 {
		return 0.5
	}
	return c[1] / t
}
