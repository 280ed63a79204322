package model

import "slices"

// noLink marks an absent parent or child in the node arena.
const noLink = int32(-1)

// unbuiltCount sorts above any real frequency so the merge cursors never
// pick a node that has not been created yet.
const unbuiltCount = int64(1e15)

// treeNode is one record in the coding-tree arena. Links are indices
// into the arena.
type treeNode struct {
	parent  int32
	left    int32
	right   int32
	count   int64
	isRight bool
}

// tree is the binary coding tree over the output classes. Leaves occupy
// [0, osz) and correspond 1:1 to classes, internal nodes [osz, 2*osz-1),
// and the last node is the root. Built once, immutable afterward.
type tree struct {
	nodes []treeNode
	paths [][]int32 // per class, output-row indices root to leaf
	codes [][]bool  // per class, branch bit per step, true = right
}

func (t *tree) root() int32 { return int32(len(t.nodes) - 1) }

// buildTree constructs the minimal-weighted-depth coding tree for the
// given class frequencies. counts must be sorted in non-increasing
// order: the build merges the two smallest available nodes by walking
// two already-ordered sequences (remaining leaves back to front, created
// internal nodes front to back) instead of keeping a priority queue.
// Unsorted counts still produce a structurally valid tree, just not a
// minimal coding.
func buildTree(counts []int64) *tree {
	osz := len(counts)
	t := &tree{nodes: make([]treeNode, 2*osz-1)}
	for i := range t.nodes {
		t.nodes[i] = treeNode{parent: noLink, left: noLink, right: noLink, count: unbuiltCount}
	}
	for i, c := range counts {
		t.nodes[i].count = c
	}

	leaf := int32(osz - 1)
	node := int32(osz)
	for i := int32(osz); i < int32(2*osz-1); i++ {
		var mini [2]int32
		for j := 0; j < 2; j++ {
			if leaf >= 0 && t.nodes[leaf].count < t.nodes[node].count {
				mini[j] = leaf
				leaf--
			} else {
				mini[j] = node
				node++
			}
		}
		t.nodes[i].count = t.nodes[mini[0]].count + t.nodes[mini[1]].count
		t.nodes[mini[0]].parent = i
		t.nodes[mini[1]].parent = i
		t.nodes[mini[1]].isRight = true
		t.nodes[i].left = mini[0]
		t.nodes[i].right = mini[1]
	}

	t.paths = make([][]int32, osz)
	t.codes = make([][]bool, osz)
	for i := 0; i < osz; i++ {
		var path []int32
		var code []bool
		for j := int32(i); t.nodes[j].parent != noLink; j = t.nodes[j].parent {
			path = append(path, t.nodes[j].parent-int32(osz))
			code = append(code, t.nodes[j].isRight)
		}
		slices.Reverse(path)
		slices.Reverse(code)
		t.paths[i] = path
		t.codes[i] = code
	}
	return t
}

// maxDepth returns the longest code length.
func (t *tree) maxDepth() int {
	max := 0
	for _, c := range t.codes {
		if len(c) > max {
			max = len(c)
		}
	}
	return max
}

// meanDepth returns the unweighted mean code length.
func (t *tree) meanDepth() float64 {
	if len(t.codes) == 0 {
		return 0
	}
	total := 0
	for _, c := range t.codes {
		total += len(c)
	}
	return float64(total) / float64(len(t.codes))
}
