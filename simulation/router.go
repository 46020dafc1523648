package simulation

import "container/heap"

// routeNode is the router's search vertex: a section paired with the block
// the train is arriving from, so turn exclusions (which key off the
// previous block) are a first-class part of the graph rather than a
// post-hoc filter (spec.md §9).
type routeNode struct {
	section SectionID
	prevBlk BlockID
}

// Router produces section-sequence plans with a Dijkstra-equivalent search
// over (section, previous_block) nodes (spec.md §4.3).
type Router struct {
	topo           *Topology
	reversePenalty float64
}

// NewRouter builds a Router bound to topo with the given reverse-move cost
// penalty (spec.md default: large, e.g. 50).
func NewRouter(topo *Topology, reversePenalty float64) *Router {
	return &Router{topo: topo, reversePenalty: reversePenalty}
}

// edgeSign gives the spatial orientation of a directed edge, following the
// topology's own section-index convention (stops are approached "from the
// lower/higher-indexed neighbor", spec.md §3): traveling to a
// higher-numbered section is the "forward" (+1) sense, to a lower-numbered
// one is "reverse" (-1). The router compares this against the train's
// current Direction to price reversing moves (spec.md §4.3; the
// orientation convention is chosen here).
func edgeSign(from, to SectionID) Direction {
	if to >= from {
		return Forward
	}
	return Reverse
}

// heapItem is a priority-queue entry for Dijkstra's algorithm. Cost is the
// primary ordering key; diagonalCount is a secondary tie-break so that,
// among equal-cost paths reached while reversing, horizontal sections are
// preferred over diagonal ones (spec.md §4.3, property 3).
type heapItem struct {
	node          routeNode
	cost          float64
	diagonalCount int
	path          []SectionID
	direction     Direction
	index         int
}

type routeHeap []*heapItem

func (h routeHeap) Len() int { return len(h) }
func (h routeHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].diagonalCount < h[j].diagonalCount
}
func (h routeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *routeHeap) Push(x interface{}) {
	item := x.(*heapItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *routeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// FindRoute searches for a section-sequence path from (from, prevBlock, the
// train's current direction) to goal. Edges into a section already claimed
// by another train are treated as open at plan time; admissibility is
// re-checked every tick by Signaling (spec.md §4.3). Returns
// NoRouteFoundError when goal is unreachable.
func (rt *Router) FindRoute(train TrainID, from SectionID, prevBlock BlockID, direction Direction, goal SectionID) ([]SectionID, error) {
	if from == goal {
		return []SectionID{from}, nil
	}

	best := make(map[routeNode]float64)
	start := routeNode{section: from, prevBlk: prevBlock}
	best[start] = 0

	pq := &routeHeap{}
	heap.Init(pq)
	heap.Push(pq, &heapItem{node: start, cost: 0, path: []SectionID{from}, direction: direction})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*heapItem)
		if c, ok := best[cur.node]; ok && cur.cost > c {
			continue
		}
		if cur.node.section == goal {
			return cur.path, nil
		}
		for _, conn := range rt.topo.Neighbors(cur.node.section, cur.node.prevBlk) {
			edgeDir := edgeSign(conn.From, conn.To)
			cost := 1.0
			diagBump := 0
			if edgeDir != cur.direction {
				cost += rt.reversePenalty
				if sec, ok := rt.topo.Section(conn.To); ok && sec.Geometry == Diagonal {
					diagBump = 1
				}
			}
			nextBlk, _ := rt.topo.BlockOf(conn.To)
			nextNode := routeNode{section: conn.To, prevBlk: blockLeftFrom(rt.topo, cur.node.section, nextBlk)}
			newCost := cur.cost + cost
			if c, ok := best[nextNode]; ok && newCost >= c {
				continue
			}
			best[nextNode] = newCost
			newPath := make([]SectionID, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = conn.To
			heap.Push(pq, &heapItem{
				node:          nextNode,
				cost:          newCost,
				diagonalCount: cur.diagonalCount + diagBump,
				path:          newPath,
				direction:     edgeDir,
			})
		}
	}

	return nil, &NoRouteFoundError{Train: train, From: from, Goal: goal}
}

// blockLeftFrom computes the "previous block" a train carries forward once
// it has moved into a section belonging to enteredBlock: the block of the
// section it left.
func blockLeftFrom(topo *Topology, leftSection SectionID, enteredBlock BlockID) BlockID {
	leftBlock, _ := topo.BlockOf(leftSection)
	return leftBlock
}
