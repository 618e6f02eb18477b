package graph

import (
	"fmt"

	"github.com/voltforge/voltc/internal/utils"
)

// find returns the canonical pin of p's equivalence class, compressing the
// path on the way up.
func (g *Graph) find(p PinID) PinID {
	for g.parent[p] != p {
		g.parent[p] = g.parent[g.parent[p]] // halve the path
		p = g.parent[p]
	}
	return p
}

// union merges the classes of a and b by rank. Reports whether the classes
// were distinct.
func (g *Graph) union(a, b PinID) bool {
	ra, rb := g.find(a), g.find(b)
	if ra == rb {
		return false
	}
	if g.rank[ra] < g.rank[rb] {
		ra, rb = rb, ra
	}
	g.parent[rb] = ra
	if g.rank[ra] == g.rank[rb] {
		g.rank[ra]++
	}
	return true
}

// NetOf returns the canonical identifier of the pin's equivalence class.
// Amortized near-constant time.
func (g *Graph) NetOf(pin *Node) (NetID, error) {
	id, ok := pin.Pin()
	if !ok {
		return 0, fmt.Errorf("node %q is a %s, not a pin", pin.Path(), pin.Kind())
	}
	if pin.removed {
		return 0, fmt.Errorf("pin %q was removed with its subtree", pin.Path())
	}
	return NetID(g.find(id)), nil
}

// Connected reports whether two pins are electrically identical.
func (g *Graph) Connected(a, b *Node) (bool, error) {
	na, err := g.NetOf(a)
	if err != nil {
		return false, err
	}
	nb, err := g.NetOf(b)
	if err != nil {
		return false, err
	}
	return na == nb, nil
}

// Nets groups every live pin by equivalence class. Pins within a net are
// ordered by pin arena id; callers needing a stable net order must sort the
// keys. Used by netlist emission collaborators.
func (g *Graph) Nets() map[NetID][]*Node {
	nets := map[NetID][]*Node{}
	for id, pin := range g.pins {
		if pin == nil {
			continue
		}
		root := NetID(g.find(PinID(id)))
		nets[root] = append(nets[root], pin)
	}
	return nets
}

// rebuildNets resets the union-find and replays the surviving edge log.
// Called after a subtree removal.
func (g *Graph) rebuildNets() {
	for i := range g.parent {
		g.parent[i] = PinID(i)
		g.rank[i] = 0
	}
	g.edges = utils.Filter(g.edges, func(e [2]PinID) bool {
		return g.pins[e[0]] != nil && g.pins[e[1]] != nil
	})
	for _, e := range g.edges {
		g.union(e[0], e[1])
	}
}
