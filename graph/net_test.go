package graph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func buildPins(t *testing.T, g *Graph, n int) []*Node {
	t.Helper()
	m, err := g.NewModule(nil, "m")
	require.NoError(t, err)
	pins := make([]*Node, n)
	for i := range pins {
		p, err := g.NewPin(m, "p"+string(rune('a'+i%26))+string(rune('0'+i/26)))
		require.NoError(t, err)
		pins[i] = p
	}
	return pins
}

func TestConnectTransitive(t *testing.T) {
	g := New()
	pins := buildPins(t, g, 4)

	require.NoError(t, g.Connect(pins[0], pins[1]))
	require.NoError(t, g.Connect(pins[1], pins[2]))

	// A~B and B~C imply A~C
	conn, err := g.Connected(pins[0], pins[2])
	require.NoError(t, err)
	require.True(t, conn)

	conn, err = g.Connected(pins[0], pins[3])
	require.NoError(t, err)
	require.False(t, conn)
}

func TestConnectIdempotent(t *testing.T) {
	g := New()
	pins := buildPins(t, g, 3)

	require.NoError(t, g.Connect(pins[0], pins[1]))
	before := partition(g, pins)
	require.NoError(t, g.Connect(pins[0], pins[1]))
	require.NoError(t, g.Connect(pins[1], pins[0]))
	require.Equal(t, before, partition(g, pins))
}

// partition maps each pin index to a canonical representative index, making
// net partitions comparable.
func partition(g *Graph, pins []*Node) []int {
	rep := map[NetID]int{}
	out := make([]int, len(pins))
	for i, p := range pins {
		net, _ := g.NetOf(p)
		if _, ok := rep[net]; !ok {
			rep[net] = i
		}
		out[i] = rep[net]
	}
	return out
}

// The union-find must agree with the transitive closure of the declared
// edges, computed independently by BFS.
func TestNetEquivalenceMatchesClosure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	const nbPins = 12
	genEdges := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, nbPins-1),
		gen.IntRange(0, nbPins-1),
	).Map(func(vals []interface{}) [2]int {
		return [2]int{vals[0].(int), vals[1].(int)}
	}))

	properties := gopter.NewProperties(parameters)
	properties.Property("NetOf(a)==NetOf(b) iff a,b connected by some path", prop.ForAll(
		func(edges [][2]int) bool {
			g := New()
			m, _ := g.NewModule(nil, "m")
			pins := make([]*Node, nbPins)
			for i := range pins {
				pins[i], _ = g.NewPin(m, "p"+string(rune('a'+i)))
			}
			for _, e := range edges {
				if err := g.Connect(pins[e[0]], pins[e[1]]); err != nil {
					return false
				}
			}

			adj := make([][]int, nbPins)
			for _, e := range edges {
				adj[e[0]] = append(adj[e[0]], e[1])
				adj[e[1]] = append(adj[e[1]], e[0])
			}
			reach := func(from, to int) bool {
				seen := make([]bool, nbPins)
				queue := []int{from}
				seen[from] = true
				for len(queue) > 0 {
					cur := queue[0]
					queue = queue[1:]
					if cur == to {
						return true
					}
					for _, next := range adj[cur] {
						if !seen[next] {
							seen[next] = true
							queue = append(queue, next)
						}
					}
				}
				return false
			}

			for a := 0; a < nbPins; a++ {
				for b := 0; b < nbPins; b++ {
					na, _ := g.NetOf(pins[a])
					nb, _ := g.NetOf(pins[b])
					if (na == nb) != reach(a, b) {
						return false
					}
				}
			}
			return true
		},
		genEdges,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func powerInterface(t *testing.T, g *Graph, parent *Node, name string) *Node {
	t.Helper()
	iface, err := g.NewInterface(parent, name)
	require.NoError(t, err)
	_, err = g.NewPin(iface, "vcc")
	require.NoError(t, err)
	_, err = g.NewPin(iface, "gnd")
	require.NoError(t, err)
	return iface
}

func TestConnectInterfaces(t *testing.T) {
	g := New()
	a, _ := g.NewModule(nil, "a")
	b, _ := g.NewModule(nil, "b")
	pa := powerInterface(t, g, a, "power")
	pb := powerInterface(t, g, b, "power")

	require.NoError(t, g.Connect(pa, pb))

	// corresponding sub-pins are unioned pairwise, never crosswise
	conn, _ := g.Connected(pa.Child("vcc"), pb.Child("vcc"))
	require.True(t, conn)
	conn, _ = g.Connected(pa.Child("gnd"), pb.Child("gnd"))
	require.True(t, conn)
	conn, _ = g.Connected(pa.Child("vcc"), pb.Child("gnd"))
	require.False(t, conn)
}

func TestConnectInterfaceShapeMismatch(t *testing.T) {
	g := New()
	a, _ := g.NewModule(nil, "a")
	b, _ := g.NewModule(nil, "b")
	pa := powerInterface(t, g, a, "power")

	single, _ := g.NewInterface(b, "single")
	sp, _ := g.NewPin(single, "sig")

	err := g.Connect(pa, single)
	var shape *IncompatibleInterfaceShapeError
	require.ErrorAs(t, err, &shape)

	// a rejected connection must not merge any subset of pins
	conn, _ := g.Connected(pa.Child("vcc"), sp)
	require.False(t, conn)

	// name mismatch at equal arity is rejected too
	c, _ := g.NewModule(nil, "c")
	odd, _ := g.NewInterface(c, "odd")
	g.NewPin(odd, "vcc")
	g.NewPin(odd, "ground")
	require.ErrorAs(t, g.Connect(pa, odd), &shape)
	conn, _ = g.Connected(pa.Child("vcc"), odd.Child("vcc"))
	require.False(t, conn)

	// kind mismatch: pin against interface
	require.ErrorAs(t, g.Connect(pa.Child("vcc"), pa), &shape)

	// modules are not connectable
	require.ErrorAs(t, g.Connect(a, b), &shape)
}

func TestNestedInterfaceConnect(t *testing.T) {
	g := New()
	build := func(mod string) *Node {
		m, _ := g.NewModule(nil, mod)
		bus, _ := g.NewInterface(m, "bus")
		powerInterface(t, g, bus, "power")
		g.NewPin(bus, "sda")
		g.NewPin(bus, "scl")
		return bus
	}
	ba := build("a")
	bb := build("b")

	require.NoError(t, g.Connect(ba, bb))
	conn, _ := g.Connected(ba.Child("power").Child("gnd"), bb.Child("power").Child("gnd"))
	require.True(t, conn)
	conn, _ = g.Connected(ba.Child("sda"), bb.Child("scl"))
	require.False(t, conn)
}
