package overlap

import (
	"sort"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/patterns"
	"github.com/efebarandurmaz/ontograph/internal/similarity"
)

// Group is a connected set of similar nodes from different products at the
// same layer and level.
type Group struct {
	Layer    ontology.Layer  `json:"layer"`
	Level    string          `json:"level"`
	Nodes    []ontology.Node `json:"nodes"`
	Products []string        `json:"products"`
}

// Analysis is the overlap picture for one layer, or the whole graph.
type Analysis struct {
	OverlappingNodes     []ontology.Node            `json:"overlapping_nodes"`
	UniqueNodesByProduct map[string][]ontology.Node `json:"unique_nodes_by_product"`
	OverlapPercentage    float64                    `json:"overlap_percentage"`
	Groups               []Group                    `json:"groups"`
	Patterns             []patterns.Pattern         `json:"patterns"`
}

// Redundancy is a pair of nodes similar enough to be duplicates.
type Redundancy struct {
	A            ontology.Node `json:"a"`
	B            ontology.Node `json:"b"`
	Score        float64       `json:"score"`
	CrossProduct bool          `json:"cross_product"`
}

// AnalyzeOverlap compares nodes of different products at the same level and
// groups those scoring above the overlap threshold. An empty layer analyzes
// every layer.
func (a *Analyzer) AnalyzeOverlap(layer ontology.Layer) Analysis {
	nodes := a.layerNodes(layer)
	res := Analysis{UniqueNodesByProduct: make(map[string][]ontology.Node)}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	uf := newUnionFind(len(nodes))
	linked := make([]bool, len(nodes))

	for _, bucket := range bucketByLevel(nodes) {
		for i := range bucket {
			for j := i + 1; j < len(bucket); j++ {
				x, y := bucket[i], bucket[j]
				if x.Product == y.Product {
					continue
				}
				if similarity.NodeSimilarity(x, y) > a.th.Overlap {
					xi, yi := index[x.ID], index[y.ID]
					uf.union(xi, yi)
					linked[xi], linked[yi] = true, true
				}
			}
		}
	}

	groups := make(map[int]*Group)
	var roots []int
	for i, n := range nodes {
		if !linked[i] {
			res.UniqueNodesByProduct[n.Product] = append(res.UniqueNodesByProduct[n.Product], n)
			continue
		}
		res.OverlappingNodes = append(res.OverlappingNodes, n)
		r := uf.find(i)
		gr, ok := groups[r]
		if !ok {
			gr = &Group{Layer: n.Layer, Level: n.Level}
			groups[r] = gr
			roots = append(roots, r)
		}
		gr.Nodes = append(gr.Nodes, n)
	}
	for _, r := range roots {
		gr := groups[r]
		set := make(map[string]bool)
		for _, n := range gr.Nodes {
			if !set[n.Product] {
				set[n.Product] = true
				gr.Products = append(gr.Products, n.Product)
			}
		}
		sort.Strings(gr.Products)
		res.Groups = append(res.Groups, *gr)
	}

	if len(nodes) > 0 {
		res.OverlapPercentage = float64(len(res.OverlappingNodes)) / float64(len(nodes)) * 100
	}
	ex := patterns.NewExtractor(a.g)
	if a.patternHops > 0 {
		ex = ex.WithHops(a.patternHops)
	}
	res.Patterns = ex.CrossProductPatterns()
	return res
}

// FindRedundancies returns node pairs whose weighted similarity exceeds the
// redundancy threshold, highest first. An empty layer checks every layer.
func (a *Analyzer) FindRedundancies(layer ontology.Layer) []Redundancy {
	nodes := a.layerNodes(layer)
	var out []Redundancy
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			score := similarity.WeightedSimilarity(nodes[i], nodes[j], a.th.Weights)
			if score > a.th.Redundancy {
				out = append(out, Redundancy{
					A:            nodes[i],
					B:            nodes[j],
					Score:        score,
					CrossProduct: nodes[i].Product != nodes[j].Product,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (a *Analyzer) layerNodes(layer ontology.Layer) []ontology.Node {
	if layer == "" {
		return a.g.Nodes()
	}
	return a.g.NodesByLayer(layer)
}

// bucketByLevel splits nodes by layer and level, keeping first-seen order.
func bucketByLevel(nodes []ontology.Node) [][]ontology.Node {
	pos := make(map[string]int)
	var buckets [][]ontology.Node
	for _, n := range nodes {
		k := n.LevelKey()
		i, ok := pos[k]
		if !ok {
			i = len(buckets)
			pos[k] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], n)
	}
	return buckets
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(x, y int) {
	rx, ry := u.find(x), u.find(y)
	if rx == ry {
		return
	}
	switch {
	case u.rank[rx] < u.rank[ry]:
		u.parent[rx] = ry
	case u.rank[rx] > u.rank[ry]:
		u.parent[ry] = rx
	default:
		u.parent[ry] = rx
		u.rank[rx]++
	}
}
