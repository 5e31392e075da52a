package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/montanaflynn/stats"

	model "myelinfc/domain/coupling"
	"myelinfc/domain/dataset"
)

// ConnectomeGeneratorConfig configures the synthetic connectome generator
type ConnectomeGeneratorConfig struct {
	NodeCount   int      `json:"node_count"`
	Networks    []string `json:"networks"`
	Density     float64  `json:"density"`      // probability that a node pair is connected
	MissingRate float64  `json:"missing_rate"` // probability that a myelin value is missing
	Noise       float64  `json:"noise"`        // FC noise standard deviation
	Seed        int64    `json:"seed"`

	// FC = Caliber·caliber + Myelin·myelin + Length·length + MyelinCaliber·myelin·caliber + noise
	Effects Effects `json:"effects"`
}

// Effects are the generating coefficients of FC
type Effects struct {
	Caliber       float64 `json:"caliber"`
	Myelin        float64 `json:"myelin"`
	Length        float64 `json:"length"`
	MyelinCaliber float64 `json:"myelin_caliber"`
}

// DefaultConnectomeConfig returns a small seven-network connectome
func DefaultConnectomeConfig() ConnectomeGeneratorConfig {
	return ConnectomeGeneratorConfig{
		NodeCount:   60,
		Networks:    []string{"Visual", "Somatomotor", "DorsalAttention", "VentralAttention", "Limbic", "Frontoparietal", "Default"},
		Density:     0.35,
		MissingRate: 0.02,
		Noise:       0.5,
		Seed:        42,
		Effects: Effects{
			Caliber:       0.4,
			Myelin:        0.6,
			Length:        -0.3,
			MyelinCaliber: 0.2,
		},
	}
}

// ConnectomeGenerator produces edge and node tables with a known FC model
type ConnectomeGenerator struct {
	config ConnectomeGeneratorConfig
	rng    *rand.Rand
}

// NewConnectomeGenerator creates a generator seeded from config
func NewConnectomeGenerator(config ConnectomeGeneratorConfig) *ConnectomeGenerator {
	return &ConnectomeGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// NodeNetwork returns the network label of node id (1-based), assigned round robin
func (g *ConnectomeGenerator) NodeNetwork(id int64) string {
	if len(g.config.Networks) == 0 {
		return ""
	}
	return g.config.Networks[int(id-1)%len(g.config.Networks)]
}

// GenerateEdges draws the edge table. Node ids run from 1 to NodeCount.
func (g *ConnectomeGenerator) GenerateEdges() *model.EdgeTable {
	n := g.config.NodeCount
	edges := model.NewEdgeTable(n * n / 2)
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			if g.rng.Float64() >= g.config.Density {
				continue
			}
			edges.Append(g.edge(int64(i), int64(j)))
		}
	}
	return edges
}

func (g *ConnectomeGenerator) edge(i, j int64) model.Edge {
	e := g.config.Effects
	// tract length in mm, longer between distant indices
	length := 20 + 1.5*math.Abs(float64(j-i)) + 10*g.rng.ExpFloat64()
	// axon caliber in µm, thinner for long tracts
	caliber := math.Max(0.2, 1.5-0.004*length+0.3*g.rng.NormFloat64())
	// myelin fraction tracks caliber
	myelin := 1 / (1 + math.Exp(-(caliber-1)*2-0.5*g.rng.NormFloat64()))

	fc := e.Caliber*caliber + e.Myelin*myelin + e.Length*length/50 +
		e.MyelinCaliber*myelin*caliber + g.config.Noise*g.rng.NormFloat64()

	if g.rng.Float64() < g.config.MissingRate {
		myelin = math.NaN()
	}
	return model.Edge{
		I: i, J: j,
		FC: fc, Caliber: caliber, Myelin: myelin, Length: length,
		RSNI: g.NodeNetwork(i), RSNJ: g.NodeNetwork(j),
	}
}

// EdgeFrame renders an edge table as a raw frame with the given column names
func EdgeFrame(name string, edges *model.EdgeTable, cols model.Columns) *dataset.Frame {
	rows := make([][]string, edges.Len())
	for k := range rows {
		e := edges.Row(k)
		rows[k] = []string{
			nodeCell(e.I), nodeCell(e.J),
			model.FormatFloat(e.FC), model.FormatFloat(e.Caliber),
			model.FormatFloat(e.Myelin), model.FormatFloat(e.Length),
			e.RSNI, e.RSNJ,
		}
	}
	return dataset.NewFrame(name, cols.Required(), rows)
}

func nodeCell(id int64) string {
	if id == model.MissingNode {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// NodeFrame renders the node table (node_id, rsn)
func (g *ConnectomeGenerator) NodeFrame(cols model.NodeColumns) *dataset.Frame {
	rows := make([][]string, g.config.NodeCount)
	for k := range rows {
		id := int64(k + 1)
		rows[k] = []string{strconv.FormatInt(id, 10), g.NodeNetwork(id)}
	}
	return dataset.NewFrame("nodes", []string{cols.ID, cols.RSN}, rows)
}

// Summary describes the generated columns
type Summary struct {
	Edges        int
	MissingCount int
	MeanFC       float64
	MedianMyelin float64
}

// Summarize computes descriptive statistics of an edge table
func Summarize(edges *model.EdgeTable) (Summary, error) {
	s := Summary{Edges: edges.Len()}
	if edges.Len() == 0 {
		return s, nil
	}
	mean, err := stats.Mean(edges.FC)
	if err != nil {
		return s, fmt.Errorf("mean FC: %w", err)
	}
	s.MeanFC = mean

	var myelin stats.Float64Data
	for _, v := range edges.Myelin {
		if math.IsNaN(v) {
			s.MissingCount++
			continue
		}
		myelin = append(myelin, v)
	}
	if len(myelin) > 0 {
		if s.MedianMyelin, err = myelin.Median(); err != nil {
			return s, fmt.Errorf("median myelin: %w", err)
		}
	}
	return s, nil
}
