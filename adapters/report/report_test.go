package report

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myelinfc/domain/core"
	"myelinfc/domain/coupling"
	"myelinfc/domain/run"
)

func testSummary() run.Summary {
	m := run.NewManifest(core.NewRunID(), coupling.DefaultConfig(), "test")
	m.AddInput(run.Input{Role: "edges", Source: "data/edges.csv", Rows: 120, Hash: core.NewHash([]byte("edges"))})
	m.AddOutput(run.Output{Name: "global_full.csv", Rows: 1})
	m.AddOutput(run.Output{Name: "rsn_pairs_full.csv", Rows: 28})
	m.Finish()

	return run.Summary{
		Manifest: m,
		Profile: []run.ColumnProfile{{
			Column: "myelin", Count: 110, Missing: 10, Mean: 1.25, StdDev: 0.5,
			Min: 0.1, Median: 1.2, Max: 3, Skewness: math.NaN(), Outliers: 2,
		}},
		Highlights: []run.Highlight{{
			Table: "rsn_pairs_full",
			Row: coupling.ResultRow{
				Level: coupling.LevelRSNPairs, Key: "Default–Visual", NEdges: 40, NObs: 40,
				R2: 0.61234, R2Adj: 0.5501,
				Dominance: []coupling.DominanceShare{
					{Term: "caliber", Value: 0.1, Percent: 16.3},
					{Term: "myelin", Value: 0.4, Percent: 65.3},
					{Term: "length", Value: 0.11, Percent: 18.4},
				},
			},
		}},
		Correlations: &coupling.CorrelationTable{Rows: []coupling.CorrelationRow{
			{Bin: "(0.099, 0.4]", Correlations: []coupling.PredictorCorrelation{
				{Predictor: "caliber", R: 0.25, N: 12}, {Predictor: "length", R: math.NaN(), N: 1},
			}},
		}},
	}
}

func TestRender(t *testing.T) {
	summary := testSummary()
	docs, err := NewRenderer().Render(context.Background(), summary)
	require.NoError(t, err)
	require.Contains(t, docs, MarkdownFile)
	require.Contains(t, docs, HTMLFile)

	md := string(docs[MarkdownFile])
	assert.Contains(t, md, "# Myelin/FC coupling: BOLD")
	assert.Contains(t, md, "| edges | data/edges.csv | 120 |")
	assert.Contains(t, md, "| rsn_pairs_full.csv | 28 |")
	assert.Contains(t, md, "| rsn_pairs_full | Default–Visual | - | 40 | 0.6123 | 0.5501 | myelin (65.3%) |")
	assert.Contains(t, md, "| (0.099, 0.4] | 0.25 | 12 | n/a | 1 |")
	assert.Contains(t, md, "Main levels: global, rsn_pairs, nodewise")
	assert.Contains(t, md, "| myelin | 110 | 10 | 1.25 | 0.5 | 0.1 | 1.2 | 3 | n/a | 2 |")
	assert.Contains(t, md, "| 120 | `"+summary.Manifest.Inputs[0].Hash.String()+"` |\n\n## Input profile")

	page := string(docs[HTMLFile])
	assert.Contains(t, page, "<title>myelinfc: BOLD</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<h2")
}

func TestRender_NoOptionalSections(t *testing.T) {
	summary := testSummary()
	summary.Highlights = nil
	summary.Profile = nil
	summary.Correlations = &coupling.CorrelationTable{}

	docs, err := NewRenderer().Render(context.Background(), summary)
	require.NoError(t, err)

	md := string(docs[MarkdownFile])
	assert.NotContains(t, md, "Best fits")
	assert.NotContains(t, md, "Input profile")
	assert.Contains(t, md, "|\n\n## Outputs")
	assert.NotContains(t, md, "FC correlations by myelin bin")
}

func TestRender_RequiresManifest(t *testing.T) {
	_, err := NewRenderer().Render(context.Background(), run.Summary{})
	require.Error(t, err)
}

func TestDominantTerm(t *testing.T) {
	row := coupling.ResultRow{Dominance: []coupling.DominanceShare{
		{Term: "caliber", Percent: math.NaN()},
		{Term: "myelin", Percent: math.NaN()},
	}}
	assert.Equal(t, "n/a", dominantTerm(row))
}
