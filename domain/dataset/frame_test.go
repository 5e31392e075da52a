package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame_TrimsHeaders(t *testing.T) {
	f := NewFrame("edges.csv", []string{"\ufeffnode_i", " node_j ", "FC\t"}, [][]string{{"1", "2", "0.5"}})

	assert.Equal(t, []string{"node_i", "node_j", "FC"}, f.Headers)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 2, f.ColumnIndex("FC"))
	assert.Equal(t, -1, f.ColumnIndex("fc"))
}

func TestFrame_MissingColumns(t *testing.T) {
	f := NewFrame("edges.csv", []string{"node_i", "node_j", "FC"}, nil)

	assert.Nil(t, f.MissingColumns("node_i", "FC"))
	assert.Equal(t, []string{"myelin", "length"}, f.MissingColumns("myelin", "node_j", "length"))
}

func TestFrame_CellAndColumn(t *testing.T) {
	f := NewFrame("nodes.csv", []string{"node", "rsn"}, [][]string{
		{"1", " Visual "},
		{"2"},
	})

	assert.Equal(t, "Visual", f.Cell(0, 1))
	assert.Equal(t, "", f.Cell(1, 1))
	assert.Equal(t, "", f.Cell(0, -1))

	col, err := f.Column("rsn")
	require.NoError(t, err)
	assert.Equal(t, []string{"Visual", ""}, col)

	_, err = f.Column("network")
	assert.ErrorContains(t, err, `column "network" not found in nodes.csv`)
}

func TestFrame_SetColumn(t *testing.T) {
	f := NewFrame("edges.csv", []string{"node_i", "node_j"}, [][]string{
		{"1", "2"},
		{"1"},
	})

	require.NoError(t, f.SetColumn("rsn_i", []string{"Visual", "Default"}))
	assert.Equal(t, []string{"node_i", "node_j", "rsn_i"}, f.Headers)
	assert.Equal(t, []string{"1", "", "Default"}, f.Rows[1])

	require.NoError(t, f.SetColumn("node_j", []string{"3", "4"}))
	assert.Equal(t, []string{"1", "3", "Visual"}, f.Rows[0])
	assert.Len(t, f.Headers, 3)

	assert.Error(t, f.SetColumn("rsn_j", []string{"Visual"}))
}
