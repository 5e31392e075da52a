package coupling

import (
	"fmt"
	"sort"
	"strconv"

	model "myelinfc/domain/coupling"
	"myelinfc/domain/core"
	"myelinfc/internal/errors"
)

// PairSeparator joins the two network labels of an rsn_pairs key
const PairSeparator = "–"

// GlobalKey is the key of the single global group
const GlobalKey = "global"

// Group is a key and the edge rows assigned to it
type Group struct {
	Key  string
	Rows []int
}

// PairKey returns the order-insensitive key of two network labels
func PairKey(a, b string) string {
	if a < b {
		return a + PairSeparator + b
	}
	return b + PairSeparator + a
}

// GroupRows partitions the edge rows for a level in one pass. Keys are sorted
// lexicographically for rsn_pairs and numerically for nodewise. Edges with a
// missing network label or node id are left out of the affected groups.
func GroupRows(edges *model.EdgeTable, level model.Level) ([]Group, error) {
	switch level {
	case model.LevelGlobal:
		if edges.Len() == 0 {
			return nil, nil
		}
		return []Group{{Key: GlobalKey, Rows: edges.AllRows()}}, nil

	case model.LevelRSNPairs:
		byKey := make(map[string][]int)
		for k := 0; k < edges.Len(); k++ {
			a, b := edges.RSNI[k], edges.RSNJ[k]
			if a == "" || b == "" {
				// unlabeled edges form no pair group rather than a "nan–X" group
				continue
			}
			key := PairKey(a, b)
			byKey[key] = append(byKey[key], k)
		}
		keys := make([]string, 0, len(byKey))
		for key := range byKey {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		groups := make([]Group, len(keys))
		for i, key := range keys {
			groups[i] = Group{Key: key, Rows: byKey[key]}
		}
		return groups, nil

	case model.LevelNodewise:
		byNode := make(map[int64][]int)
		for k := 0; k < edges.Len(); k++ {
			// a self-loop lands twice in its node's group
			if i := edges.I[k]; i != model.MissingNode {
				byNode[i] = append(byNode[i], k)
			}
			if j := edges.J[k]; j != model.MissingNode {
				byNode[j] = append(byNode[j], k)
			}
		}
		nodes := make([]int64, 0, len(byNode))
		for n := range byNode {
			nodes = append(nodes, n)
		}
		sort.Slice(nodes, func(a, b int) bool { return nodes[a] < nodes[b] })
		groups := make([]Group, len(nodes))
		for i, n := range nodes {
			groups[i] = Group{Key: strconv.FormatInt(n, 10), Rows: byNode[n]}
		}
		return groups, nil
	}
	return nil, invalidLevel(level)
}

func invalidLevel(level model.Level) error {
	return errors.InvalidArgument(core.ErrInvalidLevel,
		fmt.Sprintf("unknown level %q: must be one of %s", level, model.LevelNames()))
}
