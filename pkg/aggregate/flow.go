package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
)

// Synthetic node names in the flow graph.
const (
	NodeExpenses  = "Expenses"
	NodeBudget    = "Budget"
	NodeRemaining = "Remaining"
)

// Edge is one directed quantity transfer in the Sankey diagram. ID carries
// the originating root category id; it is only used downstream for color
// assignment and plays no role in the graph itself.
type Edge struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Flow decimal.Decimal `json:"flow"`
	ID   string          `json:"id,omitempty"`
}

// Flows builds the flow-edge list for the hierarchical flow diagram.
// budgetRootIDs names the exceptional roots whose child totals feed the
// Budget node instead of flowing out of Expenses.
//
// A root's outgoing total sums |amount| over every transaction the root owns,
// direct and child alike; per-child edges only ever cover child-owned
// transactions, so the child edges sum to at most the root edge and nothing
// is counted twice.
//
// Edges with zero flow are never emitted.
func Flows(txs []models.Transaction, ix *taxonomy.Index, budgetRootIDs []string) []Edge {
	budget := make(map[string]bool, len(budgetRootIDs))
	for _, id := range budgetRootIDs {
		budget[id] = true
	}

	type rootBucket struct {
		name   string
		total  decimal.Decimal
		childs map[string]decimal.Decimal
	}
	buckets := make(map[string]*rootBucket)
	var order []string

	for _, tx := range txs {
		rootID, rootName := "", taxonomy.Uncategorized
		if root, ok := ix.Root(tx.CategoryID); ok {
			rootID, rootName = root.ID, root.Name
		}
		b, ok := buckets[rootID]
		if !ok {
			b = &rootBucket{name: rootName, childs: make(map[string]decimal.Decimal)}
			buckets[rootID] = b
			order = append(order, rootID)
		}
		b.total = b.total.Add(tx.AbsAmount())
		if tx.CategoryID != rootID && rootID != "" {
			b.childs[tx.CategoryID] = b.childs[tx.CategoryID].Add(tx.AbsAmount())
		}
	}
	sort.Slice(order, func(i, j int) bool { return buckets[order[i]].name < buckets[order[j]].name })

	var edges []Edge
	totalBudget := decimal.Zero
	totalExpense := decimal.Zero

	for _, rootID := range order {
		b := buckets[rootID]

		childIDs := make([]string, 0, len(b.childs))
		for id := range b.childs {
			childIDs = append(childIDs, id)
		}
		sort.Slice(childIDs, func(i, j int) bool {
			ni, _ := ix.OwnName(childIDs[i])
			nj, _ := ix.OwnName(childIDs[j])
			return ni < nj
		})

		for _, childID := range childIDs {
			childTotal := b.childs[childID]
			if !childTotal.IsPositive() {
				continue
			}
			childName, ok := ix.OwnName(childID)
			if !ok {
				childName = taxonomy.Uncategorized
			}
			if budget[rootID] {
				edges = append(edges, Edge{From: childName, To: NodeBudget, Flow: childTotal, ID: rootID})
				totalBudget = totalBudget.Add(childTotal)
			} else {
				edges = append(edges, Edge{From: b.name, To: childName, Flow: childTotal, ID: rootID})
			}
		}

		if !budget[rootID] && b.total.IsPositive() {
			edges = append(edges, Edge{From: NodeExpenses, To: b.name, Flow: b.total, ID: rootID})
			totalExpense = totalExpense.Add(b.total)
		}
	}

	if totalBudget.GreaterThan(totalExpense) {
		edges = append(edges, Edge{From: NodeBudget, To: NodeRemaining, Flow: totalBudget.Sub(totalExpense)})
	}
	if totalBudget.IsPositive() && totalExpense.IsPositive() {
		edges = append(edges, Edge{From: NodeBudget, To: NodeExpenses, Flow: decimal.Min(totalExpense, totalBudget)})
	}
	return edges
}
