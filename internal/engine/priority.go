package engine

import (
	"sort"

	"pedidotrack.io/tracker/internal/domain"
)

// Display priority ranks, ascending. Rank 0 items are all equally urgent and
// keep insertion order; rank 2 breaks ties by registration time, oldest first.
const (
	rankAttention = 0 // unconfirmed fulfillment modification
	rankDelayed   = 1
	rankDefault   = 2
)

func priorityRank(o *domain.Order) int {
	switch {
	case o.RequiresAttention():
		return rankAttention
	case o.Status == domain.StatusDelayed:
		return rankDelayed
	default:
		return rankDefault
	}
}

// SortByPriority orders active orders for display/processing priority.
// Stable: equal composite keys preserve original relative order. Pure
// view-time computation; stored data is never touched.
func SortByPriority(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		ri, rj := priorityRank(orders[i]), priorityRank(orders[j])
		if ri != rj {
			return ri < rj
		}
		if ri != rankDefault {
			return false // insertion order within attention/delayed ranks
		}

		// Oldest first; absent registration sorts last.
		ti, tj := orders[i].RegisteredAt, orders[j].RegisteredAt
		switch {
		case ti == nil && tj == nil:
			return false
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
}

// ActiveByPriority filters out completed orders and sorts the remainder by
// display priority. The input slice is not modified.
func ActiveByPriority(orders []*domain.Order) []*domain.Order {
	active := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsActive() {
			active = append(active, o)
		}
	}
	SortByPriority(active)
	return active
}
