// Package report summarizes the order collection by status.
package report

import "github.com/k1networth/techdesk/internal/order"

type Report struct {
	Counts map[order.Status]int `json:"counts"`
	Total  int                  `json:"total"`
	Orders []order.Order        `json:"orders"`
}

// Build counts orders per status. Every known status is present, zero-filled;
// the orders are echoed in the given order.
func Build(orders []order.Order) Report {
	counts := make(map[order.Status]int, len(order.AllStatuses()))
	for _, s := range order.AllStatuses() {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}

	echo := make([]order.Order, len(orders))
	copy(echo, orders)

	return Report{Counts: counts, Total: len(orders), Orders: echo}
}
