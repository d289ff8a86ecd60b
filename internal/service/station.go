package service

import (
	"github.com/kiwari-pos/fulfillment/internal/database"
)

// Unrouted groups items whose product has no station.
const Unrouted = ""

// GroupByStation splits items by the station their product routes to,
// keeping the input order within each station.
func GroupByStation(items []database.OrderItem) map[string][]database.OrderItem {
	groups := make(map[string][]database.OrderItem)
	for _, it := range items {
		key := Unrouted
		if it.Station.Valid {
			key = it.Station.String
		}
		groups[key] = append(groups[key], it)
	}
	return groups
}

// ItemsForStation returns only the items routed to station.
func ItemsForStation(items []database.OrderItem, station string) []database.OrderItem {
	var out []database.OrderItem
	for _, it := range items {
		if it.Station.Valid && it.Station.String == station {
			out = append(out, it)
		}
	}
	return out
}
