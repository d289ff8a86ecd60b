package service

import (
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

// itemInFlight reports whether a station still owes work on the item.
// Items not yet dispatched do not count: the table is merely occupied.
func itemInFlight(it database.OrderItem) bool {
	if it.Status == enum.ItemReady {
		return false
	}
	return it.Status == enum.ItemPreparing || it.KitchenStatus == enum.KitchenSent
}

// ProjectTable derives a table's display status from its open orders.
// Checks run in order: in preparation, then ready to pay, then occupied.
func ProjectTable(open []Aggregate) enum.TableState {
	if len(open) == 0 {
		return enum.TableAvailable
	}
	var items int
	allReady := true
	for _, a := range open {
		for _, it := range a.Items {
			items++
			if itemInFlight(it) {
				return enum.TableInPreparation
			}
			if it.Status != enum.ItemReady {
				allReady = false
			}
		}
	}
	if items > 0 && allReady {
		return enum.TableReadyToPay
	}
	return enum.TableOccupied
}
