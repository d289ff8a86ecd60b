package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kiwari-pos/fulfillment/internal/database"
)

// view runs fn in a transaction that is always rolled back.
func (s *FulfillmentService) view(ctx context.Context, actor Actor, fn func(ss *session) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	return fn(&session{
		store: s.newStore(tx),
		actor: actor,
		now:   s.now().UTC(),
	})
}

// readOrder loads an order of the actor's outlet without locking it.
func (ss *session) readOrder(ctx context.Context, orderID uuid.UUID) (*Aggregate, error) {
	o, err := ss.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, OutletID: ss.actor.OutletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return ss.load(ctx, o)
}

// GetOrder returns an order with its items.
func (s *FulfillmentService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*Aggregate, error) {
	var agg *Aggregate
	err := s.view(ctx, actor, func(ss *session) error {
		var err error
		agg, err = ss.readOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// StationQueue lists the dispatched, not yet ready items routed to a
// station across the outlet's open orders, oldest dispatch first.
func (s *FulfillmentService) StationQueue(ctx context.Context, actor Actor, station string) ([]database.ListStationQueueRow, error) {
	if station == "" {
		return nil, ErrStationRequired
	}
	var rows []database.ListStationQueueRow
	err := s.view(ctx, actor, func(ss *session) error {
		var err error
		rows, err = ss.store.ListStationQueue(ctx, database.ListStationQueueParams{
			OutletID:    ss.actor.OutletID,
			StationType: station,
		})
		if err != nil {
			return fmt.Errorf("list station queue: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []database.ListStationQueueRow{}
	}
	return rows, nil
}
