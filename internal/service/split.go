package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/shopspring/decimal"
)

const maxPersonName = 100

// PersonShare is what one diner owes: the items assigned to them.
type PersonShare struct {
	Person database.Person      `json:"person"`
	Items  []database.OrderItem `json:"items"`
	Total  decimal.Decimal      `json:"total"`
}

// Split is the bill of an order divided across its diners. Items marked
// shared and items not assigned to anyone are both in Shared; how they are
// divided is up to the payment UI.
type Split struct {
	OrderID     uuid.UUID            `json:"order_id"`
	Persons     []PersonShare        `json:"persons"`
	Shared      []database.OrderItem `json:"shared"`
	SharedTotal decimal.Decimal      `json:"shared_total"`
	Total       decimal.Decimal      `json:"total"`
}

// CreatePerson adds a diner to an open order.
func (s *FulfillmentService) CreatePerson(ctx context.Context, actor Actor, orderID uuid.UUID, name string) (*database.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxPersonName {
		return nil, ErrInvalidPersonName
	}
	unlock := s.locks.Lock(orderID)
	defer unlock()

	var p database.Person
	_, err := s.run(ctx, actor, func(ss *session) error {
		agg, err := ss.lockOpenOrder(ctx, orderID)
		if err != nil {
			return err
		}
		p, err = ss.store.CreatePerson(ctx, database.CreatePersonParams{
			OrderID: agg.Order.ID,
			Name:    name,
		})
		if err != nil {
			return fmt.Errorf("create person: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AssignItem gives an item to one person, clearing its shared flag.
func (s *FulfillmentService) AssignItem(ctx context.Context, actor Actor, itemID, personID uuid.UUID) (*CommandResult, error) {
	return s.itemCommand(ctx, actor, itemID, func(ss *session, agg *Aggregate, idx int) error {
		p, err := ss.activePerson(ctx, personID)
		if err != nil {
			return err
		}
		if p.OrderID != agg.Order.ID {
			return ErrPersonMismatch
		}
		return ss.assign(ctx, agg, idx, pgtype.UUID{Bytes: p.ID, Valid: true}, false)
	})
}

// MarkShared flags an item as shared by the whole table, clearing any
// person assignment.
func (s *FulfillmentService) MarkShared(ctx context.Context, actor Actor, itemID uuid.UUID) (*CommandResult, error) {
	return s.itemCommand(ctx, actor, itemID, func(ss *session, agg *Aggregate, idx int) error {
		return ss.assign(ctx, agg, idx, pgtype.UUID{}, true)
	})
}

// DeletePerson soft-deletes a diner and moves their items to shared, so
// no item is left pointing at a removed person. It returns how many items
// became shared.
func (s *FulfillmentService) DeletePerson(ctx context.Context, actor Actor, personID uuid.UUID) (int64, error) {
	unlock := s.locks.Lock(personID)
	defer unlock()

	var moved int64
	_, err := s.run(ctx, actor, func(ss *session) error {
		p, err := ss.activePerson(ctx, personID)
		if err != nil {
			return err
		}
		if _, err := ss.lockOpenOrder(ctx, p.OrderID); err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				return ErrPersonNotFound
			}
			return err
		}
		moved, err = ss.store.ShareItemsOfPerson(ctx, pgtype.UUID{Bytes: p.ID, Valid: true})
		if err != nil {
			return fmt.Errorf("share items of person: %w", err)
		}
		if _, err := ss.store.SoftDeletePerson(ctx, p.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPersonNotFound
			}
			return fmt.Errorf("delete person: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// CalculateTotalForPerson sums (quantity × unit_price) − discount over the
// items assigned to the person. Shared items are excluded.
func (s *FulfillmentService) CalculateTotalForPerson(ctx context.Context, actor Actor, personID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.view(ctx, actor, func(ss *session) error {
		p, err := ss.store.GetPerson(ctx, personID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPersonNotFound
			}
			return fmt.Errorf("get person: %w", err)
		}
		agg, err := ss.readOrder(ctx, p.OrderID)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				return ErrPersonNotFound
			}
			return err
		}
		for _, it := range agg.Items {
			if assignedTo(it, p.ID) {
				total = total.Add(itemLineTotal(it))
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListSharedItems returns the items not owed by a single person.
func (s *FulfillmentService) ListSharedItems(ctx context.Context, actor Actor, orderID uuid.UUID) ([]database.OrderItem, error) {
	var shared []database.OrderItem
	err := s.view(ctx, actor, func(ss *session) error {
		agg, err := ss.readOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range agg.Items {
			if isShared(it) {
				shared = append(shared, it)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shared, nil
}

// SplitSummary divides the order total across its active persons and the
// shared pool. The person totals plus SharedTotal always equal Total.
func (s *FulfillmentService) SplitSummary(ctx context.Context, actor Actor, orderID uuid.UUID) (*Split, error) {
	var split *Split
	err := s.view(ctx, actor, func(ss *session) error {
		agg, err := ss.readOrder(ctx, orderID)
		if err != nil {
			return err
		}
		persons, err := ss.store.ListPersonsByOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list persons: %w", err)
		}
		split = buildSplit(agg, persons)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return split, nil
}

func buildSplit(agg *Aggregate, persons []database.Person) *Split {
	split := &Split{
		OrderID:     agg.Order.ID,
		Persons:     make([]PersonShare, 0, len(persons)),
		SharedTotal: decimal.Zero,
		Total:       agg.Total(),
	}
	index := make(map[uuid.UUID]int, len(persons))
	for _, p := range persons {
		index[p.ID] = len(split.Persons)
		split.Persons = append(split.Persons, PersonShare{Person: p, Total: decimal.Zero})
	}
	for _, it := range agg.Items {
		line := itemLineTotal(it)
		if !isShared(it) {
			if i, ok := index[uuid.UUID(it.PersonID.Bytes)]; ok {
				split.Persons[i].Items = append(split.Persons[i].Items, it)
				split.Persons[i].Total = split.Persons[i].Total.Add(line)
				continue
			}
		}
		// shared, unassigned, or held by a person no longer listed
		split.Shared = append(split.Shared, it)
		split.SharedTotal = split.SharedTotal.Add(line)
	}
	return split
}

func (ss *session) activePerson(ctx context.Context, personID uuid.UUID) (database.Person, error) {
	p, err := ss.store.GetPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Person{}, ErrPersonNotFound
		}
		return database.Person{}, fmt.Errorf("get person: %w", err)
	}
	if p.DeletedAt.Valid {
		return database.Person{}, ErrPersonNotFound
	}
	return p, nil
}

func (ss *session) assign(ctx context.Context, agg *Aggregate, idx int, personID pgtype.UUID, shared bool) error {
	updated, err := ss.store.UpdateOrderItemAssignment(ctx, database.UpdateOrderItemAssignmentParams{
		ID:       agg.Items[idx].ID,
		PersonID: personID,
		IsShared: shared,
	})
	if err != nil {
		return fmt.Errorf("assign item: %w", err)
	}
	agg.Items[idx] = updated
	return nil
}

func isShared(it database.OrderItem) bool {
	return it.IsShared || !it.PersonID.Valid
}

func assignedTo(it database.OrderItem, personID uuid.UUID) bool {
	return !it.IsShared && it.PersonID.Valid && uuid.UUID(it.PersonID.Bytes) == personID
}
