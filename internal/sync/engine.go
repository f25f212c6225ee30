// Package sync holds the client-side view of one owner's cards and keeps it
// reconciled with the record store. Every mutation is optimistic: the
// in-memory collection changes first, the store is confirmed after, and a
// failed confirmation restores the collection to the snapshot taken when the
// command started.
package sync

import (
	"context"
	"errors"
	"fmt"

	"compass/internal/database/models"

	"github.com/google/uuid"
)

var (
	// ErrCardNotFound means the collection holds no card with the given id.
	ErrCardNotFound = errors.New("card not found")
	// ErrOwnerMismatch means a mutation targeted a card belonging to a
	// different owner. It is raised locally, before any store call.
	ErrOwnerMismatch = errors.New("card owner does not match engine owner")
)

// Store is the record store as seen from the client.
type Store interface {
	CreateCard(ctx context.Context, card models.Card) (models.Card, error)
	UpdateCard(ctx context.Context, card models.Card) (models.Card, error)
	DeleteCard(ctx context.Context, ownerID, id string) error
	ListCards(ctx context.Context, ownerID string) ([]models.Card, error)
}

// Draft is the user-supplied portion of a new card. Status defaults to
// TO_APPLY when empty.
type Draft struct {
	Company     string
	Role        string
	URL         string
	Status      models.Status
	Location    string
	Deadline    string
	CompanyLogo string
}

// Engine owns the in-memory card collection for a single owner. It is the
// only writer of that collection; callers read through Cards.
//
// The engine is not safe for concurrent use. It mirrors a single-threaded
// event loop: commands dispatched while another command's confirmation is
// still in flight interleave last-write-wins, and a rollback restores the
// snapshot taken at that command's start even if other commands mutated the
// collection in between. No locking is layered on top of that model.
type Engine struct {
	owner string
	store Store
	cards []models.Card
}

func NewEngine(owner string, store Store) *Engine {
	return &Engine{owner: owner, store: store}
}

// Owner returns the owner id this engine syncs for.
func (e *Engine) Owner() string {
	return e.owner
}

// Cards returns a copy of the collection in its current in-memory order.
// That order is not persisted; a Load reorders to store scan order.
func (e *Engine) Cards() []models.Card {
	return append([]models.Card(nil), e.cards...)
}

// CardsByStatus returns the cards of one board column, preserving the
// collection's relative order.
func (e *Engine) CardsByStatus(status models.Status) []models.Card {
	var cards []models.Card
	for _, card := range e.cards {
		if card.Status == status {
			cards = append(cards, card)
		}
	}
	return cards
}

// Load replaces the collection with the store's view of the owner partition.
func (e *Engine) Load(ctx context.Context) error {
	cards, err := e.store.ListCards(ctx, e.owner)
	if err != nil {
		return err
	}
	e.cards = cards
	return nil
}

// command is one optimistic mutation: the local apply, the remote confirm,
// and the reconciliation run only after a confirmed outcome.
type command struct {
	apply     func()
	confirm   func(ctx context.Context) error
	reconcile func()
}

// run executes the three-phase protocol: snapshot, apply optimistically,
// confirm remotely. Any confirmation failure restores the snapshot; the
// collection never holds a state between "before" and "confirmed after".
func (e *Engine) run(ctx context.Context, cmd command) error {
	snapshot := append([]models.Card(nil), e.cards...)
	cmd.apply()
	if err := cmd.confirm(ctx); err != nil {
		e.cards = snapshot
		return err
	}
	if cmd.reconcile != nil {
		cmd.reconcile()
	}
	return nil
}

func (e *Engine) indexOf(id string) int {
	for i, card := range e.cards {
		if card.ID == id {
			return i
		}
	}
	return -1
}

// AddCard creates a card with a client-proposed id, inserts it at the head of
// the collection and confirms the create with the store. The store may assign
// a different id; the optimistic entry is then re-keyed to the confirmed one.
func (e *Engine) AddCard(ctx context.Context, draft Draft) (models.Card, error) {
	if draft.Company == "" || draft.Role == "" || draft.URL == "" {
		return models.Card{}, fmt.Errorf("company, role and url are required")
	}
	status := draft.Status
	if status == "" {
		status = models.StatusToApply
	}
	card := models.Card{
		ID:          uuid.NewString(),
		OwnerID:     e.owner,
		Company:     draft.Company,
		Role:        draft.Role,
		URL:         draft.URL,
		Status:      status,
		Location:    draft.Location,
		Deadline:    draft.Deadline,
		CompanyLogo: draft.CompanyLogo,
	}

	var confirmed models.Card
	err := e.run(ctx, command{
		apply: func() {
			e.cards = append([]models.Card{card}, e.cards...)
		},
		confirm: func(ctx context.Context) error {
			var err error
			confirmed, err = e.store.CreateCard(ctx, card)
			return err
		},
		reconcile: func() {
			if i := e.indexOf(card.ID); i >= 0 {
				e.cards[i] = confirmed
			}
		},
	})
	if err != nil {
		return models.Card{}, err
	}
	return confirmed, nil
}

// UpdateCard replaces the collection entry matching card.ID and confirms the
// full-document update with the store. A card owned by someone other than the
// engine's owner is refused locally with no store call.
func (e *Engine) UpdateCard(ctx context.Context, card models.Card) (models.Card, error) {
	if card.OwnerID != e.owner {
		return models.Card{}, ErrOwnerMismatch
	}
	i := e.indexOf(card.ID)
	if i < 0 {
		return models.Card{}, ErrCardNotFound
	}

	var confirmed models.Card
	err := e.run(ctx, command{
		apply: func() {
			e.cards[i] = card
		},
		confirm: func(ctx context.Context) error {
			var err error
			confirmed, err = e.store.UpdateCard(ctx, card)
			return err
		},
		reconcile: func() {
			if j := e.indexOf(card.ID); j >= 0 {
				e.cards[j] = confirmed
			}
		},
	})
	if err != nil {
		return models.Card{}, err
	}
	return confirmed, nil
}

// DeleteCard removes the entry matching id and confirms the delete with the
// store. Deletion is final; there is no history to restore from afterwards.
func (e *Engine) DeleteCard(ctx context.Context, id string) error {
	i := e.indexOf(id)
	if i < 0 {
		return ErrCardNotFound
	}
	return e.run(ctx, command{
		apply: func() {
			e.cards = append(e.cards[:i:i], e.cards[i+1:]...)
		},
		confirm: func(ctx context.Context) error {
			return e.store.DeleteCard(ctx, e.owner, id)
		},
	})
}

// MoveCard changes only the card's status, as when it is dragged to another
// column. Moving a card onto its current status is a no-op and performs no
// store call.
func (e *Engine) MoveCard(ctx context.Context, id string, status models.Status) (models.Card, error) {
	i := e.indexOf(id)
	if i < 0 {
		return models.Card{}, ErrCardNotFound
	}
	if e.cards[i].Status == status {
		return e.cards[i], nil
	}
	moved := e.cards[i]
	moved.Status = status
	return e.UpdateCard(ctx, moved)
}
