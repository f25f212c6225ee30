package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"compass/internal/database/models"
)

// ErrNotFound signals that no record exists at the addressed (owner, id) key.
var ErrNotFound = errors.New("card not found")

// CardRepository is the record store: cards live as JSON documents addressed
// by the composite (ownerId, id) key. It carries no business logic beyond key
// composition; schema validation happens at the HTTP edge.
type CardRepository interface {
	// Put writes the document under its key. A colliding key is overwritten
	// silently; the store is last-write-wins.
	Put(ctx context.Context, card *models.Card) error
	// ListByOwner scans one owner's partition. Records that fail minimal
	// shape validation are logged and skipped, never failing the whole scan.
	// Order is store-defined.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Card, error)
	Get(ctx context.Context, ownerID, id string) (*models.Card, error)
	// Update replaces the document wholesale. Updating a missing key is
	// rejected with ErrNotFound rather than creating it.
	Update(ctx context.Context, ownerID, id string, card *models.Card) error
	Delete(ctx context.Context, ownerID, id string) error
}

type cardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Put(ctx context.Context, card *models.Card) error {
	doc, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("error encoding card: %v", err)
	}
	query := `
		INSERT INTO cards (owner_id, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, id) DO UPDATE SET data = EXCLUDED.data`
	if _, err := r.db.ExecContext(ctx, query, card.OwnerID, card.ID, doc); err != nil {
		return fmt.Errorf("error storing card: %v", err)
	}
	return nil
}

func (r *cardRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Card, error) {
	query := `SELECT data FROM cards WHERE owner_id = $1`
	result, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying cards: %v", err)
	}
	defer result.Close()
	cards := []models.Card{}
	for result.Next() {
		var doc []byte
		if err := result.Scan(&doc); err != nil {
			return nil, fmt.Errorf("error scanning card: %v", err)
		}
		var card models.Card
		if err := json.Unmarshal(doc, &card); err != nil {
			log.Printf("skipping undecodable card in partition %s: %v", ownerID, err)
			continue
		}
		if card.ID == "" || card.OwnerID == "" || card.Status == "" {
			log.Printf("skipping malformed card %s:%s", ownerID, card.ID)
			continue
		}
		if card.OwnerID != ownerID {
			log.Printf("skipping card %s with foreign owner %s in partition %s", card.ID, card.OwnerID, ownerID)
			continue
		}
		cards = append(cards, card)
	}
	if err = result.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %v", err)
	}
	return cards, nil
}

func (r *cardRepository) Get(ctx context.Context, ownerID, id string) (*models.Card, error) {
	var doc []byte
	query := `SELECT data FROM cards WHERE owner_id = $1 AND id = $2`
	err := r.db.QueryRowContext(ctx, query, ownerID, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting card: %v", err)
	}
	card := models.Card{}
	if err := json.Unmarshal(doc, &card); err != nil {
		return nil, fmt.Errorf("error decoding card: %v", err)
	}
	return &card, nil
}

func (r *cardRepository) Update(ctx context.Context, ownerID, id string, card *models.Card) error {
	doc, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("error encoding card: %v", err)
	}
	query := `UPDATE cards SET data = $3 WHERE owner_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, ownerID, id, doc)
	if err != nil {
		return fmt.Errorf("error updating card: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM cards WHERE owner_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("error deleting card: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
