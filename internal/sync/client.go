package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"compass/internal/database/models"
)

// Client is the HTTP implementation of Store, speaking the record store's
// JSON surface. Non-2xx responses are decoded for their error field when
// possible and surfaced as opaque status errors otherwise; a 2xx response
// whose body does not decode is treated as a server error, since the write's
// outcome is ambiguous.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("record store unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading record store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &remote); err == nil && remote.Error != "" {
			return fmt.Errorf("record store: %s", remote.Error)
		}
		return fmt.Errorf("record store responded with status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("record store returned an undecodable success response: %w", err)
		}
	}
	return nil
}

func cardPath(ownerID, id string) string {
	return "/cards/" + url.PathEscape(ownerID) + "/" + url.PathEscape(id)
}

func (c *Client) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	var confirmed models.Card
	if err := c.do(ctx, http.MethodPost, "/cards", card, &confirmed); err != nil {
		return models.Card{}, err
	}
	return confirmed, nil
}

func (c *Client) UpdateCard(ctx context.Context, card models.Card) (models.Card, error) {
	var confirmed models.Card
	if err := c.do(ctx, http.MethodPut, cardPath(card.OwnerID, card.ID), card, &confirmed); err != nil {
		return models.Card{}, err
	}
	return confirmed, nil
}

func (c *Client) DeleteCard(ctx context.Context, ownerID, id string) error {
	var ack struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := c.do(ctx, http.MethodDelete, cardPath(ownerID, id), nil, &ack); err != nil {
		return err
	}
	if !ack.Success {
		return fmt.Errorf("record store did not acknowledge delete of %s", id)
	}
	return nil
}

func (c *Client) ListCards(ctx context.Context, ownerID string) ([]models.Card, error) {
	var cards []models.Card
	if err := c.do(ctx, http.MethodGet, "/cards/"+url.PathEscape(ownerID), nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) GetCard(ctx context.Context, ownerID, id string) (models.Card, error) {
	var card models.Card
	if err := c.do(ctx, http.MethodGet, cardPath(ownerID, id), nil, &card); err != nil {
		return models.Card{}, err
	}
	return card, nil
}
