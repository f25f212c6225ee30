package repositories

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"compass/internal/database"
	"compass/internal/database/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *sql.DB

func mustStartPostgresContainer() (func(context.Context) error, error) {
	ctx := context.Background()
	dbContainer, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("compass"),
		postgres.WithUsername("compass"),
		postgres.WithPassword("compass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}
	dsn, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}
	testDB, err = sql.Open("pgx", dsn)
	if err != nil {
		return dbContainer.Terminate, err
	}
	if err := database.Migrate(testDB); err != nil {
		return dbContainer.Terminate, err
	}
	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}
	code := m.Run()
	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func testCard(owner, id string) *models.Card {
	return &models.Card{
		ID:       id,
		OwnerID:  owner,
		Company:  "Acme",
		Role:     "Intern",
		URL:      "https://acme.example/job/1",
		Status:   models.StatusToApply,
		Location: "Remote",
		Deadline: "2026-09-30",
	}
}

func TestPutThenGetRoundTrip(t *testing.T) {
	repo := NewCardRepository(testDB)
	ctx := context.Background()
	card := testCard("rt-owner", "rt-1")

	require.NoError(t, repo.Put(ctx, card))
	got, err := repo.Get(ctx, "rt-owner", "rt-1")
	require.NoError(t, err)
	assert.Equal(t, card, got)
}

func TestPutOverwritesSilently(t *testing.T) {
	repo := NewCardRepository(testDB)
	ctx := context.Background()
	card := testCard("ow-owner", "ow-1")
	require.NoError(t, repo.Put(ctx, card))

	replacement := testCard("ow-owner", "ow-1")
	replacement.Company = "Globex"
	require.NoError(t, repo.Put(ctx, replacement), "a colliding key must overwrite, not fail")

	got, err := repo.Get(ctx, "ow-owner", "ow-1")
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.Company)
}

func TestUpdateReplacesWholesale(t *testing.T) {
	repo := NewCardRepository(testDB)
	ctx := context.Background()
	card := testCard("ud-owner", "ud-1")
	require.NoError(t, repo.Put(ctx, card))

	updated := testCard("ud-owner", "ud-1")
	updated.Deadline = ""
	updated.Location = ""
	require.NoError(t, repo.Update(ctx, "ud-owner", "ud-1", updated))

	got, err := repo.Get(ctx, "ud-owner", "ud-1")
	require.NoError(t, err)
	assert.Empty(t, got.Deadline, "omitted optional field must be dropped, not preserved")
	assert.Empty(t, got.Location)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	repo := NewCardRepository(testDB)
	err := repo.Update(context.Background(), "ghost", "nope", testCard("ghost", "nope"))
	require.ErrorIs(t, err, ErrNotFound, "update must not create a missing record")

	_, err = repo.Get(context.Background(), "ghost", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteThenNotFound(t *testing.T) {
	repo := NewCardRepository(testDB)
	ctx := context.Background()
	card := testCard("del-owner", "del-1")
	require.NoError(t, repo.Put(ctx, card))
	require.NoError(t, repo.Delete(ctx, "del-owner", "del-1"))

	_, err := repo.Get(ctx, "del-owner", "del-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, "del-owner", "del-1", card), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "del-owner", "del-1"), ErrNotFound)
}

func TestListByOwnerPartitionIsolation(t *testing.T) {
	repo := NewCardRepository(testDB)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, testCard("iso-a", "1")))
	require.NoError(t, repo.Put(ctx, testCard("iso-a", "2")))
	require.NoError(t, repo.Put(ctx, testCard("iso-b", "3")))

	cards, err := repo.ListByOwner(ctx, "iso-a")
	require.NoError(t, err)
	assert.Len(t, cards, 2)
	for _, card := range cards {
		assert.Equal(t, "iso-a", card.OwnerID)
	}

	cards, err = repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestListByOwnerSkipsMalformedRecords(t *testing.T) {
	repo := NewCardRepository(testDB)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, testCard("mal-owner", "good")))

	// A document that lost its status, planted behind the repository's back.
	_, err := testDB.ExecContext(ctx,
		`INSERT INTO cards (owner_id, id, data) VALUES ($1, $2, $3)`,
		"mal-owner", "bad", `{"id":"bad","ownerId":"mal-owner"}`)
	require.NoError(t, err)

	cards, err := repo.ListByOwner(ctx, "mal-owner")
	require.NoError(t, err, "a malformed record must not fail the whole scan")
	require.Len(t, cards, 1)
	assert.Equal(t, "good", cards[0].ID)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()
	user := &models.User{ID: "usr_test", Email: "test@example.com", Name: "Test", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr_test", got.ID)

	got, err = repo.GetByID(ctx, "usr_test")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", got.Email)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
