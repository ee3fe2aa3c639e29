package navstore

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/kanungos/fundgrid/internal/domain"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func TestRepository_SaveAndLoadSeries(t *testing.T) {
	repo := setupRepo(t)

	points := []domain.NavPoint{
		{Date: date("2024-01-01"), Value: 10.0},
		{Date: date("2024-01-05"), Value: 11.0},
	}
	require.NoError(t, repo.SaveSeries("X", points))

	loaded, err := repo.LoadSeries("X")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, date("2024-01-01"), loaded[0].Date)
	assert.Equal(t, 10.0, loaded[0].Value)
	assert.Equal(t, 11.0, loaded[1].Value)
}

func TestRepository_UpsertByDate(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.SaveSeries("X", []domain.NavPoint{{Date: date("2024-01-01"), Value: 10.0}}))
	require.NoError(t, repo.SaveSeries("X", []domain.NavPoint{{Date: date("2024-01-01"), Value: 10.5}}))

	loaded, err := repo.LoadSeries("X")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 10.5, loaded[0].Value)
}

func TestRepository_LoadAll(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.SaveSeries("A", []domain.NavPoint{{Date: date("2024-01-01"), Value: 1}}))
	require.NoError(t, repo.SaveSeries("B", []domain.NavPoint{{Date: date("2024-01-02"), Value: 2}}))

	all, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Len(t, all["A"], 1)
	assert.Len(t, all["B"], 1)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.SaveSeries("X", []domain.NavPoint{
		{Date: date("2022-01-01"), Value: 9.0},
		{Date: date("2024-01-01"), Value: 10.0},
	}))

	deleted, err := repo.DeleteOlderThan(date("2023-01-01"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	loaded, err := repo.LoadSeries("X")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 10.0, loaded[0].Value)
}

func TestRepository_LoadMissingSeries(t *testing.T) {
	repo := setupRepo(t)

	loaded, err := repo.LoadSeries("nope")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
