package repository

import (
	"errors"
	"path/filepath"
	"rewatch/internal/db"
	"rewatch/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) {
	t.Helper()

	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "nested", "history.db")))
	t.Cleanup(func() {
		_ = db.Close()
	})
}

func result(seq uint64, status model.RunStatus, startedAt time.Time) model.RunResult {
	return model.RunResult{
		Seq:        seq,
		Argv:       []string{"cargo", "test"},
		Trigger:    model.Trigger{Paths: []string{"src/lib.rs", "src/main.rs"}},
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Second),
		Status:     status,
	}
}

func TestRunRepositorySaveAndRecent(t *testing.T) {
	setupDB(t)
	repo := NewRunRepository()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(result(1, model.RunSuccess, base)))

	failed := result(2, model.RunFailed, base.Add(time.Minute))
	failed.ExitCode = 101
	require.NoError(t, repo.Save(failed))

	spawn := result(3, model.RunSpawnError, base.Add(2*time.Minute))
	spawn.Err = errors.New("executable file not found")
	require.NoError(t, repo.Save(spawn))

	runs, err := repo.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, uint64(3), runs[0].Seq)
	assert.Equal(t, "executable file not found", runs[0].ErrMsg)
	assert.Equal(t, uint64(2), runs[1].Seq)
	assert.Equal(t, 101, runs[1].ExitCode)
	assert.Equal(t, "cargo test", runs[1].Command)
	assert.Equal(t, "src/lib.rs,src/main.rs", runs[1].Paths)
}

func TestRunRepositoryStats(t *testing.T) {
	setupDB(t)
	repo := NewRunRepository()

	now := time.Now()
	for i, status := range []model.RunStatus{
		model.RunSuccess,
		model.RunSuccess,
		model.RunFailed,
		model.RunCanceled,
		model.RunSpawnError,
	} {
		require.NoError(t, repo.Save(result(uint64(i+1), status, now.Add(time.Duration(i)*time.Second))))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, model.RunStats{Total: 5, Success: 2, Failed: 2, Canceled: 1}, stats)

	failed, err := repo.GetFailed(10)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, model.RunSpawnError, failed[0].Status)
	assert.Equal(t, model.RunFailed, failed[1].Status)

	failed, err = repo.GetFailed(1)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, uint64(5), failed[0].Seq)
}
