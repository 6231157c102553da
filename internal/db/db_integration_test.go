//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func createTestRun(t *testing.T, db *DB, ctx context.Context) uuid.UUID {
	t.Helper()
	runID, err := db.CreateRun(ctx, "https://test.example.com/"+uuid.New().String()[:8], "test-example-com")
	if err != nil {
		t.Fatalf("Failed to create test run: %v", err)
	}
	return runID
}

func cleanupTestRun(t *testing.T, db *DB, runID uuid.UUID) {
	t.Helper()
	_, _ = db.pool.Exec(context.Background(), "DELETE FROM clone_runs WHERE id = $1", runID)
}

func TestIntegration_RunLifecycle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID := createTestRun(t, db, ctx)
	defer cleanupTestRun(t, db, runID)

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, db.CompleteRun(ctx, runID, StatusCompleted, 4210))

	run, err = db.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	require.NotNil(t, run.CloneMs)
	assert.Equal(t, int64(4210), *run.CloneMs)
	assert.NotNil(t, run.CompletedAt)

	runs, err := db.ListRuns(ctx, RunFilters{Slug: "test-example-com", Status: StatusCompleted})
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
}

func TestIntegration_Artifacts(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID := createTestRun(t, db, ctx)
	defer cleanupTestRun(t, db, runID)

	require.NoError(t, db.SaveArtifact(ctx, runID, StepCompare, CategoryDiff, map[string]any{"notes": []string{}}))
	require.NoError(t, db.SaveTextArtifact(ctx, runID, StepOriginalHTML, CategoryCapture, "<html></html>"))
	require.NoError(t, db.SaveBlobArtifact(ctx, runID, StepScreenshotOriginal, CategoryScreenshot, []byte{0x89, 'P', 'N', 'G'}))

	content, err := db.GetArtifact(ctx, runID, StepCompare)
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes": []}`, string(content))

	text, err := db.GetTextArtifact(ctx, runID, StepOriginalHTML)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", text)

	blob, err := db.GetBlobArtifact(ctx, runID, StepScreenshotOriginal)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, blob)

	missing, err := db.GetArtifact(ctx, runID, StepStructureLocal)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Upsert replaces content for the same step
	require.NoError(t, db.SaveTextArtifact(ctx, runID, StepOriginalHTML, CategoryCapture, "<html>2</html>"))
	text, err = db.GetTextArtifact(ctx, runID, StepOriginalHTML)
	require.NoError(t, err)
	assert.Equal(t, "<html>2</html>", text)
}

func TestIntegration_DeleteRun(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID := createTestRun(t, db, ctx)
	require.NoError(t, db.DeleteRun(ctx, runID))

	err := db.DeleteRun(ctx, runID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Nil(t, run)
}
