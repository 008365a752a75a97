//go:build integration

// Package db contains integration tests for SurrealDB operations.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

const testDimension = 8

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx, testDimension); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// testEmbedding returns a deterministic unit-ish vector pointed along axis.
func testEmbedding(axis int) []float32 {
	embedding := make([]float32, testDimension)
	for i := range embedding {
		embedding[i] = 0.01
	}
	embedding[axis%testDimension] = 1.0
	return embedding
}

func TestUpsertAndQueryPassages(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	passages := []struct {
		id    string
		title string
		ref   string
		axis  int
	}{
		{"p1", "金剛經", "T0235.0001", 0},
		{"p2", "金剛經", "T0235.0002", 1},
		{"p3", "法華經", "T0262.0001", 2},
	}
	for _, p := range passages {
		err := testDB.UpsertPassage(ctx, p.id, models.ScripturePassage{
			SourceTitle:  p.title,
			CanonicalRef: p.ref,
			Text:         "凡所有相，皆是虛妄。",
			Embedding:    testEmbedding(p.axis),
		})
		if err != nil {
			t.Fatalf("UpsertPassage(%s) failed: %v", p.id, err)
		}
	}

	count, err := testDB.CountPassages(ctx)
	if err != nil {
		t.Fatalf("CountPassages failed: %v", err)
	}
	if count != 3 {
		t.Errorf("CountPassages = %d, want 3", count)
	}

	hits, err := testDB.QueryNearestPassages(ctx, testEmbedding(0), 2)
	if err != nil {
		t.Fatalf("QueryNearestPassages failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "p1" {
		t.Errorf("top hit = %q, want p1", hits[0].ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not descending: %f < %f", hits[0].Score, hits[1].Score)
	}
}

func TestQueryNearestPassagesEmptyIndex(t *testing.T) {
	ctx := context.Background()
	_ = testDB.WipeData(ctx)

	hits, err := testDB.QueryNearestPassages(ctx, testEmbedding(0), 5)
	if err != nil {
		t.Fatalf("QueryNearestPassages on empty index failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty index, want 0", len(hits))
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	cc := models.NewConversationContext("user-1")
	cc = cc.Append(models.Utterance{
		ID:        "u1",
		UserID:    "user-1",
		Text:      "什麼是四聖諦？",
		Timestamp: time.Now().UTC(),
	}, 5)
	cc.LastLevel = models.LevelFoundational
	cc.LastType = models.TypeDoctrinal
	cc.LastStrategy = models.StrategyGiving

	if err := testDB.PutContext(ctx, cc, time.Hour); err != nil {
		t.Fatalf("PutContext failed: %v", err)
	}

	got, err := testDB.GetContext(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetContext failed: %v", err)
	}
	if len(got.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(got.History))
	}
	if got.History[0].Text != "什麼是四聖諦？" {
		t.Errorf("history text = %q", got.History[0].Text)
	}
	if got.LastLevel != models.LevelFoundational {
		t.Errorf("last level = %q, want foundational", got.LastLevel)
	}
	if got.LastStrategy != models.StrategyGiving {
		t.Errorf("last strategy = %q, want giving", got.LastStrategy)
	}
}

func TestContextExpiry(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	cc := models.NewConversationContext("user-ttl")
	cc = cc.Append(models.Utterance{ID: "u1", UserID: "user-ttl", Text: "hello", Timestamp: time.Now()}, 5)

	if err := testDB.PutContext(ctx, cc, -time.Minute); err != nil {
		t.Fatalf("PutContext failed: %v", err)
	}

	got, err := testDB.GetContext(ctx, "user-ttl")
	if err != nil {
		t.Fatalf("GetContext failed: %v", err)
	}
	if len(got.History) != 0 {
		t.Errorf("expired context returned %d history entries, want 0", len(got.History))
	}
}

func TestDeleteContext(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	cc := models.NewConversationContext("user-del")
	cc = cc.Append(models.Utterance{ID: "u1", UserID: "user-del", Text: "hi", Timestamp: time.Now()}, 5)
	if err := testDB.PutContext(ctx, cc, time.Hour); err != nil {
		t.Fatalf("PutContext failed: %v", err)
	}

	if err := testDB.DeleteContext(ctx, "user-del"); err != nil {
		t.Fatalf("DeleteContext failed: %v", err)
	}

	got, err := testDB.GetContext(ctx, "user-del")
	if err != nil {
		t.Fatalf("GetContext after delete failed: %v", err)
	}
	if len(got.History) != 0 {
		t.Errorf("deleted context still has %d history entries", len(got.History))
	}

	// Deleting again is a no-op, not an error.
	if err := testDB.DeleteContext(ctx, "user-del"); err != nil {
		t.Errorf("second DeleteContext errored: %v", err)
	}
}
