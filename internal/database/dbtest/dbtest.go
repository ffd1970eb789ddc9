// Package dbtest provides MongoDB fixtures for repository tests.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"presence-chat/internal/database"

	"github.com/google/uuid"
)

// MongoURIEnv names the variable that enables tests against a real MongoDB
const MongoURIEnv = "CHAT_TEST_MONGO_URI"

// NewMongoDB connects to a throwaway database, or skips the test when
// MongoURIEnv is unset. The database is dropped on cleanup.
func NewMongoDB(t testing.TB) *database.MongoDB {
	t.Helper()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", MongoURIEnv)
	}

	cfg := database.DefaultMongoConfig()
	cfg.URI = uri
	cfg.Database = "chat_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.NewMongoDB(ctx, cfg)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	if err := db.CreateIndexes(ctx); err != nil {
		t.Fatalf("create indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.GetDatabase().Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}
