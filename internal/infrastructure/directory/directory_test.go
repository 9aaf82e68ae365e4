package directory_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/uuid"
	"github.com/dialog-app/dialog/internal/infrastructure/directory"
	"github.com/dialog-app/dialog/internal/infrastructure/repository/mongodb"
	"github.com/dialog-app/dialog/tests/testutil"
)

// seedUser inserts a user document the way the external account system does.
func seedUser(t *testing.T, db *mongo.Database, username string) uuid.UUID {
	t.Helper()

	ctx := testutil.NewTestContext(t)
	id := uuid.NewUUID()

	_, err := db.Collection(mongodb.UsersCollection).InsertOne(ctx, bson.M{
		"_id":      id.String(),
		"username": username,
	})
	require.NoError(t, err)

	return id
}

func TestMongoDirectory_Resolve(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	dir := directory.NewMongoDirectory(db)
	ctx := testutil.NewTestContext(t)

	aliceID := seedUser(t, db, "alice")

	t.Run("known username", func(t *testing.T) {
		u, err := dir.Resolve(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, aliceID, u.ID())
		assert.Equal(t, "alice", u.Username())
	})

	t.Run("case insensitive", func(t *testing.T) {
		u, err := dir.Resolve(ctx, "  ALICE ")
		require.NoError(t, err)
		assert.Equal(t, aliceID, u.ID())
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := dir.Resolve(ctx, "nobody")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("blank username", func(t *testing.T) {
		_, err := dir.Resolve(ctx, "   ")
		require.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestCachedDirectory_Resolve(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	client := testutil.SetupTestRedis(t)
	ctx := testutil.NewTestContext(t)

	dir := directory.NewCachedDirectory(
		directory.NewMongoDirectory(db),
		client,
		time.Minute,
		slog.Default(),
	)

	bobID := seedUser(t, db, "bob")

	t.Run("miss falls through and populates the cache", func(t *testing.T) {
		u, err := dir.Resolve(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, bobID, u.ID())

		cached, err := client.Get(ctx, "dialog:directory:bob").Result()
		require.NoError(t, err)
		assert.Contains(t, cached, bobID.String())
	})

	t.Run("hit serves from the cache", func(t *testing.T) {
		// removing the source document proves the second lookup never
		// reaches MongoDB
		_, err := db.Collection(mongodb.UsersCollection).
			DeleteOne(ctx, bson.M{"username": "bob"})
		require.NoError(t, err)

		u, err := dir.Resolve(ctx, "BOB")
		require.NoError(t, err)
		assert.Equal(t, bobID, u.ID())
	})

	t.Run("corrupt entry falls through", func(t *testing.T) {
		carolID := seedUser(t, db, "carol")
		require.NoError(t, client.Set(ctx, "dialog:directory:carol", "{not json", time.Minute).Err())

		u, err := dir.Resolve(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, carolID, u.ID())
	})

	t.Run("unknown username is not cached", func(t *testing.T) {
		_, err := dir.Resolve(ctx, "ghost")
		require.ErrorIs(t, err, errs.ErrNotFound)

		exists, err := client.Exists(ctx, "dialog:directory:ghost").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}
