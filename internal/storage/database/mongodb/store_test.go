package mongodb

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/storage/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// testDatabase 需要外部設定 MONGODB_URI 才執行
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("cipher_canvas_test_" + bson.NewObjectID().Hex())
	require.NoError(t, CreateIndexes(ctx, db))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestMessageStore_CreateAndList(t *testing.T) {
	db := testDatabase(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	alice, bob := bson.NewObjectID(), bson.NewObjectID()
	first := database.NewMessage(alice, "c1", "s1", "joy", "")
	require.NoError(t, store.Create(ctx, first))
	time.Sleep(5 * time.Millisecond)
	second := database.NewMessage(bob, "c2", "s2", "calm", "hint")
	second.CreatedAt = database.Now()
	require.NoError(t, store.Create(ctx, second))

	all, err := store.List(ctx, database.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	mine, err := store.List(ctx, database.MessageFilter{Sender: &alice})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	none := bson.NewObjectID()
	empty, err := store.List(ctx, database.MessageFilter{Sender: &none})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMessageStore_GetByID_Errors(t *testing.T) {
	db := testDatabase(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "not-an-id")
	assert.True(t, errors.Is(err, apperror.ErrInvalidID))

	_, err = store.GetByID(ctx, bson.NewObjectID().Hex())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestMessageStore_ToggleLike(t *testing.T) {
	db := testDatabase(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "c", "s", "joy", "")
	require.NoError(t, store.Create(ctx, msg))
	user := bson.NewObjectID()

	updated, liked, err := store.ToggleLike(ctx, msg.ID.Hex(), user)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, []bson.ObjectID{user}, updated.LikedBy)

	updated, liked, err = store.ToggleLike(ctx, msg.ID.Hex(), user)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, updated.Likes)
	assert.Empty(t, updated.LikedBy)

	_, _, err = store.ToggleLike(ctx, bson.NewObjectID().Hex(), user)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestMessageStore_ConcurrentLikesStayConsistent(t *testing.T) {
	db := testDatabase(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "c", "s", "joy", "")
	require.NoError(t, store.Create(ctx, msg))

	const users = 20
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.ToggleLike(ctx, msg.ID.Hex(), bson.NewObjectID())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, msg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, users, got.Likes)
	assert.Len(t, got.LikedBy, users)
}

func TestMessageStore_AddUnlockIdempotent(t *testing.T) {
	db := testDatabase(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "c", "s", "joy", "")
	require.NoError(t, store.Create(ctx, msg))
	user := bson.NewObjectID()

	for i := 0; i < 3; i++ {
		updated, err := store.AddUnlock(ctx, msg.ID.Hex(), user)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Unlocks)
		assert.Equal(t, []bson.ObjectID{user}, updated.UnlockedBy)
	}
}

func TestUserStore_DuplicateAndLookup(t *testing.T) {
	db := testDatabase(t)
	store := NewUserStore(db)
	ctx := context.Background()

	alice := database.NewUser("alice", "Alice@Example.com", "hash")
	require.NoError(t, store.Create(ctx, alice))

	dup := database.NewUser("alice", "other@example.com", "hash")
	err := store.Create(ctx, dup)
	assert.True(t, errors.Is(err, apperror.ErrDuplicate))

	got, err := store.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	users, err := store.GetByIDs(ctx, []bson.ObjectID{alice.ID, bson.NewObjectID(), alice.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[alice.ID].Password)

	now := database.Now()
	require.NoError(t, store.UpdateLastLogin(ctx, alice.ID, now))
	got, err = store.GetByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, now.Equal(*got.LastLogin))
}
