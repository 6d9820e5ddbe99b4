package pebbledb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/storage/database"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func openMemDB(t *testing.T) *pebble.DB {
	t.Helper()
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func messageAt(sender bson.ObjectID, at time.Time) *database.Message {
	m := database.NewMessage(sender, "cipher", "seed", "joy", "")
	m.CreatedAt = at
	m.UpdatedAt = at
	return m
}

func TestMessageStore_CreateGetRoundTrip(t *testing.T) {
	store := NewMessageStore(openMemDB(t))
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "abc", "seed1", "joy", "think warm")
	require.NoError(t, store.Create(ctx, msg))

	got, err := store.GetByID(ctx, msg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.Sender, got.Sender)
	assert.Equal(t, "think warm", got.Hint)
	assert.True(t, msg.CreatedAt.Equal(got.CreatedAt))
	assert.NotNil(t, got.LikedBy)
	assert.NotNil(t, got.UnlockedBy)
}

func TestMessageStore_GetByID_Errors(t *testing.T) {
	store := NewMessageStore(openMemDB(t))
	ctx := context.Background()

	_, err := store.GetByID(ctx, "123")
	assert.True(t, errors.Is(err, apperror.ErrInvalidID))

	_, err = store.GetByID(ctx, bson.NewObjectID().Hex())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, _, err = store.ToggleLike(ctx, bson.NewObjectID().Hex(), bson.NewObjectID())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = store.AddUnlock(ctx, "zz", bson.NewObjectID())
	assert.True(t, errors.Is(err, apperror.ErrInvalidID))
}

func TestMessageStore_ListNewestFirst(t *testing.T) {
	store := NewMessageStore(openMemDB(t))
	ctx := context.Background()

	alice, bob := bson.NewObjectID(), bson.NewObjectID()
	base := database.Now()
	m1 := messageAt(alice, base)
	m2 := messageAt(bob, base.Add(time.Second))
	m3 := messageAt(alice, base.Add(2*time.Second))
	for _, m := range []*database.Message{m2, m3, m1} {
		require.NoError(t, store.Create(ctx, m))
	}

	all, err := store.List(ctx, database.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []bson.ObjectID{m3.ID, m2.ID, m1.ID}, []bson.ObjectID{all[0].ID, all[1].ID, all[2].ID})

	mine, err := store.List(ctx, database.MessageFilter{Sender: &alice})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, m3.ID, mine[0].ID)
	assert.Equal(t, m1.ID, mine[1].ID)

	limited, err := store.List(ctx, database.MessageFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, m3.ID, limited[0].ID)

	stranger := bson.NewObjectID()
	empty, err := store.List(ctx, database.MessageFilter{Sender: &stranger})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMessageStore_ToggleLikePersists(t *testing.T) {
	store := NewMessageStore(openMemDB(t))
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "c", "s", "joy", "")
	require.NoError(t, store.Create(ctx, msg))
	user := bson.NewObjectID()

	updated, liked, err := store.ToggleLike(ctx, msg.ID.Hex(), user)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, updated.Likes)

	got, err := store.GetByID(ctx, msg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{user}, got.LikedBy)

	updated, liked, err = store.ToggleLike(ctx, msg.ID.Hex(), user)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, updated.Likes)
	assert.Empty(t, updated.LikedBy)
}

func TestMessageStore_ConcurrentTogglesAreSerialized(t *testing.T) {
	store := NewMessageStore(openMemDB(t))
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "c", "s", "joy", "")
	require.NoError(t, store.Create(ctx, msg))

	const users = 50
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

func TestMessageStore_ConcurrentUnlocksByOneUser(t *testing.T) {
	store := NewMessageStore(openMemDB(t))
	ctx := context.Background()

	msg := database.NewMessage(bson.NewObjectID(), "c", "s", "joy", "")
	require.NoError(t, store.Create(ctx, msg))
	user := bson.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddUnlock(ctx, msg.ID.Hex(), user)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, msg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Unlocks)
	assert.Equal(t, []bson.ObjectID{user}, got.UnlockedBy)
}

func TestUserStore_CreateAndLookup(t *testing.T) {
	store := NewUserStore(openMemDB(t))
	ctx := context.Background()

	alice := database.NewUser("alice", "Alice@Example.com", "hash")
	require.NoError(t, store.Create(ctx, alice))

	got, err := store.GetByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash", got.Password)

	got, err = store.GetByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Nil(t, got.LastLogin)

	_, err = store.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUserStore_RejectsDuplicates(t *testing.T) {
	store := NewUserStore(openMemDB(t))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, database.NewUser("alice", "alice@example.com", "h")))

	err := store.Create(ctx, database.NewUser("alice", "other@example.com", "h"))
	assert.True(t, errors.Is(err, apperror.ErrDuplicate))

	err = store.Create(ctx, database.NewUser("alice2", "ALICE@example.com", "h"))
	assert.True(t, errors.Is(err, apperror.ErrDuplicate))
}

func TestUserStore_GetByIDsAndLastLogin(t *testing.T) {
	store := NewUserStore(openMemDB(t))
	ctx := context.Background()

	alice := database.NewUser("alice", "alice@example.com", "secret-hash")
	require.NoError(t, store.Create(ctx, alice))

	users, err := store.GetByIDs(ctx, []bson.ObjectID{alice.ID, bson.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[alice.ID].Password)

	at := database.Now()
	require.NoError(t, store.UpdateLastLogin(ctx, alice.ID, at))

	got, err := store.GetByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	err = store.UpdateLastLogin(ctx, bson.NewObjectID(), at)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("idx:m;"), prefixUpperBound([]byte("idx:m:")))
	assert.Equal(t, []byte{0x01}, prefixUpperBound([]byte{0x00, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff}))
}

func TestKeyedLock_SerializesSameKeyAndReleases(t *testing.T) {
	var l keyedLock
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock([]byte("m:1"))
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, l.size())
}

func TestKeyedLock_DifferentKeysDoNotBlock(t *testing.T) {
	var l keyedLock
	unlockA := l.lock([]byte("m:a"))
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := l.lock([]byte("m:b"))
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}
