package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/engine-dashboard/internal/config"
	"github.com/jrsteele09/engine-dashboard/tokenstore"
	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var alice = users.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: users.RoleEngineer}

func newRedisStore(t *testing.T) (*tokenstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return tokenstore.NewRedisStore(rdb, "test"), mr
}

func newFileStore(t *testing.T) (*tokenstore.FileStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tokens")
	s, err := tokenstore.NewFileStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestStoresRoundTrip(t *testing.T) {
	fileStore, _ := newFileStore(t)
	redisStore, _ := newRedisStore(t)

	stores := map[string]tokenstore.Store{
		"file":   fileStore,
		"redis":  redisStore,
		"memory": tokenstore.NewMemoryStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.True(t, store.Get(ctx).Empty())

			require.NoError(t, store.Set(ctx, "tok123", alice))
			creds := store.Get(ctx)
			require.True(t, creds.Valid())
			require.Equal(t, "tok123", creds.Token)
			require.Equal(t, alice, *creds.User)

			require.NoError(t, store.Clear(ctx))
			require.True(t, store.Get(ctx).Empty())

			// clearing an empty store is not an error
			require.NoError(t, store.Clear(ctx))
		})
	}
}

func TestFileStoreCorruptUserReadsAsAbsent(t *testing.T) {
	store, dir := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte("tok123\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte("{not json"), 0o600))

	creds := store.Get(ctx)
	require.Equal(t, "tok123", creds.Token)
	require.Nil(t, creds.User)
	require.False(t, creds.Valid())
}

func TestFileStoreTokenWithoutUser(t *testing.T) {
	store, dir := newFileStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte("orphan"), 0o600))

	creds := store.Get(context.Background())
	require.Equal(t, "orphan", creds.Token)
	require.Nil(t, creds.User)
}

func TestFileStoreUserWithoutTokenIsEmpty(t *testing.T) {
	store, dir := newFileStore(t)
	data, err := alice.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), data, 0o600))

	require.True(t, store.Get(context.Background()).Empty())
}

func TestFileStoreWritesPrivateFiles(t *testing.T) {
	store, dir := newFileStore(t)
	require.NoError(t, store.Set(context.Background(), "tok123", alice))

	for _, name := range []string{"token", "user.json"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	raw, err := os.ReadFile(filepath.Join(dir, "token"))
	require.NoError(t, err)
	require.Equal(t, "tok123", string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "temporary files must not be left behind")
}

func TestRedisStoreCorruptUser(t *testing.T) {
	store, mr := newRedisStore(t)

	require.NoError(t, mr.Set("test:token", "tok123"))
	require.NoError(t, mr.Set("test:user", `{"username":"alice","role":"pilot"}`))

	creds := store.Get(context.Background())
	require.Equal(t, "tok123", creds.Token)
	require.Nil(t, creds.User)
}

func TestRedisStoreUnavailableReadsAsAbsent(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Set(context.Background(), "tok123", alice))
	mr.Close()

	require.True(t, store.Get(context.Background()).Empty())
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := tokenstore.New(ctx, config.Store{Backend: config.TokenStoreFile, Dir: dir})
	require.NoError(t, err)
	require.IsType(t, &tokenstore.FileStore{}, s)

	s, err = tokenstore.New(ctx, config.Store{Backend: config.TokenStoreMemory})
	require.NoError(t, err)
	require.IsType(t, &tokenstore.MemoryStore{}, s)

	mr := miniredis.RunT(t)
	s, err = tokenstore.New(ctx, config.Store{Backend: config.TokenStoreRedis, RedisAddr: mr.Addr(), KeyPrefix: "x"})
	require.NoError(t, err)
	require.IsType(t, &tokenstore.RedisStore{}, s)
	require.NoError(t, s.Set(ctx, "tok123", alice))
	stored, err := mr.Get("x:token")
	require.NoError(t, err)
	require.Equal(t, "tok123", stored)
	require.NoError(t, s.(*tokenstore.RedisStore).Close())

	_, err = tokenstore.New(ctx, config.Store{Backend: "etcd"})
	require.Error(t, err)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = tokenstore.New(context.Background(), config.Store{
		Backend:   config.TokenStoreRedis,
		RedisAddr: addr,
		Timeout:   200 * time.Millisecond,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), addr)
}
