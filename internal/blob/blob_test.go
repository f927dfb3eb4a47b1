package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, st Store, key string) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, st.Put(ctx, key, []byte("[]")))
	got, err := st.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, st.Put(ctx, key, []byte(`[{"imdb_id":"tt1"}]`)))
	got, err = st.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[{"imdb_id":"tt1"}]`, string(got))
}

func TestMemory(t *testing.T) {
	t.Parallel()

	st := NewMemory()
	exerciseStore(t, st, "movies.json")
	assert.Equal(t, 2, st.Puts("movies.json"))
	assert.Equal(t, 0, st.Puts("last_synced.txt"))
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	st := NewMemory()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, "k", []byte("abc")))

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'x'

	again, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "blobs")
	st, err := NewFileStore(root)
	require.NoError(t, err)
	require.NoError(t, st.HealthCheck(context.Background()))

	exerciseStore(t, st, "movies.json")
	exerciseStore(t, st, "nested/last_synced.txt")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".movies.json.", "temp file left behind")
	}
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside", "/etc/passwd"} {
		err := st.Put(context.Background(), key, []byte("x"))
		assert.Error(t, err, "key %q", key)
	}
}

func TestWithPrefix(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	st := WithPrefix(mem, "/prod/")
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "movies.json", []byte("[]")))
	_, err := mem.Get(ctx, "prod/movies.json")
	require.NoError(t, err)
	_, err = mem.Get(ctx, "movies.json")
	require.ErrorIs(t, err, ErrNotExist)

	assert.Same(t, mem, WithPrefix(mem, ""))
	hc, ok := st.(HealthChecker)
	require.True(t, ok)
	assert.NoError(t, hc.HealthCheck(ctx))
}

// TestS3StoreSmoke runs against a live bucket when S3_ENDPOINT and S3_BUCKET are set.
func TestS3StoreSmoke(t *testing.T) {
	endpoint := os.Getenv("S3_ENDPOINT")
	bucket := os.Getenv("S3_BUCKET")
	if endpoint == "" || bucket == "" {
		t.Skip("S3_ENDPOINT/S3_BUCKET not provided")
	}
	st, err := NewS3Store(S3Options{
		Endpoint:  endpoint,
		Bucket:    bucket,
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		UseSSL:    os.Getenv("S3_USE_SSL") == "true",
	})
	require.NoError(t, err)
	require.NoError(t, st.HealthCheck(context.Background()))

	exerciseStore(t, WithPrefix(st, "moviesync-test-"+filepath.Base(t.TempDir())), "movies.json")
}

// TestRedisStoreSmoke runs against a live server when REDIS_URL is set.
func TestRedisStoreSmoke(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not provided")
	}
	st, err := NewRedisStore(url)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.HealthCheck(context.Background()))

	exerciseStore(t, WithPrefix(st, "moviesync-test-"+filepath.Base(t.TempDir())), "movies.json")
}

func TestNewS3Store_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewS3Store(S3Options{Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Options{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket")
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/json", contentTypeFor("movies.json"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("blob"))
}
