package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/nook/nook/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

// MockBackend is a mock implementation of storage.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(key, data, contentType)
	return args.Error(0)
}

func (m *MockBackend) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockBackend) ListPage(ctx context.Context, prefix, pageToken string) (storage.Page, error) {
	args := m.Called(prefix, pageToken)
	return args.Get(0).(storage.Page), args.Error(1)
}

// truncatedS3 answers every listing with one truncated page lacking a token
type truncatedS3 struct {
	s3iface.S3API
}

func (truncatedS3) ListObjectsV2WithContext(aws.Context, *s3.ListObjectsV2Input, ...request.Option) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{
		Contents:    []*s3.Object{{Key: aws.String("nook/reddit/2024-01-10.md")}},
		IsTruncated: aws.Bool(true),
	}, nil
}

func newMemStore(t *testing.T) *Store {
	t.Helper()
	backend := storage.NewBucketBackend(memblob.OpenBucket(nil))
	t.Cleanup(func() { backend.Close() })

	store, err := New(Config{Bucket: "nook-test"}, backend)
	require.NoError(t, err)
	return store
}

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		date     time.Time
		expected string
	}{
		{
			name:     "Midnight",
			service:  "reddit",
			date:     day("2024-01-15"),
			expected: "nook/reddit/2024-01-15.md",
		},
		{
			name:     "Time of day is ignored",
			service:  "hacker_news",
			date:     time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			expected: "nook/hacker_news/2024-12-31.md",
		},
		{
			name:     "Date of its own location",
			service:  "github",
			date:     time.Date(2024, 3, 1, 1, 0, 0, 0, time.FixedZone("JST", 9*60*60)),
			expected: "nook/github/2024-03-01.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.service, tt.date))
		})
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(Config{}, &MockBackend{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "AWS_BUCKET_NAME")
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(Config{Bucket: "docs"}, nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestOpen_RequiresBucket(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: storage.KindS3})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestOpen_URLBackend(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{Backend: storage.KindURL, URL: "mem://"})
	require.NoError(t, err)

	_, err = store.Save(ctx, "# Hello", "reddit", day("2024-01-15"))
	require.NoError(t, err)

	content, found, err := store.Load(ctx, "reddit", day("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "# Hello", content)
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)

	key, err := store.Save(ctx, "# Hello", "reddit", day("2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "nook/reddit/2024-01-15.md", key)

	content, found, err := store.Load(ctx, "reddit", day("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "# Hello", content)

	content, found, err = store.Load(ctx, "reddit", day("2024-01-16"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, content)
}

func TestStore_RoundTripContent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)

	tests := []struct {
		name    string
		content string
	}{
		{name: "Empty", content: ""},
		{name: "Multi-byte", content: "# ニュース\n\n- 記事 🚀\n"},
		{name: "Markdown", content: "## Title\n\n[link](https://example.com)\n\n```go\nfmt.Println()\n```\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := day("2024-02-01").AddDate(0, 0, i)
			_, err := store.Save(ctx, tt.content, "roundtrip", date)
			require.NoError(t, err)

			content, found, err := store.Load(ctx, "roundtrip", date)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tt.content, content)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)

	_, err := store.Save(ctx, "first", "reddit", day("2024-01-15"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "second", "reddit", time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	content, found, err := store.Load(ctx, "reddit", day("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", content)
}

func TestStore_DefaultDateIsToday(t *testing.T) {
	ctx := context.Background()
	backend := &MockBackend{}
	store, err := New(Config{Bucket: "docs", Location: time.UTC}, backend)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 5, 4, 22, 15, 0, 0, time.UTC) }

	backend.On("Put", "nook/zenn/2024-05-04.md", []byte("today"), ContentType).Return(nil)
	backend.On("Get", "nook/zenn/2024-05-04.md").Return([]byte("today"), nil)

	key, err := store.Save(ctx, "today", "zenn", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "nook/zenn/2024-05-04.md", key)

	content, found, err := store.Load(ctx, "zenn", time.Time{})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "today", content)

	backend.AssertExpectations(t)
}

func TestStore_SaveRejectsInvalidUTF8(t *testing.T) {
	backend := &MockBackend{}
	store, err := New(Config{Bucket: "docs"}, backend)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), string([]byte{0xff, 0xfe}), "reddit", day("2024-01-15"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, ErrInvalidContent)
	backend.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("AccessDenied: Access Denied")

	backend := &MockBackend{}
	store, err := New(Config{Bucket: "docs"}, backend)
	require.NoError(t, err)

	backend.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(backendErr)
	backend.On("Get", mock.Anything).Return(nil, backendErr)
	backend.On("ListPage", "nook/reddit/", "").Return(storage.Page{}, backendErr)

	_, err = store.Save(ctx, "x", "reddit", day("2024-01-15"))
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "Access Denied")

	_, found, err := store.Load(ctx, "reddit", day("2024-01-15"))
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrRead)
	assert.NotErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, backendErr)

	_, err = store.ListDates(ctx, "reddit")
	assert.ErrorIs(t, err, ErrList)
	assert.ErrorIs(t, err, backendErr)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, KindList, storeErr.Kind)
	assert.Equal(t, "nook/reddit/", storeErr.Key)
}

func TestStore_LoadRejectsInvalidUTF8(t *testing.T) {
	backend := &MockBackend{}
	store, err := New(Config{Bucket: "docs"}, backend)
	require.NoError(t, err)

	backend.On("Get", "nook/reddit/2024-01-15.md").Return([]byte{0xc3, 0x28}, nil)

	_, _, err = store.Load(context.Background(), "reddit", day("2024-01-15"))
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestStore_ListDates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)

	for _, key := range []string{
		"nook/reddit/2024-01-10.md",
		"nook/reddit/2024-01-20.md",
		"nook/reddit/notes.txt",
		"nook/reddit/readme.md",
		"nook/reddit/2024-13-01.md",
		"nook/hacker_news/2024-01-30.md",
	} {
		require.NoError(t, store.backend.Put(ctx, key, []byte("x"), ContentType))
	}

	dates, err := store.ListDates(ctx, "reddit")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day("2024-01-20"), day("2024-01-10")}, dates)
}

func TestStore_ListDatesDescending(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)

	for _, d := range []string{"2023-12-31", "2024-02-29", "2024-01-01", "2024-02-01"} {
		_, err := store.Save(ctx, "x", "github", day(d))
		require.NoError(t, err)
	}

	dates, err := store.ListDates(ctx, "github")
	require.NoError(t, err)
	require.Len(t, dates, 4)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].After(dates[i]), "dates must be strictly descending")
	}
	assert.Equal(t, day("2024-02-29"), dates[0])
}

func TestStore_ListDatesEmpty(t *testing.T) {
	store := newMemStore(t)

	dates, err := store.ListDates(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestStore_ListDatesPagination(t *testing.T) {
	ctx := context.Background()

	setup := func(allPages bool) (*Store, *MockBackend) {
		backend := &MockBackend{}
		store, err := New(Config{Bucket: "docs", ListAllPages: allPages}, backend)
		require.NoError(t, err)

		backend.On("ListPage", "nook/reddit/", "").Return(storage.Page{
			Keys:          []string{"nook/reddit/2024-01-10.md"},
			Truncated:     true,
			NextPageToken: "next",
		}, nil)
		backend.On("ListPage", "nook/reddit/", "next").Return(storage.Page{
			Keys: []string{"nook/reddit/2024-01-20.md"},
		}, nil)
		return store, backend
	}

	t.Run("First page only", func(t *testing.T) {
		store, backend := setup(false)
		dates, err := store.ListDates(ctx, "reddit")
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day("2024-01-10")}, dates)
		backend.AssertNotCalled(t, "ListPage", "nook/reddit/", "next")
	})

	t.Run("All pages", func(t *testing.T) {
		store, backend := setup(true)
		dates, err := store.ListDates(ctx, "reddit")
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day("2024-01-20"), day("2024-01-10")}, dates)
		backend.AssertExpectations(t)
	})
}

func TestStore_ListDatesTruncatedWithoutToken(t *testing.T) {
	ctx := context.Background()

	setup := func(allPages bool) *Store {
		backend := &MockBackend{}
		store, err := New(Config{Bucket: "docs", ListAllPages: allPages}, backend)
		require.NoError(t, err)

		backend.On("ListPage", "nook/reddit/", "").Return(storage.Page{
			Keys:      []string{"nook/reddit/2024-01-10.md"},
			Truncated: true,
		}, nil)
		return store
	}

	t.Run("First page only keeps its dates", func(t *testing.T) {
		dates, err := setup(false).ListDates(ctx, "reddit")
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day("2024-01-10")}, dates)
	})

	t.Run("All pages cannot continue", func(t *testing.T) {
		_, err := setup(true).ListDates(ctx, "reddit")
		assert.ErrorIs(t, err, ErrList)
		assert.ErrorIs(t, err, errMissingPageToken)
	})
}

func TestStore_ListDatesS3TruncatedFirstPage(t *testing.T) {
	backend := storage.NewS3BackendWithClient(truncatedS3{}, "docs")
	store, err := New(Config{Bucket: "docs"}, backend)
	require.NoError(t, err)

	dates, err := store.ListDates(context.Background(), "reddit")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day("2024-01-10")}, dates)
}

func TestOpen_URLBackendWithoutBucket(t *testing.T) {
	store, err := Open(context.Background(), Config{Backend: storage.KindURL, URL: "mem://"})
	require.NoError(t, err)
	assert.Empty(t, store.Bucket())

	_, err = Open(context.Background(), Config{Backend: storage.KindS3, URL: "mem://"})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestDateFromKey(t *testing.T) {
	tests := []struct {
		key string
		ok  bool
	}{
		{key: "nook/reddit/2024-01-10.md", ok: true},
		{key: "nook/reddit/archive/2024-01-10.md", ok: true},
		{key: "nook/reddit/2024-01-10.txt", ok: false},
		{key: "nook/reddit/2024-1-10.md", ok: false},
		{key: "nook/reddit/notes.md", ok: false},
		{key: "nook/reddit/", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, ok := dateFromKey(tt.key)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
