// Package docstore saves and loads date-stamped Markdown documents in an
// object store under keys of the form nook/{service}/{YYYY-MM-DD}.md.
package docstore

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nook/nook/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	keyRoot       = "nook"
	dateLayout    = "2006-01-02"
	fileExtension = ".md"

	// ContentType is stored with every document
	ContentType = "text/markdown"
)

var errMissingPageToken = errors.New("listing was truncated but no continuation token was supplied")

// Config holds everything the store needs. It is resolved by the caller,
// typically from the process environment.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	// Bucket is required, except for the url backend where the bucket is
	// part of URL and Bucket is only used for logging
	Bucket string

	// Backend selects the storage implementation (see storage.Open)
	Backend      string
	Region       string
	Endpoint     string
	AzureAccount string
	AzureKey     string
	URL          string

	// ListAllPages makes ListDates follow continuation tokens. By default
	// only the first listing page is consulted.
	ListAllPages bool

	// Location is used for the default date when none is given
	Location *time.Location
}

func (c Config) validate() error {
	if c.Bucket == "" && c.Backend != storage.KindURL {
		return &Error{Kind: KindConfig, Err: errors.New("bucket name is required (AWS_BUCKET_NAME)")}
	}
	return nil
}

// Store is the document store. It holds no mutable state and is safe for
// concurrent use.
type Store struct {
	backend      storage.Backend
	bucket       string
	listAllPages bool
	location     *time.Location
	now          func() time.Time
}

// New creates a Store over an existing backend
func New(cfg Config, backend storage.Backend) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, &Error{Kind: KindConfig, Err: errors.New("storage backend is required")}
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	return &Store{
		backend:      backend,
		bucket:       cfg.Bucket,
		listAllPages: cfg.ListAllPages,
		location:     location,
		now:          time.Now,
	}, nil
}

// Open constructs the backend described by cfg and returns a Store over it
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, storage.Options{
		Kind:            cfg.Backend,
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		AzureAccount:    cfg.AzureAccount,
		AzureAccountKey: cfg.AzureKey,
		URL:             cfg.URL,
	})
	if err != nil {
		return nil, &Error{Kind: KindConfig, Err: err}
	}

	return New(cfg, backend)
}

// Bucket returns the configured bucket or container name
func (s *Store) Bucket() string {
	return s.bucket
}

// Key returns the object key for service on the calendar day of date, in
// date's own location. The time of day is ignored.
func Key(service string, date time.Time) string {
	return Prefix(service) + date.Format(dateLayout) + fileExtension
}

// Prefix returns the listing prefix shared by all documents of service
func Prefix(service string) string {
	return keyRoot + "/" + service + "/"
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate formats date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(dateLayout)
}

func (s *Store) dateOrToday(date time.Time) time.Time {
	if date.IsZero() {
		return s.now().In(s.location)
	}
	return date
}

// Save writes content as the document for service on date, replacing any
// existing document for that day. A zero date means today. It returns the
// object key.
func (s *Store) Save(ctx context.Context, content, service string, date time.Time) (string, error) {
	key := Key(service, s.dateOrToday(date))

	if !utf8.ValidString(content) {
		return "", &Error{Kind: KindWrite, Key: key, Err: ErrInvalidContent}
	}

	if err := s.backend.Put(ctx, key, []byte(content), ContentType); err != nil {
		return "", &Error{Kind: KindWrite, Key: key, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(content),
	}).Info("Saved document")

	return key, nil
}

// Load reads the document for service on date. A zero date means today. The
// boolean is false, with a nil error, when no document exists for that day.
func (s *Store) Load(ctx context.Context, service string, date time.Time) (string, bool, error) {
	key := Key(service, s.dateOrToday(date))

	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		logrus.Debugf("No document at %s", key)
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Kind: KindRead, Key: key, Err: err}
	}

	if !utf8.Valid(data) {
		return "", false, &Error{Kind: KindRead, Key: key, Err: ErrInvalidContent}
	}

	return string(data), true, nil
}

// ListDates returns the dates that have a document for service, newest
// first. Keys that are not Markdown files or whose name is not a YYYY-MM-DD
// date are skipped.
func (s *Store) ListDates(ctx context.Context, service string) ([]time.Time, error) {
	prefix := Prefix(service)

	var dates []time.Time
	token := ""
	for {
		page, err := s.backend.ListPage(ctx, prefix, token)
		if err != nil {
			return nil, &Error{Kind: KindList, Key: prefix, Err: err}
		}

		for _, key := range page.Keys {
			if date, ok := dateFromKey(key); ok {
				dates = append(dates, date)
			}
		}

		if !s.listAllPages || !page.Truncated {
			break
		}
		if page.NextPageToken == "" {
			return nil, &Error{Kind: KindList, Key: prefix, Err: errMissingPageToken}
		}
		token = page.NextPageToken
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})

	return dates, nil
}

func dateFromKey(key string) (time.Time, bool) {
	if !strings.HasSuffix(key, fileExtension) {
		return time.Time{}, false
	}

	name := strings.TrimSuffix(path.Base(key), fileExtension)
	date, err := time.Parse(dateLayout, name)
	if err != nil {
		return time.Time{}, false
	}

	return date, true
}
