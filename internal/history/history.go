// SPDX-License-Identifier: MIT

// Package history persists probe reports in an embedded Badger store so
// operators can see how an endpoint's capabilities drift over time.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/probe"
)

// Store is a persistent probe-report log.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the history database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return &Store{db: db, logger: log.WithComponent("history")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Keys sort as probe:<urlhash>:<unixnano>, so a prefix scan per URL in
// reverse order yields newest first.
func urlPrefix(url string) []byte {
	sum := sha256.Sum256([]byte(url))
	return []byte("probe:" + hex.EncodeToString(sum[:8]) + ":")
}

func reportKey(url string, at time.Time) []byte {
	return append(urlPrefix(url), []byte(fmt.Sprintf("%020d", at.UnixNano()))...)
}

// Put stores a report under its URL and timestamp.
func (s *Store) Put(report *probe.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	key := reportKey(report.URL, report.CheckedAt)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	s.logger.Debug().
		Str("event", "history.stored").
		Str("url", report.URL).
		Str("outcome", string(report.Outcome)).
		Msg("stored probe report")
	return nil
}

// Recent returns up to limit reports for url, newest first.
func (s *Store) Recent(url string, limit int) ([]*probe.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	prefix := urlPrefix(url)

	var out []*probe.Report
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek just past the prefix range.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r probe.Report
				if err := json.Unmarshal(val, &r); err != nil {
					return err
				}
				out = append(out, &r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return out, nil
}

// LastCheckedAt returns the timestamp of the newest stored report across
// all URLs, or the zero time when the store is empty.
func (s *Store) LastCheckedAt() (time.Time, error) {
	var newest time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("probe:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r probe.Report
				if err := json.Unmarshal(val, &r); err != nil {
					return nil
				}
				if r.CheckedAt.After(newest) {
					newest = r.CheckedAt
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("scan history: %w", err)
	}
	return newest, nil
}

// Prune deletes reports older than maxAge across all URLs and returns the
// number removed.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var doomed [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("probe:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r probe.Report
				if err := json.Unmarshal(val, &r); err != nil {
					// Unreadable entries are pruned too.
					doomed = append(doomed, it.Item().KeyCopy(nil))
					return nil
				}
				if r.CheckedAt.Before(cutoff) {
					doomed = append(doomed, it.Item().KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan history: %w", err)
	}

	for _, key := range doomed {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			return 0, fmt.Errorf("prune history: %w", err)
		}
	}

	if len(doomed) > 0 {
		s.logger.Info().
			Str("event", "history.pruned").
			Int("removed", len(doomed)).
			Msg("pruned old probe reports")
	}
	return len(doomed), nil
}
