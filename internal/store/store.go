// Package store implements the durable, collection-keyed offline store
// backing write-behind persistence of domain records.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	bolt "go.etcd.io/bbolt"
)

// ErrUnsupported is returned when durable storage is absent. Writes must
// fail fast and explicitly, never drop data silently.
var ErrUnsupported = errors.New("durable storage unsupported")

// gzip kicks in for encoded records above this size. Ad payloads carry
// base64 photo blobs that compress well.
const compressThreshold = 4 * 1024

// Value framing: one flag byte ahead of the sonic-encoded record.
const (
	framePlain byte = 0x00
	frameGzip  byte = 0x01
)

// Record is one locally persisted write awaiting replay. Records are
// never mutated after creation except the Synced flag.
type Record struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Payload    map[string]interface{} `json:"payload"`
	Timestamp  int64                  `json:"timestamp"`
	Synced     bool                   `json:"synced"`
}

// Store is a bbolt-backed offline store with one bucket per collection.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path and pre-creates buckets for
// the given collections. Further collections are created lazily on
// first write.
func Open(path string, collections []string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open offline store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, c := range collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(c)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put appends a new unsynced record to the collection. The record is
// durable on disk before Put returns.
func (s *Store) Put(collection string, payload map[string]interface{}) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnsupported
	}
	if collection == "" {
		return nil, errors.New("collection name required")
	}

	rec := &Record{
		ID:         uuid.New().String(),
		Collection: collection,
		Payload:    payload,
		Timestamp:  time.Now().UnixMilli(),
		Synced:     false,
	}

	value, err := encode(rec)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return b.Put(key(rec), value)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store offline record: %w", err)
	}
	return rec, nil
}

// Unsynced returns the collection's records still awaiting replay, in
// write order.
func (s *Store) Unsynced(collection string) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnsupported
	}

	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			rec, err := decode(v)
			if err != nil {
				return err
			}
			if !rec.Synced {
				out = append(out, *rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSynced flips the Synced flag on the given records. This is the
// single permitted in-place mutation.
func (s *Store) MarkSynced(collection string, ids []string) error {
	if s == nil || s.db == nil {
		return ErrUnsupported
	}
	if len(ids) == 0 {
		return nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			rec, err := decode(v)
			if err != nil {
				return err
			}
			if !wanted[rec.ID] || rec.Synced {
				continue
			}
			rec.Synced = true
			value, err := encode(rec)
			if err != nil {
				return err
			}
			if err := b.Put(k, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Collections lists every bucket currently present.
func (s *Store) Collections() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnsupported
	}

	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			out = append(out, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// key orders records by write time within a bucket; the UUID suffix
// disambiguates same-millisecond writes.
func key(rec *Record) []byte {
	return []byte(fmt.Sprintf("%013d-%s", rec.Timestamp, rec.ID))
}

func encode(rec *Record) ([]byte, error) {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	if len(data) < compressThreshold {
		return append([]byte{framePlain}, data...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(frameGzip)
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(value []byte) (*Record, error) {
	if len(value) < 2 {
		return nil, errors.New("truncated record")
	}
	frame, data := value[0], value[1:]

	if frame == frameGzip {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, err
		}
	}

	var rec Record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}
