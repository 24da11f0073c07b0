// Package ledger keeps a local record of every verdict the rollup reported
// and serves it over HTTP.
package ledger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	recordsBucket  = "verdicts"
	metaBucket     = "metadata"
	lastInputIndex = "last_input_index"
	acceptedTotal  = "accepted_total"
	rejectedTotal  = "rejected_total"

	statusAccept = "accept"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("verdict not found")

// Record is one handled coordinator request.
type Record struct {
	Sequence    uint64    `json:"sequence"`
	RequestType string    `json:"request_type"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	InputIndex  *uint64   `json:"input_index,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Summary is the ledger's running state.
type Summary struct {
	Accepted       uint64  `json:"accepted"`
	Rejected       uint64  `json:"rejected"`
	LastInputIndex *uint64 `json:"last_input_index,omitempty"`
}

// Store is a bbolt-backed verdict ledger.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open ledger: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(recordsBucket)); err != nil {
			return fmt.Errorf("could not create verdicts bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return fmt.Errorf("could not create metadata bucket: %w", err)
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
	return s.db.Close()
}

// Append assigns rec the next sequence number and stores it, updating the
// running totals in the same transaction.
func (s *Store) Append(rec *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(recordsBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.Sequence = seq

		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		if err := b.Put(sequenceKey(seq), value); err != nil {
			return err
		}

		meta := tx.Bucket([]byte(metaBucket))
		counter := rejectedTotal
		if rec.Status == statusAccept {
			counter = acceptedTotal
		}
		if err := increment(meta, counter); err != nil {
			return err
		}
		if rec.InputIndex != nil {
			return meta.Put([]byte(lastInputIndex), []byte(strconv.FormatUint(*rec.InputIndex, 10)))
		}
		return nil
	})
}

// Get returns the record with the given sequence number.
func (s *Store) Get(seq uint64) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(recordsBucket)).Get(sequenceKey(seq))
		if v == nil {
			return ErrNotFound
		}
		var err error
		rec, err = decodeRecord(v)
		return err
	})
	return rec, err
}

// Latest returns the most recently appended record.
func (s *Store) Latest() (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket([]byte(recordsBucket)).Cursor().Last()
		if v == nil {
			return ErrNotFound
		}
		var err error
		rec, err = decodeRecord(v)
		return err
	})
	return rec, err
}

// Summary returns the running totals.
func (s *Store) Summary() (Summary, error) {
	var sum Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))

		var err error
		if sum.Accepted, err = counterValue(meta, acceptedTotal); err != nil {
			return err
		}
		if sum.Rejected, err = counterValue(meta, rejectedTotal); err != nil {
			return err
		}

		v := meta.Get([]byte(lastInputIndex))
		if v == nil {
			return nil
		}
		index, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid last input index: %w", err)
		}
		sum.LastInputIndex = &index
		return nil
	})
	return sum, err
}

// sequenceKey is big-endian so that cursor order matches append order.
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func decodeRecord(v []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return &rec, nil
}

func counterValue(b *bolt.Bucket, key string) (uint64, error) {
	v := b.Get([]byte(key))
	if v == nil {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func increment(b *bolt.Bucket, key string) error {
	n, err := counterValue(b, key)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), []byte(strconv.FormatUint(n+1, 10)))
}
