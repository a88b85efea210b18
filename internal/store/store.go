// Package store persists parsed and merged signature records in a bbolt
// database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/skdltmxn/gothic-functions/signature"
)

var (
	bucketMerged   = []byte("merged")
	bucketFailures = []byte("failures")
)

// ErrNoVersion indicates a version index outside 1..NumVersions.
var ErrNoVersion = errors.New("store: no such version")

// Failure is a stored parse failure.
type Failure struct {
	Number     int    `json:"number"` // 1-based input line number
	Line       string `json:"line"`
	Diagnostic string `json:"diagnostic"`
}

func failureKey(n int) []byte {
	return []byte(fmt.Sprintf("%010d", n))
}

// Stats summarizes the store contents.
type Stats struct {
	Parsed   [signature.NumVersions]int
	Failures [signature.NumVersions]int
	Merged   int
}

// Store is a bbolt-backed record store.
type Store struct {
	db *bbolt.DB
}

func versionBucket(version int) []byte {
	return []byte("v" + strconv.Itoa(version))
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketMerged, bucketFailures}
		for v := 1; v <= signature.NumVersions; v++ {
			buckets = append(buckets, versionBucket(v))
		}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
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

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func checkVersion(version int) error {
	if version < 1 || version > signature.NumVersions {
		return fmt.Errorf("%w: %d", ErrNoVersion, version)
	}
	return nil
}

// replace empties bucket name and fills it from puts in one transaction.
func (s *Store) replace(name []byte, puts func(b *bbolt.Bucket) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		return puts(b)
	})
}

func putSignatures(b *bbolt.Bucket, sigs []*signature.Signature) error {
	for _, sig := range sigs {
		data, err := json.Marshal(sig)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(sig.Key()), data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) signatures(name []byte) ([]*signature.Signature, error) {
	var sigs []*signature.Signature
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(name).ForEach(func(k, v []byte) error {
			var sig signature.Signature
			if err := json.Unmarshal(v, &sig); err != nil {
				return fmt.Errorf("store: corrupt record %q: %w", k, err)
			}
			sigs = append(sigs, &sig)
			return nil
		})
	})
	return sigs, err
}

// PutParsed replaces the records of one build.
func (s *Store) PutParsed(version int, sigs []*signature.Signature) error {
	if err := checkVersion(version); err != nil {
		return err
	}
	return s.replace(versionBucket(version), func(b *bbolt.Bucket) error {
		return putSignatures(b, sigs)
	})
}

// Parsed returns the records of one build, ordered by key.
func (s *Store) Parsed(version int) ([]*signature.Signature, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	return s.signatures(versionBucket(version))
}

// PutMerged replaces the merged records.
func (s *Store) PutMerged(sigs []*signature.Signature) error {
	return s.replace(bucketMerged, func(b *bbolt.Bucket) error {
		return putSignatures(b, sigs)
	})
}

// Merged returns the merged records, ordered by key.
func (s *Store) Merged() ([]*signature.Signature, error) {
	return s.signatures(bucketMerged)
}

// PutFailures replaces the failures of one build.
func (s *Store) PutFailures(version int, failures []Failure) error {
	if err := checkVersion(version); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		parent := tx.Bucket(bucketFailures)
		name := versionBucket(version)
		if err := parent.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := parent.CreateBucket(name)
		if err != nil {
			return err
		}
		for _, f := range failures {
			data, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := b.Put(failureKey(f.Number), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Failures returns the stored failures of one build, ordered by line number.
func (s *Store) Failures(version int) ([]Failure, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	var failures []Failure
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFailures).Bucket(versionBucket(version))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var f Failure
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("store: corrupt failure %q: %w", k, err)
			}
			failures = append(failures, f)
			return nil
		})
	})
	return failures, err
}

// LookupAddress returns merged records carrying addr in any slot.
func (s *Store) LookupAddress(addr string) ([]*signature.Signature, error) {
	return s.find(func(sig *signature.Signature) bool {
		for _, a := range sig.Addresses {
			if a != "" && strings.EqualFold(a, addr) {
				return true
			}
		}
		return false
	})
}

// LookupName returns merged records whose Class::Name contains query.
func (s *Store) LookupName(query string) ([]*signature.Signature, error) {
	return s.find(func(sig *signature.Signature) bool {
		return strings.Contains(sig.Qualified(), query)
	})
}

func (s *Store) find(match func(*signature.Signature) bool) ([]*signature.Signature, error) {
	all, err := s.Merged()
	if err != nil {
		return nil, err
	}
	var found []*signature.Signature
	for _, sig := range all {
		if match(sig) {
			found = append(found, sig)
		}
	}
	return found, nil
}

// Stats counts the stored records.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		failures := tx.Bucket(bucketFailures)
		for v := 1; v <= signature.NumVersions; v++ {
			st.Parsed[v-1] = tx.Bucket(versionBucket(v)).Stats().KeyN
			if b := failures.Bucket(versionBucket(v)); b != nil {
				st.Failures[v-1] = b.Stats().KeyN
			}
		}
		st.Merged = tx.Bucket(bucketMerged).Stats().KeyN
		return nil
	})
	return st, err
}

// Clear removes every stored record.
func (s *Store) Clear() error {
	err := s.PutMerged(nil)
	if err != nil {
		return err
	}
	for v := 1; v <= signature.NumVersions; v++ {
		if err := s.PutParsed(v, nil); err != nil {
			return err
		}
		if err := s.PutFailures(v, nil); err != nil {
			return err
		}
	}
	return nil
}
