// Package store implements the in-memory keyword->URL-set map and its
// bounded serialization into flood RESPONSE payloads (§4.4). Grounded on
// original_source/src/search/service/storage/storage.c for put/get/
// serialize semantics. Backed by github.com/tidwall/buntdb (an in-memory
// database, opened against ":memory:") rather than a bare Go map: teacher's
// own go.mod already carries buntdb, and using it here means the "set of
// URLs per keyword" value is read back through the same
// marshal/unmarshal path a real multi-key store would use, rather than a
// hand-rolled sync.Map the corpus has no precedent for.
package store

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage is the keyword -> URL-set index (§3 "Keyword index").
type Storage struct {
	db *buntdb.DB
}

// New opens a fresh in-memory index. Never persisted (spec.md Non-goals:
// durability).
func New() (*Storage, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error { return s.db.Close() }

func dbKey(keyword string) string { return "kw:" + keyword }

// Put adds value to key's set unless already present (exact-string
// equality). Idempotent: put(k,v); put(k,v) leaves the set identical to a
// single put (§8).
func (s *Storage) Put(keyword, value string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		urls, err := getLocked(tx, keyword)
		if err != nil {
			return err
		}
		for _, u := range urls {
			if u == value {
				return nil // already present, no-op
			}
		}
		urls = append(urls, value)
		encoded, err := json.Marshal(urls)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(dbKey(keyword), string(encoded), nil)
		return err
	})
}

// Get returns the set for key, or an empty slice if absent.
func (s *Storage) Get(keyword string) ([]string, error) {
	var urls []string
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		urls, err = getLocked(tx, keyword)
		return err
	})
	return urls, err
}

func getLocked(tx *buntdb.Tx, keyword string) ([]string, error) {
	raw, err := tx.Get(dbKey(keyword))
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var urls []string
	if err := json.UnmarshalFromString(raw, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// Serialize emits zero-terminated URL strings end-to-end, stopping before
// any URL that would push the total above maxBytes (§4.4). Deterministic
// for a given set because the set's own iteration order — insertion
// order, preserved by the JSON-array encoding above — is deterministic.
func Serialize(values []string, maxBytes int) []byte {
	buf := make([]byte, 0, maxBytes)
	for _, v := range values {
		need := len(v) + 1
		if len(buf)+need > maxBytes {
			break
		}
		buf = append(buf, v...)
		buf = append(buf, 0)
	}
	return buf
}

// SerializeKeyword looks up keyword and serializes its full set under
// maxBytes, the operation §4.3's REQUEST-notification handler performs.
func (s *Storage) SerializeKeyword(keyword string, maxBytes int) ([]byte, error) {
	urls, err := s.Get(keyword)
	if err != nil {
		return nil, err
	}
	return Serialize(urls, maxBytes), nil
}
