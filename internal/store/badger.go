package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/models"
)

const (
	userPrefix    = "user:"
	listingPrefix = "listing:"
	msgPrefix     = "msg:"
)

// BadgerStore is the embedded transactional KV backend. Message keys embed
// the numeric id zero-padded to 19 digits so lexicographic iteration order
// is append order; users and listings are small JSON values under integer
// keys with linear prefix scans, which is fine at campus scale.
type BadgerStore struct {
	db  *badger.DB
	ids messageIDGen

	mu            sync.Mutex
	nextUserID    int64
	nextListingID int64
}

// NewBadgerStore opens (creating if needed) the badger directory.
// If dbPath is empty, defaults to "./data/badger".
func NewBadgerStore(ctx context.Context, dbPath string) (*BadgerStore, error) {
	if dbPath == "" {
		dbPath = "./data/badger"
	}

	opts := badger.DefaultOptions(dbPath).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperr.Storage("open badger database", err)
	}

	s := &BadgerStore{db: db, nextUserID: 1, nextListingID: 1}
	if err := s.loadCounters(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// loadCounters seeds the id counters from the highest stored keys.
func (s *BadgerStore) loadCounters() error {
	err := s.db.View(func(txn *badger.Txn) error {
		var maxUser, maxListing, maxMsg int64

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			switch {
			case strings.HasPrefix(key, userPrefix):
				if id := parseKeyID(key, userPrefix); id > maxUser {
					maxUser = id
				}
			case strings.HasPrefix(key, listingPrefix):
				if id := parseKeyID(key, listingPrefix); id > maxListing {
					maxListing = id
				}
			case strings.HasPrefix(key, msgPrefix):
				if id := parseKeyID(key, msgPrefix); id > maxMsg {
					maxMsg = id
				}
			}
		}

		s.nextUserID = maxUser + 1
		s.nextListingID = maxListing + 1
		s.ids.seed(maxMsg)
		return nil
	})
	if err != nil {
		return apperr.Storage("scan badger keys", err)
	}
	return nil
}

func parseKeyID(key, prefix string) int64 {
	var id int64
	fmt.Sscanf(key[len(prefix):], "%d", &id)
	return id
}

// Keys zero-pad the id to 19 digits so byte order equals numeric order.
func userKey(id int64) []byte    { return []byte(fmt.Sprintf("%s%019d", userPrefix, id)) }
func listingKey(id int64) []byte { return []byte(fmt.Sprintf("%s%019d", listingPrefix, id)) }
func msgKey(id int64) []byte     { return []byte(fmt.Sprintf("%s%019d", msgPrefix, id)) }

func (s *BadgerStore) Close() {
	s.db.Close()
}

func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return apperr.Storage("badger database closed", nil)
	}
	return nil
}

func (s *BadgerStore) put(key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperr.Storage("encode record", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
	if err != nil {
		return apperr.Storage("write record", err)
	}
	return nil
}

func (s *BadgerStore) get(key []byte, v any) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("read record", err)
	}
	return true, nil
}

// scanPrefix iterates all values under prefix in key order and decodes each
// into a fresh T, invoking fn; fn returning false stops the scan.
func scanPrefix[T any](s *BadgerStore, prefix string, fn func(T) bool) error {
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var v T
			err := it.Item().Value(func(raw []byte) error {
				return json.Unmarshal(raw, &v)
			})
			if err != nil {
				return err
			}
			if !fn(v) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("scan records", err)
	}
	return nil
}

// --- User directory ---

func (s *BadgerStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	if u.ID == 0 {
		u.ID = s.nextUserID
		s.nextUserID++
	} else if u.ID >= s.nextUserID {
		s.nextUserID = u.ID + 1
	}
	s.mu.Unlock()

	if u.Courses == nil {
		u.Courses = []string{}
	}
	if err := s.put(userKey(u.ID), u); err != nil {
		return nil, err
	}
	stored := *u
	return &stored, nil
}

func (s *BadgerStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	found, err := s.get(userKey(id), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *BadgerStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	var match *models.User
	err := scanPrefix(s, userPrefix, func(u models.User) bool {
		if strings.ToLower(u.Email) == email {
			match = &u
			return false
		}
		return true
	})
	return match, err
}

func (s *BadgerStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := scanPrefix(s, userPrefix, func(models.User) bool {
		count++
		return true
	})
	return count, err
}

// --- Listings ---

func (s *BadgerStore) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	s.mu.Lock()
	if l.ID == 0 {
		l.ID = s.nextListingID
		s.nextListingID++
	} else if l.ID >= s.nextListingID {
		s.nextListingID = l.ID + 1
	}
	s.mu.Unlock()

	if l.Images == nil {
		l.Images = []string{}
	}
	if err := s.put(listingKey(l.ID), l); err != nil {
		return nil, err
	}
	stored := *l
	return &stored, nil
}

func (s *BadgerStore) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var l models.Listing
	found, err := s.get(listingKey(id), &l)
	if err != nil || !found {
		return nil, err
	}
	return &l, nil
}

func (s *BadgerStore) ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	out := make([]models.Listing, 0)
	err := scanPrefix(s, listingPrefix, func(l models.Listing) bool {
		if matchListing(&l, f) {
			out = append(out, l)
		}
		return true
	})
	return out, err
}

func (s *BadgerStore) ListingsBySeller(ctx context.Context, sellerID int64) ([]models.Listing, error) {
	out := make([]models.Listing, 0)
	err := scanPrefix(s, listingPrefix, func(l models.Listing) bool {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
		return true
	})
	return out, err
}

// --- Message log ---

func (s *BadgerStore) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	now := time.Now().UTC()
	m.ID = s.ids.next(now)
	m.Timestamp = now
	m.Read = false

	if err := s.put(msgKey(m.ID), m); err != nil {
		return nil, err
	}
	stored := *m
	return &stored, nil
}

func (s *BadgerStore) ConversationBetween(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	out := make([]models.Message, 0)
	err := scanPrefix(s, msgPrefix, func(m models.Message) bool {
		if involvesPair(&m, userA, userB) {
			out = append(out, m)
		}
		return true
	})
	return out, err
}

func (s *BadgerStore) MessagesInvolving(ctx context.Context, userID int64) ([]models.Message, error) {
	out := make([]models.Message, 0)
	err := scanPrefix(s, msgPrefix, func(m models.Message) bool {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
		return true
	})
	return out, err
}
