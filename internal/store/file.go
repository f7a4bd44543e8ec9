package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/models"
)

const (
	usersFile      = "users.json"
	listingsFile   = "listings.json"
	messagesLog    = "messages.jsonl"
	legacyMessages = "messages.json"
)

// FileStore is the default backend: flat JSON files in a data directory,
// compatible with the legacy layout. Users and listings are small and
// low-write, so they keep the rewrite-the-whole-array model (atomically, via
// rename). Messages are the hot path and live in an append-only JSONL log
// with an in-memory replica for reads; a legacy messages.json array is
// imported once on first open.
type FileStore struct {
	dir string

	mu       sync.Mutex
	log      *os.File
	messages []models.Message
	ids      messageIDGen
}

// NewFileStore opens (creating if needed) the data directory and message log.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Storage("create data directory", err)
	}

	s := &FileStore{dir: dir}
	if err := s.importLegacyLog(); err != nil {
		return nil, err
	}
	if err := s.loadMessages(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(s.path(messagesLog), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperr.Storage("open message log", err)
	}
	s.log = f

	if n := len(s.messages); n > 0 {
		s.ids.seed(s.messages[n-1].ID)
	}
	return s, nil
}

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name) }

// importLegacyLog converts a messages.json array into the JSONL log, once.
func (s *FileStore) importLegacyLog() error {
	if _, err := os.Stat(s.path(messagesLog)); err == nil {
		return nil
	}
	raw, err := os.ReadFile(s.path(legacyMessages))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Storage("read legacy message file", err)
	}

	var msgs []models.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return apperr.Storage("parse legacy message file", err)
	}

	var b strings.Builder
	for _, m := range msgs {
		line, err := json.Marshal(m)
		if err != nil {
			return apperr.Storage("encode legacy message", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(s.path(messagesLog), []byte(b.String())); err != nil {
		return apperr.Storage("write message log", err)
	}
	return nil
}

func (s *FileStore) loadMessages() error {
	f, err := os.Open(s.path(messagesLog))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Storage("open message log", err)
	}
	defer f.Close()

	var (
		msgs    []models.Message
		pending error
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// A decode failure anywhere but the final line is corruption; a
		// torn final line is an interrupted append and gets dropped.
		if pending != nil {
			return apperr.Storage("corrupt message log", pending)
		}
		var m models.Message
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			pending = err
			continue
		}
		msgs = append(msgs, m)
	}
	if err := sc.Err(); err != nil {
		return apperr.Storage("read message log", err)
	}
	s.messages = msgs
	return nil
}

func (s *FileStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log != nil {
		s.log.Close()
		s.log = nil
	}
}

func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return apperr.Storage("data directory unavailable", err)
	}
	return nil
}

// --- User directory ---

func (s *FileStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	if u.ID == 0 {
		u.ID = nextIntID(len(users), func(i int) int64 { return users[i].ID })
	}
	if u.Courses == nil {
		u.Courses = []string{}
	}
	users = append(users, *u)
	if err := s.writeJSON(usersFile, users); err != nil {
		return nil, err
	}
	stored := *u
	return &stored, nil
}

func (s *FileStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	users, err := s.readUsersLocked()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.readUsersLocked()
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(email)
	for i := range users {
		if strings.ToLower(users[i].Email) == email {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *FileStore) CountUsers(ctx context.Context) (int64, error) {
	users, err := s.readUsersLocked()
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

// --- Listings ---

func (s *FileStore) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := s.readListings()
	if err != nil {
		return nil, err
	}
	if l.ID == 0 {
		l.ID = nextIntID(len(listings), func(i int) int64 { return listings[i].ID })
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	listings = append(listings, *l)
	if err := s.writeJSON(listingsFile, listings); err != nil {
		return nil, err
	}
	stored := *l
	return &stored, nil
}

func (s *FileStore) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	listings, err := s.readListingsLocked()
	if err != nil {
		return nil, err
	}
	for i := range listings {
		if listings[i].ID == id {
			l := listings[i]
			return &l, nil
		}
	}
	return nil, nil
}

func (s *FileStore) ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	listings, err := s.readListingsLocked()
	if err != nil {
		return nil, err
	}
	out := make([]models.Listing, 0, len(listings))
	for i := range listings {
		if matchListing(&listings[i], f) {
			out = append(out, listings[i])
		}
	}
	return out, nil
}

func (s *FileStore) ListingsBySeller(ctx context.Context, sellerID int64) ([]models.Listing, error) {
	listings, err := s.readListingsLocked()
	if err != nil {
		return nil, err
	}
	out := make([]models.Listing, 0)
	for i := range listings {
		if listings[i].SellerID == sellerID {
			out = append(out, listings[i])
		}
	}
	return out, nil
}

// --- Message log ---

func (s *FileStore) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.log == nil {
		return nil, apperr.Storage("message log closed", nil)
	}

	now := time.Now().UTC()
	m.ID = s.ids.next(now)
	m.Timestamp = now
	m.Read = false

	line, err := json.Marshal(m)
	if err != nil {
		return nil, apperr.Storage("encode message", err)
	}
	if _, err := s.log.Write(append(line, '\n')); err != nil {
		return nil, apperr.Storage("append message", err)
	}
	if err := s.log.Sync(); err != nil {
		return nil, apperr.Storage("sync message log", err)
	}

	s.messages = append(s.messages, *m)
	stored := *m
	return &stored, nil
}

func (s *FileStore) ConversationBetween(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, 0)
	for i := range s.messages {
		if involvesPair(&s.messages[i], userA, userB) {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

func (s *FileStore) MessagesInvolving(ctx context.Context, userID int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, 0)
	for i := range s.messages {
		if s.messages[i].SenderID == userID || s.messages[i].ReceiverID == userID {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

// --- helpers ---

func (s *FileStore) readUsersLocked() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUsers()
}

func (s *FileStore) readUsers() ([]models.User, error) {
	var users []models.User
	if err := s.readJSON(usersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FileStore) readListingsLocked() ([]models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readListings()
}

func (s *FileStore) readListings() ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.readJSON(listingsFile, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *FileStore) readJSON(name string, v any) error {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Storage("read "+name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Storage("parse "+name, err)
	}
	return nil
}

func (s *FileStore) writeJSON(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Storage("encode "+name, err)
	}
	if err := writeFileAtomic(s.path(name), raw); err != nil {
		return apperr.Storage("write "+name, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// nextIntID mirrors the legacy id scheme: one past the highest existing id.
func nextIntID(n int, idAt func(int) int64) int64 {
	var max int64
	for i := 0; i < n; i++ {
		if id := idAt(i); id > max {
			max = id
		}
	}
	return max + 1
}
