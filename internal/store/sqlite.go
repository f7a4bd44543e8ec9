package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// SQLiteStore is the single-file database backend.
type SQLiteStore struct {
	db  *sql.DB
	ids messageIDGen
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/campusconnect.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/campusconnect.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Storage("create database directory", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, apperr.Storage("open sqlite database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, apperr.Storage("ping sqlite database", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, apperr.Storage("initialize sqlite schema", err)
	}

	var last sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(id) FROM messages`).Scan(&last); err != nil {
		return nil, apperr.Storage("read last message id", err)
	}
	s.ids.seed(last.Int64)

	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 0,
		avatar TEXT NOT NULL DEFAULT '',
		intent TEXT NOT NULL DEFAULT '',
		year TEXT NOT NULL DEFAULT '',
		branch TEXT NOT NULL DEFAULT '',
		courses TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		urgency TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		availability TEXT NOT NULL DEFAULT '',
		images TEXT NOT NULL DEFAULT '[]',
		seller_id INTEGER NOT NULL,
		seller_name TEXT NOT NULL DEFAULT '',
		seller_rating REAL NOT NULL DEFAULT 0,
		seller_avatar TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		posted_date TEXT NOT NULL DEFAULT '',
		related_courses TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY,
		sender_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		read INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- User directory ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	courses, err := encodeList(u.Courses)
	if err != nil {
		return nil, apperr.Storage("encode courses", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password, rating, avatar, intent, year, branch, courses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.Name, u.Email, u.Password, u.Rating, u.Avatar, u.Intent, u.Year, u.Branch, courses)
	if err != nil {
		return nil, apperr.Storage("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Storage("read inserted user id", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, rating, avatar, intent, year, branch, courses
		FROM users WHERE id = ?
	`, id))
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, rating, avatar, intent, year, branch, courses
		FROM users WHERE lower(email) = lower(?)
	`, email))
}

func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, apperr.Storage("count users", err)
	}
	return count, nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var courses string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Rating,
		&u.Avatar, &u.Intent, &u.Year, &u.Branch, &courses)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storage("query user", err)
	}
	if u.Courses, err = decodeList(courses); err != nil {
		return nil, apperr.Storage("decode courses", err)
	}
	return u, nil
}

// --- Listings ---

const listingColumns = `id, title, description, price, category, type, urgency,
	location, availability, images, seller_id, seller_name, seller_rating,
	seller_avatar, status, posted_date, related_courses`

func (s *SQLiteStore) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	images, err := encodeList(l.Images)
	if err != nil {
		return nil, apperr.Storage("encode images", err)
	}
	courses, err := encodeList(l.RelatedCourses)
	if err != nil {
		return nil, apperr.Storage("encode related courses", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (title, description, price, category, type, urgency,
			location, availability, images, seller_id, seller_name, seller_rating,
			seller_avatar, status, posted_date, related_courses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.Title, l.Description, l.Price, l.Category, l.Type, l.Urgency,
		l.Location, l.Availability, images, l.SellerID, l.SellerName,
		l.SellerRating, l.SellerAvatar, l.Status, l.PostedDate, courses)
	if err != nil {
		return nil, apperr.Storage("insert listing", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Storage("read inserted listing id", err)
	}
	return s.GetListing(ctx, id)
}

func (s *SQLiteStore) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	if err != nil {
		return nil, apperr.Storage("query listing", err)
	}
	defer rows.Close()

	listings, err := scanListings(rows)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, nil
	}
	return &listings[0], nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE 1=1`
	var args []any
	if f.Category != "" && f.Category != "All" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Search != "" {
		query += ` AND (instr(lower(title), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0)`
		args = append(args, f.Search, f.Search)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("query listings", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

func (s *SQLiteStore) ListingsBySeller(ctx context.Context, sellerID int64) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE seller_id = ? ORDER BY id`, sellerID)
	if err != nil {
		return nil, apperr.Storage("query seller listings", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

func scanListings(rows *sql.Rows) ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	for rows.Next() {
		var (
			l       models.Listing
			images  string
			courses string
		)
		err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Price, &l.Category,
			&l.Type, &l.Urgency, &l.Location, &l.Availability, &images,
			&l.SellerID, &l.SellerName, &l.SellerRating, &l.SellerAvatar,
			&l.Status, &l.PostedDate, &courses)
		if err != nil {
			return nil, apperr.Storage("scan listing", err)
		}
		if l.Images, err = decodeList(images); err != nil {
			return nil, apperr.Storage("decode images", err)
		}
		if l.RelatedCourses, err = decodeList(courses); err != nil {
			return nil, apperr.Storage("decode related courses", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate listings", err)
	}
	return listings, nil
}

// --- Message log ---

func (s *SQLiteStore) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	now := time.Now().UTC()
	m.ID = s.ids.next(now)
	m.Timestamp = now
	m.Read = false

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, body, created_at, read)
		VALUES (?, ?, ?, ?, ?, 0)
	`, m.ID, m.SenderID, m.ReceiverID, m.Body, m.Timestamp)
	if err != nil {
		return nil, apperr.Storage("insert message", err)
	}
	stored := *m
	return &stored, nil
}

func (s *SQLiteStore) ConversationBetween(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, body, created_at, read
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY id
	`, userA, userB, userB, userA)
	if err != nil {
		return nil, apperr.Storage("query conversation", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (s *SQLiteStore) MessagesInvolving(ctx context.Context, userID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, body, created_at, read
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY id
	`, userID, userID)
	if err != nil {
		return nil, apperr.Storage("query messages", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Timestamp, &m.Read); err != nil {
			return nil, apperr.Storage("scan message", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate messages", err)
	}
	return msgs, nil
}

// encodeList stores string slices as JSON text columns.
func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	return string(raw), err
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}
