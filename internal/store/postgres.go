package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// PostgresStore is the shared-database backend, for deployments where the
// data directory on one box is not enough.
type PostgresStore struct {
	pool *pgxpool.Pool
	ids  messageIDGen
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperr.Storage("open postgres pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, apperr.Storage("ping postgres", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, apperr.Storage("initialize postgres schema", err)
	}

	var last *int64
	if err := pool.QueryRow(ctx, `SELECT MAX(id) FROM messages`).Scan(&last); err != nil {
		return nil, apperr.Storage("read last message id", err)
	}
	if last != nil {
		s.ids.seed(*last)
	}

	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL DEFAULT '',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		avatar TEXT NOT NULL DEFAULT '',
		intent TEXT NOT NULL DEFAULT '',
		year TEXT NOT NULL DEFAULT '',
		branch TEXT NOT NULL DEFAULT '',
		courses TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS listings (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		urgency TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		availability TEXT NOT NULL DEFAULT '',
		images TEXT NOT NULL DEFAULT '[]',
		seller_id BIGINT NOT NULL,
		seller_name TEXT NOT NULL DEFAULT '',
		seller_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		seller_avatar TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		posted_date TEXT NOT NULL DEFAULT '',
		related_courses TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGINT PRIMARY KEY,
		sender_id BIGINT NOT NULL,
		receiver_id BIGINT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- User directory ---

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	courses, err := encodeList(u.Courses)
	if err != nil {
		return nil, apperr.Storage("encode courses", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password, rating, avatar, intent, year, branch, courses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, u.Name, u.Email, u.Password, u.Rating, u.Avatar, u.Intent, u.Year, u.Branch, courses).Scan(&id)
	if err != nil {
		return nil, apperr.Storage("insert user", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.queryUser(ctx, `
		SELECT id, name, email, password, rating, avatar, intent, year, branch, courses
		FROM users WHERE id = $1
	`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.queryUser(ctx, `
		SELECT id, name, email, password, rating, avatar, intent, year, branch, courses
		FROM users WHERE lower(email) = lower($1)
	`, email)
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, apperr.Storage("count users", err)
	}
	return count, nil
}

func (s *PostgresStore) queryUser(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	var courses string
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email,
		&u.Password, &u.Rating, &u.Avatar, &u.Intent, &u.Year, &u.Branch, &courses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	images, err := encodeList(l.Images)
	if err != nil {
		return nil, apperr.Storage("encode images", err)
	}
	courses, err := encodeList(l.RelatedCourses)
	if err != nil {
		return nil, apperr.Storage("encode related courses", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO listings (title, description, price, category, type, urgency,
			location, availability, images, seller_id, seller_name, seller_rating,
			seller_avatar, status, posted_date, related_courses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, l.Title, l.Description, l.Price, l.Category, l.Type, l.Urgency,
		l.Location, l.Availability, images, l.SellerID, l.SellerName,
		l.SellerRating, l.SellerAvatar, l.Status, l.PostedDate, courses).Scan(&id)
	if err != nil {
		return nil, apperr.Storage("insert listing", err)
	}
	return s.GetListing(ctx, id)
}

func (s *PostgresStore) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err != nil {
		return nil, apperr.Storage("query listing", err)
	}
	defer rows.Close()

	listings, err := scanPgListings(rows)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, nil
	}
	return &listings[0], nil
}

func (s *PostgresStore) ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE TRUE`
	var args []any
	if f.Category != "" && f.Category != "All" {
		args = append(args, f.Category)
		query += ` AND category = $1`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (title ILIKE $` + n + ` OR description ILIKE $` + n + `)`
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("query listings", err)
	}
	defer rows.Close()
	return scanPgListings(rows)
}

func (s *PostgresStore) ListingsBySeller(ctx context.Context, sellerID int64) ([]models.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE seller_id = $1 ORDER BY id`, sellerID)
	if err != nil {
		return nil, apperr.Storage("query seller listings", err)
	}
	defer rows.Close()
	return scanPgListings(rows)
}

func scanPgListings(rows pgx.Rows) ([]models.Listing, error) {
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

func (s *PostgresStore) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	now := time.Now().UTC()
	m.ID = s.ids.next(now)
	m.Timestamp = now
	m.Read = false

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, body, created_at, read)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`, m.ID, m.SenderID, m.ReceiverID, m.Body, m.Timestamp)
	if err != nil {
		return nil, apperr.Storage("insert message", err)
	}
	stored := *m
	return &stored, nil
}

func (s *PostgresStore) ConversationBetween(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, created_at, read
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY id
	`, userA, userB)
	if err != nil {
		return nil, apperr.Storage("query conversation", err)
	}
	defer rows.Close()
	return scanPgMessages(rows)
}

func (s *PostgresStore) MessagesInvolving(ctx context.Context, userID int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, created_at, read
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, apperr.Storage("query messages", err)
	}
	defer rows.Close()
	return scanPgMessages(rows)
}

func scanPgMessages(rows pgx.Rows) ([]models.Message, error) {
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
