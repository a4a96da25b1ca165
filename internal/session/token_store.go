package session

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "session:token:"

// TokenStore persists the access token across restarts. Load returns ""
// when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// FileTokenStore keeps the token in a single file with 0600 permissions.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (f *FileTokenStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileTokenStore) Save(_ context.Context, token string) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	// Write then rename so a crash never leaves a truncated token behind.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileTokenStore) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisTokenStore keeps the token under session:token:<key>.
type RedisTokenStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

func NewRedisTokenStore(redisClient *redis.Client, key string, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{redis: redisClient, key: tokenKeyPrefix + key, ttl: ttl}
}

func (r *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := r.redis.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return token, err
}

func (r *RedisTokenStore) Save(ctx context.Context, token string) error {
	return r.redis.Set(ctx, r.key, token, r.ttl).Err()
}

func (r *RedisTokenStore) Clear(ctx context.Context) error {
	return r.redis.Del(ctx, r.key).Err()
}

// PostgresTokenStore keeps one row per session key in client_sessions,
// created by the database migrations.
type PostgresTokenStore struct {
	db  *sqlx.DB
	key string
}

func NewPostgresTokenStore(db *sqlx.DB, key string) *PostgresTokenStore {
	return &PostgresTokenStore{db: db, key: key}
}

func (p *PostgresTokenStore) Load(ctx context.Context) (string, error) {
	var token string
	query := `SELECT access_token FROM client_sessions WHERE session_key = $1`
	err := p.db.GetContext(ctx, &token, query, p.key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return token, err
}

func (p *PostgresTokenStore) Save(ctx context.Context, token string) error {
	query := `
		INSERT INTO client_sessions (session_key, access_token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_key) DO UPDATE
		SET access_token = EXCLUDED.access_token, updated_at = EXCLUDED.updated_at
	`
	_, err := p.db.ExecContext(ctx, query, p.key, token, time.Now())
	return err
}

func (p *PostgresTokenStore) Clear(ctx context.Context) error {
	query := `DELETE FROM client_sessions WHERE session_key = $1`
	_, err := p.db.ExecContext(ctx, query, p.key)
	return err
}

// MemoryTokenStore keeps the token in memory only; sessions do not
// survive a restart.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
