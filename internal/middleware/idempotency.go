package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 10 * time.Minute
	idempotencyPrefix = "idempotency:"
	idempotencyLock   = 30 * time.Second
)

// ErrNoResponse is returned by a ResponseStore when nothing is cached.
var ErrNoResponse = errors.New("no cached response")

// ResponseStore keeps replayable responses keyed by idempotency key.
type ResponseStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type RedisResponseStore struct {
	redis *redis.Client
}

func NewRedisResponseStore(redisClient *redis.Client) *RedisResponseStore {
	return &RedisResponseStore{redis: redisClient}
}

func (s *RedisResponseStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoResponse
	}
	return data, err
}

func (s *RedisResponseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.redis.Set(ctx, key, value, ttl).Err()
}

func (s *RedisResponseStore) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, key, "1", ttl).Result()
}

func (s *RedisResponseStore) Unlock(ctx context.Context, key string) error {
	return s.redis.Del(ctx, key).Err()
}

// IdempotencyMiddleware replays the first response to a retried booking
// request instead of fetching the ride again.
type IdempotencyMiddleware struct {
	store  ResponseStore
	logger *slog.Logger
}

type cachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
	BodyHash   string `json:"body_hash"`
}

func NewIdempotencyMiddleware(store ResponseStore, logger *slog.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store, logger: logger}
}

// responseWriter captures the response for caching
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		idempotencyKey := r.Header.Get(IdempotencyHeader)
		if idempotencyKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			utils.BadRequest(w, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		// Keys are scoped to the path so one key cannot replay another ride's booking.
		bodyHash := hashBody(r.URL.Path, bodyBytes)
		cacheKey := idempotencyPrefix + idempotencyKey
		ctx := r.Context()

		data, err := m.store.Get(ctx, cacheKey)
		switch {
		case err == nil:
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				if cached.BodyHash != bodyHash {
					utils.Error(w, apperrors.Conflict("idempotency key already used with a different request"))
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(cached.StatusCode)
				w.Write(cached.Body)
				return
			}
		case !errors.Is(err, ErrNoResponse):
			m.logger.Warn("idempotency lookup failed", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := m.store.Lock(ctx, lockKey, idempotencyLock)
		if err != nil {
			m.logger.Warn("idempotency lock failed", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}
		if !locked {
			utils.Error(w, apperrors.Conflict("a request with this idempotency key is already being processed"))
			return
		}
		defer m.store.Unlock(context.WithoutCancel(ctx), lockKey)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 200 && rw.statusCode < 300 {
			data, _ := json.Marshal(cachedResponse{
				StatusCode: rw.statusCode,
				Body:       rw.body.Bytes(),
				BodyHash:   bodyHash,
			})
			if err := m.store.Set(context.WithoutCancel(ctx), cacheKey, data, idempotencyTTL); err != nil {
				m.logger.Warn("failed to cache idempotent response", slog.String("error", err.Error()))
			}
		}
	})
}

func hashBody(path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
