package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

type IdempotencyRecord struct {
	Status     int
	Body       []byte
	CreatedAt  time.Time
	Processing bool
}

type IdempotencyStore interface {
	// GetOrLock returns (record, true) if exists; (nil,false) if newly locked by caller.
	GetOrLock(key string) (*IdempotencyRecord, bool)
	Save(key string, status int, body []byte)
	Unlock(key string)
}

// InMemIdempotencyStore is the default when Redis is not configured.
type InMemIdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]*IdempotencyRecord // key: actor ID + ":" + idempotency key
}

func NewInMemIdempotencyStore() *InMemIdempotencyStore {
	return &InMemIdempotencyStore{
		records: make(map[string]*IdempotencyRecord),
	}
}

// GetOrLock returns the stored record when the key was seen before. A miss
// locks the key for the caller, so concurrent duplicates observe Processing.
func (s *InMemIdempotencyStore) GetOrLock(key string) (*IdempotencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok {
		return rec, true
	}

	s.records[key] = &IdempotencyRecord{
		Processing: true,
		CreatedAt:  time.Now(),
	}
	return nil, false
}

func (s *InMemIdempotencyStore) Save(key string, status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = &IdempotencyRecord{
		Status:     status,
		Body:       body,
		CreatedAt:  time.Now(),
		Processing: false,
	}
}

func (s *InMemIdempotencyStore) Unlock(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// IdempotencyMiddleware replays the cached response for a repeated
// X-Idempotency-Key instead of re-executing the handler. Must run after auth.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if idemKey == "" {
			c.Next()
			return
		}

		actor := Actor(c)
		if actor == nil {
			c.Next()
			return
		}

		fullKey := actor.ID + ":" + idemKey

		record, hit := store.GetOrLock(fullKey)
		if hit {
			if record.Processing {
				c.JSON(http.StatusConflict, gin.H{"error": "request in progress"})
				c.Abort()
				return
			}
			c.Data(record.Status, "application/json; charset=utf-8", record.Body)
			c.Abort()
			return
		}

		w := &responseBodyWriter{body: nil, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// 5xx responses unlock without saving so the caller may retry.
		if c.Writer.Status() < 500 {
			store.Save(fullKey, c.Writer.Status(), w.body)
		} else {
			store.Unlock(fullKey)
		}
	}
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}
