package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edanalytica/gradelens-backend/internal/config"
)

// GenerationFunc reports the current dataset generation. Cache keys embed it,
// so a dataset reload orphans every previously cached response at once.
type GenerationFunc func() uint64

type cacheWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *cacheWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves repeated dashboard queries from Redis. Every request
// that determines a response identically (method, path, query, body) shares
// one key; only status-200 JSON is stored. A nil client disables the cache.
func ResponseCache(rdb *redis.Client, generation GenerationFunc, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	cacheLog := log.With().Str("component", "response_cache").Logger()

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		digest, err := requestDigest(c)
		if err != nil {
			c.Next()
			return
		}
		key := config.CacheKey.AggregateKey(generation(), digest)

		if cached, err := rdb.Get(c.Request.Context(), key).Bytes(); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}

		w := &cacheWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() != http.StatusOK || w.body.Len() == 0 {
			return
		}
		if err := rdb.Set(c.Request.Context(), key, w.body.Bytes(), ttl).Err(); err != nil {
			cacheLog.Warn().Err(err).Msg("Failed to store cached response")
		}
	}
}

// requestDigest hashes everything that determines the response: method, path,
// sorted query parameters, and the body, which is restored for the handler.
func requestDigest(c *gin.Context) (string, error) {
	h := sha256.New()
	io.WriteString(h, c.Request.Method)
	io.WriteString(h, " ")
	io.WriteString(h, c.Request.URL.Path)
	io.WriteString(h, "?")

	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range query[k] {
			io.WriteString(h, k)
			io.WriteString(h, "=")
			io.WriteString(h, v)
			io.WriteString(h, "&")
		}
	}

	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		h.Write(body)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
