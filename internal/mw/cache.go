package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache is an in-memory cache of GET responses that successful
// writes flush. A generation counter, bumped on every flush, keeps a read
// that started before a flush from storing its now stale body.
type ResponseCache struct {
	store *cache.Cache

	mu         sync.Mutex
	generation uint64
}

// NewResponseCache creates an empty response cache.
func NewResponseCache(defaultExpiration, cleanupInterval time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(defaultExpiration, cleanupInterval)}
}

// Len returns the number of cached responses.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

func (rc *ResponseCache) currentGeneration() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.generation
}

// setIfCurrent stores the response unless a flush happened since gen was read.
func (rc *ResponseCache) setIfCurrent(gen uint64, key string, response cachedResponse, duration time.Duration) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.generation != gen {
		return false
	}
	rc.store.Set(key, response, duration)
	return true
}

func (rc *ResponseCache) flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.generation++
	rc.store.Flush()
}

// Cache is a middleware for in-memory caching of GET requests. A zero
// duration disables it. Pair it with Invalidate so that reads never
// outlive a successful write.
func (rc *ResponseCache) Cache(duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if duration <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.currentGeneration()
		c.Writer.Header().Set(CacheHeader, "MISS")
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			response := cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}
			response.headers.Del(CacheHeader)
			rc.setIfCurrent(gen, key, response, duration)
		}
	}
}

// Invalidate flushes the cache after every successful non-GET request.
func (rc *ResponseCache) Invalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() < http.StatusBadRequest {
			rc.flush()
		}
	}
}
