// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/traylinx/truthscore/internal/config"
	"github.com/traylinx/truthscore/internal/logging"
	"github.com/traylinx/truthscore/internal/util"
)

// corsMiddleware allows the configured browser origins to call the API.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "If-None-Match", logging.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "ETag", logging.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowOrigins = nil
			break
		}
		c.AllowOrigins = append(c.AllowOrigins, o)
	}
	if !c.AllowAllOrigins && len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	}
	return cors.New(c)
}

// clientLimiter holds one token bucket per client address. Idle buckets are
// evicted after limiterIdleTTL.
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*limiterEntry
	lastGC  time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	return &clientLimiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		clients: make(map[string]*limiterEntry),
		lastGC:  time.Now(),
	}
}

func (l *clientLimiter) allow(client string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > limiterIdleTTL {
		for k, e := range l.clients {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastGC = now
	}

	e, ok := l.clients[client]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// rateLimitMiddleware rejects requests beyond the per-client budget with 429.
// A non-positive rate disables limiting.
func rateLimitMiddleware(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newClientLimiter(cfg)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			logging.FromContext(c).Warn("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many verification requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}

// localOnly restricts a route to direct loopback clients. State Box details
// include filesystem paths.
func localOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !util.IsLocalhostDirect(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "available from localhost only"})
			return
		}
		c.Next()
	}
}
