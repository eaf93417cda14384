// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDKey is the gin context key and log field carrying the request id.
const RequestIDKey = "request_id"

// RequestIDHeader is echoed back to clients so UI errors can be correlated with logs.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a short request id and writes one access line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.New().String()[:8]
		}
		c.Set(RequestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)

		c.Next()

		entry := log.WithFields(log.Fields{
			RequestIDKey: reqID,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Round(time.Millisecond),
			"client":     c.ClientIP(),
		})
		msg := c.Request.Method + " " + c.Request.URL.Path
		switch {
		case c.Writer.Status() >= 500:
			entry.Error(msg)
		case c.Writer.Status() >= 400:
			entry.Warn(msg)
		default:
			entry.Info(msg)
		}
	}
}

// FromContext returns a log entry tagged with the request id stored on c, if any.
func FromContext(c *gin.Context) *log.Entry {
	if c == nil {
		return log.NewEntry(log.StandardLogger())
	}
	if id, ok := c.Get(RequestIDKey); ok {
		return log.WithField(RequestIDKey, id)
	}
	return log.NewEntry(log.StandardLogger())
}
