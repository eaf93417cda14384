// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/traylinx/truthscore/internal/buildinfo"
	"github.com/traylinx/truthscore/internal/ledger"
	"github.com/traylinx/truthscore/internal/logging"
	"github.com/traylinx/truthscore/internal/verify"
)

// genericFailure is the only message shown for unexpected failures.
const genericFailure = "Verification failed. Please try again later"

// NewsRequest is the body of POST /api/verify/news.
type NewsRequest struct {
	Content string `json:"content"`
	// Type is "text" (default) or "url".
	Type string `json:"type"`
}

// WebsiteRequest is the body of POST /api/verify/website.
type WebsiteRequest struct {
	URL string `json:"url"`
}

// CompanyRequest is the body of POST /api/verify/company.
type CompanyRequest struct {
	Name string `json:"name"`
}

// VerdictResponse is returned by the news and website endpoints.
type VerdictResponse struct {
	Result  ledger.Record `json:"result"`
	Awarded int           `json:"awarded"`
	Ledger  ledger.Ledger `json:"ledger"`
}

// CompanyResponse is returned by the company endpoint.
type CompanyResponse struct {
	IsLegitimate       bool      `json:"isLegitimate"`
	CompanyName        string    `json:"companyName"`
	RegistrationNumber string    `json:"registrationNumber,omitempty"`
	Status             string    `json:"status"`
	Details            string    `json:"details"`
	Timestamp          time.Time `json:"timestamp"`
}

// detached keeps an evaluation running after the client goes away so its
// verdict is always committed.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (s *Server) respondError(c *gin.Context, err error) {
	if verify.IsClientError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logging.FromContext(c).Errorf("verification failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": genericFailure})
}

func (s *Server) verifyNews(c *gin.Context) {
	var req NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Type != "" && req.Type != ledger.SourceText && req.Type != ledger.SourceURL {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be \"text\" or \"url\""})
		return
	}

	out, err := s.verifier.CheckNews(detached(c), req.Content, req.Type)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, VerdictResponse{Result: out.Record, Awarded: out.Awarded, Ledger: out.Ledger})
}

func (s *Server) verifyWebsite(c *gin.Context) {
	var req WebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := s.verifier.CheckWebsite(detached(c), req.URL)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, VerdictResponse{Result: out.Record, Awarded: out.Awarded, Ledger: out.Ledger})
}

func (s *Server) verifyCompany(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := s.verifier.CheckCompany(detached(c), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if out.Company == nil {
		s.respondError(c, fmt.Errorf("company check returned no result"))
		return
	}
	res := out.Company
	c.JSON(http.StatusOK, CompanyResponse{
		IsLegitimate:       res.Verdict,
		CompanyName:        res.Name,
		RegistrationNumber: res.RegistrationID,
		Status:             res.Status,
		Details:            res.Details,
		Timestamp:          res.Timestamp,
	})
}

// getLedger serves the current ledger with an ETag so dashboards can poll
// cheaply.
func (s *Server) getLedger(c *gin.Context) {
	l := s.verifier.Store().Read(c.Request.Context())
	body, err := json.Marshal(l)
	if err != nil {
		s.respondError(c, err)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Checksum64(body))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) getArchive(c *gin.Context) {
	if s.archive == nil || !s.archive.IsEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive not enabled"})
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	entries, err := s.archive.Recent(c.Request.Context(), limit)
	if err != nil {
		logging.FromContext(c).Errorf("archive query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (s *Server) getStats(c *gin.Context) {
	l := s.verifier.Store().Read(c.Request.Context())
	resp := gin.H{
		"verifier": s.verifier.Stats().Snapshot(),
		"ledger": gin.H{
			"total_score":    l.TotalScore,
			"history_length": len(l.History),
		},
	}
	if s.hub != nil {
		resp["dashboard_sessions"] = s.hub.Sessions()
	}
	if s.archive != nil && s.archive.IsEnabled() {
		stats, err := s.archive.Stats(c.Request.Context())
		if err != nil {
			logging.FromContext(c).Warnf("archive stats failed: %v", err)
		} else {
			resp["archive"] = stats
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": buildinfo.Version,
		"build":   buildinfo.String(),
	})
}
