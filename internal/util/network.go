// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"net"

	"github.com/gin-gonic/gin"
)

// proxyHeaders mark a request that passed through a reverse proxy.
var proxyHeaders = []string{"X-Forwarded-For", "X-Real-IP", "Forwarded"}

// IsLocalhostDirect reports whether the request came from a loopback address
// without passing through a proxy.
func IsLocalhostDirect(c *gin.Context) bool {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return false
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return false
	}
	for _, h := range proxyHeaders {
		if c.GetHeader(h) != "" {
			return false
		}
	}
	return true
}
