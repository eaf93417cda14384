package util

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsLocalhostDirect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		remoteAddr string
		header     string
		want       bool
	}{
		{"ipv4 loopback", "127.0.0.1:50000", "", true},
		{"ipv6 loopback", "[::1]:50000", "", true},
		{"remote address", "192.0.2.10:50000", "", false},
		{"proxied loopback", "127.0.0.1:50000", "X-Forwarded-For", false},
		{"forwarded header", "127.0.0.1:50000", "Forwarded", false},
		{"no port", "127.0.0.1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Request.RemoteAddr = tt.remoteAddr
			if tt.header != "" {
				c.Request.Header.Set(tt.header, "203.0.113.5")
			}
			assert.Equal(t, tt.want, IsLocalhostDirect(c))
		})
	}
}
