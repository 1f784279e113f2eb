// File: middleware/geo_location.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"labbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GeoLocation is the subset of the IP lookup answer used for the city hint.
type GeoLocation struct {
	IP          string `json:"ip"`
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryCode string `json:"country_code"`
}

// CityLocator guesses the visitor's city from their IP.
type CityLocator interface {
	City(ctx context.Context, ip string) string
}

// IPLocator queries an ipapi.co compatible endpoint and caches answers per IP.
type IPLocator struct {
	baseURL string
	client  utils.HTTPDoer
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func NewIPLocator(baseURL string, client utils.HTTPDoer, logger *zap.Logger) *IPLocator {
	return &IPLocator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
		cache:   make(map[string]string),
	}
}

// isPrivateIP checks if an IP is private or loopback.
func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}

// City returns "" when the city is unknown. Failures are cached too, so a
// broken lookup service is not hammered.
func (l *IPLocator) City(ctx context.Context, ip string) string {
	if l.baseURL == "" || isPrivateIP(ip) {
		return ""
	}

	l.mu.RLock()
	city, ok := l.cache[ip]
	l.mu.RUnlock()
	if ok {
		return city
	}

	city = l.lookup(ctx, ip)
	l.mu.Lock()
	l.cache[ip] = city
	l.mu.Unlock()
	return city
}

func (l *IPLocator) lookup(ctx context.Context, ip string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", l.baseURL, ip), nil)
	if err != nil {
		return ""
	}
	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn("IP lookup failed", zap.String("ip", ip), zap.Error(err))
		if resp != nil {
			resp.Body.Close()
		}
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.logger.Warn("IP lookup returned non-OK status", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return ""
	}

	var geo GeoLocation
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		l.logger.Warn("Failed to decode IP lookup response", zap.String("ip", ip), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(geo.City)
}

// CityHintMiddleware stores the visitor's likely city under "clientCity".
// It never blocks a request.
func CityHintMiddleware(locator CityLocator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if city := locator.City(c.Request.Context(), clientIP(c)); city != "" {
			c.Set("clientCity", city)
		}
		c.Next()
	}
}
