package congressus

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// MemberIDCache caches username to member-id resolutions so repeated
// by-username operations skip the upstream search. Lookups and writes are
// best-effort; a failing cache must degrade to a miss, never to an error.
type MemberIDCache interface {
	Get(ctx context.Context, username string) (int, bool)
	Set(ctx context.Context, username string, id int)
}

// FacadeConfig carries the shared construction parameters for a facade.
type FacadeConfig struct {
	// BaseURL overrides the Congressus API root; empty means the public API.
	BaseURL string
	// Token returns the Congressus API token (from the environment).
	Token func() string
	// Cache is the optional username resolution cache.
	Cache MemberIDCache
}

func (cfg FacadeConfig) baseURL() string {
	if cfg.BaseURL == "" {
		return BaseURL
	}
	return cfg.BaseURL
}

// ping is the shared ping implementation; it never calls upstream.
func ping(version string) *ports.UpstreamResult {
	return &ports.UpstreamResult{
		Status: http.StatusOK,
		Body:   map[string]any{"message": fmt.Sprintf("Ping to local API %s successful", version)},
	}
}

// forbidden builds the local 403 answer used for operations a version does
// not support. No upstream call is made.
func forbidden(message string) *ports.UpstreamResult {
	return &ports.UpstreamResult{
		Status: http.StatusForbidden,
		Body:   map[string]any{"message": message},
	}
}

// memberNotFound builds the 404 answer for a username that resolved to no
// member.
func memberNotFound(username string) *ports.UpstreamResult {
	return &ports.UpstreamResult{
		Status: http.StatusNotFound,
		Body:   map[string]any{"message": fmt.Sprintf("No user found for %s", username)},
	}
}

// matchMemberID scans a member search result for the entry whose username
// matches case-insensitively and returns its id, or 0 when no entry
// matches. Search responses usually contain more than one member; the first
// exact (case-insensitive) match wins.
func matchMemberID(results []any, username string) int {
	for _, entry := range results {
		member, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := member["username"].(string)
		if !strings.EqualFold(name, username) {
			continue
		}
		if id, ok := member["id"].(float64); ok {
			return int(id)
		}
	}
	return 0
}

// cacheKey normalizes usernames for the resolution cache; matching is
// case-insensitive, so the cache must be too.
func cacheKey(username string) string {
	return strings.ToLower(username)
}
