package backend

import (
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/patrickmn/go-cache"
)

const (
	cacheEntryTTL    = time.Hour
	cacheSweepPeriod = 10 * time.Minute
)

var _ httpcache.Cache = (*responseCache)(nil)

// responseCache stores cached API responses for httpcache. Entries are
// dropped when the session changes and after writes that can make cached
// listings stale.
type responseCache struct {
	store *cache.Cache
}

func newResponseCache() *responseCache {
	return &responseCache{store: cache.New(cacheEntryTTL, cacheSweepPeriod)}
}

func (rc *responseCache) Get(key string) ([]byte, bool) {
	v, ok := rc.store.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (rc *responseCache) Set(key string, resp []byte) {
	rc.store.Set(key, resp, cache.DefaultExpiration)
}

func (rc *responseCache) Delete(key string) {
	rc.store.Delete(key)
}

// Flush drops every entry.
func (rc *responseCache) Flush() {
	rc.store.Flush()
}

// varyOnCredential marks every backend response as varying by Authorization,
// so httpcache only serves a cached entry to a request carrying the same
// credential as the one that fetched it.
type varyOnCredential struct {
	next http.RoundTripper
}

func (t varyOnCredential) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	for _, v := range resp.Header.Values("Vary") {
		for _, name := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(name), "Authorization") {
				return resp, nil
			}
		}
	}
	resp.Header.Add("Vary", "Authorization")
	return resp, nil
}

// flushCache drops cached responses. It is a no-op for clients built
// without a cache.
func (c *Client) flushCache(reason string) {
	if c.cache == nil {
		return
	}
	c.cache.Flush()
	c.logger.Debug("response cache flushed", "reason", reason)
}
