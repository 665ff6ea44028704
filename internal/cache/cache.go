// Package cache holds recent single-page audit results for the HTTP API.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"styleaudit/internal/model"
)

var Store *gocache.Cache

// Init creates the shared store. Entries expire after ttl.
func Init(ttl time.Duration) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	Store = gocache.New(ttl, 2*ttl)
}

func key(url, ready, toggle string) string {
	return url + "\x00" + ready + "\x00" + toggle
}

// GetRun returns a cached run for the page request.
func GetRun(url, ready, toggle string) (model.AuditRun, bool) {
	if Store == nil {
		return model.AuditRun{}, false
	}
	v, ok := Store.Get(key(url, ready, toggle))
	if !ok {
		return model.AuditRun{}, false
	}
	run, ok := v.(model.AuditRun)
	return run, ok
}

func SetRun(url, ready, toggle string, run model.AuditRun) {
	if Store == nil {
		return
	}
	Store.SetDefault(key(url, ready, toggle), run)
}
