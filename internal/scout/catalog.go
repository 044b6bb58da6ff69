package scout

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/scoutcon/internal/log"
)

// ErrorCatalog memoizes ErrorString lookups. The library returns static text
// per code, so one call per code is enough for the life of the process.
type ErrorCatalog struct {
	facility Facility
	cache    *gocache.Cache
}

// NewErrorCatalog wraps f.
func NewErrorCatalog(f Facility) *ErrorCatalog {
	return &ErrorCatalog{
		facility: f,
		cache:    gocache.New(gocache.NoExpiration, 0),
	}
}

// Describe returns the message for code, asking the library on a miss.
func (c *ErrorCatalog) Describe(code ErrorCode) string {
	key := code.String()
	if v, ok := c.cache.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
		log.Error(log.CatScout, "wrong type in error catalog", "key", key)
	}

	msg := c.facility.ErrorString(code)
	if msg == "" {
		msg = key
	}
	c.cache.Set(key, msg, gocache.NoExpiration)
	log.Debug(log.CatScout, "error catalog miss", "code", key)
	return msg
}

// Last returns the facility's last error described through the catalog, or
// nil on Success.
func (c *ErrorCatalog) Last() error {
	code := c.facility.LastError()
	if code == Success {
		return nil
	}
	return &Error{Code: code, Message: c.Describe(code)}
}
