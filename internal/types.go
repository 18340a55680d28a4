package internal

import (
	"sjsage522/pricescout/services/cache"
	"sjsage522/pricescout/services/publisher"
)

// Dependencies holds all service dependencies. Either field may be nil when
// the service is not configured.
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup releases the services that hold connections
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
}
