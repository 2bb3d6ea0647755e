package usecases

import (
	"strings"

	"stream-resolver/internal/config"
	"stream-resolver/internal/domain"
)

// Target is the upstream playlist address of one title.
type Target struct {
	Service        domain.Service
	URL            string
	DefaultReferer string
}

type catalogEntry struct {
	base    string
	path    string
	referer string
}

// ServiceCatalog builds per-service playlist URLs from a fixed table.
type ServiceCatalog struct {
	entries map[domain.Service]catalogEntry
}

// NewServiceCatalog creates the catalog from the upstream config.
func NewServiceCatalog(cfg config.Upstream) *ServiceCatalog {
	netflix := strings.TrimRight(cfg.NetflixBase, "/")
	upstream := strings.TrimRight(cfg.UpstreamBase, "/")

	return &ServiceCatalog{entries: map[domain.Service]catalogEntry{
		domain.Netflix:     {base: netflix, path: "/hls/", referer: cfg.DefaultReferer},
		domain.AmazonPrime: {base: upstream, path: "/pv/hls/", referer: cfg.DefaultReferer},
		domain.JioHotstar:  {base: upstream, path: "/mobile/hs/hls/", referer: cfg.DefaultReferer},
	}}
}

// Target returns the playlist URL for id. The id is inserted verbatim.
func (c *ServiceCatalog) Target(service domain.Service, id string) (Target, error) {
	e, ok := c.entries[service]
	if !ok {
		return Target{}, &domain.UnsupportedServiceError{
			Value:     string(service),
			Supported: domain.SupportedServiceValues(),
		}
	}
	return Target{
		Service:        service,
		URL:            e.base + e.path + id + ".m3u8",
		DefaultReferer: e.referer,
	}, nil
}
