// Package geoip resolves request origin countries for the generation logs.
// Edge headers normally carry the country; this database lookup is the
// fallback when the service runs without a tagging proxy in front.
package geoip

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// DB wraps a MaxMind GeoIP2 country database.
type DB struct {
	reader *geoip2.Reader
}

// Open loads the database at path. An empty path disables the lookup and
// returns a nil DB, which is safe to use.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &DB{reader: reader}, nil
}

// CountryCode returns the ISO country code for ip, or "" when the address is
// unknown to the database.
func (db *DB) CountryCode(ip string) (string, error) {
	if db == nil || db.reader == nil {
		return "", nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := db.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record == nil {
		return "", nil
	}
	return record.Country.IsoCode, nil
}

func (db *DB) Close() error {
	if db == nil || db.reader == nil {
		return nil
	}
	return db.reader.Close()
}
