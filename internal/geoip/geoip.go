// Package geoip resolves a client address to a lowercase ISO country code.
package geoip

import (
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"github.com/go-while/go-guweb/internal/models"
)

// Locator looks up the ISO 3166-1 alpha-2 code of an IP
type Locator interface {
	CountryCode(ip net.IP) (string, error)
}

// MaxMind reads a GeoLite2/GeoIP2 Country database
type MaxMind struct {
	reader *geoip2.Reader
}

// OpenMaxMind opens the mmdb file at path
func OpenMaxMind(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &MaxMind{reader: reader}, nil
}

// CountryCode returns the ISO code of ip; empty when the database has none
func (m *MaxMind) CountryCode(ip net.IP) (string, error) {
	rec, err := m.reader.Country(ip)
	if err != nil {
		return "", err
	}
	return rec.Country.IsoCode, nil
}

// Close releases the database
func (m *MaxMind) Close() error {
	return m.reader.Close()
}

// Resolve returns the lowercase country code of remoteAddr.
// Loopback, unparsable addresses, lookup failures and a nil locator all
// yield models.UnknownCountry.
func Resolve(loc Locator, remoteAddr string) string {
	ip := parseIP(remoteAddr)
	if ip == nil || ip.IsLoopback() || loc == nil {
		return models.UnknownCountry
	}
	code, err := loc.CountryCode(ip)
	if err != nil {
		log.Printf("[GEOIP]: lookup %s failed: %v", ip, err)
		return models.UnknownCountry
	}
	if code == "" {
		return models.UnknownCountry
	}
	return strings.ToLower(code)
}

// parseIP accepts a bare IP or host:port
func parseIP(addr string) net.IP {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return net.ParseIP(strings.Trim(addr, "[]"))
}
