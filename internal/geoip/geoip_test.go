package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLocator struct {
	code  string
	err   error
	calls int
}

func (f *fakeLocator) CountryCode(net.IP) (string, error) {
	f.calls++
	return f.code, f.err
}

func TestResolve(t *testing.T) {
	loc := &fakeLocator{code: "DE"}
	assert.Equal(t, "de", Resolve(loc, "203.0.113.7"))
	assert.Equal(t, "de", Resolve(loc, "203.0.113.7:51234"))
	assert.Equal(t, "de", Resolve(loc, "[2001:db8::1]:443"))
	assert.Equal(t, 3, loc.calls)

	// loopback never hits the database
	assert.Equal(t, "xx", Resolve(loc, "127.0.0.1"))
	assert.Equal(t, "xx", Resolve(loc, "::1"))
	assert.Equal(t, 3, loc.calls)

	assert.Equal(t, "xx", Resolve(loc, "not-an-ip"))
	assert.Equal(t, "xx", Resolve(nil, "203.0.113.7"))
	assert.Equal(t, "xx", Resolve(&fakeLocator{err: errors.New("corrupt")}, "203.0.113.7"))
	assert.Equal(t, "xx", Resolve(&fakeLocator{}, "203.0.113.7"))
}

func TestOpenMaxMindMissingFile(t *testing.T) {
	_, err := OpenMaxMind("/nonexistent/GeoLite2-Country.mmdb")
	assert.Error(t, err)
}
