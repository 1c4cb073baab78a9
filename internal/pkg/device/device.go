// Package device derives the client fingerprint recorded with each login.
package device

import (
	"net"
	"net/http"
	"strings"

	"github.com/cashflow-api/internal/domain"
	"github.com/mssola/useragent"
)

const (
	unknownDevice   = "Unknown Device"
	unknownIP       = "Unknown IP"
	unknownLocation = "Unknown Location"
)

// FromRequest builds the fingerprint of the client that sent r.
func FromRequest(r *http.Request) domain.Fingerprint {
	raw := r.UserAgent()
	ua := useragent.New(raw)

	deviceName := ua.Model()
	if deviceName == "" {
		deviceName = unknownDevice
	}
	browserName, browserVersion := ua.Browser()
	osInfo := ua.OSInfo()

	ip := ClientIP(r)
	if ip == "" {
		ip = unknownIP
	}
	// Location is display-only and may echo a client-supplied header.
	location := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if location == "" {
		location = remoteHost(r.RemoteAddr)
	}
	if location == "" {
		location = unknownLocation
	}

	return domain.Fingerprint{
		DeviceName:      deviceName,
		Browser:         join(browserName, browserVersion),
		OperatingSystem: join(osInfo.Name, osInfo.Version),
		IPAddress:       ip,
		Location:        location,
		UserAgent:       raw,
	}
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are not
// consulted here; behind a trusted proxy the router installs chi's RealIP,
// which rewrites RemoteAddr before this runs.
func ClientIP(r *http.Request) string {
	return remoteHost(r.RemoteAddr)
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func join(name, version string) string {
	return strings.TrimSpace(name + " " + version)
}
