package security

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// Probe patterns seen constantly from internet scanners. Matching a
// request does not block it; it only gets flagged for logging.
var probePatterns = []string{
	"../", "..\\", ".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "admin.php", "config.php",
	"eval(", "<script", "union select", "etc/passwd", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
}

// Detector flags requests that look like automated probing.
type Detector struct {
	flagged atomic.Int64
}

func NewDetector() *Detector {
	return &Detector{}
}

// Suspicious reports whether the request matches a known probe shape.
func (d *Detector) Suspicious(r *http.Request) bool {
	if d.matches(r) {
		d.flagged.Add(1)
		return true
	}
	return false
}

func (d *Detector) matches(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return true
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		return true
	}

	// Overlong URLs tend to be injection or overflow attempts.
	return len(r.URL.String()) > 2048
}

// FlaggedCount returns how many requests have been flagged since startup.
func (d *Detector) FlaggedCount() int64 {
	return d.flagged.Load()
}
