package aggregate

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during URL normalization so
// the same logical page deduplicates across services that decorate links
// differently.
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"msclkid":     true,
	"yclid":       true,
	"mc_eid":      true,
	"igshid":      true,
	"ref_src":     true,
	"spm":         true,
	"_hsenc":      true,
	"_hsmi":       true,
	"vero_id":     true,
	"wickedid":    true,
	"twclid":      true,
	"pk_campaign": true,
	"pk_kwd":      true,
}

// NormalizeURL computes the dedup key for a result URL: scheme and host
// lowercased, default ports stripped, trailing slash normalized, tracking
// query parameters removed, remaining parameters re-encoded in sorted order,
// fragment dropped. An unparseable URL falls back to the raw string so one
// odd item never aborts aggregation.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	u.Path = strings.TrimSuffix(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode() // Encode sorts keys
	u.Fragment = ""
	u.User = nil

	return u.String()
}
