package dispatch

import (
	"bytes"
	"net/http"

	"github.com/polyseek/polyseek/internal/domain"
)

// captchaMarkers are payload fragments that identify a challenge page.
// Challenge pages always ride on a blocking status (403/429/503), so the
// sniff is never applied to a successful response, whose body legitimately
// may mention these strings.
var captchaMarkers = [][]byte{
	[]byte("g-recaptcha"),
	[]byte("h-captcha"),
	[]byte("cf-challenge"),
	[]byte("cf_chl_"),
	[]byte("/captcha"),
}

// classifyStatus maps a terminal upstream HTTP exchange to a failure class.
// FailureNone means the payload should be parsed.
func classifyStatus(status int, body []byte) domain.FailureClass {
	switch {
	case status >= 200 && status < 300:
		return domain.FailureNone
	case status == http.StatusForbidden || status == http.StatusUnauthorized ||
		status == http.StatusProxyAuthRequired || status == http.StatusUnavailableForLegalReasons:
		if detectCaptcha(body) {
			return domain.FailureCaptcha
		}
		return domain.FailureAccessDenied
	case status == http.StatusTooManyRequests:
		if detectCaptcha(body) {
			return domain.FailureCaptcha
		}
		return domain.FailureRateLimited
	case status == http.StatusServiceUnavailable:
		if detectCaptcha(body) {
			return domain.FailureCaptcha
		}
		return domain.FailureGeneric
	default:
		return domain.FailureGeneric
	}
}

func detectCaptcha(body []byte) bool {
	for _, m := range captchaMarkers {
		if bytes.Contains(body, m) {
			return true
		}
	}
	return false
}
