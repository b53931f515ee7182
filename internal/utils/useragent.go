package utils

import "strings"

// ClassifyUserAgent extracts a coarse device type and browser name from a
// raw User-Agent header. The result is best-effort and only stored for
// the login-history audit trail; unknown agents yield empty strings.
func ClassifyUserAgent(ua string) (deviceType, browser string) {
	if ua == "" {
		return "", ""
	}
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		deviceType = "tablet"
	case strings.Contains(lower, "mobile") || strings.Contains(lower, "iphone") || strings.Contains(lower, "android"):
		deviceType = "mobile"
	default:
		deviceType = "desktop"
	}

	// Order matters: Edge and Opera embed "chrome", Chrome embeds "safari".
	switch {
	case strings.Contains(lower, "edg/") || strings.Contains(lower, "edge"):
		browser = "Edge"
	case strings.Contains(lower, "opr/") || strings.Contains(lower, "opera"):
		browser = "Opera"
	case strings.Contains(lower, "firefox"):
		browser = "Firefox"
	case strings.Contains(lower, "chrome"):
		browser = "Chrome"
	case strings.Contains(lower, "safari"):
		browser = "Safari"
	case strings.Contains(lower, "curl"):
		browser = "curl"
	}
	return deviceType, browser
}
