package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo is the parsed form of a User-Agent string stored with audit rows
type DeviceInfo struct {
	DeviceType     string `json:"device_type"` // mobile, tablet, desktop, bot, unknown
	OS             string `json:"os"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version,omitempty"`
	IsBot          bool   `json:"is_bot"`
}

var tabletMarkers = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "sm-t"}

// ParseUserAgent extracts device information from a User-Agent string
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return DeviceInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	name, version := parser.Browser()
	if name == "" {
		name = "Unknown"
	}

	info := DeviceInfo{
		OS:             osName(parser),
		Browser:        name,
		BrowserVersion: version,
		IsBot:          parser.Bot(),
	}

	lower := strings.ToLower(userAgent)
	switch {
	case info.IsBot:
		info.DeviceType = "bot"
	case containsAny(lower, tabletMarkers):
		info.DeviceType = "tablet"
	case parser.Mobile():
		info.DeviceType = "mobile"
	default:
		info.DeviceType = "desktop"
	}
	return info
}

func osName(parser *ua.UserAgent) string {
	os := parser.OSInfo()
	if os.Name == "" {
		return "Unknown"
	}
	if os.Version != "" {
		return os.Name + " " + os.Version
	}
	return os.Name
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
