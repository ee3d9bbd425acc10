package useragent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backbeat/internal/useragent"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		deviceType string
		browser    string
		os         string
	}{
		{
			name:       "desktop chrome on windows",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			deviceType: useragent.DeviceDesktop,
			browser:    "chrome",
			os:         "windows",
		},
		{
			name:       "iphone safari",
			userAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari",
			deviceType: useragent.DeviceMobile,
			browser:    "safari",
			os:         "ios",
		},
		{
			name:       "ipad is tablet even though it also matches mobile patterns",
			userAgent:  "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 Safari/604.1",
			deviceType: useragent.DeviceTablet,
			browser:    "safari",
			os:         "ios",
		},
		{
			name:       "android tablet",
			userAgent:  "Mozilla/5.0 (Linux; Android 13; SM-X700 Tablet) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			deviceType: useragent.DeviceTablet,
			browser:    "chrome",
			os:         "android",
		},
		{
			name:       "android phone firefox",
			userAgent:  "Mozilla/5.0 (Android 14; Mobile; rv:121.0) Gecko/121.0 Firefox/121.0",
			deviceType: useragent.DeviceMobile,
			browser:    "firefox",
			os:         "android",
		},
		{
			name:       "edge is not misclassified as chrome",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			deviceType: useragent.DeviceDesktop,
			browser:    "edge",
			os:         "windows",
		},
		{
			name:       "opera is not misclassified as chrome",
			userAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0",
			deviceType: useragent.DeviceDesktop,
			browser:    "opera",
			os:         "mac",
		},
		{
			name:       "desktop linux",
			userAgent:  "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			deviceType: useragent.DeviceDesktop,
			browser:    "firefox",
			os:         "linux",
		},
		{
			name:       "unrecognizable string falls back to defaults",
			userAgent:  "curl/8.4.0",
			deviceType: useragent.DeviceDesktop,
			browser:    useragent.Unknown,
			os:         useragent.Unknown,
		},
		{
			name:       "empty string maps to defaults deterministically",
			userAgent:  "",
			deviceType: useragent.DeviceDesktop,
			browser:    useragent.Unknown,
			os:         useragent.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := useragent.Classify(tt.userAgent)
			assert.Equal(t, tt.deviceType, got.DeviceType)
			assert.Equal(t, tt.browser, got.Browser)
			assert.Equal(t, tt.os, got.OS)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Safari"
	first := useragent.Classify(ua)
	second := useragent.Classify(ua)
	assert.Equal(t, first, second)
}
