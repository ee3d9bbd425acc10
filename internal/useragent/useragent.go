// Package useragent classifies raw user-agent strings into coarse
// device, browser and OS families. Matching is best-effort by design:
// obscure or spoofed strings fall back to the defaults rather than
// failing.
package useragent

import (
	"embed"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// Device types
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// Unknown is returned for browser and OS families that match no pattern.
const Unknown = "unknown"

// Classification is the result of classifying one user-agent string.
type Classification struct {
	DeviceType string
	Browser    string
	OS         string
}

//go:embed database/browsers.yml
//go:embed database/oss.yml
var databaseFiles embed.FS

// familyEntry is one ordered pattern in the embedded database files.
type familyEntry struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

// regexCache compiles patterns lazily and memoizes them.
type regexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *regexCache {
	return &regexCache{
		compiled: make(map[string]*pcre.Regexp),
	}
}

func (rc *regexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	// Double-check pattern
	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

var (
	classifier *familyClassifier
	once       sync.Once
)

type familyClassifier struct {
	browsers []familyEntry
	oss      []familyEntry
	cache    *regexCache
}

func getClassifier() *familyClassifier {
	once.Do(func() {
		classifier = &familyClassifier{cache: newRegexCache()}

		if data, err := databaseFiles.ReadFile("database/browsers.yml"); err == nil {
			yaml.Unmarshal(data, &classifier.browsers)
		}
		if data, err := databaseFiles.ReadFile("database/oss.yml"); err == nil {
			yaml.Unmarshal(data, &classifier.oss)
		}
	})
	return classifier
}

func (c *familyClassifier) matchFamily(entries []familyEntry, userAgent string) string {
	for _, entry := range entries {
		regex, err := c.cache.get(entry.Regex)
		if err != nil {
			continue
		}
		if regex.MatchString(userAgent) {
			return entry.Name
		}
	}
	return Unknown
}

// tablet strings usually also match the mobile indicators, so the
// tablet check runs first.
var tabletIndicators = []string{"tablet", "ipad", "kindle", "silk", "playbook"}

var mobileIndicators = []string{
	"mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini",
}

func deviceTypeFor(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, indicator := range tabletIndicators {
		if strings.Contains(ua, indicator) {
			return DeviceTablet
		}
	}

	for _, indicator := range mobileIndicators {
		if strings.Contains(ua, indicator) {
			return DeviceMobile
		}
	}

	return DeviceDesktop
}

// Classify derives (device type, browser family, OS family) from a raw
// user-agent string. It is a pure function and never fails: an empty or
// unrecognizable string yields the desktop/unknown defaults.
func Classify(userAgent string) Classification {
	if userAgent == "" {
		return Classification{
			DeviceType: DeviceDesktop,
			Browser:    Unknown,
			OS:         Unknown,
		}
	}

	c := getClassifier()
	return Classification{
		DeviceType: deviceTypeFor(userAgent),
		Browser:    c.matchFamily(c.browsers, userAgent),
		OS:         c.matchFamily(c.oss, userAgent),
	}
}
