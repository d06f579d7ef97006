package preview

import "strings"

// defaultCrawlerSignatures are matched case-insensitively against User-Agent.
var defaultCrawlerSignatures = []string{
	// social platforms
	"facebookexternalhit",
	"facebot",
	"meta-externalagent",
	"twitterbot",
	"linkedinbot",
	"pinterest",
	"redditbot",
	"tumblr",
	"vkshare",
	"mastodon",
	"bluesky",
	// messaging and link unfurlers
	"whatsapp",
	"telegrambot",
	"slackbot",
	"slack-imgproxy",
	"discordbot",
	"skypeuripreview",
	"viber",
	"embedly",
	"iframely",
	"quora link preview",
	"bitlybot",
	"outbrain",
	// search crawlers
	"googlebot",
	"google-inspectiontool",
	"bingbot",
	"applebot",
	"yandexbot",
	"duckduckbot",
	"baiduspider",
	"w3c_validator",
}

// Classifier recognizes link-preview and search crawlers by User-Agent.
type Classifier struct {
	signatures []string
}

// NewClassifier returns a Classifier using the built-in signatures plus extra.
func NewClassifier(extra ...string) *Classifier {
	sigs := make([]string, 0, len(defaultCrawlerSignatures)+len(extra))
	sigs = append(sigs, defaultCrawlerSignatures...)
	for _, s := range extra {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			sigs = append(sigs, s)
		}
	}
	return &Classifier{signatures: sigs}
}

// IsCrawler reports whether userAgent contains a known crawler signature.
func (c *Classifier) IsCrawler(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, sig := range c.signatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}
