package keyword

import "strings"

// DefaultKeywords is the banned keyword list in declaration order. Order
// matters: the first keyword contained in the text is reported.
var DefaultKeywords = []string{
	"spawnist",
	"spawn",
	"spawnism",
	"proship",
	"prosaken",
	"darkship",
}

// Matcher tests profile text against a fixed keyword list. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	keywords []string
}

func New(keywords []string) *Matcher {
	list := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		list = append(list, keyword)
	}
	return &Matcher{keywords: list}
}

func NewDefault() *Matcher {
	return New(DefaultKeywords)
}

// FirstMatch returns the first keyword, in list order, whose lowercase form
// is a substring of the lowercased text.
func (m *Matcher) FirstMatch(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, keyword := range m.keywords {
		if strings.Contains(lower, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}
