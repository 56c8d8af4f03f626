package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vigil/internal/crisis/models"
)

func testDataset() *models.Dataset {
	return &models.Dataset{
		Version: "test",
		Entries: []models.Entry{
			{Pattern: "988lifeline.org"},
			{Pattern: "https://www.crisistextline.org/"},
			{Pattern: "*.thetrevorproject.org"},
			{Pattern: "mind.org.uk"},
			{Pattern: "chat.samaritans.org"},
		},
		SafeDomains: []string{"google.com", "youtube.com", "wikipedia.org", "988lifeline.com"},
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"https://user:pw@WWW.988Lifeline.org:443/talk?x=1#top", "988lifeline.org", true},
		{"help.988lifeline.org", "help.988lifeline.org", true},
		{"988lifeline.org.", "988lifeline.org", true},
		{"*.crisistextline.org", "crisistextline.org", true},
		{"localhost", "", false},
		{"not a domain", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeHost(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "988lifeline.org", RegistrableDomain("help.988lifeline.org"))
	assert.Equal(t, "mind.org.uk", RegistrableDomain("www2.mind.org.uk"))
}

func TestMatchDomain(t *testing.T) {
	m := New(testDataset())

	matches := []string{
		"988lifeline.org",
		"https://988lifeline.org/chat",
		"help.988lifeline.org",
		"988lifecline.org",  // inserted letter
		"988lifelne.org",    // dropped letter
		"988-lifeline.org",  // hyphenated
		"crisistextline.co", // TLD swap
		"crisistextlime.org",
		"support.thetrevorproject.org",
		"thetrevorprojct.org",
		"mind.org.uk",
		"chat.samaritans.org",
		"chat.samaritan.org", // near the subdomain-specific pattern
	}
	for _, d := range matches {
		t.Run("matches "+d, func(t *testing.T) {
			assert.True(t, m.MatchDomain(d))
		})
	}

	nonMatches := []string{
		"google.com",
		"youtube.com",
		"wikipedia.org",
		"github.com",
		"nytimes.com",
		"lifehacker.com",
		"weather.com",
		"988lifeline.com", // explicitly safe despite distance
		"mine.org.uk",     // short labels never fuzzy match
		"samaritans.org",  // only the chat subdomain is listed
		"textline.org",
	}
	for _, d := range nonMatches {
		t.Run("does not match "+d, func(t *testing.T) {
			assert.False(t, m.MatchDomain(d))
		})
	}
}

func TestMatchDomainGenericLabels(t *testing.T) {
	m := New(&models.Dataset{
		Version: "test",
		Entries: []models.Entry{
			{Pattern: "lifeline.org.au"},
			{Pattern: "samaritans.org"},
			{Pattern: "childline.org.uk"},
			{Pattern: "thehotline.org"},
			{Pattern: "kidshelpline.com.au"},
			{Pattern: "beyondblue.org.au"},
			{Pattern: "crisistextline.org"},
		},
	})

	for _, d := range []string{
		"lifeline.com",
		"lifelines.com",
		"samaritans.com",
		"childline.com",
		"thehotline.com",
		"kidshelpline.com",
		"beyondblue.com",
		"crisistextlime.co", // typo and TLD swap together
	} {
		t.Run("does not match "+d, func(t *testing.T) {
			assert.False(t, m.MatchDomain(d))
		})
	}

	for _, d := range []string{
		"lifeline.org.au",
		"www.samaritans.org",
		"thehotlime.org",
		"crisistextline.net",
	} {
		t.Run("matches "+d, func(t *testing.T) {
			assert.True(t, m.MatchDomain(d))
		})
	}
}

func TestMatchText(t *testing.T) {
	m := New(testDataset())

	assert.True(t, m.MatchText("i looked at https://988lifecline.org/ last night"))
	assert.True(t, m.MatchText("visited Help.CrisisTextLine.org"))
	assert.False(t, m.MatchText("searched google.com for homework help"))
	assert.False(t, m.MatchText("no links here"))
}

func TestMatch(t *testing.T) {
	m := New(testDataset())
	assert.True(t, m.Match("", "go to 988lifeline.org"))
	assert.True(t, m.Match("988lifeline.org", ""))
	assert.False(t, m.Match("", ""))
}

func TestNewSkipsUnusablePatterns(t *testing.T) {
	m := New(&models.Dataset{Version: "v", Entries: []models.Entry{{Pattern: "988lifeline.org"}, {Pattern: "%%%"}, {Pattern: "988lifeline.org"}}})
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, New(nil).Len())
}
