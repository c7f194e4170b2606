package internal

import (
	"context"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestMatchLocale(t *testing.T) {
	tests := map[string]string{
		"":                          "en_US",
		"nl-NL":                     "nl_NL",
		"nl-NL,nl;q=0.9,en;q=0.8":   "nl_NL",
		"nl-BE":                     "nl_BE",
		"en-GB,en;q=0.9":            "en_GB",
		"de-DE":                     "de_DE",
		"ja-JP":                     "en_US",
		"this is not a header ;;;=": "en_US",
	}
	for header, want := range tests {
		assert.Equal(t, want, MatchLocale(header), "accept-language %q", header)
	}
}

func TestLocaleResolver(t *testing.T) {
	database := newFakeDatabase()
	resolver := NewLocaleResolver(database, nopLogger{})

	assert.Equal(t, "nl_NL", resolver.Resolve(context.Background(), "nl-NL"))

	database.systemObjects[localeSettingKey] = " fr_FR "
	assert.Equal(t, "fr_FR", resolver.Resolve(context.Background(), "nl-NL"))

	assert.Equal(t, "en_US", NewLocaleResolver(nil, nil).Resolve(context.Background(), ""))
}
