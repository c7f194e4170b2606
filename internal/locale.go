package internal

import (
	"context"
	"golang.org/x/text/language"
	"paybridge/services"
	"strings"
)

const (
	localeSettingKey = "MOLLIE_locale"
	defaultLocale    = "en_US"
)

// supportedLocales are the checkout locales offered by the provider; the first is the default.
var supportedLocales = []string{
	"en_US", "en_GB", "nl_NL", "nl_BE", "fr_FR", "fr_BE", "de_DE", "de_AT", "de_CH",
	"es_ES", "ca_ES", "pt_PT", "it_IT", "nb_NO", "sv_SE", "fi_FI", "da_DK", "is_IS",
	"hu_HU", "pl_PL", "lv_LV", "lt_LT",
}

var localeMatcher = newLocaleMatcher()

func newLocaleMatcher() language.Matcher {
	tags := make([]language.Tag, 0, len(supportedLocales))
	for _, locale := range supportedLocales {
		tags = append(tags, language.MustParse(strings.ReplaceAll(locale, "_", "-")))
	}
	return language.NewMatcher(tags)
}

// LocaleResolver picks the checkout locale: configured system object, then the browser's Accept-Language.
type LocaleResolver struct {
	database services.Database
	logger   services.LogHandler
}

func NewLocaleResolver(database services.Database, logger services.LogHandler) *LocaleResolver {
	return &LocaleResolver{
		database: database,
		logger:   logger,
	}
}

func (r *LocaleResolver) Resolve(ctx context.Context, acceptLanguage string) string {
	if r.database != nil {
		locale, err := r.database.FindSystemObjectByDomainName(ctx, localeSettingKey)
		if err != nil && r.logger != nil {
			r.logger.Warn("locale setting: " + err.Error())
		}
		if locale = strings.TrimSpace(locale); locale != "" {
			return locale
		}
	}
	return MatchLocale(acceptLanguage)
}

// MatchLocale maps an Accept-Language header to the closest supported locale.
func MatchLocale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return defaultLocale
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(supportedLocales) {
		return defaultLocale
	}
	return supportedLocales[index]
}
