package prompt

import "strings"

// Language is an output language code.
type Language string

const (
	English    Language = "en"
	Chinese    Language = "zh"
	Japanese   Language = "ja"
	Korean     Language = "ko"
	Spanish    Language = "es"
	French     Language = "fr"
	German     Language = "de"
	Portuguese Language = "pt"
)

var languageNames = map[Language]string{
	English:    "English",
	Chinese:    "Simplified Chinese",
	Japanese:   "Japanese",
	Korean:     "Korean",
	Spanish:    "Spanish",
	French:     "French",
	German:     "German",
	Portuguese: "Portuguese",
}

// Languages lists the supported languages.
func Languages() []Language {
	return []Language{English, Chinese, Japanese, Korean, Spanish, French, German, Portuguese}
}

// ParseLanguage maps a code such as "ja" or "pt-BR" to a Language, falling
// back to English.
func ParseLanguage(s string) Language {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	l := Language(s)
	if _, ok := languageNames[l]; ok {
		return l
	}
	return English
}

// DisplayName is the English name of l.
func (l Language) DisplayName() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return languageNames[English]
}
