package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2     string   // ISO 639-1
	code3     string   // ISO 639-2/T
	alt3      string   // ISO 639-2/B when it differs
	tesseract string   // traineddata name
	display   string
	words     []string
}

var languages = []entry{
	{"en", "eng", "", "eng", "English", []string{"english"}},
	{"es", "spa", "", "spa", "Spanish", []string{"spanish", "castilian"}},
	{"fr", "fra", "fre", "fra", "French", []string{"french"}},
	{"de", "deu", "ger", "deu", "German", []string{"german"}},
	{"it", "ita", "", "ita", "Italian", []string{"italian"}},
	{"pt", "por", "", "por", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "jpn", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "kor", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "chi_sim", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "rus", "Russian", []string{"russian"}},
	{"nl", "nld", "dut", "nld", "Dutch", []string{"dutch", "flemish"}},
	{"pl", "pol", "", "pol", "Polish", []string{"polish"}},
	{"sv", "swe", "", "swe", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "dan", "Danish", []string{"danish"}},
	{"no", "nor", "", "nor", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "fin", "Finnish", []string{"finnish"}},
}

var (
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord  = make(map[string]*entry, len(languages))
)

func init() {
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func clean(code string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
}

func lookup(code string) *entry {
	code = clean(code)
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return byWord[code]
}

// parseBase resolves codes outside the table, including BCP 47 tags such as
// "en-US" or "pt-BR".
func parseBase(code string) (xlang.Base, bool) {
	code = clean(code)
	if code == "" || code == "und" {
		return xlang.Base{}, false
	}
	if b, err := xlang.ParseBase(code); err == nil {
		return canonicalBase(b), true
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return xlang.Base{}, false
	}
	b, conf := tag.Base()
	if conf == xlang.No {
		return xlang.Base{}, false
	}
	return canonicalBase(b), true
}

// canonicalBase replaces deprecated codes such as "iw" or "in" with their
// current form.
func canonicalBase(b xlang.Base) xlang.Base {
	if cb, conf := xlang.Deprecated.Make(b.String()).Base(); conf != xlang.No {
		return cb
	}
	return b
}

// ToISO2 converts a language code, tag or word to ISO 639-1. Unrecognized
// input yields "".
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	b, ok := parseBase(code)
	if !ok {
		return ""
	}
	if s := b.String(); len(s) == 2 {
		return s
	}
	return ""
}

// ToISO3 converts a language code, tag or word to ISO 639-2/T. Unrecognized
// input yields "und".
func ToISO3(code string) string {
	if e := lookup(code); e != nil {
		return e.code3
	}
	if b, ok := parseBase(code); ok {
		return b.ISO3()
	}
	return "und"
}

// TesseractCode returns the traineddata name for code, falling back to the
// ISO 639-2 code and then to "eng".
func TesseractCode(code string) string {
	if e := lookup(code); e != nil {
		return e.tesseract
	}
	if iso3 := ToISO3(code); iso3 != "und" {
		return iso3
	}
	return "eng"
}

// DisplayName returns the English name for code. Empty input yields
// "Unknown" and unresolvable input its upper-cased form.
func DisplayName(code string) string {
	if clean(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if b, ok := parseBase(code); ok {
		if name := display.English.Languages().Name(b); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExtractFromTags returns the lower-cased language from ffprobe stream tags.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value := clean(tags[key]); value != "" {
			return value
		}
	}
	return ""
}

// Matches reports whether a stream tagged tag satisfies preferred. An empty
// or "und" tag matches any preference, since untagged tracks on single
// language releases are almost always the main language.
func Matches(tag, preferred string) bool {
	want := ToISO2(preferred)
	if want == "" {
		return true
	}
	tag = clean(tag)
	if tag == "" || tag == "und" {
		return true
	}
	if got := ToISO2(tag); got != "" {
		return got == want
	}
	return strings.HasPrefix(tag, want)
}
