// Package rank maps free-form rank text (English or Japanese) onto the
// fixed ladder of rank keys and holds the per-rank icon and label tables.
package rank

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key is a canonical rank identifier. The zero value None means no rank.
type Key string

const (
	None        Key = ""
	Warrior     Key = "warrior"
	Elite       Key = "elite"
	Master      Key = "master"
	Grandmaster Key = "grandmaster"
	Epic        Key = "epic"
	Legend      Key = "legend"
	Mythic      Key = "mythic"
	Honor       Key = "honor"
	Glory       Key = "glory"
	Immortal    Key = "immortal"
)

// ladder is the closed set of keys, lowest first.
var ladder = []Key{Warrior, Elite, Master, Grandmaster, Epic, Legend, Mythic, Honor, Glory, Immortal}

// aliases maps a cleaned input phrase to its key. English and Japanese
// phrases share the same entries.
var aliases = map[string]Key{
	"warrior": Warrior,
	"戦士":      Warrior,

	"elite": Elite,
	"エリート":  Elite,

	"master": Master,
	"マスター":   Master,

	"grandmaster": Grandmaster,
	"グランドマスター":    Grandmaster,

	"epic": Epic,
	"すごい":  Epic,

	"legend": Legend,
	"伝説":     Legend,

	"mythic": Mythic,
	"神話":     Mythic,

	"mythic honor": Honor,
	"神話的な名誉":       Honor,

	"mythic glory": Glory,
	"神話の栄光":        Glory,

	"mythic immortal": Immortal,
	"神話上の不滅者":         Immortal,
}

var icons = map[Key]string{
	Warrior:     "warrior.png",
	Elite:       "elite.png",
	Master:      "master.png",
	Grandmaster: "grandmaster.png",
	Epic:        "epic.png",
	Legend:      "legend.png",
	Mythic:      "mythic.png",
	Honor:       "mythic_honor.png",
	Glory:       "mythic_glory.png",
	Immortal:    "mythic_immortal.png",
}

var labels = map[Key]string{
	Warrior:     "戦士",
	Elite:       "エリート",
	Master:      "マスター",
	Grandmaster: "グランドマスター",
	Epic:        "すごい",
	Legend:      "伝説",
	Mythic:      "神話",
	Honor:       "神話的な名誉",
	Glory:       "神話の栄光",
	Immortal:    "神話上の不滅者",
}

// Normalize resolves raw user text to a rank key. The text is lower-cased,
// whitespace runs are collapsed to a single space and the ends trimmed
// before an exact alias lookup. Anything unknown yields None.
func Normalize(input string) Key {
	if input == "" {
		return None
	}
	return aliases[clean(input)]
}

func clean(s string) string {
	// cases.Caser is stateful, so build one per call.
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace matches the whitespace class of browser regular expressions:
// U+FEFF counts as space and U+0085 does not.
func isSpace(r rune) bool {
	if r == '\ufeff' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

// Icon returns the icon file name (relative to the ranks asset folder) for k.
func Icon(k Key) (string, bool) {
	name, ok := icons[k]
	return name, ok
}

// Label returns the Japanese display label for k.
func Label(k Key) (string, bool) {
	s, ok := labels[k]
	return s, ok
}

// Keys returns every rank key in ladder order.
func Keys() []Key {
	out := make([]Key, len(ladder))
	copy(out, ladder)
	return out
}

// Aliases returns all accepted input phrases for k.
func Aliases(k Key) []string {
	var out []string
	for phrase, key := range aliases {
		if key == k {
			out = append(out, phrase)
		}
	}
	return out
}
