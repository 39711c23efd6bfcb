package tts

import "strings"

// Narration holds the localized phrase parts used to synthesise narrated
// asides: "<text><Sep><Connector><said/emote>". Per-segment providers use it
// both for the emote cue appended to a turn and for the neighbour context
// handed to the vendor for prosodic continuity.
type Narration struct {
	// Connector joins a quoted turn to its narration, e.g. ", ".
	Connector string

	// Said is the default narration verb phrase used when a turn carries no
	// emote description, e.g. "they said".
	Said string

	// Sep separates a turn from adjacent narration or the next turn, e.g. " ".
	Sep string
}

// narrations maps lowercase language codes (primary subtag) to their phrase
// parts. English is the fallback for unknown languages.
var narrations = map[string]Narration{
	"en": {Connector: ", ", Said: "they said", Sep: " "},
	"de": {Connector: ", ", Said: "sagten sie", Sep: " "},
	"fr": {Connector: ", ", Said: "ont-ils dit", Sep: " "},
	"es": {Connector: ", ", Said: "dijeron", Sep: " "},
	"it": {Connector: ", ", Said: "hanno detto", Sep: " "},
	"pt": {Connector: ", ", Said: "disseram", Sep: " "},
	"nl": {Connector: ", ", Said: "zeiden ze", Sep: " "},
	"ja": {Connector: "、", Said: "と彼らは言った", Sep: ""},
}

// NarrationFor returns the narration phrases for a BCP-47 language code,
// matching on the primary subtag case-insensitively ("en-US" → "en") and
// falling back to English.
func NarrationFor(language string) Narration {
	lang := strings.ToLower(language)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if n, ok := narrations[lang]; ok {
		return n
	}
	return narrations["en"]
}
