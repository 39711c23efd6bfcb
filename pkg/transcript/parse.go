package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// turnPattern matches one <personN ...>text</personN> occurrence. Go's RE2
// engine has no backreferences, so the closing identity is captured separately
// and checked in code.
var turnPattern = regexp.MustCompile(`(?is)<person(\d+)([^>]*)>(.*?)</person(\d+)>`)

// attrPattern matches one key="value" attribute pair. Attributes with broken
// quoting simply fail to match and are dropped.
var attrPattern = regexp.MustCompile(`(\w+)="(.*?)"`)

// tagPattern matches any XML-like tag, capturing its name. Used by the
// cleanup pass to strip tags outside the supported set.
var tagPattern = regexp.MustCompile(`(?is)</?([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)

// blankLines collapses runs of blank lines left behind by tag stripping.
var blankLines = regexp.MustCompile(`\n\s*\n`)

// personTag matches any opening or closing person tag, capturing its name.
var personTag = regexp.MustCompile(`(?i)</?(person\d+)[^>]*>`)

// personName matches a person tag name during cleanup.
var personName = regexp.MustCompile(`(?i)^person\d+$`)

// Parse extracts the ordered speaker turns from text.
//
// supportedTags lists the SSML tag names the active provider passes through;
// any other tag is stripped, case-insensitively, including tags spanning
// multiple lines. Person tags are always preserved and self-healed when left
// unclosed. configs supplies per-speaker base voice configurations; speakers
// without an entry get [DefaultVoiceConfig]. Tag attributes matching
// VoiceConfig field names override the base config for that turn only; all
// other attributes land in the segment's parameter map.
//
// Text without any recognised person tag yields an empty (non-nil error-free)
// segment list.
func Parse(text string, supportedTags []string, configs map[int]VoiceConfig) []*Segment {
	cleaned := Clean(text, supportedTags)

	matches := turnPattern.FindAllStringSubmatch(cleaned, -1)
	segments := make([]*Segment, 0, len(matches))
	for _, m := range matches {
		if m[1] != m[4] {
			// Mismatched open/close identity, e.g. <person1>..</person2>.
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			continue
		}

		params := map[string]string{}
		for _, am := range attrPattern.FindAllStringSubmatch(m[2], -1) {
			params[am[1]] = am[2]
		}

		voice, ok := configs[id]
		if !ok {
			voice = DefaultVoiceConfig(id)
		}
		for k, v := range params {
			voice.applyAttribute(k, v)
		}

		segments = append(segments, &Segment{
			SpeakerID:  id,
			Parameters: params,
			Text:       strings.TrimSpace(m[3]),
			Voice:      voice,
		})
	}
	return segments
}

// Clean normalises transcript markup: tags not in supportedTags (and not
// person tags) are removed including their attributes, blank lines are
// collapsed, and unclosed person tags are re-closed at the next tag boundary
// or end of input.
func Clean(text string, supportedTags []string) string {
	supported := make(map[string]bool, len(supportedTags))
	for _, t := range supportedTags {
		supported[strings.ToLower(t)] = true
	}

	cleaned := tagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		name := tagPattern.FindStringSubmatch(tag)[1]
		if supported[strings.ToLower(name)] || personName.MatchString(name) {
			return tag
		}
		return ""
	})

	cleaned = blankLines.ReplaceAllString(cleaned, "\n")
	cleaned = healPersonTags(cleaned)
	return strings.TrimSpace(cleaned)
}

// healPersonTags repairs person tag nesting: a turn left open is closed at
// the next opening person tag or at end of input, and stray closing tags
// without a matching open turn are dropped. Attributes on opening tags are
// preserved; inline tags inside a turn's text are untouched.
func healPersonTags(text string) string {
	var b strings.Builder
	open := "" // name of the currently open person tag, lowercased
	last := 0
	for _, m := range personTag.FindAllStringSubmatchIndex(text, -1) {
		tag := text[m[0]:m[1]]
		name := strings.ToLower(text[m[2]:m[3]])
		closing := strings.HasPrefix(tag, "</")
		b.WriteString(text[last:m[0]])
		switch {
		case closing && name == open:
			b.WriteString(tag)
			open = ""
		case closing:
			// Stray closing tag, drop it.
		default:
			if open != "" {
				b.WriteString("</" + open + ">")
			}
			b.WriteString(tag)
			open = name
		}
		last = m[1]
	}
	b.WriteString(text[last:])
	if open != "" {
		b.WriteString("</" + open + ">")
	}
	return b.String()
}
