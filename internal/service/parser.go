package service

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// Pipeline output is LLM text: usually the JSON array the editor was asked
// for, sometimes that array wrapped in prose, sometimes labeled lines with no
// JSON at all. Parsing runs two stages, JSON extraction then a line-oriented
// fallback, and returns whatever the first producing stage yields. An empty
// result is the caller's signal to fall back, never an error.

var (
	tightArrayRe    = regexp.MustCompile(`(?s)\[\s*\{[^{}]*\}\s*,?\s*\]`)
	looseArrayRe    = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*,?\s*\]`)
	recsObjectRe    = regexp.MustCompile(`\{\s*"recommendations"`)
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
)

// ParseRecommendations extracts recommendation records from raw pipeline
// output. Records carry only what the text provided; defaults and rating
// normalization are the post-processor's job. A nil result means neither
// stage recognized anything.
func ParseRecommendations(raw string) []recommendation.Recommendation {
	if recs := extractJSONRecords(raw); len(recs) > 0 {
		slog.Debug("parsed recommendations from json", "count", len(recs))
		return recs
	}
	if recs := parseStructuredText(raw); len(recs) > 0 {
		slog.Debug("parsed recommendations from structured text", "count", len(recs))
		return recs
	}
	return nil
}

// extractJSONRecords tries the JSON shapes in order: a flat array of objects,
// an array of objects with nested content, then an object keyed
// "recommendations". The first shape that matches is the one parsed; a match
// that fails to decode yields nothing rather than trying later shapes.
func extractJSONRecords(text string) []recommendation.Recommendation {
	if m := tightArrayRe.FindString(text); m != "" {
		return decodeArray(m)
	}
	if m := looseArrayRe.FindString(text); m != "" {
		return decodeArray(m)
	}
	if loc := recsObjectRe.FindStringIndex(text); loc != nil {
		var wrapper struct {
			Recommendations []json.RawMessage `json:"recommendations"`
		}
		dec := json.NewDecoder(strings.NewReader(text[loc[0]:]))
		if err := dec.Decode(&wrapper); err != nil {
			slog.Debug("recommendations object did not decode", "error", err)
			return nil
		}
		return decodeElements(wrapper.Recommendations)
	}
	return nil
}

// decodeArray decodes a matched array. When the decode fails it retries once
// with trailing commas stripped; models close lists with ",]" often enough
// to warrant the second pass, and the rewrite only ever runs on text that is
// already invalid JSON.
func decodeArray(text string) []recommendation.Recommendation {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		repaired := trailingCommaRe.ReplaceAllString(text, "$1")
		if err := json.Unmarshal([]byte(repaired), &elements); err != nil {
			slog.Debug("extracted array did not decode", "error", err)
			return nil
		}
	}
	return decodeElements(elements)
}

// decodeElements keeps every element that decodes to an object with a
// non-empty title. Malformed elements are dropped individually so one bad
// record never costs the rest of the list.
func decodeElements(elements []json.RawMessage) []recommendation.Recommendation {
	var recs []recommendation.Recommendation
	for _, element := range elements {
		var r rawRecord
		if err := json.Unmarshal(element, &r); err != nil {
			continue
		}
		if strings.TrimSpace(string(r.Title)) == "" {
			continue
		}
		recs = append(recs, r.toRecommendation())
	}
	return recs
}

// rawRecord is the tolerant decode target for one LLM-emitted record. Models
// bend JSON types (years and season counts as strings, booleans quoted), so
// every scalar field absorbs the common bends instead of dropping the record.
type rawRecord struct {
	Title                 flexString            `json:"title"`
	Type                  flexString            `json:"type"`
	Year                  flexString            `json:"year"`
	Genre                 flexString            `json:"genre"`
	Rating                recommendation.Rating `json:"rating"`
	Description           flexString            `json:"description"`
	WhyRecommended        flexString            `json:"why_recommended"`
	SimilarTitles         flexStrings           `json:"similar_titles"`
	ImageURL              flexString            `json:"image_url"`
	TrailerURL            flexString            `json:"trailer_url"`
	PreviewURL            flexString            `json:"preview_url"`
	IsCompromise          flexBool              `json:"is_compromise"`
	CompromiseExplanation flexString            `json:"compromise_explanation"`
	Seasons               flexInt               `json:"seasons"`
	Episodes              flexInt               `json:"episodes"`
}

func (r rawRecord) toRecommendation() recommendation.Recommendation {
	return recommendation.Recommendation{
		Title:                 strings.TrimSpace(string(r.Title)),
		Type:                  recommendation.MediaType(strings.TrimSpace(string(r.Type))),
		Year:                  strings.TrimSpace(string(r.Year)),
		Genre:                 strings.TrimSpace(string(r.Genre)),
		Rating:                r.Rating,
		Description:           strings.TrimSpace(string(r.Description)),
		WhyRecommended:        strings.TrimSpace(string(r.WhyRecommended)),
		SimilarTitles:         r.SimilarTitles,
		ImageURL:              strings.TrimSpace(string(r.ImageURL)),
		TrailerURL:            strings.TrimSpace(string(r.TrailerURL)),
		PreviewURL:            strings.TrimSpace(string(r.PreviewURL)),
		IsCompromise:          bool(r.IsCompromise),
		CompromiseExplanation: strings.TrimSpace(string(r.CompromiseExplanation)),
		Seasons:               int(r.Seasons),
		Episodes:              int(r.Episodes),
	}
}

// flexString accepts a JSON string or number; anything else decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexInt accepts a JSON number or a string with leading digits, so both
// 3 and "3 (if TV)" decode to 3.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexInt(leadingInt(s))
		return nil
	}
	*f = 0
	return nil
}

// flexBool accepts a JSON bool, a quoted bool, or a 0/1 number.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s))); err == nil {
			*f = flexBool(v)
			return nil
		}
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}
	*f = false
	return nil
}

// flexStrings accepts an array of strings (non-string elements skipped) or a
// single comma-separated string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err == nil {
		out := make([]string, 0, len(elements))
		for _, element := range elements {
			var s string
			if err := json.Unmarshal(element, &s); err != nil {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = splitCommaList(s)
		return nil
	}
	*f = nil
	return nil
}

// Structured-text fallback. A record opens on a line beginning with a trigger
// token or an ordinal like "1." or "2)"; labeled lines inside it are mapped
// through the field alias table. A record counts only once it has a title.

var ordinalRe = regexp.MustCompile(`^\d+[.)]`)

var recordTriggers = []string{"title:", "movie:", "book:", "tv:", "recommendation", "###", "---"}

// fieldAliases maps line labels to record fields. Lookup favors the longest
// matching alias so "google books:" resolves to preview_url, not to the
// shorter "book:" title alias inside it; equal lengths resolve to the
// earlier entry.
var fieldAliases = []struct {
	alias string
	field string
}{
	{"title:", "title"},
	{"movie:", "title"},
	{"book:", "title"},
	{"tv:", "title"},
	{"show:", "title"},
	{"year:", "year"},
	{"released:", "year"},
	{"published:", "year"},
	{"aired:", "year"},
	{"genre:", "genre"},
	{"genres:", "genre"},
	{"category:", "genre"},
	{"rating:", "rating"},
	{"score:", "rating"},
	{"description:", "description"},
	{"summary:", "description"},
	{"plot:", "description"},
	{"why:", "why_recommended"},
	{"why recommended:", "why_recommended"},
	{"recommended because:", "why_recommended"},
	{"matches because:", "why_recommended"},
	{"similar:", "similar_titles"},
	{"similar titles:", "similar_titles"},
	{"seasons:", "seasons"},
	{"episodes:", "episodes"},
	{"type:", "type"},
	{"image:", "image_url"},
	{"image url:", "image_url"},
	{"cover:", "image_url"},
	{"poster:", "image_url"},
	{"trailer:", "trailer_url"},
	{"trailer url:", "trailer_url"},
	{"video:", "trailer_url"},
	{"preview:", "preview_url"},
	{"preview url:", "preview_url"},
	{"sample:", "preview_url"},
	{"google books:", "preview_url"},
}

func parseStructuredText(text string) []recommendation.Recommendation {
	var recs []recommendation.Recommendation
	var current recommendation.Recommendation
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if opensRecord(line) && current.Title != "" {
			recs = append(recs, current)
			current = recommendation.Recommendation{}
		}
		captureField(line, &current)
	}
	if current.Title != "" {
		recs = append(recs, current)
	}
	return recs
}

func opensRecord(line string) bool {
	lower := strings.ToLower(line)
	for _, trigger := range recordTriggers {
		if strings.HasPrefix(lower, trigger) {
			return true
		}
	}
	return ordinalRe.MatchString(lower)
}

// captureField assigns the text after the line's first colon to the field
// named by the longest alias present in the line. Lines without a known
// label are ignored.
func captureField(line string, rec *recommendation.Recommendation) {
	lower := strings.ToLower(line)
	best := ""
	field := ""
	for _, fa := range fieldAliases {
		if strings.Contains(lower, fa.alias) && len(fa.alias) > len(best) {
			best = fa.alias
			field = fa.field
		}
	}
	if field == "" {
		return
	}
	_, value, found := strings.Cut(line, ":")
	if !found {
		return
	}
	value = strings.TrimSpace(value)
	switch field {
	case "title":
		rec.Title = value
	case "year":
		rec.Year = value
	case "genre":
		rec.Genre = value
	case "rating":
		rec.Rating = recommendation.ParseRating(value)
	case "description":
		rec.Description = value
	case "why_recommended":
		rec.WhyRecommended = value
	case "similar_titles":
		rec.SimilarTitles = splitCommaList(value)
	case "seasons":
		rec.Seasons = leadingInt(value)
	case "episodes":
		rec.Episodes = leadingInt(value)
	case "type":
		rec.Type = recommendation.MediaType(strings.ToLower(value))
	case "image_url":
		rec.ImageURL = value
	case "trailer_url":
		rec.TrailerURL = value
	case "preview_url":
		rec.PreviewURL = value
	}
}

// splitCommaList splits a comma-joined list, dropping empty entries.
func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// leadingInt parses the leading digit run of s, so "3 (if TV)" yields 3.
// Anything without leading digits yields 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	digits := s
	for i, r := range s {
		if r < '0' || r > '9' {
			digits = s[:i]
			break
		}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return v
}
