package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"ewintr.nl/sermonai/model"
)

var (
	cueTiming  = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})\.(\d{3}) --> (\d{2}):(\d{2}):(\d{2})\.(\d{3})`)
	markupTag  = regexp.MustCompile(`<[^>]+>`)
	soundLabel = regexp.MustCompile(`\[.*?\]`)
)

// ParseVTT turns a WebVTT subtitle track into plain text plus timed
// segments. YouTube auto-captions repeat cue text across overlapping cues,
// so segments whose text was already seen are dropped before the full text
// is assembled.
func ParseVTT(content string) (string, []model.Segment) {
	var segments []model.Segment
	var current *model.Segment

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || line == "WEBVTT" ||
			strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:") {
			continue
		}

		if m := cueTiming.FindStringSubmatch(line); m != nil {
			if current != nil && current.Text != "" {
				segments = append(segments, *current)
			}
			current = &model.Segment{
				Start: cueSeconds(m[1], m[2], m[3], m[4]),
				End:   cueSeconds(m[5], m[6], m[7], m[8]),
			}
			continue
		}

		if current == nil {
			continue
		}

		text := markupTag.ReplaceAllString(line, "")
		text = soundLabel.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if current.Text != "" {
			current.Text += " " + text
		} else {
			current.Text = text
		}
	}
	if current != nil && current.Text != "" {
		segments = append(segments, *current)
	}

	deduped := make([]model.Segment, 0, len(segments))
	seen := make(map[string]bool, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		deduped = append(deduped, seg)
	}

	parts := make([]string, 0, len(deduped))
	for _, seg := range deduped {
		parts = append(parts, seg.Text)
	}
	full := multiSpace.ReplaceAllString(strings.Join(parts, " "), " ")

	return strings.TrimSpace(full), deduped
}

func cueSeconds(h, m, s, ms string) float64 {
	// the regexp guarantees digits only
	hi, _ := strconv.Atoi(h)
	mi, _ := strconv.Atoi(m)
	si, _ := strconv.Atoi(s)
	msi, _ := strconv.Atoi(ms)

	return 3600*float64(hi) + 60*float64(mi) + float64(si) + float64(msi)/1000
}
