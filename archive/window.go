package archive

import "strings"

const (
	frontMatterFraction = 0.10
	frontMatterCap      = 30
	fictionExtraSkip    = 5
	windowParagraphs    = 10

	// MinWindowLength is the acceptance threshold for a selected window;
	// shorter windows are treated as unreliable scan noise.
	MinWindowLength = 200
)

// SelectWindow picks a readable excerpt out of a full plain-text transcript.
// Paragraphs split on blank lines; an estimated front-matter span is skipped
// (10% of paragraphs, capped), fiction skips a few more to land past the
// opening page, then a fixed window of paragraphs is taken. Returns "" when
// the surviving window is below the reliability threshold.
func SelectWindow(fullText string, fiction bool) string {
	paragraphs := splitParagraphs(fullText)
	if len(paragraphs) == 0 {
		return ""
	}

	skip := int(float64(len(paragraphs)) * frontMatterFraction)
	if skip > frontMatterCap {
		skip = frontMatterCap
	}
	if fiction {
		skip += fictionExtraSkip
	}
	if skip >= len(paragraphs) {
		return ""
	}

	end := skip + windowParagraphs
	if end > len(paragraphs) {
		end = len(paragraphs)
	}

	window := strings.Join(paragraphs[skip:end], "\n\n")
	if len(window) < MinWindowLength {
		return ""
	}
	return window
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n\n")

	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
