package filename

import (
	"regexp"
	"strconv"
	"strings"
)

// CombinedStrategy is the heuristic fallback. It understands "1x02" style
// episode markers and otherwise yields a bare title candidate so that a
// plain name like "Paterson" still enters the pipeline.
type CombinedStrategy struct{}

var crossEpRegex = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)

// Extract produces at most one candidate.
func (CombinedStrategy) Extract(name string) []Candidate {
	clean := strings.NewReplacer(".", " ", "_", " ").Replace(name)

	if m := crossEpRegex.FindStringSubmatchIndex(clean); m != nil {
		season, _ := strconv.Atoi(clean[m[2]:m[3]])
		episode, _ := strconv.Atoi(clean[m[4]:m[5]])
		title := tidyTitle(clean[:m[0]])
		if title == "" {
			return nil
		}
		return []Candidate{{
			Title:   title,
			Season:  ptr(season),
			Episode: ptr(episode),
		}}
	}

	end := len(clean)
	if idx := firstJunkIndex(clean); idx >= 0 {
		end = idx
	}
	title := tidyTitle(clean[:end])
	if title == "" {
		return nil
	}
	return []Candidate{{Title: title}}
}
