package filename

import (
	"regexp"
	"strconv"
	"strings"
)

// AnimeStrategy parses fansub style names such as
// "[HorribleSubs] Letterkenny - 01 [720p]". Season defaults to 1 when the
// name carries no season marker, matching fansub convention.
type AnimeStrategy struct{}

var (
	// "[Group] Title - 01" with optional trailing tags or version suffix.
	animeRegex = regexp.MustCompile(`^\[[^\]]+\]\s*(.+?)\s*-\s*(\d{1,4})(?:v\d+)?\s*(?:[\[(].*)?$`)

	// Optional explicit season inside the title, e.g. "Title S2 - 05".
	animeSeasonRegex = regexp.MustCompile(`(?i)\bS(\d{1,2})$`)

	bracketTagRegex = regexp.MustCompile(`[\[(][^\])]*[\])]`)
)

// Extract produces at most one candidate from a fansub style name.
func (AnimeStrategy) Extract(name string) []Candidate {
	m := animeRegex.FindStringSubmatch(name)
	if m == nil {
		return nil
	}

	title := strings.TrimSpace(bracketTagRegex.ReplaceAllString(m[1], " "))
	episode, err := strconv.Atoi(m[2])
	if err != nil || episode == 0 {
		return nil
	}

	season := 1
	if sm := animeSeasonRegex.FindStringSubmatch(title); sm != nil {
		season, _ = strconv.Atoi(sm[1])
		title = strings.TrimSpace(title[:len(title)-len(sm[0])])
	}

	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return nil
	}

	return []Candidate{{
		Title:   title,
		Season:  ptr(season),
		Episode: ptr(episode),
	}}
}
