package filename

import (
	"regexp"
	"strconv"
	"strings"
)

// TorrentStrategy parses scene and torrent style names such as
// "Blade.Runner.2049.2017.1080p.BluRay.x264-GROUP" or
// "The Expanse (2015) S01E01".
type TorrentStrategy struct{}

var (
	parenYearRegex = regexp.MustCompile(`\(((?:19|20)\d{2})\)`)
	bareYearRegex  = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	seasonEpRegex  = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*E(\d{1,3})\b`)
	seasonOnlyRe   = regexp.MustCompile(`(?i)\bS(\d{1,2})\b`)
)

// junkTokens terminate the title portion of a scene name. Lowercase.
var junkTokens = []string{
	"2160p", "1080p", "720p", "480p", "4k", "uhd",
	"bluray", "blu-ray", "bdrip", "brrip", "web-dl", "webdl", "webrip",
	"hdtv", "dvdrip", "dvd", "remux",
	"x264", "x265", "h264", "h265", "hevc", "avc", "xvid", "av1",
	"aac", "ac3", "eac3", "dts", "truehd", "atmos", "flac", "opus",
	"proper", "repack", "rerip", "extended", "internal", "limited",
	"10bit", "8bit", "hdr", "hdr10", "dv", "multi", "dubbed", "subbed",
}

// Extract produces at most one candidate from a scene style name.
func (TorrentStrategy) Extract(name string) []Candidate {
	clean := strings.NewReplacer(".", " ", "_", " ").Replace(name)

	var c Candidate

	// Season/episode marker bounds the title and fills the numbers.
	seLoc := seasonEpRegex.FindStringSubmatchIndex(clean)
	if seLoc != nil {
		season, _ := strconv.Atoi(clean[seLoc[2]:seLoc[3]])
		episode, _ := strconv.Atoi(clean[seLoc[4]:seLoc[5]])
		c.Season = ptr(season)
		c.Episode = ptr(episode)
	}

	// Prefer a parenthesised year; otherwise the last bare year that is
	// not the leading token (titles like "2012" stay intact).
	yearLoc := parenYearRegex.FindStringSubmatchIndex(clean)
	if yearLoc == nil {
		for _, m := range bareYearRegex.FindAllStringSubmatchIndex(clean, -1) {
			if m[0] == 0 {
				continue
			}
			yearLoc = m
		}
	}
	if yearLoc != nil {
		year, _ := strconv.Atoi(clean[yearLoc[2]:yearLoc[3]])
		c.Year = ptr(year)
	}

	// Title ends at the first of: season marker, year, junk token.
	end := len(clean)
	if seLoc != nil && seLoc[0] < end {
		end = seLoc[0]
	}
	if yearLoc != nil && yearLoc[0] < end {
		end = yearLoc[0]
	}
	if idx := firstJunkIndex(clean); idx >= 0 && idx < end {
		end = idx
	}

	c.Title = tidyTitle(clean[:end])
	if c.Title == "" {
		return nil
	}
	return []Candidate{c}
}

// firstJunkIndex returns the byte offset of the earliest junk token, or -1.
func firstJunkIndex(s string) int {
	lower := strings.ToLower(s)
	best := -1
	for _, tok := range junkTokens {
		idx := 0
		for {
			i := strings.Index(lower[idx:], tok)
			if i < 0 {
				break
			}
			pos := idx + i
			if isWordBounded(lower, pos, len(tok)) {
				if best < 0 || pos < best {
					best = pos
				}
				break
			}
			idx = pos + 1
		}
	}
	return best
}

func isWordBounded(s string, pos, length int) bool {
	if pos > 0 && isAlnum(s[pos-1]) {
		return false
	}
	if end := pos + length; end < len(s) && isAlnum(s[end]) {
		return false
	}
	return true
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// tidyTitle strips brackets and separator debris from a raw title slice.
func tidyTitle(s string) string {
	s = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ").Replace(s)
	s = strings.Trim(s, " -")
	return strings.Join(strings.Fields(s), " ")
}
