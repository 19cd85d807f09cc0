// Package genre resolves legacy numeric genre references against the fixed
// ID3v1/Winamp genre table.
//
// ID3v1 stores genres as a single byte index; early ID3v2 taggers carried the
// convention over by embedding the index in parentheses inside the TCON text
// frame, e.g. "(17)" or "(4)(17)". The engine always exposes genre as free
// text; this package translates between the two worlds.
package genre

import (
	"regexp"
	"strconv"
	"strings"
)

// Unknown is the reserved ID3v1 code for an unresolvable or empty genre.
const Unknown = 255

// numericRefs matches one or more parenthesized numeric genre references.
var numericRefs = regexp.MustCompile(`^(\(\d+\))+$`)

// singleRef extracts each parenthesized number.
var singleRef = regexp.MustCompile(`\((\d+)\)`)

// Resolve normalizes a raw genre field to a display label.
//
// A field consisting solely of parenthesized numeric references resolves to
// the label of the first in-range reference ("(4)(17)" yields "Disco").
// Plain non-numeric text is returned verbatim. Anything else, including
// out-of-range references like "(999)", resolves to the empty string.
func Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !numericRefs.MatchString(raw) {
		return raw
	}
	for _, m := range singleRef.FindAllStringSubmatch(raw, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if label, ok := Label(idx); ok {
			return label
		}
	}
	return ""
}

// Label returns the genre label for a numeric id.
func Label(id int) (string, bool) {
	if id < 0 || id >= len(labels) {
		return "", false
	}
	return labels[id], true
}

// Index returns the numeric id for a genre label, matching
// case-insensitively, or Unknown (255) when the label is not in the table.
// This is the ID3v1 write-back direction.
func Index(label string) int {
	label = strings.TrimSpace(label)
	if label == "" {
		return Unknown
	}
	for i, l := range labels {
		if strings.EqualFold(l, label) {
			return i
		}
	}
	return Unknown
}

// Count returns the number of entries in the genre table.
func Count() int {
	return len(labels)
}

// labels is the fixed id-to-label table: the 80 ID3v1 genres plus the
// Winamp extensions, ids 0 through 147.
var labels = []string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco",
	"Funk", "Grunge", "Hip-Hop", "Jazz", "Metal",
	"New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial",
	"Alternative", "Ska", "Death Metal", "Pranks", "Soundtrack",
	"Euro-Techno", "Ambient", "Trip-Hop", "Vocal", "Jazz+Funk",
	"Fusion", "Trance", "Classical", "Instrumental", "Acid",
	"House", "Game", "Sound Clip", "Gospel", "Noise",
	"AlternRock", "Bass", "Soul", "Punk", "Space",
	"Meditative", "Instrumental Pop", "Instrumental Rock", "Ethnic", "Gothic",
	"Darkwave", "Techno-Industrial", "Electronic", "Pop-Folk", "Eurodance",
	"Dream", "Southern Rock", "Comedy", "Cult", "Gangsta",
	"Top 40", "Christian Rap", "Pop/Funk", "Jungle", "Native American",
	"Cabaret", "New Wave", "Psychadelic", "Rave", "Showtunes",
	"Trailer", "Lo-Fi", "Tribal", "Acid Punk", "Acid Jazz",
	"Polka", "Retro", "Musical", "Rock & Roll", "Hard Rock",
	"Folk", "Folk-Rock", "National Folk", "Swing", "Fast Fusion",
	"Bebob", "Latin", "Revival", "Celtic", "Bluegrass",
	"Avantgarde", "Gothic Rock", "Progressive Rock", "Psychedelic Rock", "Symphonic Rock",
	"Slow Rock", "Big Band", "Chorus", "Easy Listening", "Acoustic",
	"Humour", "Speech", "Chanson", "Opera", "Chamber Music",
	"Sonata", "Symphony", "Booty Bass", "Primus", "Porn Groove",
	"Satire", "Slow Jam", "Club", "Tango", "Samba",
	"Folklore", "Ballad", "Power Ballad", "Rhythmic Soul", "Freestyle",
	"Duet", "Punk Rock", "Drum Solo", "A capella", "Euro-House",
	"Dance Hall", "Goa", "Drum & Bass", "Club-House", "Hardcore",
	"Terror", "Indie", "BritPop", "Negerpunk", "Polsk Punk",
	"Beat", "Christian Gangsta Rap", "Heavy Metal", "Black Metal", "Crossover",
	"Contemporary Christian", "Christian Rock", "Merengue", "Salsa", "Thrash Metal",
	"Anime", "JPop", "Synthpop",
}
