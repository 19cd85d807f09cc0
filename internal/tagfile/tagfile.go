// Package tagfile defines the normalized in-memory record for one audio file.
//
// A TagFile is created by the reader from an on-disk file, mutated in place
// by user edits (each setter marks the record dirty and recomputes its status
// code), and persisted by the writer, which clears the dirty flag again.
package tagfile

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Year sanity bounds for the editable year field.
const (
	YearMin = 1000
	YearMax = 2999
)

// incompleteYearFloor is the year below which a record counts as incomplete.
const incompleteYearFloor = 1800

// RatingUnset marks a record with no rating.
const RatingUnset = -1

// Defensive maximum lengths applied to text fields read from disk.
const (
	MaxShortText = 150
	MaxLyrics    = 10000
)

// HeaderInfo holds the read-only technical attributes of an audio file.
// Only the reader populates it.
type HeaderInfo struct {
	Codec         string
	Channels      int
	Bitrate       int
	SampleRate    int
	VBR           bool
	Lossless      bool
	PlaytimeSec   int
	Encoder       string
	TaggingSystem string
}

// TagFile is the normalized record for one audio file.
type TagFile struct {
	// Identity
	dir    string
	name   string
	ext    string
	format Format

	// File attributes
	size     int64
	created  time.Time
	modified time.Time
	readOnly bool

	// Header attributes (reader-owned)
	header HeaderInfo

	// Editable metadata
	title       string
	artist      string
	album       string
	albumArtist string
	composer    string
	genre       string
	year        int
	date        time.Time
	hasDate     bool
	track       int
	trackTotal  int
	disc        int
	discTotal   int
	comment     string
	lyrics      string
	language    string
	compilation bool
	rating      int
	artwork     *ArtworkTag

	// True when the on-disk container held exactly one embedded image.
	singleArtwork bool

	dirty bool
}

// New creates a TagFile for the given path with an unset rating.
func New(path string, format Format) *TagFile {
	return &TagFile{
		dir:    filepath.Dir(path),
		name:   filepath.Base(path),
		ext:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		format: format,
		rating: RatingUnset,
	}
}

// Identity accessors.

func (t *TagFile) Dir() string       { return t.dir }
func (t *TagFile) Name() string      { return t.name }
func (t *TagFile) Extension() string { return t.ext }
func (t *TagFile) Format() Format    { return t.format }

// Path returns the full file path.
func (t *TagFile) Path() string {
	return filepath.Join(t.dir, t.name)
}

// SameFile reports whether two records refer to the same logical file.
// Identity is directory plus filename, not content.
func (t *TagFile) SameFile(other *TagFile) bool {
	return other != nil && t.dir == other.dir && t.name == other.name
}

// Rename changes the record's filename. The caller is responsible for the
// actual filesystem rename.
func (t *TagFile) Rename(name string) {
	if name == "" || name == t.name {
		return
	}
	t.name = name
	t.ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	t.dirty = true
}

// File attribute accessors; SetFileAttrs is reader-owned and does not dirty
// the record.

func (t *TagFile) Size() int64         { return t.size }
func (t *TagFile) Created() time.Time  { return t.created }
func (t *TagFile) Modified() time.Time { return t.modified }
func (t *TagFile) ReadOnly() bool      { return t.readOnly }

// SetFileAttrs records the file's on-disk attributes.
func (t *TagFile) SetFileAttrs(size int64, created, modified time.Time, readOnly bool) {
	t.size = size
	t.created = created
	t.modified = modified
	t.readOnly = readOnly
}

// Header returns the technical header attributes.
func (t *TagFile) Header() HeaderInfo { return t.header }

// SetHeader records header attributes. Reader-owned; does not dirty the record.
func (t *TagFile) SetHeader(h HeaderInfo) { t.header = h }

// SetTaggingSystem updates the tagging-system name. The writer calls this
// after a successful commit, when the container variant may have changed.
func (t *TagFile) SetTaggingSystem(name string) { t.header.TaggingSystem = name }

// Editable metadata accessors.

func (t *TagFile) Title() string        { return t.title }
func (t *TagFile) Artist() string       { return t.artist }
func (t *TagFile) Album() string        { return t.album }
func (t *TagFile) AlbumArtist() string  { return t.albumArtist }
func (t *TagFile) Composer() string     { return t.composer }
func (t *TagFile) Genre() string        { return t.genre }
func (t *TagFile) Year() int            { return t.year }
func (t *TagFile) Track() int           { return t.track }
func (t *TagFile) TrackTotal() int      { return t.trackTotal }
func (t *TagFile) Disc() int            { return t.disc }
func (t *TagFile) DiscTotal() int       { return t.discTotal }
func (t *TagFile) Comment() string      { return t.comment }
func (t *TagFile) Lyrics() string       { return t.lyrics }
func (t *TagFile) Language() string     { return t.language }
func (t *TagFile) Compilation() bool    { return t.compilation }
func (t *TagFile) Rating() int          { return t.rating }
func (t *TagFile) Artwork() *ArtworkTag { return t.artwork }
func (t *TagFile) SingleArtwork() bool  { return t.singleArtwork }

// Date returns the full date and whether one is set. A set date supersedes
// the year field.
func (t *TagFile) Date() (time.Time, bool) { return t.date, t.hasDate }

func (t *TagFile) SetTitle(v string)       { t.setText(&t.title, v) }
func (t *TagFile) SetArtist(v string)      { t.setText(&t.artist, v) }
func (t *TagFile) SetAlbum(v string)       { t.setText(&t.album, v) }
func (t *TagFile) SetAlbumArtist(v string) { t.setText(&t.albumArtist, v) }
func (t *TagFile) SetComposer(v string)    { t.setText(&t.composer, v) }
func (t *TagFile) SetGenre(v string)       { t.setText(&t.genre, v) }
func (t *TagFile) SetComment(v string)     { t.setText(&t.comment, v) }

// SetLyrics stores lyrics, truncated to the defensive maximum.
func (t *TagFile) SetLyrics(v string) {
	v = Truncate(v, MaxLyrics)
	if t.lyrics == v {
		return
	}
	t.lyrics = v
	t.dirty = true
}

// SetLanguage stores a language code, normalized to its canonical form when
// it parses as a known tag; unparseable codes are kept verbatim.
func (t *TagFile) SetLanguage(v string) {
	if tag, err := language.Parse(v); err == nil {
		v = tag.String()
	}
	if t.language == v {
		return
	}
	t.language = v
	t.dirty = true
}

// SetYear stores a year. Values outside the 4-digit sanity range are
// ignored; zero clears the year.
func (t *TagFile) SetYear(v int) {
	if v != 0 && (v < YearMin || v > YearMax) {
		return
	}
	if t.year == v {
		return
	}
	t.year = v
	t.dirty = true
}

// SetDate stores a full date, which supersedes the bare year. The year field
// is kept in sync with the date's year.
func (t *TagFile) SetDate(v time.Time) {
	if t.hasDate && t.date.Equal(v) {
		return
	}
	t.date = v
	t.hasDate = true
	t.year = v.Year()
	t.dirty = true
}

// ClearDate removes the full date, leaving the year untouched.
func (t *TagFile) ClearDate() {
	if !t.hasDate {
		return
	}
	t.date = time.Time{}
	t.hasDate = false
	t.dirty = true
}

func (t *TagFile) SetTrack(n, total int)   { t.setPair(&t.track, &t.trackTotal, n, total) }
func (t *TagFile) SetDisc(n, total int)    { t.setPair(&t.disc, &t.discTotal, n, total) }

// SetCompilation stores the compilation flag.
func (t *TagFile) SetCompilation(v bool) {
	if t.compilation == v {
		return
	}
	t.compilation = v
	t.dirty = true
}

// SetRating stores a half-star rating. Values are clamped to [0, 10];
// RatingUnset (-1) clears the rating.
func (t *TagFile) SetRating(v int) {
	if v < 0 {
		v = RatingUnset
	} else if v > 10 {
		v = 10
	}
	if t.rating == v {
		return
	}
	t.rating = v
	t.dirty = true
}

// SetArtwork replaces the embedded artwork; nil clears it.
func (t *TagFile) SetArtwork(a *ArtworkTag) {
	if t.artwork.Equal(a) {
		return
	}
	t.artwork = a
	t.dirty = true
}

// SetSingleArtwork records whether exactly one image was present on disk.
// Reader-owned; does not dirty the record.
func (t *TagFile) SetSingleArtwork(v bool) { t.singleArtwork = v }

// Dirty reports whether any field has changed since the last persist.
func (t *TagFile) Dirty() bool { return t.dirty }

// MarkDirty forces the dirty flag, e.g. when the caller wants a rewrite.
func (t *TagFile) MarkDirty() { t.dirty = true }

// ClearDirty resets the dirty flag. The writer calls this after a
// successful commit.
func (t *TagFile) ClearDirty() { t.dirty = false }

// Incomplete reports whether the record is missing core metadata:
// empty genre, title, album or artist, or a year before 1800.
func (t *TagFile) Incomplete() bool {
	return t.genre == "" || t.title == "" || t.album == "" || t.artist == "" ||
		t.year < incompleteYearFloor
}

// StatusCode builds the compact per-file status string, one character per
// condition: read-only "r", dirty "*", incomplete "i", artwork missing "a",
// lyrics missing "l", rating missing "p". Absent conditions yield a dash so
// the code lines up in columnar display.
func (t *TagFile) StatusCode() string {
	var b strings.Builder
	b.Grow(6)
	appendFlag := func(on bool, c byte) {
		if on {
			b.WriteByte(c)
		} else {
			b.WriteByte('-')
		}
	}
	appendFlag(t.readOnly, 'r')
	appendFlag(t.dirty, '*')
	appendFlag(t.Incomplete(), 'i')
	appendFlag(t.artwork == nil, 'a')
	appendFlag(t.lyrics == "", 'l')
	appendFlag(t.rating == RatingUnset, 'p')
	return b.String()
}

// setText assigns a short text field with truncation and dirty tracking.
func (t *TagFile) setText(field *string, v string) {
	v = Truncate(v, MaxShortText)
	if *field == v {
		return
	}
	*field = v
	t.dirty = true
}

// setPair assigns a number/total pair with dirty tracking. Negative values
// are treated as zero (absent).
func (t *TagFile) setPair(n, total *int, newN, newTotal int) {
	newN = max(newN, 0)
	newTotal = max(newTotal, 0)
	if *n == newN && *total == newTotal {
		return
	}
	*n = newN
	*total = newTotal
	t.dirty = true
}

// Truncate cuts a string to at most limit runes.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
