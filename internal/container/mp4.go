package container

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	mp4tag "github.com/Sorrow446/go-mp4tag"
	"github.com/dhowden/tag"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Freeform atom names used for fields without a dedicated MP4 atom.
const (
	mp4CustomLanguage    = "LANGUAGE"
	mp4CustomRating      = "RATING"
	mp4CustomCompilation = "COMPILATION"
	mp4CustomTrackTotal  = "TOTALTRACKS"
	mp4CustomDiscTotal   = "TOTALDISCS"
)

// MP4 adapts an MP4/M4A atom tree to the Container interface. Reads go
// through dhowden/tag, which parses the atom tree; writes are staged per
// field and applied in one go-mp4tag Write call at Commit. No file handle
// is held between the two.
type MP4 struct {
	path     string
	fields   map[FieldKey]string
	pictures []Picture
	audio    tagfile.HeaderInfo

	staged  map[FieldKey]string
	deleted map[FieldKey]bool

	picturesDirty bool
}

// openMP4 parses an MP4 container's metadata atoms.
func openMP4(path string) (*MP4, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mapOpenError(path, err)
	}
	defer f.Close()

	c := &MP4{
		path:    path,
		fields:  make(map[FieldKey]string),
		audio:   probeAudio(path, SystemMP4),
		staged:  make(map[FieldKey]string),
		deleted: make(map[FieldKey]bool),
	}

	meta, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			// An untagged file still opens writable.
			return c, nil
		}
		return nil, errors.MalformedTag("parse MP4 atoms in " + path).WithCause(err)
	}
	c.readMeta(meta)
	return c, nil
}

// readMeta copies the parsed atom values into the uniform field map.
func (c *MP4) readMeta(meta tag.Metadata) {
	set := func(key FieldKey, value string) {
		if value != "" {
			c.fields[key] = value
		}
	}
	set(FieldTitle, meta.Title())
	set(FieldArtist, meta.Artist())
	set(FieldAlbum, meta.Album())
	set(FieldAlbumArtist, meta.AlbumArtist())
	set(FieldComposer, meta.Composer())
	set(FieldGenre, meta.Genre())
	set(FieldComment, meta.Comment())
	set(FieldLyrics, meta.Lyrics())

	n, total := meta.Track()
	set(FieldTrack, formatNonZero(n))
	set(FieldTrackTotal, formatNonZero(total))
	n, total = meta.Disc()
	set(FieldDisc, formatNonZero(n))
	set(FieldDiscTotal, formatNonZero(total))

	// The full release date lives in the day atom; dhowden only surfaces
	// the year through its typed API.
	if day := rawAtom(meta, "\xa9day"); day != "" {
		set(FieldDate, day)
	} else {
		set(FieldDate, formatNonZero(meta.Year()))
	}
	if rawAtom(meta, "cpil") != "" {
		set(FieldCompilation, "1")
	}
	set(FieldLanguage, rawAtom(meta, mp4CustomLanguage))
	set(FieldRating, rawAtom(meta, mp4CustomRating))
	set(FieldEncoder, rawAtom(meta, "\xa9too"))

	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		c.pictures = append(c.pictures, Picture{
			Data:        pic.Data,
			MIMEType:    pic.MIMEType,
			Description: pic.Description,
			Type:        PictureFrontCover, // MP4 has a single unclassified cover slot
		})
	}
}

func (c *MP4) Path() string              { return c.path }
func (c *MP4) System() System            { return SystemMP4 }
func (c *MP4) Format() tagfile.Format    { return tagfile.FormatMP4 }
func (c *MP4) Audio() tagfile.HeaderInfo { return c.audio }

func (c *MP4) FieldValue(key FieldKey) string {
	if c.deleted[key] {
		return ""
	}
	if v, ok := c.staged[key]; ok {
		return v
	}
	return c.fields[key]
}

func (c *MP4) SetField(key FieldKey, value string) {
	delete(c.deleted, key)
	c.staged[key] = value
}

func (c *MP4) DeleteField(key FieldKey) {
	delete(c.staged, key)
	c.deleted[key] = true
}

func (c *MP4) ArtworkList() []Picture {
	return c.pictures
}

func (c *MP4) SetArtwork(pic Picture) {
	pic.Type = PictureFrontCover
	c.pictures = []Picture{pic}
	c.picturesDirty = true
}

func (c *MP4) DeleteArtwork() {
	c.pictures = nil
	c.picturesDirty = true
}

func (c *MP4) SupportsArtworkWrite() bool { return true }

// Commit folds the staged field changes into one go-mp4tag write.
func (c *MP4) Commit() error {
	out := &mp4tag.MP4Tags{Custom: make(map[string]string)}
	var deletes []string

	for key := range c.deleted {
		if atom := mp4DeleteName(key); atom != "" {
			deletes = append(deletes, atom)
		}
	}
	for key, value := range c.staged {
		c.applyField(out, key, value)
	}

	if c.picturesDirty {
		if len(c.pictures) == 0 {
			deletes = append(deletes, "cover")
		} else {
			for _, pic := range c.pictures {
				out.Pictures = append(out.Pictures, &mp4tag.MP4Picture{Data: pic.Data})
			}
		}
	}

	file, err := mp4tag.Open(c.path)
	if err != nil {
		return errors.Wrap(err, commitCode(err), "open MP4 for write: "+c.path)
	}
	defer file.Close()
	if err := file.Write(out, deletes); err != nil {
		return errors.Wrap(err, commitCode(err), "write MP4 atoms in "+c.path)
	}

	for key := range c.deleted {
		delete(c.fields, key)
	}
	for key, value := range c.staged {
		c.fields[key] = value
	}
	c.staged = make(map[FieldKey]string)
	c.deleted = make(map[FieldKey]bool)
	c.picturesDirty = false
	return nil
}

// Close is a no-op; no handle is held between open and commit.
func (c *MP4) Close() error {
	return nil
}

// applyField maps one staged field onto the outgoing MP4Tags.
func (c *MP4) applyField(out *mp4tag.MP4Tags, key FieldKey, value string) {
	switch key {
	case FieldTitle:
		out.Title = value
	case FieldArtist:
		out.Artist = value
	case FieldAlbum:
		out.Album = value
	case FieldAlbumArtist:
		out.AlbumArtist = value
	case FieldComposer:
		out.Composer = value
	case FieldGenre:
		out.CustomGenre = value
	case FieldTrack:
		out.TrackNumber = parseInt16(value)
	case FieldTrackTotal:
		out.TrackTotal = parseInt16(value)
		out.Custom[mp4CustomTrackTotal] = value
	case FieldDisc:
		out.DiscNumber = parseInt16(value)
	case FieldDiscTotal:
		out.DiscTotal = parseInt16(value)
		out.Custom[mp4CustomDiscTotal] = value
	case FieldComment:
		out.Comment = value
	case FieldLyrics:
		out.Lyrics = value
	case FieldCompilation:
		out.Custom[mp4CustomCompilation] = value
	case FieldDate:
		out.Date = value
		if year := leadingYear(value); year > 0 {
			out.Year = int32(year)
		}
	case FieldLanguage:
		out.Custom[mp4CustomLanguage] = value
	case FieldRating:
		out.Custom[mp4CustomRating] = value
	}
}

// mp4DeleteName maps a field key to go-mp4tag's delete identifier.
func mp4DeleteName(key FieldKey) string {
	switch key {
	case FieldTitle:
		return "title"
	case FieldArtist:
		return "artist"
	case FieldAlbum:
		return "album"
	case FieldAlbumArtist:
		return "albumartist"
	case FieldComposer:
		return "composer"
	case FieldGenre:
		return "genre"
	case FieldTrack, FieldTrackTotal:
		return "track"
	case FieldDisc, FieldDiscTotal:
		return "disk"
	case FieldComment:
		return "comment"
	case FieldLyrics:
		return "lyrics"
	case FieldDate:
		return "year"
	default:
		return ""
	}
}

// rawAtom looks up an atom in the raw metadata map, trying the freeform
// iTunes form for non-standard names.
func rawAtom(meta tag.Metadata, name string) string {
	raw := meta.Raw()
	for _, key := range []string{name, "----:com.apple.iTunes:" + name} {
		if v, ok := raw[key]; ok && v != nil {
			return atomString(v)
		}
	}
	return ""
}

// atomString renders a raw atom value; freeform atoms may carry raw bytes.
func atomString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return "1"
		}
		return ""
	case int:
		return formatNonZero(t)
	default:
		return fmt.Sprint(t)
	}
}

// formatNonZero renders a positive integer, empty for zero.
func formatNonZero(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// parseInt16 parses a tag number with int16 saturation.
func parseInt16(s string) int16 {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	if n > 32767 {
		return 32767
	}
	return int16(n)
}

// leadingYear extracts a leading 4-digit year from a date string.
func leadingYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return year
}
