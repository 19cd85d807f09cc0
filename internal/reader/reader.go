// Package reader builds normalized TagFile records from on-disk containers.
//
// Reading is format-agnostic where the container's uniform field API
// suffices; ID3v2 tags get dedicated date and rating resolution on top.
// Field-level parse failures never abort a read: they are recorded in the
// per-file diagnostic buffer and the field stays unset.
package reader

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/container"
	"github.com/tagforgeapp/tagforge-server/internal/diag"
	"github.com/tagforgeapp/tagforge-server/internal/genre"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/rating"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// ID3v2.3 writes a 999..2999 window for TYER; years outside it are ignored.
const (
	tyerMin = 999
	tyerMax = 2999
)

// id3v23DefaultYear backs a TDAT day/month when no valid TYER was seen.
const id3v23DefaultYear = 1900

// dateLayouts is the ID3v2.4 timestamp parse ladder, most precise first.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

// Reader builds TagFile records from containers.
type Reader struct {
	cfg     config.WriteConfig
	ratings *rating.Converter
	log     *logger.Logger
}

// New creates a Reader. The converter must cover every format the reader
// will encounter; the config gates the ID3v2.4 date frames consulted and
// names the preferred rating authority.
func New(cfg config.WriteConfig, ratings *rating.Converter, log *logger.Logger) *Reader {
	return &Reader{cfg: cfg, ratings: ratings, log: log}
}

// Read opens the file at path and builds its normalized record. The
// returned diagnostics hold non-fatal field issues; the error is non-nil
// only when the file could not be read at all.
func (r *Reader) Read(path string) (*tagfile.TagFile, *diag.Buffer, error) {
	c, err := container.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer c.Close()

	tf, d, err := r.ReadFrom(c)
	if err != nil {
		return nil, nil, err
	}
	if !d.Empty() {
		r.log.Debug("read diagnostics", "path", path, "issues", d.Lines())
	}
	return tf, d, nil
}

// ReadFrom builds a normalized record from an already-open container. Used
// by the writer's reload path; the caller keeps ownership of the container.
func (r *Reader) ReadFrom(c container.Container) (*tagfile.TagFile, *diag.Buffer, error) {
	d := &diag.Buffer{}
	tf := tagfile.New(c.Path(), c.Format())

	r.readAttrs(tf, c.Path())
	tf.SetHeader(c.Audio())

	r.readFields(tf, c, d)
	r.readDate(tf, c, d)
	r.readRating(tf, c, d)
	r.readArtwork(tf, c)

	// A freshly read record reflects disk, not pending edits.
	tf.ClearDirty()
	return tf, d, nil
}

// readAttrs mirrors the file's on-disk attributes into the record. Best
// effort: a container may not be backed by a real file (tests, pipes).
func (r *Reader) readAttrs(tf *tagfile.TagFile, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	readOnly := info.Mode().Perm()&0200 == 0
	tf.SetFileAttrs(info.Size(), info.ModTime(), info.ModTime(), readOnly)
}

// readFields copies the uniform text fields. Truncation to the defensive
// maximums happens inside the TagFile setters.
func (r *Reader) readFields(tf *tagfile.TagFile, c container.Container, d *diag.Buffer) {
	tf.SetTitle(c.FieldValue(container.FieldTitle))
	tf.SetArtist(c.FieldValue(container.FieldArtist))
	tf.SetAlbum(c.FieldValue(container.FieldAlbum))
	tf.SetAlbumArtist(c.FieldValue(container.FieldAlbumArtist))
	tf.SetComposer(c.FieldValue(container.FieldComposer))
	tf.SetComment(c.FieldValue(container.FieldComment))
	tf.SetLyrics(c.FieldValue(container.FieldLyrics))

	if lang := c.FieldValue(container.FieldLanguage); lang != "" {
		tf.SetLanguage(lang)
	}
	tf.SetCompilation(parseBool(c.FieldValue(container.FieldCompilation)))

	tf.SetGenre(genre.Resolve(c.FieldValue(container.FieldGenre)))

	track, trackTotal := r.parsePair(c, container.FieldTrack, container.FieldTrackTotal, d)
	tf.SetTrack(track, trackTotal)
	disc, discTotal := r.parsePair(c, container.FieldDisc, container.FieldDiscTotal, d)
	tf.SetDisc(disc, discTotal)
}

// parsePair reads a number/total field pair, diagnosing unparseable values.
func (r *Reader) parsePair(c container.Container, numKey, totalKey container.FieldKey, d *diag.Buffer) (int, int) {
	parse := func(key container.FieldKey) int {
		raw := strings.TrimSpace(c.FieldValue(key))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			d.Addf("ignoring unparseable %s value %q", key, raw)
			return 0
		}
		return n
	}
	return parse(numKey), parse(totalKey)
}

// readDate resolves the record's date or year. ID3v2 containers use the
// frame-level chains; everything else parses the single date field as a
// 4-digit year or an ISO date.
func (r *Reader) readDate(tf *tagfile.TagFile, c container.Container, d *diag.Buffer) {
	if fc, ok := frameContainer(c); ok {
		if fc.Version() >= 4 {
			r.readDateV24(tf, fc, d)
		} else {
			r.readDateV23(tf, fc, d)
		}
		return
	}

	raw := strings.TrimSpace(c.FieldValue(container.FieldDate))
	if raw == "" {
		return
	}
	if len(raw) == 4 {
		year, err := strconv.Atoi(raw)
		if err != nil {
			d.Addf("ignoring unparseable year %q", raw)
			return
		}
		tf.SetYear(year)
		return
	}
	if ts, ok := parseTimestamp(raw); ok {
		tf.SetDate(ts)
		return
	}
	d.Addf("ignoring unparseable date %q", raw)
}

// readDateV24 walks the ID3v2.4 date frames in fallback order, each gated
// by its config flag. The first frame that parses wins.
func (r *Reader) readDateV24(tf *tagfile.TagFile, fc container.FrameContainer, d *diag.Buffer) {
	frames := []struct {
		id      string
		enabled bool
	}{
		{"TDRL", r.cfg.UseTDRL},
		{"TDOR", r.cfg.UseTDOR},
		{"TDRC", r.cfg.UseTDRC},
	}
	for _, f := range frames {
		if !f.enabled || !fc.HasFrame(f.id) {
			continue
		}
		raw := strings.TrimSpace(fc.TextFrame(f.id))
		if raw == "" {
			continue
		}
		if len(raw) == 4 {
			if year, err := strconv.Atoi(raw); err == nil {
				tf.SetYear(year)
				return
			}
		}
		if ts, ok := parseTimestamp(raw); ok {
			tf.SetDate(ts)
			return
		}
		d.Addf("ignoring unparseable %s timestamp %q", f.id, raw)
	}
}

// readDateV23 merges the ID3v2.3 TYER year with the TDAT day/month pair.
// TDAT without a valid TYER gets the 1900 placeholder year.
func (r *Reader) readDateV23(tf *tagfile.TagFile, fc container.FrameContainer, d *diag.Buffer) {
	year := 0
	if raw := strings.TrimSpace(fc.TextFrame("TYER")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < tyerMin || n > tyerMax {
			d.Addf("ignoring invalid TYER year %q", raw)
		} else {
			year = n
			tf.SetYear(year)
		}
	}

	raw := strings.TrimSpace(fc.TextFrame("TDAT"))
	if raw == "" {
		return
	}
	// TDAT is DDMM.
	if len(raw) != 4 {
		d.Addf("ignoring invalid TDAT value %q", raw)
		return
	}
	day, errDay := strconv.Atoi(raw[:2])
	month, errMonth := strconv.Atoi(raw[2:])
	if errDay != nil || errMonth != nil || day < 1 || day > 31 || month < 1 || month > 12 {
		d.Addf("ignoring invalid TDAT value %q", raw)
		return
	}
	if year == 0 {
		year = id3v23DefaultYear
	}
	tf.SetDate(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// readRating resolves the half-star rating. ID3 containers scan their
// rating frames, preferring the configured authority and averaging
// otherwise; other containers parse the single rating field.
func (r *Reader) readRating(tf *tagfile.TagFile, c container.Container, d *diag.Buffer) {
	native, ok := r.nativeRating(c, d)
	if !ok {
		return
	}
	stars, err := r.ratings.ToHalfStars(c.Format(), native)
	if err != nil {
		d.Addf("rating conversion failed: %v", err)
		return
	}
	tf.SetRating(stars)
}

// nativeRating extracts the representative native rating value, reporting
// whether one was present.
func (r *Reader) nativeRating(c container.Container, d *diag.Buffer) (int, bool) {
	if fc, ok := frameContainer(c); ok {
		pops := fc.Popularimeters()
		if len(pops) == 0 {
			return 0, false
		}
		if r.cfg.RatingEmail != "" {
			for _, p := range pops {
				if p.Email == r.cfg.RatingEmail {
					return p.Rating, true
				}
			}
		}
		sum := 0
		for _, p := range pops {
			sum += p.Rating
		}
		return sum / len(pops), true
	}

	raw := strings.TrimSpace(c.FieldValue(container.FieldRating))
	if raw == "" {
		return 0, false
	}
	native, err := strconv.Atoi(raw)
	if err != nil || native < 0 {
		d.Addf("ignoring unparseable rating %q", raw)
		return 0, false
	}
	return native, true
}

// readArtwork picks the representative embedded image: the front cover
// when one is tagged, else the first image with data. It also records
// whether the container held exactly one image.
func (r *Reader) readArtwork(tf *tagfile.TagFile, c container.Container) {
	pics := c.ArtworkList()
	tf.SetSingleArtwork(len(pics) == 1)

	var chosen *container.Picture
	for i := range pics {
		if len(pics[i].Data) == 0 {
			continue
		}
		if pics[i].Type == container.PictureFrontCover {
			chosen = &pics[i]
			break
		}
		if chosen == nil {
			chosen = &pics[i]
		}
	}
	if chosen == nil {
		return
	}
	tf.SetArtwork(tagfile.NewArtwork(chosen.Data))
}

// frameContainer returns the frame-level surface when the container is an
// ID3 variant. The interface alone is not enough: test doubles implement it
// for every system.
func frameContainer(c container.Container) (container.FrameContainer, bool) {
	fc, ok := c.(container.FrameContainer)
	return fc, ok && c.System().IsID3()
}

// parseTimestamp tries the timestamp layouts from most to least precise.
func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
