// Package writer applies normalized TagFile records back onto containers.
//
// The writer diffs every field against the container before touching it and
// keeps a change counter; the container is only committed when the counter
// is positive, so an unchanged record never rewrites its file. Per-field
// write failures are recorded in the diagnostic buffer and do not abort the
// remaining updates.
package writer

import (
	"fmt"
	"strconv"

	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/container"
	"github.com/tagforgeapp/tagforge-server/internal/diag"
	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/genre"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/rating"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Writer persists TagFile records to their containers.
type Writer struct {
	cfg     config.WriteConfig
	ratings *rating.Converter
	log     *logger.Logger
}

// New creates a Writer with the given write policy.
func New(cfg config.WriteConfig, ratings *rating.Converter, log *logger.Logger) *Writer {
	return &Writer{cfg: cfg, ratings: ratings, log: log}
}

// Write opens the record's file and persists the record. The boolean
// reports whether anything was committed; the diagnostics hold non-fatal
// field issues. A failed commit leaves the record dirty so the write can
// be retried.
func (w *Writer) Write(tf *tagfile.TagFile) (bool, *diag.Buffer, error) {
	if tf.ReadOnly() {
		return false, nil, errors.ReadOnly(tf.Path())
	}
	c, err := container.Open(tf.Path())
	if err != nil {
		return false, nil, err
	}
	defer c.Close()

	committed, d, err := w.WriteTo(tf, c)
	if err != nil {
		return committed, d, err
	}
	if !d.Empty() {
		w.log.Debug("write diagnostics", "path", tf.Path(), "issues", d.Lines())
	}
	return committed, d, nil
}

// WriteTo persists a record onto an already-open container. The caller
// keeps ownership of the container.
func (w *Writer) WriteTo(tf *tagfile.TagFile, c container.Container) (bool, *diag.Buffer, error) {
	d := &diag.Buffer{}
	if tf.ReadOnly() {
		return false, d, errors.ReadOnly(tf.Path())
	}

	changes := 0
	fc, isFrame := frameContainer(c)
	if isFrame {
		if fc.Version() != w.cfg.ID3Version {
			fc.SetVersion(w.cfg.ID3Version)
			// An untagged file yields a fresh tag at the library's
			// default version; converting it is not a change.
			if fc.HasFrames() {
				changes++
			}
		}
		fc.SyncID3v1(w.cfg.ID3v1Sync)
		switch {
		case fc.HasID3v1() && !w.cfg.ID3v1Sync:
			// A stale trailer alone forces a commit to strip it.
			changes++
		case !fc.HasID3v1() && w.cfg.ID3v1Sync && fc.HasFrames():
			// A tagged file missing its trailer gets one.
			changes++
		}
	}

	changes += w.setField(c, container.FieldTitle, tf.Title())
	changes += w.setField(c, container.FieldArtist, tf.Artist())
	changes += w.setField(c, container.FieldAlbum, tf.Album())
	changes += w.setField(c, container.FieldAlbumArtist, tf.AlbumArtist())
	changes += w.setField(c, container.FieldComposer, tf.Composer())
	changes += w.setField(c, container.FieldComment, tf.Comment())
	changes += w.setField(c, container.FieldLyrics, tf.Lyrics())
	changes += w.setField(c, container.FieldLanguage, tf.Language())
	changes += w.setField(c, container.FieldCompilation, boolField(tf.Compilation()))

	changes += w.writeGenre(c, tf)
	changes += w.writePair(c, container.FieldTrack, container.FieldTrackTotal, tf.Track(), tf.TrackTotal())
	changes += w.writePair(c, container.FieldDisc, container.FieldDiscTotal, tf.Disc(), tf.DiscTotal())

	if isFrame {
		changes += w.writeDateID3(fc, tf)
		changes += w.writeRatingID3(fc, tf, d)
	} else {
		changes += w.writeDateGeneric(c, tf)
		changes += w.writeRatingGeneric(c, tf, d)
	}

	changes += w.writeArtwork(c, tf, d)

	if isFrame {
		for _, id := range w.cfg.FrameBlacklist {
			if fc.HasFrame(id) {
				fc.RemoveFrame(id)
				changes++
			}
		}
	}

	if changes == 0 {
		d.Add("no changes found")
		return false, d, nil
	}

	if err := c.Commit(); err != nil {
		// Record stays dirty so the write can be retried.
		return false, d, err
	}
	tf.ClearDirty()
	tf.SetTaggingSystem(string(c.System()))
	return true, d, nil
}

// setField diffs one text field: an empty new value deletes an existing
// field, a differing non-empty value replaces it, anything else is a no-op.
func (w *Writer) setField(c container.Container, key container.FieldKey, value string) int {
	old := normalize(c.FieldValue(key))
	value = normalize(value)
	switch {
	case value == "" && old != "":
		c.DeleteField(key)
		return 1
	case value != "" && value != old:
		c.SetField(key, value)
		return 1
	}
	return 0
}

// writeGenre diffs the genre. A legacy parenthesized numeric reference on
// disk is resolved to its label before comparison, so an equivalent label
// does not force a rewrite.
func (w *Writer) writeGenre(c container.Container, tf *tagfile.TagFile) int {
	old := normalize(c.FieldValue(container.FieldGenre))
	want := normalize(tf.Genre())
	switch {
	case want == "" && old != "":
		c.DeleteField(container.FieldGenre)
		return 1
	case want != "" && want != genre.Resolve(old):
		c.SetField(container.FieldGenre, want)
		return 1
	}
	return 0
}

// writePair diffs a number/total pair. When both are absent the fields are
// deleted, which the ID3 adapter turns into whole-frame removal.
func (w *Writer) writePair(c container.Container, numKey, totalKey container.FieldKey, n, total int) int {
	return w.setField(c, numKey, intField(n)) + w.setField(c, totalKey, intField(total))
}

// writeDateGeneric writes the single date field: a full date as an ISO day,
// a bare year as 4 digits, nothing when unset.
func (w *Writer) writeDateGeneric(c container.Container, tf *tagfile.TagFile) int {
	want := ""
	if date, ok := tf.Date(); ok {
		want = date.Format("2006-01-02")
	} else if tf.Year() > 0 {
		want = fmt.Sprintf("%04d", tf.Year())
	}
	return w.setField(c, container.FieldDate, want)
}

// writeDateID3 mirrors the reader's date chains in reverse. ID3v2.3 gets
// TYER plus a TDAT day/month pair; ID3v2.4 writes each timestamp frame its
// config flag enables, removing it when the date is cleared.
func (w *Writer) writeDateID3(fc container.FrameContainer, tf *tagfile.TagFile) int {
	date, hasDate := tf.Date()

	if w.cfg.ID3Version == 3 {
		year := ""
		if tf.Year() > 0 {
			year = fmt.Sprintf("%04d", tf.Year())
		}
		tdat := ""
		if hasDate {
			tdat = fmt.Sprintf("%02d%02d", date.Day(), int(date.Month()))
		}
		changes := w.setFrame(fc, "TYER", year) + w.setFrame(fc, "TDAT", tdat)
		// Timestamp frames from a previous v2.4 tag have no place in v2.3.
		for _, id := range []string{"TDRL", "TDOR", "TDRC"} {
			changes += w.setFrame(fc, id, "")
		}
		return changes
	}

	want := ""
	if hasDate {
		want = date.Format("2006-01-02")
	} else if tf.Year() > 0 {
		want = fmt.Sprintf("%04d", tf.Year())
	}
	frames := []struct {
		id      string
		enabled bool
	}{
		{"TDRL", w.cfg.UseTDRL},
		{"TDOR", w.cfg.UseTDOR},
		{"TDRC", w.cfg.UseTDRC},
	}
	changes := 0
	for _, f := range frames {
		if f.enabled {
			changes += w.setFrame(fc, f.id, want)
		}
	}
	// The v2.3 year and day/month frames have no place in v2.4.
	changes += w.setFrame(fc, "TYER", "")
	changes += w.setFrame(fc, "TDAT", "")
	return changes
}

// setFrame diffs one text frame the way setField diffs a field.
func (w *Writer) setFrame(fc container.FrameContainer, id, value string) int {
	switch {
	case value == "" && fc.HasFrame(id):
		fc.RemoveFrame(id)
		return 1
	case value != "" && value != fc.TextFrame(id):
		fc.SetTextFrame(id, value)
		return 1
	}
	return 0
}

// writeRatingID3 reconciles the POPM frame set: update the configured
// authority's frame in place, collapse to a single frame when configured,
// create a frame when none matches, remove all frames on a cleared rating.
func (w *Writer) writeRatingID3(fc container.FrameContainer, tf *tagfile.TagFile, d *diag.Buffer) int {
	pops := fc.Popularimeters()

	if tf.Rating() == tagfile.RatingUnset {
		if len(pops) == 0 {
			return 0
		}
		fc.SetPopularimeters(nil)
		return 1
	}

	native, err := w.ratings.FromHalfStars(tf.Format(), tf.Rating())
	if err != nil {
		d.Addf("rating conversion failed: %v", err)
		return 0
	}

	idx := -1
	for i, p := range pops {
		if p.Email == w.cfg.RatingEmail {
			idx = i
			break
		}
	}

	changed := false
	if w.cfg.RatingSingleFrame {
		switch {
		case idx >= 0 && len(pops) > 1:
			pops = []container.Popularimeter{pops[idx]}
			idx = 0
			changed = true
		case idx < 0 && len(pops) > 0:
			pops = nil
			changed = true
		}
	}

	if idx >= 0 {
		if pops[idx].Rating != native {
			pops[idx].Rating = native
			changed = true
		}
	} else {
		pops = append(pops, container.Popularimeter{Email: w.cfg.RatingEmail, Rating: native})
		changed = true
	}

	if !changed {
		return 0
	}
	fc.SetPopularimeters(pops)
	return 1
}

// writeRatingGeneric diffs the single rating field in the container's
// native scale.
func (w *Writer) writeRatingGeneric(c container.Container, tf *tagfile.TagFile, d *diag.Buffer) int {
	want := ""
	if tf.Rating() != tagfile.RatingUnset {
		native, err := w.ratings.FromHalfStars(tf.Format(), tf.Rating())
		if err != nil {
			d.Addf("rating conversion failed: %v", err)
			return 0
		}
		want = strconv.Itoa(native)
	}
	return w.setField(c, container.FieldRating, want)
}

// writeArtwork reconciles embedded images. ID3 containers keep their
// picture set and update the front cover in place; other containers use a
// single-slot replace. Matching content hashes skip the write entirely.
// Containers that cannot persist images get a diagnostic instead.
func (w *Writer) writeArtwork(c container.Container, tf *tagfile.TagFile, d *diag.Buffer) int {
	art := tf.Artwork()
	if fc, ok := frameContainer(c); ok {
		return w.writeArtworkID3(fc, art)
	}

	list := c.ArtworkList()
	if !c.SupportsArtworkWrite() {
		switch {
		case art != nil && !(len(list) == 1 && sameImage(list[0].Data, art)):
			d.Add("artwork not written: unsupported for this container")
		case art == nil && len(list) > 0:
			d.Add("artwork not removed: unsupported for this container")
		}
		return 0
	}
	if art == nil {
		if len(list) == 0 {
			return 0
		}
		c.DeleteArtwork()
		return 1
	}
	if len(list) == 1 && sameImage(list[0].Data, art) {
		return 0
	}
	c.SetArtwork(picture(art))
	return 1
}

// writeArtworkID3 applies the frame-level artwork policy: delete all on a
// cleared artwork, collapse to one under the single-artwork setting,
// otherwise update the front cover, then the first untyped image, then
// append a new front cover.
func (w *Writer) writeArtworkID3(fc container.FrameContainer, art *tagfile.ArtworkTag) int {
	pics := fc.Pictures()

	if art == nil {
		if len(pics) == 0 {
			return 0
		}
		fc.SetPictures(nil)
		return 1
	}

	if w.cfg.SingleArtwork && len(pics) > 1 {
		fc.SetPictures([]container.Picture{picture(art)})
		return 1
	}

	idx := -1
	for i := range pics {
		if pics[i].Type == container.PictureFrontCover {
			idx = i
			break
		}
		if idx < 0 && pics[i].Type == container.PictureOther {
			idx = i
		}
	}
	if idx >= 0 {
		if sameImage(pics[idx].Data, art) {
			return 0
		}
		pics[idx].Data = art.Data()
		pics[idx].MIMEType = art.Format().MIMEType()
		fc.SetPictures(pics)
		return 1
	}

	fc.SetPictures(append(pics, picture(art)))
	return 1
}

// frameContainer returns the frame-level surface when the container is an
// ID3 variant. The interface alone is not enough: test doubles implement it
// for every system.
func frameContainer(c container.Container) (container.FrameContainer, bool) {
	fc, ok := c.(container.FrameContainer)
	return fc, ok && c.System().IsID3()
}

// picture converts an ArtworkTag to a front-cover container picture.
func picture(art *tagfile.ArtworkTag) container.Picture {
	return container.Picture{
		Data:     art.Data(),
		MIMEType: art.Format().MIMEType(),
		Type:     container.PictureFrontCover,
	}
}

// sameImage compares on-disk image bytes against an ArtworkTag by hash.
func sameImage(data []byte, art *tagfile.ArtworkTag) bool {
	return len(data) > 0 && tagfile.NewArtwork(data).Hash() == art.Hash()
}

// normalize folds the legacy "null" alias into the empty string.
func normalize(v string) string {
	if v == "null" {
		return ""
	}
	return v
}

func intField(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func boolField(v bool) string {
	if !v {
		return ""
	}
	return "1"
}
