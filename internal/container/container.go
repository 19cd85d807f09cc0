// Package container is the engine's boundary to on-disk tag structures.
//
// A Container is one audio file's parsed tag, exposed through a uniform
// field-key API plus optional frame-level access for ID3. Adapters wrap the
// underlying tag libraries; the engine never touches raw bytes itself.
// Dispatch over the container variant happens once, at Open.
package container

import (
	"io/fs"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// System identifies the tag container variant in use. The set is closed;
// the reader and writer dispatch over it exactly once per file.
type System string

// Known container variants.
const (
	SystemID3v1   System = "ID3v1"
	SystemID3v23  System = "ID3v2.3"
	SystemID3v24  System = "ID3v2.4"
	SystemMP4     System = "MP4"
	SystemVorbis  System = "Vorbis"
	SystemASF     System = "ASF"
	SystemGeneric System = "Generic"
)

// IsID3 reports whether the system is an ID3 variant. ID3 containers get
// the frame-level reader and writer paths.
func (s System) IsID3() bool {
	switch s {
	case SystemID3v1, SystemID3v23, SystemID3v24:
		return true
	}
	return false
}

// FieldKey names one metadata slot in the uniform field API. Adapters map
// keys to their native frames, atoms or comment names.
type FieldKey string

// Uniform field keys.
const (
	FieldTitle       FieldKey = "TITLE"
	FieldArtist      FieldKey = "ARTIST"
	FieldAlbum       FieldKey = "ALBUM"
	FieldAlbumArtist FieldKey = "ALBUMARTIST"
	FieldComposer    FieldKey = "COMPOSER"
	FieldGenre       FieldKey = "GENRE"
	FieldTrack       FieldKey = "TRACKNUMBER"
	FieldTrackTotal  FieldKey = "TRACKTOTAL"
	FieldDisc        FieldKey = "DISCNUMBER"
	FieldDiscTotal   FieldKey = "DISCTOTAL"
	FieldComment     FieldKey = "COMMENT"
	FieldLyrics      FieldKey = "LYRICS"
	FieldLanguage    FieldKey = "LANGUAGE"
	FieldCompilation FieldKey = "COMPILATION"
	FieldDate        FieldKey = "DATE"
	FieldRating      FieldKey = "RATING"
	FieldEncoder     FieldKey = "ENCODER"
)

// PictureType is the ID3/FLAC picture-type code of an embedded image.
type PictureType byte

// Picture-type codes the engine cares about.
const (
	PictureOther      PictureType = 0
	PictureFrontCover PictureType = 3
)

// Picture is one embedded image as stored in a container.
type Picture struct {
	Data        []byte
	MIMEType    string
	Description string
	Type        PictureType
}

// Popularimeter is one rating frame: a rating authority (email) and the
// native rating value it assigned.
type Popularimeter struct {
	Email  string
	Rating int
}

// Container is the uniform tag surface the engine reads and writes.
//
// Mutations are staged in memory; nothing reaches disk until Commit. Close
// releases the file handle and must be called on every path, including
// after a failed Commit.
type Container interface {
	// Path returns the on-disk path of the audio file.
	Path() string

	// System returns the container variant currently in use.
	System() System

	// Format returns the audio format of the file.
	Format() tagfile.Format

	// Audio returns the technical header attributes. The TaggingSystem
	// field matches System().
	Audio() tagfile.HeaderInfo

	// FieldValue returns the current value for a field key, empty when
	// the field is absent.
	FieldValue(key FieldKey) string

	// SetField stages a field value.
	SetField(key FieldKey, value string)

	// DeleteField stages removal of a field.
	DeleteField(key FieldKey)

	// ArtworkList returns the embedded images in container order.
	ArtworkList() []Picture

	// SetArtwork stages a single-slot artwork replacement.
	SetArtwork(pic Picture)

	// DeleteArtwork stages removal of all embedded images.
	DeleteArtwork()

	// SupportsArtworkWrite reports whether Commit can persist staged
	// artwork. Adapters whose backing library has no image write call
	// return false; the writer reports instead of staging.
	SupportsArtworkWrite() bool

	// Commit persists staged changes to disk.
	Commit() error

	// Close releases the underlying file handle without persisting.
	Close() error
}

// FrameContainer is the frame-level surface of ID3v2 containers, used by the
// MP3-specific reader and writer paths.
type FrameContainer interface {
	Container

	// Version returns 3 or 4 for ID3v2.3 / ID3v2.4.
	Version() int

	// SetVersion stages a version conversion of the whole tag.
	SetVersion(v int)

	// HasFrames reports whether the v2 tag holds any frames. A tag
	// created in memory for an untagged file has none.
	HasFrames() bool

	// HasID3v1 reports whether the file carries an ID3v1 trailer.
	HasID3v1() bool

	// HasFrame reports whether a frame with the given ID3v2 id exists.
	HasFrame(id string) bool

	// TextFrame returns the text of the first frame with the given id.
	TextFrame(id string) string

	// SetTextFrame stages a text frame value, replacing existing frames
	// with that id.
	SetTextFrame(id, value string)

	// RemoveFrame stages removal of all frames with the given id.
	RemoveFrame(id string)

	// Popularimeters returns all rating frames in container order.
	Popularimeters() []Popularimeter

	// SetPopularimeters replaces the full set of rating frames.
	SetPopularimeters(frames []Popularimeter)

	// Pictures returns all embedded images with their picture types.
	Pictures() []Picture

	// SetPictures replaces the full set of embedded images.
	SetPictures(pics []Picture)

	// SyncID3v1 controls the ID3v1 trailer at commit: when enabled the
	// trailer is rewritten in sync with the v2 tag, otherwise any
	// existing trailer is stripped.
	SyncID3v1(enabled bool)
}

// mapOpenError converts filesystem errors from opening a container into the
// engine's read-error taxonomy.
func mapOpenError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.NotFoundf("no such file: %s", path).WithCause(err)
	case errors.Is(err, fs.ErrPermission):
		return errors.PermissionDenied("open " + path).WithCause(err)
	default:
		return errors.Wrap(err, errors.CodeIO, "open "+path)
	}
}
