package container

import (
	"io"
	"io/fs"
	"os"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/genre"
)

// ID3v1 is a fixed 128-byte trailer at the end of the file, magic "TAG".
// The engine never reads metadata from it (the v2 tag wins), but keeps it in
// sync or strips it on write, per configuration.
const id3v1Size = 128

var id3v1Magic = []byte("TAG")

// id3v1Record holds the fields an ID3v1 trailer can carry.
type id3v1Record struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   int
	Genre   string
}

// hasID3v1 reports whether the file ends in an ID3v1 trailer.
func hasID3v1(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() < id3v1Size {
		return false
	}
	magic := make([]byte, 3)
	if _, err := f.ReadAt(magic, info.Size()-id3v1Size); err != nil {
		return false
	}
	return string(magic) == string(id3v1Magic)
}

// writeID3v1 appends or overwrites the ID3v1.1 trailer.
//
// Fields are truncated to the trailer's fixed widths; the genre is stored
// as its numeric table index, 255 when the label is not in the table.
func writeID3v1(path string, rec id3v1Record) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	offset := info.Size()
	if hasTrailer(f, info.Size()) {
		offset = info.Size() - id3v1Size
	}

	buf := make([]byte, id3v1Size)
	copy(buf[0:3], id3v1Magic)
	putID3v1Text(buf[3:33], rec.Title)
	putID3v1Text(buf[33:63], rec.Artist)
	putID3v1Text(buf[63:93], rec.Album)
	putID3v1Text(buf[93:97], rec.Year)
	// ID3v1.1 layout: 28-byte comment, zero marker, track byte.
	putID3v1Text(buf[97:125], rec.Comment)
	buf[125] = 0
	if rec.Track > 0 && rec.Track < 256 {
		buf[126] = byte(rec.Track)
	}
	buf[127] = byte(genre.Index(rec.Genre))

	_, err = f.WriteAt(buf, offset)
	return err
}

// stripID3v1 removes an existing ID3v1 trailer by truncating the file.
// Returns whether a trailer was removed.
func stripID3v1(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if !hasTrailer(f, info.Size()) {
		return false, nil
	}
	if err := f.Truncate(info.Size() - id3v1Size); err != nil {
		return false, err
	}
	return true, nil
}

// hasTrailer checks for the ID3v1 magic at the end of an open file.
func hasTrailer(r io.ReaderAt, size int64) bool {
	if size < id3v1Size {
		return false
	}
	magic := make([]byte, 3)
	if _, err := r.ReadAt(magic, size-id3v1Size); err != nil {
		return false
	}
	return string(magic) == string(id3v1Magic)
}

// putID3v1Text copies a string into a fixed-width, zero-padded field.
func putID3v1Text(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

// isPermission reports whether an error is a permission failure.
func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
