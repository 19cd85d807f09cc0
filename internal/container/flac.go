package container

import (
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// FLAC adapts a FLAC file's Vorbis-comment and PICTURE metadata blocks to
// the Container interface.
type FLAC struct {
	path     string
	file     *flac.File
	comment  *flacvorbis.MetaDataBlockVorbisComment
	pictures []Picture
	audio    tagfile.HeaderInfo

	picturesDirty bool
}

// openFLAC parses the metadata block list of a FLAC file.
func openFLAC(path string) (*FLAC, error) {
	file, err := flac.ParseFile(path)
	if err != nil {
		return nil, errors.MalformedTag("parse FLAC metadata in " + path).WithCause(err)
	}

	c := &FLAC{
		path:  path,
		file:  file,
		audio: probeAudio(path, SystemVorbis),
	}

	for _, block := range file.Meta {
		switch block.Type {
		case flac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, errors.MalformedTag("parse Vorbis comment in " + path).WithCause(err)
			}
			c.comment = cmt
		case flac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				// A corrupt picture block does not invalidate the tag.
				continue
			}
			c.pictures = append(c.pictures, Picture{
				Data:        pic.ImageData,
				MIMEType:    pic.MIME,
				Description: pic.Description,
				Type:        PictureType(pic.PictureType),
			})
		}
	}
	if c.comment == nil {
		c.comment = flacvorbis.New()
	}
	if c.audio.Encoder == "" {
		c.audio.Encoder = c.comment.Vendor
	}
	return c, nil
}

func (c *FLAC) Path() string              { return c.path }
func (c *FLAC) System() System            { return SystemVorbis }
func (c *FLAC) Format() tagfile.Format    { return tagfile.FormatFLAC }
func (c *FLAC) Audio() tagfile.HeaderInfo { return c.audio }

func (c *FLAC) FieldValue(key FieldKey) string {
	prefix := string(key) + "="
	for _, entry := range c.comment.Comments {
		if len(entry) >= len(prefix) && strings.EqualFold(entry[:len(prefix)], prefix) {
			return entry[len(prefix):]
		}
	}
	return ""
}

func (c *FLAC) SetField(key FieldKey, value string) {
	c.DeleteField(key)
	c.comment.Comments = append(c.comment.Comments, string(key)+"="+value)
}

func (c *FLAC) DeleteField(key FieldKey) {
	prefix := string(key) + "="
	kept := c.comment.Comments[:0]
	for _, entry := range c.comment.Comments {
		if len(entry) >= len(prefix) && strings.EqualFold(entry[:len(prefix)], prefix) {
			continue
		}
		kept = append(kept, entry)
	}
	c.comment.Comments = kept
}

func (c *FLAC) ArtworkList() []Picture {
	return c.pictures
}

func (c *FLAC) SetArtwork(pic Picture) {
	pic.Type = PictureFrontCover
	c.pictures = []Picture{pic}
	c.picturesDirty = true
}

func (c *FLAC) DeleteArtwork() {
	c.pictures = nil
	c.picturesDirty = true
}

func (c *FLAC) SupportsArtworkWrite() bool { return true }

// Commit rebuilds the metadata block list and saves the file in place.
func (c *FLAC) Commit() error {
	var meta []*flac.MetaDataBlock
	commentWritten := false
	for _, block := range c.file.Meta {
		switch block.Type {
		case flac.VorbisComment:
			if commentWritten {
				continue // collapse duplicate comment blocks
			}
			marshaled := c.comment.Marshal()
			meta = append(meta, &marshaled)
			commentWritten = true
		case flac.Picture:
			if !c.picturesDirty {
				meta = append(meta, block)
			}
		default:
			meta = append(meta, block)
		}
	}
	if !commentWritten {
		marshaled := c.comment.Marshal()
		meta = append(meta, &marshaled)
	}
	if c.picturesDirty {
		for _, pic := range c.pictures {
			block, err := flacpicture.NewFromImageData(
				flacpicture.PictureType(pic.Type), pic.Description, pic.Data, pic.MIMEType)
			if err != nil {
				return errors.Wrap(err, errors.CodeIO, "encode FLAC picture block")
			}
			marshaled := block.Marshal()
			meta = append(meta, &marshaled)
		}
	}
	c.file.Meta = meta

	if err := c.file.Save(c.path); err != nil {
		return errors.Wrap(err, commitCode(err), "save FLAC metadata in "+c.path)
	}
	c.picturesDirty = false
	return nil
}

// Close is a no-op; go-flac holds the whole file in memory.
func (c *FLAC) Close() error {
	return nil
}
