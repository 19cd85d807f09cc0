package container

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// ID3v2 frame ids used by the adapter's uniform field mapping.
const (
	frameTitle       = "TIT2"
	frameArtist      = "TPE1"
	frameAlbum       = "TALB"
	frameAlbumArtist = "TPE2"
	frameComposer    = "TCOM"
	frameGenre       = "TCON"
	frameTrack       = "TRCK"
	frameDisc        = "TPOS"
	frameLanguage    = "TLAN"
	frameCompilation = "TCMP"
	frameEncoder     = "TSSE"
	frameYear        = "TYER"
	frameRecording   = "TDRC"
	frameComment     = "COMM"
	frameLyrics      = "USLT"
	framePicture     = "APIC"
	framePopularity  = "POPM"
)

// MP3 adapts a bogem/id3v2 tag to the Container interface. All mutations
// stay in the in-memory frame set until Commit.
type MP3 struct {
	path   string
	tag    *id3v2.Tag
	audio  tagfile.HeaderInfo
	syncV1 bool
	hadV1  bool
}

// openMP3 opens an MP3 file's ID3v2 tag, creating an empty one in memory
// when the file carries none.
func openMP3(path string, sniffed System) (*MP3, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		if errors.Is(err, id3v2.ErrUnsupportedVersion) {
			return nil, errors.UnsupportedFrame("unsupported ID3v2 version in " + path).WithCause(err)
		}
		return nil, mapOpenError(path, err)
	}

	if sniffed == SystemID3v24 {
		tag.SetVersion(4)
	}

	m := &MP3{
		path:  path,
		tag:   tag,
		hadV1: hasID3v1(path),
	}
	m.audio = probeAudio(path, m.System())
	if enc := m.textFrame(frameEncoder); enc != "" {
		m.audio.Encoder = enc
	}
	return m, nil
}

func (m *MP3) Path() string           { return m.path }
func (m *MP3) Format() tagfile.Format { return tagfile.FormatMP3 }

// System reports the variant actually in use: an MP3 with no v2 frames but
// a v1 trailer counts as ID3v1.
func (m *MP3) System() System {
	if m.tag.Count() == 0 && m.hadV1 {
		return SystemID3v1
	}
	if m.tag.Version() == 4 {
		return SystemID3v24
	}
	return SystemID3v23
}

func (m *MP3) Audio() tagfile.HeaderInfo {
	info := m.audio
	info.TaggingSystem = string(m.System())
	return info
}

// Version returns the ID3v2 major version, 3 or 4.
func (m *MP3) Version() int {
	return int(m.tag.Version())
}

// SetVersion stages a conversion of the whole tag to the given version.
func (m *MP3) SetVersion(v int) {
	if v == 3 || v == 4 {
		m.tag.SetVersion(byte(v))
	}
}

func (m *MP3) HasFrame(id string) bool {
	return len(m.tag.GetFrames(id)) > 0
}

func (m *MP3) TextFrame(id string) string {
	return m.textFrame(id)
}

func (m *MP3) SetTextFrame(id, value string) {
	m.tag.AddTextFrame(id, m.tag.DefaultEncoding(), value)
}

func (m *MP3) RemoveFrame(id string) {
	m.tag.DeleteFrames(id)
}

func (m *MP3) FieldValue(key FieldKey) string {
	switch key {
	case FieldTitle:
		return m.textFrame(frameTitle)
	case FieldArtist:
		return m.textFrame(frameArtist)
	case FieldAlbum:
		return m.textFrame(frameAlbum)
	case FieldAlbumArtist:
		return m.textFrame(frameAlbumArtist)
	case FieldComposer:
		return m.textFrame(frameComposer)
	case FieldGenre:
		return m.textFrame(frameGenre)
	case FieldTrack:
		n, _ := splitPair(m.textFrame(frameTrack))
		return n
	case FieldTrackTotal:
		_, total := splitPair(m.textFrame(frameTrack))
		return total
	case FieldDisc:
		n, _ := splitPair(m.textFrame(frameDisc))
		return n
	case FieldDiscTotal:
		_, total := splitPair(m.textFrame(frameDisc))
		return total
	case FieldComment:
		return m.commentText()
	case FieldLyrics:
		return m.lyricsText()
	case FieldLanguage:
		return m.textFrame(frameLanguage)
	case FieldCompilation:
		return m.textFrame(frameCompilation)
	case FieldDate:
		if m.Version() == 4 {
			return m.textFrame(frameRecording)
		}
		return m.textFrame(frameYear)
	case FieldEncoder:
		return m.textFrame(frameEncoder)
	default:
		return ""
	}
}

func (m *MP3) SetField(key FieldKey, value string) {
	switch key {
	case FieldTitle:
		m.SetTextFrame(frameTitle, value)
	case FieldArtist:
		m.SetTextFrame(frameArtist, value)
	case FieldAlbum:
		m.SetTextFrame(frameAlbum, value)
	case FieldAlbumArtist:
		m.SetTextFrame(frameAlbumArtist, value)
	case FieldComposer:
		m.SetTextFrame(frameComposer, value)
	case FieldGenre:
		m.SetTextFrame(frameGenre, value)
	case FieldTrack:
		m.setPairPart(frameTrack, value, true)
	case FieldTrackTotal:
		m.setPairPart(frameTrack, value, false)
	case FieldDisc:
		m.setPairPart(frameDisc, value, true)
	case FieldDiscTotal:
		m.setPairPart(frameDisc, value, false)
	case FieldComment:
		m.setComment(value)
	case FieldLyrics:
		m.setLyrics(value)
	case FieldLanguage:
		m.SetTextFrame(frameLanguage, value)
	case FieldCompilation:
		m.SetTextFrame(frameCompilation, value)
	case FieldDate:
		if m.Version() == 4 {
			m.SetTextFrame(frameRecording, value)
		} else {
			m.SetTextFrame(frameYear, value)
		}
	case FieldEncoder:
		m.SetTextFrame(frameEncoder, value)
	}
}

func (m *MP3) DeleteField(key FieldKey) {
	switch key {
	case FieldTitle:
		m.RemoveFrame(frameTitle)
	case FieldArtist:
		m.RemoveFrame(frameArtist)
	case FieldAlbum:
		m.RemoveFrame(frameAlbum)
	case FieldAlbumArtist:
		m.RemoveFrame(frameAlbumArtist)
	case FieldComposer:
		m.RemoveFrame(frameComposer)
	case FieldGenre:
		m.RemoveFrame(frameGenre)
	case FieldTrack:
		m.setPairPart(frameTrack, "", true)
	case FieldTrackTotal:
		m.setPairPart(frameTrack, "", false)
	case FieldDisc:
		m.setPairPart(frameDisc, "", true)
	case FieldDiscTotal:
		m.setPairPart(frameDisc, "", false)
	case FieldComment:
		m.RemoveFrame(frameComment)
	case FieldLyrics:
		m.RemoveFrame(frameLyrics)
	case FieldLanguage:
		m.RemoveFrame(frameLanguage)
	case FieldCompilation:
		m.RemoveFrame(frameCompilation)
	case FieldDate:
		if m.Version() == 4 {
			m.RemoveFrame(frameRecording)
		} else {
			m.RemoveFrame(frameYear)
		}
	case FieldEncoder:
		m.RemoveFrame(frameEncoder)
	}
}

func (m *MP3) Popularimeters() []Popularimeter {
	var frames []Popularimeter
	for _, f := range m.tag.GetFrames(framePopularity) {
		popm, ok := f.(id3v2.PopularimeterFrame)
		if !ok {
			continue
		}
		frames = append(frames, Popularimeter{
			Email:  popm.Email,
			Rating: int(popm.Rating),
		})
	}
	return frames
}

func (m *MP3) SetPopularimeters(frames []Popularimeter) {
	m.tag.DeleteFrames(framePopularity)
	for _, f := range frames {
		rating := f.Rating
		if rating < 0 {
			rating = 0
		} else if rating > 255 {
			rating = 255
		}
		m.tag.AddFrame(framePopularity, id3v2.PopularimeterFrame{
			Email:   f.Email,
			Rating:  uint8(rating),
			Counter: big.NewInt(0),
		})
	}
}

func (m *MP3) Pictures() []Picture {
	var pics []Picture
	for _, f := range m.tag.GetFrames(framePicture) {
		apic, ok := f.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		pics = append(pics, Picture{
			Data:        apic.Picture,
			MIMEType:    apic.MimeType,
			Description: apic.Description,
			Type:        PictureType(apic.PictureType),
		})
	}
	return pics
}

func (m *MP3) SetPictures(pics []Picture) {
	m.tag.DeleteFrames(framePicture)
	for _, pic := range pics {
		m.tag.AddFrame(framePicture, id3v2.PictureFrame{
			Encoding:    id3v2.EncodingISO,
			MimeType:    pic.MIMEType,
			PictureType: byte(pic.Type),
			Description: pic.Description,
			Picture:     pic.Data,
		})
	}
}

func (m *MP3) ArtworkList() []Picture {
	return m.Pictures()
}

func (m *MP3) SetArtwork(pic Picture) {
	pic.Type = PictureFrontCover
	m.SetPictures([]Picture{pic})
}

func (m *MP3) DeleteArtwork() {
	m.tag.DeleteFrames(framePicture)
}

func (m *MP3) SupportsArtworkWrite() bool { return true }

// HasFrames reports whether the v2 tag holds any frames. An untagged file
// yields a fresh tag with none.
func (m *MP3) HasFrames() bool {
	return m.tag.Count() > 0
}

func (m *MP3) HasID3v1() bool {
	return m.hadV1
}

func (m *MP3) SyncID3v1(enabled bool) {
	m.syncV1 = enabled
}

// Commit writes the staged frame set, then rewrites or strips the ID3v1
// trailer according to the sync setting.
func (m *MP3) Commit() error {
	if err := m.tag.Save(); err != nil {
		return errors.Wrap(err, commitCode(err), "save ID3v2 tag in "+m.path)
	}
	if m.syncV1 {
		if err := writeID3v1(m.path, m.v1Record()); err != nil {
			return errors.Wrap(err, commitCode(err), "write ID3v1 trailer in "+m.path)
		}
		m.hadV1 = true
		return nil
	}
	stripped, err := stripID3v1(m.path)
	if err != nil {
		return errors.Wrap(err, commitCode(err), "strip ID3v1 trailer in "+m.path)
	}
	if stripped {
		m.hadV1 = false
	}
	return nil
}

func (m *MP3) Close() error {
	return m.tag.Close()
}

// v1Record derives the ID3v1 trailer fields from the current v2 frames.
func (m *MP3) v1Record() id3v1Record {
	year := m.textFrame(frameYear)
	if year == "" {
		if tdrc := m.textFrame(frameRecording); len(tdrc) >= 4 {
			year = tdrc[:4]
		}
	}
	track := 0
	if n, _ := splitPair(m.textFrame(frameTrack)); n != "" {
		track, _ = strconv.Atoi(n)
	}
	return id3v1Record{
		Title:   m.textFrame(frameTitle),
		Artist:  m.textFrame(frameArtist),
		Album:   m.textFrame(frameAlbum),
		Year:    year,
		Comment: m.commentText(),
		Track:   track,
		Genre:   m.textFrame(frameGenre),
	}
}

func (m *MP3) textFrame(id string) string {
	return m.tag.GetTextFrame(id).Text
}

func (m *MP3) commentText() string {
	for _, f := range m.tag.GetFrames(frameComment) {
		if comm, ok := f.(id3v2.CommentFrame); ok {
			return comm.Text
		}
	}
	return ""
}

func (m *MP3) setComment(value string) {
	language := m.textFrame(frameLanguage)
	if len(language) != 3 {
		language = "eng"
	}
	m.tag.DeleteFrames(frameComment)
	m.tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding: m.tag.DefaultEncoding(),
		Language: strings.ToLower(language),
		Text:     value,
	})
}

func (m *MP3) lyricsText() string {
	for _, f := range m.tag.GetFrames(frameLyrics) {
		if uslt, ok := f.(id3v2.UnsynchronisedLyricsFrame); ok {
			return uslt.Lyrics
		}
	}
	return ""
}

func (m *MP3) setLyrics(value string) {
	language := m.textFrame(frameLanguage)
	if len(language) != 3 {
		language = "eng"
	}
	m.tag.DeleteFrames(frameLyrics)
	m.tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding: m.tag.DefaultEncoding(),
		Language: strings.ToLower(language),
		Lyrics:   value,
	})
}

// setPairPart updates one half of an "n/total" frame, removing the frame
// when both halves end up empty.
func (m *MP3) setPairPart(id, value string, numberPart bool) {
	n, total := splitPair(m.textFrame(id))
	if numberPart {
		n = value
	} else {
		total = value
	}
	if n == "" && total == "" {
		m.RemoveFrame(id)
		return
	}
	m.SetTextFrame(id, joinPair(n, total))
}

// splitPair splits an ID3 "n/total" value.
func splitPair(s string) (number, total string) {
	if s == "" {
		return "", ""
	}
	parts := strings.SplitN(s, "/", 2)
	number = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		total = strings.TrimSpace(parts[1])
	}
	return number, total
}

// joinPair renders an ID3 "n/total" value.
func joinPair(number, total string) string {
	if total == "" {
		return number
	}
	if number == "" {
		number = "0"
	}
	return fmt.Sprintf("%s/%s", number, total)
}

// commitCode maps a commit failure to the write-error taxonomy.
func commitCode(err error) errors.Code {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	if isPermission(err) {
		return errors.CodePermissionDenied
	}
	return errors.CodeIO
}
