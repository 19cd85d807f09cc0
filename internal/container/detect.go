package container

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Open sniffs the container variant of the file at path and returns the
// matching adapter. Sniff failures fall back to the file extension, so a
// file with no tag yet still opens with a writable, empty container.
func Open(path string) (Container, error) {
	format, system, err := Detect(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case tagfile.FormatMP3:
		return openMP3(path, system)
	case tagfile.FormatFLAC:
		return openFLAC(path)
	case tagfile.FormatMP4:
		return openMP4(path)
	default:
		return openGeneric(path, format, system)
	}
}

// Detect determines the audio format and the tagging system of a file,
// preferring content sniffing over the extension.
func Detect(path string) (tagfile.Format, System, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", mapOpenError(path, err)
	}
	defer f.Close()

	extFormat, extSystem := detectByExtension(path)

	sniffFormat, sniffFileType, err := tag.Identify(f)
	if err != nil {
		// Untagged or unrecognized content; trust the extension.
		if extFormat == "" {
			return "", "", mapOpenError(path, err)
		}
		return extFormat, extSystem, nil
	}

	format := formatFromFileType(sniffFileType)
	if format == "" {
		format = extFormat
	}
	if format == "" {
		return "", "", mapOpenError(path, tag.ErrNoTagsFound)
	}

	system := systemFromSniff(sniffFormat, format)
	if system == "" {
		system = extSystem
	}
	return format, system, nil
}

// detectByExtension maps a file extension to format and default system.
func detectByExtension(path string) (tagfile.Format, System) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return tagfile.FormatMP3, SystemID3v23
	case ".m4a", ".m4b", ".mp4", ".aac":
		return tagfile.FormatMP4, SystemMP4
	case ".ogg", ".oga", ".opus":
		return tagfile.FormatOGG, SystemVorbis
	case ".flac":
		return tagfile.FormatFLAC, SystemVorbis
	case ".wma", ".asf":
		return tagfile.FormatWMA, SystemASF
	default:
		return "", ""
	}
}

// formatFromFileType maps a sniffed file type to the engine's format tag.
func formatFromFileType(ft tag.FileType) tagfile.Format {
	switch ft {
	case tag.MP3:
		return tagfile.FormatMP3
	case tag.FLAC:
		return tagfile.FormatFLAC
	case tag.OGG:
		return tagfile.FormatOGG
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return tagfile.FormatMP4
	default:
		return ""
	}
}

// systemFromSniff maps a sniffed tag format to the container variant.
func systemFromSniff(f tag.Format, format tagfile.Format) System {
	switch f {
	case tag.ID3v1:
		return SystemID3v1
	case tag.ID3v2_2, tag.ID3v2_3:
		return SystemID3v23
	case tag.ID3v2_4:
		return SystemID3v24
	case tag.MP4:
		return SystemMP4
	case tag.VORBIS:
		return SystemVorbis
	default:
		if format == tagfile.FormatWMA {
			return SystemASF
		}
		return SystemGeneric
	}
}
