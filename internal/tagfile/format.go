package tagfile

// Format identifies the audio format of a tag file.
//
// The format selects the native rating scale and the container adapter; it is
// derived from the on-disk container, not from the file extension alone.
type Format string

// Supported audio formats.
const (
	FormatMP3  Format = "MP3"
	FormatMP4  Format = "MP4"
	FormatOGG  Format = "OGG"
	FormatFLAC Format = "FLAC"
	FormatWMA  Format = "WMA"
)

// Formats lists all supported audio formats.
func Formats() []Format {
	return []Format{FormatMP3, FormatMP4, FormatOGG, FormatFLAC, FormatWMA}
}

// Valid reports whether f is a supported audio format.
func (f Format) Valid() bool {
	switch f {
	case FormatMP3, FormatMP4, FormatOGG, FormatFLAC, FormatWMA:
		return true
	}
	return false
}

func (f Format) String() string {
	return string(f)
}
