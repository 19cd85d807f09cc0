package container

import (
	"go.senan.xyz/taglib"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Generic adapts any TagLib-supported container (Ogg/Opus Vorbis comments,
// WMA/ASF attributes, and anything else without a dedicated adapter) to the
// Container interface through the uniform property-name API.
//
// TagLib's binding exposes neither an image read nor an image write call,
// so these containers decline artwork writes; the writer surfaces the
// limitation as a diagnostic instead of staging images that Commit would
// silently drop.
type Generic struct {
	path   string
	format tagfile.Format
	system System
	fields map[string][]string
	audio  tagfile.HeaderInfo
}

// openGeneric reads the property map of a TagLib-supported file.
func openGeneric(path string, format tagfile.Format, system System) (*Generic, error) {
	fields, err := taglib.ReadTags(path)
	if err != nil {
		return nil, errors.MalformedTag("read tags in " + path).WithCause(err)
	}
	if fields == nil {
		fields = make(map[string][]string)
	}

	c := &Generic{
		path:   path,
		format: format,
		system: system,
		fields: fields,
	}
	c.audio = c.probeProperties()
	return c, nil
}

// probeProperties reads stream properties through TagLib.
func (c *Generic) probeProperties() tagfile.HeaderInfo {
	info := tagfile.HeaderInfo{
		TaggingSystem: string(c.system),
		Encoder:       c.first(string(FieldEncoder)),
	}
	props, err := taglib.ReadProperties(c.path)
	if err != nil {
		return info
	}
	info.Bitrate = int(props.Bitrate)
	info.SampleRate = int(props.SampleRate)
	info.Channels = int(props.Channels)
	info.PlaytimeSec = int(props.Length.Seconds())
	return info
}

func (c *Generic) Path() string              { return c.path }
func (c *Generic) System() System            { return c.system }
func (c *Generic) Format() tagfile.Format    { return c.format }
func (c *Generic) Audio() tagfile.HeaderInfo { return c.audio }

func (c *Generic) FieldValue(key FieldKey) string {
	switch key {
	case FieldTrack:
		n, _ := splitPair(c.first(string(FieldTrack)))
		return n
	case FieldTrackTotal:
		if total := c.first(string(FieldTrackTotal)); total != "" {
			return total
		}
		_, total := splitPair(c.first(string(FieldTrack)))
		return total
	case FieldDisc:
		n, _ := splitPair(c.first(string(FieldDisc)))
		return n
	case FieldDiscTotal:
		if total := c.first(string(FieldDiscTotal)); total != "" {
			return total
		}
		_, total := splitPair(c.first(string(FieldDisc)))
		return total
	default:
		return c.first(string(key))
	}
}

func (c *Generic) SetField(key FieldKey, value string) {
	c.fields[string(key)] = []string{value}
}

func (c *Generic) DeleteField(key FieldKey) {
	delete(c.fields, string(key))
}

func (c *Generic) ArtworkList() []Picture { return nil }

func (c *Generic) SetArtwork(Picture) {}

func (c *Generic) DeleteArtwork() {}

func (c *Generic) SupportsArtworkWrite() bool { return false }

// Commit writes the full property map back, clearing what was deleted.
func (c *Generic) Commit() error {
	if err := taglib.WriteTags(c.path, c.fields, taglib.Clear); err != nil {
		return errors.Wrap(err, commitCode(err), "write tags in "+c.path)
	}
	return nil
}

// Close is a no-op; TagLib operates per call, not on an open handle.
func (c *Generic) Close() error {
	return nil
}

func (c *Generic) first(key string) string {
	values := c.fields[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
