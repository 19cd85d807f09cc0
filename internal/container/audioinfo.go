package container

import (
	"github.com/simonhull/audiometa"

	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// probeAudio reads technical header attributes through the audiometa
// parsing library. Probing is best effort: a file whose tag is readable but
// whose stream properties cannot be parsed still opens, with zero-valued
// header attributes.
func probeAudio(path string, system System) tagfile.HeaderInfo {
	info := tagfile.HeaderInfo{TaggingSystem: string(system)}

	file, err := audiometa.Open(path)
	if err != nil {
		return info
	}
	defer file.Close()

	info.Codec = file.Audio.Codec
	info.Channels = file.Audio.Channels
	info.Bitrate = file.Audio.Bitrate
	info.SampleRate = file.Audio.SampleRate
	info.VBR = file.Audio.VBR
	info.Lossless = file.Audio.Lossless
	info.PlaytimeSec = int(file.Audio.Duration.Seconds())
	info.Encoder = file.Tags.GetFirst("ENCODER")
	return info
}
