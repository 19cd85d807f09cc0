package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		path   string
		format tagfile.Format
		system System
	}{
		{"song.mp3", tagfile.FormatMP3, SystemID3v23},
		{"song.MP3", tagfile.FormatMP3, SystemID3v23},
		{"song.m4a", tagfile.FormatMP4, SystemMP4},
		{"song.m4b", tagfile.FormatMP4, SystemMP4},
		{"song.ogg", tagfile.FormatOGG, SystemVorbis},
		{"song.opus", tagfile.FormatOGG, SystemVorbis},
		{"song.flac", tagfile.FormatFLAC, SystemVorbis},
		{"song.wma", tagfile.FormatWMA, SystemASF},
		{"song.txt", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, system := detectByExtension(tt.path)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.system, system)
		})
	}
}

func TestSystemIsID3(t *testing.T) {
	assert.True(t, SystemID3v1.IsID3())
	assert.True(t, SystemID3v23.IsID3())
	assert.True(t, SystemID3v24.IsID3())
	assert.False(t, SystemMP4.IsID3())
	assert.False(t, SystemVorbis.IsID3())
	assert.False(t, SystemASF.IsID3())
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("/nonexistent/song.mp3")
	require.Error(t, err)
}

func TestMemory_CommitSnapshotsState(t *testing.T) {
	m := NewMemory("/music/a.mp3", tagfile.FormatMP3, SystemID3v23)
	m.SetField(FieldTitle, "Title")
	m.SetTextFrame("TYER", "2019")

	require.NoError(t, m.Commit())
	require.NotNil(t, m.Committed)
	assert.Equal(t, 1, m.Commits)

	// Later staging must not leak into the committed snapshot.
	m.SetField(FieldTitle, "Other")
	m.RemoveFrame("TYER")
	assert.Equal(t, "Title", m.Committed.Fields[FieldTitle])
	assert.Equal(t, "2019", m.Committed.Frames["TYER"])
}

func TestID3v1_WriteAndStrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	audio := []byte("pretend-mpeg-frames")
	require.NoError(t, os.WriteFile(path, audio, 0o644))

	rec := id3v1Record{
		Title:  "Title",
		Artist: "Artist",
		Album:  "Album",
		Year:   "2019",
		Track:  3,
		Genre:  "Rock",
	}
	require.NoError(t, writeID3v1(path, rec))
	assert.True(t, hasID3v1(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, len(audio)+id3v1Size)
	trailer := data[len(audio):]
	assert.Equal(t, "TAG", string(trailer[:3]))
	assert.Equal(t, byte(0), trailer[125], "ID3v1.1 track marker")
	assert.Equal(t, byte(3), trailer[126])
	assert.Equal(t, byte(17), trailer[127], "Rock genre index")

	// Rewriting overwrites in place instead of appending a second trailer.
	rec.Title = "Other"
	require.NoError(t, writeID3v1(path, rec))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, len(audio)+id3v1Size)

	stripped, err := stripID3v1(path)
	require.NoError(t, err)
	assert.True(t, stripped)
	assert.False(t, hasID3v1(path))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, audio, data)

	// Stripping again is a no-op.
	stripped, err = stripID3v1(path)
	require.NoError(t, err)
	assert.False(t, stripped)
}

func TestPutID3v1Text_TruncatesAndPads(t *testing.T) {
	dst := make([]byte, 4)
	putID3v1Text(dst, "abcdef")
	assert.Equal(t, []byte("abcd"), dst)

	putID3v1Text(dst, "x")
	assert.Equal(t, []byte{'x', 0, 0, 0}, dst)
}
