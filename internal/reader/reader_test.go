package reader

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/container"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/rating"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

func testReader(cfg config.WriteConfig) *Reader {
	log := logger.New(logger.Config{Writer: io.Discard})
	return New(cfg, rating.MustConverter(nil), log)
}

func defaultWriteConfig() config.WriteConfig {
	return config.WriteConfig{
		ID3Version:  3,
		ID3v1Sync:   true,
		RatingEmail: "tagforge@example.com",
		UseTDRC:     true,
	}
}

func TestReadFrom_GenericFields(t *testing.T) {
	m := container.NewMemory("/music/song.flac", tagfile.FormatFLAC, container.SystemVorbis)
	m.SetField(container.FieldTitle, "Title")
	m.SetField(container.FieldArtist, "Artist")
	m.SetField(container.FieldAlbum, "Album")
	m.SetField(container.FieldAlbumArtist, "Various")
	m.SetField(container.FieldComposer, "Composer")
	m.SetField(container.FieldComment, "a comment")
	m.SetField(container.FieldLyrics, "la la la")
	m.SetField(container.FieldGenre, "Rock")
	m.SetField(container.FieldTrack, "3")
	m.SetField(container.FieldTrackTotal, "12")
	m.SetField(container.FieldDisc, "1")
	m.SetField(container.FieldDiscTotal, "2")
	m.SetField(container.FieldCompilation, "1")
	m.SetField(container.FieldDate, "2019")

	r := testReader(defaultWriteConfig())
	tf, d, err := r.ReadFrom(m)
	require.NoError(t, err)
	assert.True(t, d.Empty())

	assert.Equal(t, "Title", tf.Title())
	assert.Equal(t, "Artist", tf.Artist())
	assert.Equal(t, "Album", tf.Album())
	assert.Equal(t, "Various", tf.AlbumArtist())
	assert.Equal(t, "Composer", tf.Composer())
	assert.Equal(t, "a comment", tf.Comment())
	assert.Equal(t, "la la la", tf.Lyrics())
	assert.Equal(t, "Rock", tf.Genre())
	assert.Equal(t, 3, tf.Track())
	assert.Equal(t, 12, tf.TrackTotal())
	assert.Equal(t, 1, tf.Disc())
	assert.Equal(t, 2, tf.DiscTotal())
	assert.True(t, tf.Compilation())
	assert.Equal(t, 2019, tf.Year())
	assert.False(t, tf.Dirty(), "a fresh read must not be dirty")
}

func TestReadFrom_GenericISODate(t *testing.T) {
	m := container.NewMemory("/music/song.flac", tagfile.FormatFLAC, container.SystemVorbis)
	m.SetField(container.FieldDate, "2019-06-15")

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)

	date, ok := tf.Date()
	require.True(t, ok)
	assert.Equal(t, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, 2019, tf.Year())
}

func TestReadFrom_GenericBadDateIsDiagnosed(t *testing.T) {
	m := container.NewMemory("/music/song.flac", tagfile.FormatFLAC, container.SystemVorbis)
	m.SetField(container.FieldDate, "not-a-date")

	tf, d, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)

	_, ok := tf.Date()
	assert.False(t, ok)
	assert.Equal(t, 0, tf.Year())
	assert.False(t, d.Empty())
}

func TestReadFrom_LegacyGenreReference(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetField(container.FieldGenre, "(17)")

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)
	assert.Equal(t, "Rock", tf.Genre())
}

func TestReadFrom_ID3v24DateChain(t *testing.T) {
	tests := []struct {
		name     string
		frames   map[string]string
		cfg      func(*config.WriteConfig)
		wantYear int
		wantDate string
	}{
		{
			name:     "TDRC only",
			frames:   map[string]string{"TDRC": "2019-06-15"},
			wantDate: "2019-06-15",
		},
		{
			name:     "TDRL preferred when enabled",
			frames:   map[string]string{"TDRL": "2018-01-02", "TDRC": "2019-06-15"},
			cfg:      func(c *config.WriteConfig) { c.UseTDRL = true },
			wantDate: "2018-01-02",
		},
		{
			name:     "TDRL ignored when disabled",
			frames:   map[string]string{"TDRL": "2018-01-02", "TDRC": "2019-06-15"},
			wantDate: "2019-06-15",
		},
		{
			name:     "TDOR before TDRC",
			frames:   map[string]string{"TDOR": "2017-03-04", "TDRC": "2019-06-15"},
			cfg:      func(c *config.WriteConfig) { c.UseTDOR = true },
			wantDate: "2017-03-04",
		},
		{
			name:     "bare year",
			frames:   map[string]string{"TDRC": "2019"},
			wantYear: 2019,
		},
		{
			name:     "full timestamp",
			frames:   map[string]string{"TDRC": "2019-06-15T10:30:00"},
			wantDate: "2019-06-15",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultWriteConfig()
			cfg.ID3Version = 4
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}

			m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v24)
			for id, value := range tt.frames {
				m.SetTextFrame(id, value)
			}

			tf, _, err := testReader(cfg).ReadFrom(m)
			require.NoError(t, err)

			if tt.wantDate != "" {
				date, ok := tf.Date()
				require.True(t, ok, "expected a full date")
				assert.Equal(t, tt.wantDate, date.Format("2006-01-02"))
			} else {
				_, ok := tf.Date()
				assert.False(t, ok)
				assert.Equal(t, tt.wantYear, tf.Year())
			}
		})
	}
}

func TestReadFrom_ID3v23YearAndDate(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetTextFrame("TYER", "2019")
	m.SetTextFrame("TDAT", "1506") // DDMM: June 15th

	tf, d, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)
	assert.True(t, d.Empty())

	date, ok := tf.Date()
	require.True(t, ok)
	assert.Equal(t, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), date)
}

func TestReadFrom_ID3v23DateWithoutYearGets1900(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetTextFrame("TDAT", "0101")

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)

	date, ok := tf.Date()
	require.True(t, ok)
	assert.Equal(t, 1900, date.Year())
}

func TestReadFrom_ID3v23InvalidYearDiagnosed(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetTextFrame("TYER", "87")

	tf, d, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)
	assert.Equal(t, 0, tf.Year())
	assert.False(t, d.Empty())
}

func TestReadFrom_RatingAuthorityMatchWins(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetPopularimeters([]container.Popularimeter{
		{Email: "someone@else.org", Rating: 255},
		{Email: "tagforge@example.com", Rating: 64},
	})

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)

	// 64 is the third MP3 breakpoint.
	assert.Equal(t, 3, tf.Rating())
}

func TestReadFrom_RatingAveragedWithoutMatch(t *testing.T) {
	cfg := defaultWriteConfig()
	cfg.RatingEmail = "nobody@example.com"

	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetPopularimeters([]container.Popularimeter{
		{Email: "a@x.org", Rating: 100},
		{Email: "b@x.org", Rating: 29},
	})

	tf, _, err := testReader(cfg).ReadFrom(m)
	require.NoError(t, err)

	// Integer average (100+29)/2 = 64, the third breakpoint.
	assert.Equal(t, 3, tf.Rating())
}

func TestReadFrom_NoRatingFramesStaysUnset(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)
	assert.Equal(t, tagfile.RatingUnset, tf.Rating())
}

func TestReadFrom_ArtworkFrontCoverPreferred(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetPictures([]container.Picture{
		{Data: []byte("back"), Type: container.PictureOther},
		{Data: []byte("front"), Type: container.PictureFrontCover},
	})

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)

	require.NotNil(t, tf.Artwork())
	assert.Equal(t, []byte("front"), tf.Artwork().Data())
	assert.False(t, tf.SingleArtwork())
}

func TestReadFrom_ArtworkFallsBackToFirstWithData(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetPictures([]container.Picture{
		{Data: nil, Type: container.PictureOther},
		{Data: []byte("img"), Type: container.PictureOther},
	})

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)

	require.NotNil(t, tf.Artwork())
	assert.Equal(t, []byte("img"), tf.Artwork().Data())
}

func TestReadFrom_SingleArtworkFlag(t *testing.T) {
	m := container.NewMemory("/music/song.mp3", tagfile.FormatMP3, container.SystemID3v23)
	m.SetPictures([]container.Picture{
		{Data: []byte("img"), Type: container.PictureFrontCover},
	})

	tf, _, err := testReader(defaultWriteConfig()).ReadFrom(m)
	require.NoError(t, err)
	assert.True(t, tf.SingleArtwork())
	require.NotNil(t, tf.Artwork())
}
