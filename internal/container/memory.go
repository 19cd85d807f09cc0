package container

import (
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Memory is an in-memory FrameContainer used by engine tests. It stages
// mutations exactly like the disk adapters and snapshots its state on
// Commit, so tests can assert both what was staged and what was persisted.
type Memory struct {
	FilePath  string
	Fmt       tagfile.Format
	Sys       System
	AudioInfo tagfile.HeaderInfo

	// CommitErr, when set, is returned by Commit instead of persisting.
	CommitErr error

	// V1Present simulates an ID3v1 trailer on the file. Commit updates it
	// to match the staged sync setting, like the MP3 adapter does.
	V1Present bool

	// NoArtworkWrite makes the container decline artwork writes, like the
	// TagLib-backed adapter.
	NoArtworkWrite bool

	fields map[FieldKey]string
	frames map[string]string
	popm   []Popularimeter
	pics   []Picture
	ver    int
	v1Sync bool

	// Commits counts successful Commit calls.
	Commits int
	// Committed is a snapshot of the state at the last successful Commit.
	Committed *MemoryState
	closed    bool
}

// MemoryState is a committed snapshot of a Memory container.
type MemoryState struct {
	Fields  map[FieldKey]string
	Frames  map[string]string
	Popm      []Popularimeter
	Pics      []Picture
	Version   int
	V1Sync    bool
	V1Present bool
}

// NewMemory builds an empty in-memory container. ID3v2 systems start at the
// version their System implies; an ID3v1-only fixture starts at the library
// default version 4, like a fresh tag opened on an untagged file. ID3
// fixtures start with a trailer present so the default sync-on policy sees
// them in sync.
func NewMemory(path string, format tagfile.Format, system System) *Memory {
	ver := 0
	switch system {
	case SystemID3v23:
		ver = 3
	case SystemID3v24, SystemID3v1:
		ver = 4
	}
	return &Memory{
		FilePath: path,
		Fmt:      format,
		Sys:      system,
		AudioInfo: tagfile.HeaderInfo{
			TaggingSystem: string(system),
		},
		V1Present: system.IsID3(),
		fields:    make(map[FieldKey]string),
		frames:    make(map[string]string),
		ver:       ver,
	}
}

func (m *Memory) Path() string              { return m.FilePath }
func (m *Memory) System() System            { return m.Sys }
func (m *Memory) Format() tagfile.Format    { return m.Fmt }
func (m *Memory) Audio() tagfile.HeaderInfo { return m.AudioInfo }

func (m *Memory) FieldValue(key FieldKey) string { return m.fields[key] }

func (m *Memory) SetField(key FieldKey, value string) { m.fields[key] = value }

func (m *Memory) DeleteField(key FieldKey) { delete(m.fields, key) }

func (m *Memory) ArtworkList() []Picture { return m.pics }

func (m *Memory) SetArtwork(pic Picture) {
	pic.Type = PictureFrontCover
	m.pics = []Picture{pic}
}

func (m *Memory) DeleteArtwork() { m.pics = nil }

func (m *Memory) SupportsArtworkWrite() bool { return !m.NoArtworkWrite }

func (m *Memory) Version() int { return m.ver }

func (m *Memory) SetVersion(v int) {
	m.ver = v
	switch v {
	case 4:
		m.Sys = SystemID3v24
	case 3:
		m.Sys = SystemID3v23
	}
}

func (m *Memory) HasFrame(id string) bool {
	_, ok := m.frames[id]
	return ok
}

func (m *Memory) TextFrame(id string) string { return m.frames[id] }

func (m *Memory) SetTextFrame(id, value string) { m.frames[id] = value }

func (m *Memory) RemoveFrame(id string) { delete(m.frames, id) }

func (m *Memory) Popularimeters() []Popularimeter { return m.popm }

func (m *Memory) SetPopularimeters(frames []Popularimeter) {
	m.popm = append([]Popularimeter(nil), frames...)
}

func (m *Memory) Pictures() []Picture { return m.pics }

func (m *Memory) SetPictures(pics []Picture) {
	m.pics = append([]Picture(nil), pics...)
}

func (m *Memory) HasFrames() bool {
	return len(m.frames) > 0 || len(m.fields) > 0 || len(m.popm) > 0 || len(m.pics) > 0
}

func (m *Memory) HasID3v1() bool { return m.V1Present }

func (m *Memory) SyncID3v1(enabled bool) { m.v1Sync = enabled }

func (m *Memory) Commit() error {
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.V1Present = m.v1Sync
	m.Committed = &MemoryState{
		Fields:    copyMap(m.fields),
		Frames:    copyMap(m.frames),
		Popm:      append([]Popularimeter(nil), m.popm...),
		Pics:      append([]Picture(nil), m.pics...),
		Version:   m.ver,
		V1Sync:    m.v1Sync,
		V1Present: m.V1Present,
	}
	m.Commits++
	return nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool { return m.closed }

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
