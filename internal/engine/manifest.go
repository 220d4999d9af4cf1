package engine

import (
	"time"

	"storecast/internal/models"
)

// Manifest is the versioned, TTL-bounded snapshot a player consumes:
// what to play, which files it needs, and how long it may trust both.
type Manifest struct {
	StreamID        uint             `json:"stream_id"`
	StreamName      string           `json:"stream_name"`
	ManifestVersion int64            `json:"manifest_version"`
	GeneratedAt     time.Time        `json:"generated_at"`
	ValidForSeconds int              `json:"valid_for_seconds"`
	Config          ManifestConfig   `json:"config"`
	Files           []FileDescriptor `json:"files"`
	Queue           []QueueItem      `json:"queue"`
}

// ManifestConfig carries the stream's playback settings verbatim.
type ManifestConfig struct {
	Crossfade           int  `json:"crossfade"`
	VolumeNormalization bool `json:"volume_normalization"`
}

// FileDescriptor tells the offline sync layer what to download and how
// to verify it. (ID, Version, Hash) identify one binary payload.
type FileDescriptor struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	Hash    string `json:"hash"`
	Version int    `json:"version"`
	Size    int64  `json:"size"`
}

// URLResolver turns a storage key into a fetchable URL. Resolution
// must be a local computation (presigning counts) — the manifest path
// tolerates no network round-trips.
type URLResolver interface {
	URL(key string) (string, error)
}

// Assembler merges the selected queue with file descriptors and stream
// config into one snapshot.
type Assembler struct {
	urls URLResolver
}

func NewAssembler(urls URLResolver) *Assembler {
	return &Assembler{urls: urls}
}

// Assemble builds the manifest. Media arrives pre-deduplicated from
// the queue builder, so every queue media id maps to exactly one file
// entry. The version is the newest UpdatedAt across stream, schedules
// and content, as unix seconds: any state change moves it forward.
func (a *Assembler) Assemble(stream *models.Stream, queue []QueueItem, media []models.MediaItem, versions []time.Time, generatedAt time.Time, validFor time.Duration) (*Manifest, error) {
	version := stream.UpdatedAt
	for _, v := range versions {
		if v.After(version) {
			version = v
		}
	}

	files := make([]FileDescriptor, 0, len(media))
	for _, m := range media {
		url, err := a.urls.URL(m.StorageKey)
		if err != nil {
			return nil, err
		}
		files = append(files, FileDescriptor{
			ID:      m.ID,
			URL:     url,
			Hash:    m.Hash,
			Version: m.Version,
			Size:    m.SizeBytes,
		})
	}

	return &Manifest{
		StreamID:        stream.ID,
		StreamName:      stream.Name,
		ManifestVersion: version.Unix(),
		GeneratedAt:     generatedAt,
		ValidForSeconds: int(validFor.Seconds()),
		Config: ManifestConfig{
			Crossfade:           stream.CrossfadeSeconds,
			VolumeNormalization: stream.VolumeNormalization,
		},
		Files: files,
		Queue: queue,
	}, nil
}
