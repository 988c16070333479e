package domain

import "time"

// ArtifactKind enumerates the outputs a pipeline produces.
type ArtifactKind string

const (
	ArtifactRaw           ArtifactKind = "raw"
	ArtifactEnhanced      ArtifactKind = "enhanced"
	ArtifactGeneratedCode ArtifactKind = "generated-code"
	ArtifactLogo          ArtifactKind = "logo"
)

// Artifact is a produced binary. Repairs happen on Data before the first
// persist; once StoragePath is set the artifact is immutable.
type Artifact struct {
	Kind        ArtifactKind
	Data        []byte
	ContentType string
	StoragePath string
	SignedURL   string
	ExpiresAt   time.Time
}

// ContentType enumerates the result tables a generation can land in.
const (
	ContentTypeChart = "charts"
	ContentTypeImage = "images"
	ContentTypeVideo = "videos"
)

// ResultRecord is the canonical row describing a completed generation.
// DisplayURLs only lists artifacts intended for the end user; raw variants
// keep their storage path for reprocessing but are never surfaced.
type ResultRecord struct {
	ID           string
	OwnerID      string
	ContentType  string
	Title        string
	Prompt       string
	SpecJSON     []byte
	StoragePaths []string
	DisplayURLs  []string
	Status       string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// LibraryEntry is the secondary index row for cross-content-type browsing.
// It is created only after the ResultRecord exists and is best-effort.
type LibraryEntry struct {
	ID          string
	OwnerID     string
	ContentType string
	ContentID   string
	DateAdded   time.Time
}
