package upload

import (
	"context"
	"time"
)

// Transport performs the remote calls of an upload.
// Implementations may retry individual HTTP requests; the Uploader itself never does.
type Transport interface {
	// Prepare allocates an upload session and returns its file ID.
	Prepare(ctx context.Context) (string, error)
	// UploadChunk sends one chunk; sha256 is the hex checksum of data only.
	UploadChunk(ctx context.Context, fileID string, index int, sha256 string, data []byte) error
	// Finalize declares the session complete so the server can verify the whole file.
	Finalize(ctx context.Context, req FinalizeRequest) error
	// SaveMedia commits the session as a new asset.
	SaveMedia(ctx context.Context, fileID string, meta Metadata) (SaveResult, error)
	// SaveMediaVersion commits the session as a new version of the mediaID asset.
	SaveMediaVersion(ctx context.Context, mediaID, fileID string) (SaveResult, error)
}

// FinalizeRequest ...
type FinalizeRequest struct {
	FileID      string
	ChunksCount int
	FileName    string
	FileSize    int64
	// SHA256 is the hex checksum of the whole content.
	SHA256 string
}

// Metadata describes the asset an upload is committed as.
type Metadata struct {
	// BrandID is the brand the new asset is saved to.
	BrandID string
	// FileName is the name of the asset. Defaults to the base name of the uploaded file's path.
	FileName    string
	Copyright   string
	Description string
	IsPublic    bool
	// PublicationDate is sent in ISO 8601 format, in UTC.
	PublicationDate *time.Time
	// MediaID selects an existing asset; when set the upload is saved as a new version of it
	// and the other fields are ignored by the server.
	MediaID string
	Tags    []string
	// MetapropertyOptions maps metaproperty IDs to the option IDs set on the asset.
	MetapropertyOptions map[string][]string
}

// AddMetapropertyOptions sets the options of a metaproperty on the asset.
func (m *Metadata) AddMetapropertyOptions(metapropertyID string, optionIDs ...string) {
	if m.MetapropertyOptions == nil {
		m.MetapropertyOptions = map[string][]string{}
	}
	m.MetapropertyOptions[metapropertyID] = append(m.MetapropertyOptions[metapropertyID], optionIDs...)
}

// IsNewVersion reports whether the upload targets an existing asset.
func (m Metadata) IsNewVersion() bool {
	return m.MediaID != ""
}

// SaveResult is the server's acknowledgement of a committed asset or asset version.
type SaveResult struct {
	AccessRequestID string      `json:"accessRequestId"`
	MediaID         string      `json:"mediaid"`
	BatchID         string      `json:"batchId"`
	Success         bool        `json:"success"`
	MediaItems      []SavedItem `json:"mediaitems"`
}

// SavedItem is one stored file of a committed asset.
type SavedItem struct {
	OriginalFileName string `json:"original_filename"`
	MediaID          string `json:"mediaid"`
	DestinationID    string `json:"destination_id"`
}
