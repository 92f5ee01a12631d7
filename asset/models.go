package asset

import "github.com/bitrise-io/go-bynder/upload"

// Brand ...
type Brand struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	SubBrands   []SubBrand `json:"subBrands"`
}

// SubBrand ...
type SubBrand struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Tag ...
type Tag struct {
	ID         string `json:"id"`
	Tag        string `json:"tag"`
	MediaCount int    `json:"mediaCount"`
}

// Metaproperty is a metadata field of the portal, with its selectable options.
type Metaproperty struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Label           string               `json:"label"`
	Type            string               `json:"type"`
	ZIndex          int                  `json:"zindex"`
	IsMultiSelect   bool                 `json:"isMultiselect"`
	IsRequired      bool                 `json:"isRequired"`
	IsFilterable    bool                 `json:"isFilterable"`
	IsMainFilter    bool                 `json:"isMainfilter"`
	IsEditable      bool                 `json:"isEditable"`
	IsDrilldown     bool                 `json:"isDrilldown"`
	IsSearchable    bool                 `json:"isSearchable"`
	UseDependencies bool                 `json:"useDependencies"`
	Options         []MetapropertyOption `json:"options"`
}

// MetapropertyOption ...
type MetapropertyOption struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Label        string               `json:"label"`
	ZIndex       int                  `json:"zindex"`
	IsSelectable bool                 `json:"isSelectable"`
	MediaCount   int                  `json:"mediaCount"`
	Children     []MetapropertyOption `json:"options"`
}

// Media is an asset of the portal.
type Media struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Copyright       string            `json:"copyright"`
	Type            string            `json:"type"`
	BrandID         string            `json:"brandId"`
	IDHash          string            `json:"idHash"`
	Orientation     string            `json:"orientation"`
	DateCreated     string            `json:"dateCreated"`
	DateModified    string            `json:"dateModified"`
	DatePublished   string            `json:"datePublished"`
	Extension       []string          `json:"extension"`
	FileSize        int64             `json:"fileSize"`
	Height          int               `json:"height"`
	Width           int               `json:"width"`
	Archive         int               `json:"archive"`
	IsPublic        int               `json:"isPublic"`
	Tags            []string          `json:"tags"`
	PropertyOptions []string          `json:"propertyOptions"`
	Thumbnails      map[string]string `json:"thumbnails"`
	MediaItems      []MediaItem       `json:"mediaItems"`
	Original        string            `json:"original"`
}

// IsArchived ...
func (m Media) IsArchived() bool {
	return m.Archive == 1
}

// MediaItem is one stored file (version or derivative) of a Media.
type MediaItem struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	Type        string `json:"type"`
	Version     int    `json:"version"`
	Active      bool   `json:"active"`
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	DateCreated string `json:"dateCreated"`
}

// MediaWithTotal is a page of media together with the total number of results.
type MediaWithTotal struct {
	Media []Media    `json:"media"`
	Total TotalCount `json:"total"`
}

// TotalCount ...
type TotalCount struct {
	Count int `json:"count"`
}

// DownloadFileURL holds the signed URL of a media file.
type DownloadFileURL struct {
	S3File string `json:"s3_file"`
}

// Status is the acknowledgement of a modifying call. Both fields are empty when the API answers without a body.
type Status struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statuscode"`
}

// SaveResult ...
type SaveResult = upload.SaveResult
