package asset

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/bitrise-io/go-bynder/api"
)

// MetapropertiesQuery ...
type MetapropertiesQuery struct {
	// Count includes the asset count of every option.
	Count bool
	// Options includes the options of every metaproperty.
	Options bool
}

// NewMetapropertiesQuery returns the default query, options included without counts.
func NewMetapropertiesQuery() MetapropertiesQuery {
	return MetapropertiesQuery{Options: true}
}

func (q MetapropertiesQuery) values() url.Values {
	return url.Values{
		"options": []string{api.FormatBool(q.Options)},
		"count":   []string{api.FormatBool(q.Count)},
	}
}

// MetapropertyOptionsQuery ...
type MetapropertyOptionsQuery struct {
	MetapropertyID string
	Name           string
	// Limit defaults to 50 on the server.
	Limit int
	// Page defaults to 1 on the server.
	Page int
}

func (q MetapropertyOptionsQuery) values() url.Values {
	values := url.Values{}
	api.SetIfNotEmpty(values, "name", q.Name)
	api.SetIntIfPositive(values, "limit", q.Limit)
	api.SetIntIfPositive(values, "page", q.Page)
	return values
}

// CreateMetapropertyOptionQuery describes a new option of a metaproperty.
type CreateMetapropertyOptionQuery struct {
	// Name should be alphanumeric, it cannot be changed later.
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	ZIndex       int    `json:"zindex"`
	IsSelectable bool   `json:"isSelectable"`
	ParentID     string `json:"parentId,omitempty"`
}

func (q CreateMetapropertyOptionQuery) form() (url.Values, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return url.Values{"data": []string{string(data)}}, nil
}

// MediaQuery filters the media list.
type MediaQuery struct {
	BrandID           string
	SubBrandID        string
	CategoryID        string
	IDs               []string
	Keyword           string
	Limit             int
	Page              int
	PropertyOptionIDs []string
	// Type is one of image, document, audio, video.
	Type string
	Tags []string
	// IsArchived filters on the archived flag when set.
	IsArchived *bool
}

func (q MediaQuery) values() url.Values {
	values := url.Values{}
	api.SetIfNotEmpty(values, "brandId", q.BrandID)
	api.SetIfNotEmpty(values, "subBrandId", q.SubBrandID)
	api.SetIfNotEmpty(values, "categoryId", q.CategoryID)
	api.SetIfNotEmpty(values, "ids", api.JoinList(q.IDs))
	api.SetIfNotEmpty(values, "keyword", q.Keyword)
	api.SetIntIfPositive(values, "limit", q.Limit)
	api.SetIntIfPositive(values, "page", q.Page)
	api.SetIfNotEmpty(values, "propertyOptionId", api.JoinList(q.PropertyOptionIDs))
	api.SetIfNotEmpty(values, "type", q.Type)
	api.SetIfNotEmpty(values, "tags", api.JoinList(q.Tags))
	if q.IsArchived != nil {
		values.Set("isArchived", api.FormatBool(*q.IsArchived))
	}
	return values
}

// Orders accepted by MediaWithTotalQuery.OrderBy.
const (
	OrderByDateCreatedAsc    = "dateCreated asc"
	OrderByDateCreatedDesc   = "dateCreated desc"
	OrderByDateModifiedAsc   = "dateModified asc"
	OrderByDateModifiedDesc  = "dateModified desc"
	OrderByDatePublishedAsc  = "datePublished asc"
	OrderByDatePublishedDesc = "datePublished desc"
	OrderByNameAsc           = "name asc"
	OrderByNameDesc          = "name desc"
)

// MediaWithTotalQuery is a MediaQuery that can ask for the total count of results.
type MediaWithTotalQuery struct {
	MediaQuery
	IncludeTotal bool
	OrderBy      string
}

func (q MediaWithTotalQuery) values() url.Values {
	values := q.MediaQuery.values()
	values.Set("total", api.FormatBool(q.IncludeTotal))
	api.SetIfNotEmpty(values, "orderBy", q.OrderBy)
	return values
}

// MediaInformationQuery ...
type MediaInformationQuery struct {
	MediaID string
	// Versions includes all media items (versions) of the media.
	Versions bool
}

func (q MediaInformationQuery) values() url.Values {
	return url.Values{"versions": []string{api.FormatBool(q.Versions)}}
}

// ModifyMediaQuery holds the fields to change on a media. Empty fields are left untouched.
type ModifyMediaQuery struct {
	MediaID         string
	Name            string
	Description     string
	Copyright       string
	IsArchived      *bool
	PublicationDate *time.Time
	// MetapropertyOptions maps metaproperty IDs to the option IDs to set.
	MetapropertyOptions map[string][]string
}

// AddMetapropertyOptions ...
func (q *ModifyMediaQuery) AddMetapropertyOptions(metapropertyID string, optionIDs ...string) {
	if q.MetapropertyOptions == nil {
		q.MetapropertyOptions = map[string][]string{}
	}
	q.MetapropertyOptions[metapropertyID] = append(q.MetapropertyOptions[metapropertyID], optionIDs...)
}

func (q ModifyMediaQuery) form() url.Values {
	values := url.Values{}
	api.SetIfNotEmpty(values, "name", q.Name)
	api.SetIfNotEmpty(values, "description", q.Description)
	api.SetIfNotEmpty(values, "copyright", q.Copyright)
	if q.IsArchived != nil {
		values.Set("archive", api.FormatBool(*q.IsArchived))
	}
	api.SetIfNotEmpty(values, "datePublished", api.FormatDate(q.PublicationDate))
	api.SetMetapropertyOptions(values, q.MetapropertyOptions)
	return values
}

// GetTagsQuery ...
type GetTagsQuery struct {
	Keyword string
	Limit   int
	Page    int
	// OrderBy is for example "tag asc" or "mediaCount desc".
	OrderBy string
	// MinCount filters out tags used on fewer media.
	MinCount int
}

func (q GetTagsQuery) values() url.Values {
	values := url.Values{}
	api.SetIfNotEmpty(values, "keyword", q.Keyword)
	api.SetIntIfPositive(values, "limit", q.Limit)
	api.SetIntIfPositive(values, "page", q.Page)
	api.SetIfNotEmpty(values, "orderBy", q.OrderBy)
	api.SetIntIfPositive(values, "mincount", q.MinCount)
	return values
}

// AddTagToMediaQuery ...
type AddTagToMediaQuery struct {
	TagID    string
	MediaIDs []string
}

func (q AddTagToMediaQuery) form() (url.Values, error) {
	data, err := json.Marshal(q.MediaIDs)
	if err != nil {
		return nil, err
	}
	return url.Values{"data": []string{string(data)}}, nil
}

// DownloadMediaQuery selects a media, and optionally one of its items, to download.
// Without MediaItemID the original file is downloaded.
type DownloadMediaQuery struct {
	MediaID     string
	MediaItemID string
}

// AssetUsageQuery describes where an asset is used by an integration.
type AssetUsageQuery struct {
	IntegrationID string
	AssetID       string
	URI           string
	Additional    string
}

func (q AssetUsageQuery) values() url.Values {
	values := url.Values{}
	api.SetIfNotEmpty(values, "integration_id", q.IntegrationID)
	api.SetIfNotEmpty(values, "asset_id", q.AssetID)
	api.SetIfNotEmpty(values, "uri", q.URI)
	api.SetIfNotEmpty(values, "additional", q.Additional)
	return values
}

func requireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
