package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-bynder/upload"
)

// ISODateFormat is the publication date format the API expects.
const ISODateFormat = "2006-01-02T15:04:05Z"

// FormatDate formats t in UTC for date fields.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(ISODateFormat)
}

// FormatBool encodes a boolean the way the API's filters expect it.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// JoinList encodes a list as a comma separated value.
func JoinList(values []string) string {
	return strings.Join(values, ",")
}

// SetIfNotEmpty ...
func SetIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

// SetIntIfPositive ...
func SetIntIfPositive(values url.Values, key string, value int) {
	if value > 0 {
		values.Set(key, strconv.Itoa(value))
	}
}

// SetMetapropertyOptions adds one "metaproperty.<id>" field per metaproperty, in a stable order.
func SetMetapropertyOptions(values url.Values, options map[string][]string) {
	ids := make([]string, 0, len(options))
	for id := range options {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		values.Set("metaproperty."+id, JoinList(options[id]))
	}
}

// EncodeMetadata encodes the fields of a new asset for the save endpoint.
func EncodeMetadata(meta upload.Metadata) url.Values {
	values := url.Values{}
	SetIfNotEmpty(values, "brandid", meta.BrandID)
	SetIfNotEmpty(values, "name", meta.FileName)
	SetIfNotEmpty(values, "copyright", meta.Copyright)
	SetIfNotEmpty(values, "description", meta.Description)
	values.Set("isPublic", strconv.FormatBool(meta.IsPublic))
	SetIfNotEmpty(values, "ISOPublicationDate", FormatDate(meta.PublicationDate))
	if len(meta.Tags) > 0 {
		values.Set("tags", JoinList(meta.Tags))
	}
	SetMetapropertyOptions(values, meta.MetapropertyOptions)
	return values
}
