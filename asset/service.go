// Package asset maps the asset management calls of the Bynder API onto Go methods.
package asset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bitrise-io/go-bynder/api"
	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/v2/log"
)

// APIClient is the part of *api.Client the service depends on.
type APIClient interface {
	upload.Transport
	Send(ctx context.Context, r api.Request, out interface{}) error
	StandardClient() *http.Client
}

// Service ...
type Service struct {
	client   APIClient
	uploader *upload.Uploader
	logger   log.Logger
}

// NewService ...
func NewService(client APIClient, uploadConfig upload.Config, logger log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.NewLogger()
	}
	uploader, err := upload.New(client, uploadConfig, logger)
	if err != nil {
		return nil, err
	}
	return &Service{client: client, uploader: uploader, logger: logger}, nil
}

// GetBrands ...
func (s *Service) GetBrands(ctx context.Context) ([]Brand, error) {
	var brands []Brand
	err := s.client.Send(ctx, api.Request{Method: http.MethodGet, Path: "/api/v4/brands/"}, &brands)
	return brands, err
}

// GetMetaproperties returns the metaproperties of the portal keyed by name.
func (s *Service) GetMetaproperties(ctx context.Context, query MetapropertiesQuery) (map[string]Metaproperty, error) {
	var metaproperties map[string]Metaproperty
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/v4/metaproperties/",
		Query:  query.values(),
	}, &metaproperties)
	return metaproperties, err
}

// GetMetaproperty ...
func (s *Service) GetMetaproperty(ctx context.Context, metapropertyID string) (Metaproperty, error) {
	var metaproperty Metaproperty
	if err := requireField("metaproperty ID", metapropertyID); err != nil {
		return metaproperty, err
	}
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v4/metaproperties/%s", url.PathEscape(metapropertyID)),
	}, &metaproperty)
	return metaproperty, err
}

// GetMetapropertyOptions ...
func (s *Service) GetMetapropertyOptions(ctx context.Context, query MetapropertyOptionsQuery) ([]MetapropertyOption, error) {
	if err := requireField("metaproperty ID", query.MetapropertyID); err != nil {
		return nil, err
	}
	var options []MetapropertyOption
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v4/metaproperties/%s/", url.PathEscape(query.MetapropertyID)),
		Query:  query.values(),
	}, &options)
	return options, err
}

// CreateMetapropertyOption adds an option to the metaproperty.
func (s *Service) CreateMetapropertyOption(ctx context.Context, metapropertyID string, query CreateMetapropertyOptionQuery) (Status, error) {
	var status Status
	if err := requireField("metaproperty ID", metapropertyID); err != nil {
		return status, err
	}
	if err := requireField("option name", query.Name); err != nil {
		return status, err
	}
	form, err := query.form()
	if err != nil {
		return status, fmt.Errorf("encode option: %w", err)
	}
	err = s.client.Send(ctx, api.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v4/metaproperties/%s/options", url.PathEscape(metapropertyID)),
		Form:   form,
	}, &status)
	return status, err
}

// GetMetapropertyDependencies returns the IDs of the options the metaproperty depends on.
func (s *Service) GetMetapropertyDependencies(ctx context.Context, metapropertyID string) ([]string, error) {
	if err := requireField("metaproperty ID", metapropertyID); err != nil {
		return nil, err
	}
	var dependencies []string
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v4/metaproperties/%s/dependencies/", url.PathEscape(metapropertyID)),
	}, &dependencies)
	return dependencies, err
}

// GetMediaList ...
func (s *Service) GetMediaList(ctx context.Context, query MediaQuery) ([]Media, error) {
	var media []Media
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/v4/media/",
		Query:  query.values(),
	}, &media)
	return media, err
}

// GetMediaListWithTotal is GetMediaList with the total number of matching media.
// The total is always requested, the response has a different shape without it.
func (s *Service) GetMediaListWithTotal(ctx context.Context, query MediaWithTotalQuery) (MediaWithTotal, error) {
	query.IncludeTotal = true
	var media MediaWithTotal
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/v4/media/",
		Query:  query.values(),
	}, &media)
	return media, err
}

// GetMediaInfo ...
func (s *Service) GetMediaInfo(ctx context.Context, query MediaInformationQuery) (Media, error) {
	var media Media
	if err := requireField("media ID", query.MediaID); err != nil {
		return media, err
	}
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v4/media/%s/", url.PathEscape(query.MediaID)),
		Query:  query.values(),
	}, &media)
	return media, err
}

// GetDownloadFileURL returns the signed URL of the media's original file, or of the selected media item.
func (s *Service) GetDownloadFileURL(ctx context.Context, query DownloadMediaQuery) (string, error) {
	if err := requireField("media ID", query.MediaID); err != nil {
		return "", err
	}
	path := fmt.Sprintf("/api/v4/media/%s/download/", url.PathEscape(query.MediaID))
	if query.MediaItemID != "" {
		path += url.PathEscape(query.MediaItemID) + "/"
	}

	var fileURL DownloadFileURL
	if err := s.client.Send(ctx, api.Request{Method: http.MethodGet, Path: path}, &fileURL); err != nil {
		return "", err
	}
	if fileURL.S3File == "" {
		return "", fmt.Errorf("no download URL returned for media %s", query.MediaID)
	}
	return fileURL.S3File, nil
}

// ModifyMedia ...
func (s *Service) ModifyMedia(ctx context.Context, query ModifyMediaQuery) (Status, error) {
	var status Status
	if err := requireField("media ID", query.MediaID); err != nil {
		return status, err
	}
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v4/media/%s/", url.PathEscape(query.MediaID)),
		Form:   query.form(),
	}, &status)
	return status, err
}

// GetTags ...
func (s *Service) GetTags(ctx context.Context, query GetTagsQuery) ([]Tag, error) {
	var tags []Tag
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/v4/tags/",
		Query:  query.values(),
	}, &tags)
	return tags, err
}

// AddTagToMedia ...
func (s *Service) AddTagToMedia(ctx context.Context, query AddTagToMediaQuery) (Status, error) {
	var status Status
	if err := requireField("tag ID", query.TagID); err != nil {
		return status, err
	}
	form, err := query.form()
	if err != nil {
		return status, fmt.Errorf("encode media IDs: %w", err)
	}
	err = s.client.Send(ctx, api.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v4/tags/%s/media/", url.PathEscape(query.TagID)),
		Form:   form,
	}, &status)
	return status, err
}

// CreateAssetUsage records that an integration uses the asset at the given URI.
func (s *Service) CreateAssetUsage(ctx context.Context, query AssetUsageQuery) (Status, error) {
	var status Status
	if err := requireField("integration ID", query.IntegrationID); err != nil {
		return status, err
	}
	if err := requireField("asset ID", query.AssetID); err != nil {
		return status, err
	}
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/api/media/usage/",
		Form:   query.values(),
	}, &status)
	return status, err
}

// DeleteAssetUsage ...
func (s *Service) DeleteAssetUsage(ctx context.Context, query AssetUsageQuery) (Status, error) {
	var status Status
	if err := requireField("integration ID", query.IntegrationID); err != nil {
		return status, err
	}
	if err := requireField("asset ID", query.AssetID); err != nil {
		return status, err
	}
	err := s.client.Send(ctx, api.Request{
		Method: http.MethodDelete,
		Path:   "/api/media/usage/",
		Query:  query.values(),
	}, &status)
	return status, err
}
