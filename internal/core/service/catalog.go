package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/reference"
)

// allPlatforms is the filter value that disables platform matching.
const allPlatforms = "all"

// FilterDatasets returns the datasets matching filter, in input order. Search
// is a case-insensitive substring match against name or description. Platform
// and category must match exactly unless empty or "all". The input slice is
// not modified.
func FilterDatasets(datasets []domain.Dataset, filter domain.DatasetFilter) []domain.Dataset {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	platform := strings.ToLower(filter.Platform)
	category := strings.ToLower(filter.Category)

	out := make([]domain.Dataset, 0, len(datasets))
	for _, d := range datasets {
		if term != "" &&
			!strings.Contains(strings.ToLower(d.Name), term) &&
			!strings.Contains(strings.ToLower(d.Description), term) {
			continue
		}
		if platform != "" && platform != allPlatforms && strings.ToLower(string(d.Platform)) != platform {
			continue
		}
		if category != "" && category != allPlatforms && strings.ToLower(d.Category) != category {
			continue
		}
		if filter.Premium != nil && d.IsPremium != *filter.Premium {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Catalog serves the dataset catalog and the API reference.
type Catalog struct {
	api   ports.CatalogAPI
	users UserSource
	log   zerolog.Logger
}

var _ ports.CatalogService = (*Catalog)(nil)

func NewCatalog(api ports.CatalogAPI, users UserSource, log zerolog.Logger) *Catalog {
	return &Catalog{api: api, users: users, log: log}
}

// Datasets filters the bundled catalog. Offset and Limit page the result.
func (c *Catalog) Datasets(filter domain.DatasetFilter) []domain.Dataset {
	out := FilterDatasets(reference.Datasets(), filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Dataset{}
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out
}

func (c *Catalog) Dataset(id string) (domain.Dataset, bool) {
	return reference.Dataset(id)
}

// Remote queries the live catalog.
func (c *Catalog) Remote(ctx context.Context, filter domain.DatasetFilter) (*domain.DatasetPage, error) {
	page, err := c.api.ListDatasets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return page, nil
}

// Download requests a signed download link for a dataset.
func (c *Catalog) Download(ctx context.Context, id string) (*domain.DownloadLink, error) {
	if _, ok := c.users.User(); !ok {
		return nil, domain.ErrNotAuthenticated
	}
	link, err := c.api.DownloadDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("download dataset %q: %w", id, err)
	}
	c.log.Info().Str("dataset_id", id).Msg("download link issued")
	return link, nil
}

func (c *Catalog) Endpoints() []domain.APIEndpoint {
	return reference.Endpoints()
}
