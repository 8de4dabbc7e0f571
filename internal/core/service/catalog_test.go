package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
)

func datasetIDs(ds []domain.Dataset) []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	return ids
}

func TestFilterDatasets(t *testing.T) {
	input := []domain.Dataset{
		{ID: "1", Name: "Amazon Best Sellers", Platform: domain.PlatformAmazon, Description: "top electronics"},
		{ID: "2", Name: "Shopify Stores", Platform: domain.PlatformShopify, Description: "store analytics", IsPremium: true},
		{ID: "3", Name: "eBay Auctions", Platform: domain.PlatformEbay, Description: "Collectible AMAZON lookalikes"},
		{ID: "4", Name: "Amazon Fashion", Platform: domain.PlatformAmazon, Description: "apparel", IsPremium: true},
	}
	premium := true

	cases := []struct {
		name   string
		filter domain.DatasetFilter
		want   []string
	}{
		{name: "no filter", filter: domain.DatasetFilter{}, want: []string{"1", "2", "3", "4"}},
		{name: "all platforms", filter: domain.DatasetFilter{Platform: "all"}, want: []string{"1", "2", "3", "4"}},
		{name: "search name or description", filter: domain.DatasetFilter{Search: "amazon"}, want: []string{"1", "3", "4"}},
		{name: "search is case-insensitive", filter: domain.DatasetFilter{Search: "STORE"}, want: []string{"2"}},
		{name: "platform", filter: domain.DatasetFilter{Platform: "amazon"}, want: []string{"1", "4"}},
		{name: "search and platform", filter: domain.DatasetFilter{Search: "amazon", Platform: "ebay"}, want: []string{"3"}},
		{name: "premium", filter: domain.DatasetFilter{Premium: &premium}, want: []string{"2", "4"}},
		{name: "no match", filter: domain.DatasetFilter{Search: "walmart"}, want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := append([]domain.Dataset(nil), input...)

			got := datasetIDs(FilterDatasets(input, tc.filter))

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(before, input); diff != "" {
				t.Fatalf("input was mutated:\n%s", diff)
			}
		})
	}
}

func TestCatalog_DatasetsFromReference(t *testing.T) {
	c := NewCatalog(nil, stubUsers{}, zerolog.Nop())

	if got := len(c.Datasets(domain.DatasetFilter{})); got != 6 {
		t.Fatalf("expected 6 bundled datasets, got %d", got)
	}
	got := datasetIDs(c.Datasets(domain.DatasetFilter{Platform: "amazon"}))
	if diff := cmp.Diff([]string{"1", "6"}, got); diff != "" {
		t.Fatalf("unexpected amazon datasets (-want +got):\n%s", diff)
	}
	got = datasetIDs(c.Datasets(domain.DatasetFilter{Offset: 4, Limit: 1}))
	if diff := cmp.Diff([]string{"5"}, got); diff != "" {
		t.Fatalf("unexpected page (-want +got):\n%s", diff)
	}
	if d, ok := c.Dataset("2"); !ok || d.Name != "Shopify Store Analytics" {
		t.Fatalf("unexpected dataset lookup: %+v", d)
	}
	if _, ok := c.Dataset("99"); ok {
		t.Fatalf("unknown dataset should not be found")
	}
}

type stubCatalogAPI struct {
	downloads []string
}

func (s *stubCatalogAPI) ListDatasets(context.Context, domain.DatasetFilter) (*domain.DatasetPage, error) {
	return &domain.DatasetPage{Total: 0}, nil
}

func (s *stubCatalogAPI) GetDataset(context.Context, string) (*domain.Dataset, error) {
	return nil, &domain.APIError{StatusCode: 404, Detail: "Dataset not found"}
}

func (s *stubCatalogAPI) DownloadDataset(_ context.Context, id string) (*domain.DownloadLink, error) {
	s.downloads = append(s.downloads, id)
	return &domain.DownloadLink{URL: "https://cdn.example.com/" + id}, nil
}

func TestCatalog_DownloadRequiresSession(t *testing.T) {
	api := &stubCatalogAPI{}

	anon := NewCatalog(api, stubUsers{}, zerolog.Nop())
	if _, err := anon.Download(context.Background(), "1"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(api.downloads) != 0 {
		t.Fatalf("anonymous download must not reach the backend")
	}

	signed := NewCatalog(api, stubUsers{user: paidUser}, zerolog.Nop())
	link, err := signed.Download(context.Background(), "1")
	if err != nil || link.URL != "https://cdn.example.com/1" {
		t.Fatalf("unexpected download result: %+v, %v", link, err)
	}
}
