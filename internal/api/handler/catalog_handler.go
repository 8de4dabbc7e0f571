package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func datasetFilter(c echo.Context) (domain.DatasetFilter, error) {
	f := domain.DatasetFilter{
		Search:   c.QueryParam("search"),
		Platform: c.QueryParam("platform"),
		Category: c.QueryParam("category"),
	}
	if v := c.QueryParam("premium"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "premium must be true or false")
		}
		f.Premium = &b
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer")
		}
		*dst = n
	}
	return f, nil
}

// List filters the dataset catalog. With source=remote the live backend
// catalog is queried instead of the bundled one.
//
// @Summary      List datasets
// @Tags         datasets
// @Produce      json
// @Param        search    query     string  false  "Substring of name or description"
// @Param        platform  query     string  false  "Platform or 'all'"
// @Param        category  query     string  false  "Category"
// @Param        premium   query     bool    false  "Premium only / free only"
// @Param        limit     query     int     false  "Page size"
// @Param        offset    query     int     false  "Page offset"
// @Param        source    query     string  false  "local (default) or remote"
// @Success      200       {object}  datasetListResponse
// @Failure      400       {object}  errorResponse
// @Router       /datasets [get]
func (h *CatalogHandler) List(c echo.Context) error {
	filter, err := datasetFilter(c)
	if err != nil {
		return err
	}

	if c.QueryParam("source") == "remote" {
		page, err := h.catalog.Remote(c.Request().Context(), filter)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, datasetListResponse{Datasets: page.Datasets, Total: page.Total, Source: "remote"})
	}

	ds := h.catalog.Datasets(filter)
	return c.JSON(http.StatusOK, datasetListResponse{Datasets: ds, Total: len(ds), Source: "local"})
}

// Get returns one dataset with its preview.
//
// @Summary      Get a dataset
// @Tags         datasets
// @Produce      json
// @Param        id   path      string  true  "Dataset ID"
// @Success      200  {object}  domain.Dataset
// @Failure      404  {object}  errorResponse
// @Router       /datasets/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	d, ok := h.catalog.Dataset(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Dataset not found")
	}
	return c.JSON(http.StatusOK, d)
}

// Download issues a download link for a dataset.
//
// @Summary      Download a dataset
// @Tags         datasets
// @Produce      json
// @Param        id   path      string  true  "Dataset ID"
// @Success      200  {object}  domain.DownloadLink
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /datasets/{id}/download [post]
func (h *CatalogHandler) Download(c echo.Context) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}
	link, err := h.catalog.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, link)
}

// Endpoints lists the API reference, optionally narrowed to one category.
//
// @Summary      API reference
// @Tags         reference
// @Produce      json
// @Param        category  query     string  false  "Endpoint category"
// @Success      200       {object}  endpointListResponse
// @Router       /endpoints [get]
func (h *CatalogHandler) Endpoints(c echo.Context) error {
	all := h.catalog.Endpoints()
	category := c.QueryParam("category")

	seen := map[string]struct{}{}
	resp := endpointListResponse{Endpoints: make([]domain.APIEndpoint, 0, len(all))}
	for _, ep := range all {
		if _, ok := seen[ep.Category]; !ok {
			seen[ep.Category] = struct{}{}
			resp.Categories = append(resp.Categories, ep.Category)
		}
		if category != "" && category != ep.Category {
			continue
		}
		resp.Endpoints = append(resp.Endpoints, ep)
	}
	return c.JSON(http.StatusOK, resp)
}
