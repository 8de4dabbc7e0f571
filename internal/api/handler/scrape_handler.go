package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

const defaultHistoryLimit = 20

// ScrapeHandler handles HTTP requests for custom scrape jobs.
type ScrapeHandler struct {
	scrapes ports.ScrapeService
}

func NewScrapeHandler(scrapes ports.ScrapeService) *ScrapeHandler {
	return &ScrapeHandler{scrapes: scrapes}
}

func (h *ScrapeHandler) view(r domain.ScrapeRequest) scrapeView {
	v := scrapeView{ScrapeRequest: r}
	job, ok := h.scrapes.Job(r.ID)
	if !ok {
		return v
	}
	p := job.Progress()
	v.Progress = &p
	select {
	case <-job.Done():
		if err := job.Outcome(); err != nil {
			v.Outcome = domain.Message(err)
		} else {
			v.Outcome = "completed"
		}
	default:
	}
	return v
}

// Submit starts a scrape job. Polling continues in the background; the job
// is visible through GET /scrapes/{id}.
//
// @Summary      Submit a scrape
// @Tags         scrapes
// @Accept       json
// @Produce      json
// @Param        body  body      ports.SubmitScrapeInput  true  "Scrape target"
// @Success      202   {object}  scrapeView
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /scrapes [post]
func (h *ScrapeHandler) Submit(c echo.Context) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}

	var req ports.SubmitScrapeInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	job, err := h.scrapes.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/scrapes/"+job.ID())
	return c.JSON(http.StatusAccepted, h.view(job.Request()))
}

// List returns tracked scrape requests, newest first. With refresh=true one
// page of the remote history is merged in first.
//
// @Summary      List scrapes
// @Tags         scrapes
// @Produce      json
// @Param        refresh  query     bool  false  "Merge remote history"
// @Param        limit    query     int   false  "History page size"
// @Param        offset   query     int   false  "History page offset"
// @Success      200      {object}  scrapeListResponse
// @Router       /scrapes [get]
func (h *ScrapeHandler) List(c echo.Context) error {
	if refresh, _ := strconv.ParseBool(c.QueryParam("refresh")); refresh {
		limit, offset := defaultHistoryLimit, 0
		if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
			limit = v
		}
		if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
			offset = v
		}
		if err := h.scrapes.LoadHistory(c.Request().Context(), limit, offset); err != nil {
			return err
		}
	}

	reqs := h.scrapes.Requests()
	resp := scrapeListResponse{Requests: make([]scrapeView, 0, len(reqs))}
	for _, r := range reqs {
		resp.Requests = append(resp.Requests, h.view(r))
	}
	resp.Pending, _ = h.scrapes.Pending()
	return c.JSON(http.StatusOK, resp)
}

// Get returns one tracked scrape request.
//
// @Summary      Get a scrape
// @Tags         scrapes
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  scrapeView
// @Failure      404  {object}  errorResponse
// @Router       /scrapes/{id} [get]
func (h *ScrapeHandler) Get(c echo.Context) error {
	r, ok := h.scrapes.Get(c.Param("id"))
	if !ok {
		return domain.ErrScrapeNotFound
	}
	return c.JSON(http.StatusOK, h.view(r))
}

// Cancel stops a scrape that has not finished.
//
// @Summary      Cancel a scrape
// @Tags         scrapes
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  scrapeView
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /scrapes/{id} [delete]
func (h *ScrapeHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if err := h.scrapes.Cancel(c.Request().Context(), id); err != nil {
		return err
	}
	r, _ := h.scrapes.Get(id)
	return c.JSON(http.StatusOK, h.view(r))
}
