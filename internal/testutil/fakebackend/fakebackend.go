// Package fakebackend is an in-memory DataFlow REST backend for end-to-end
// tests. It speaks the same paths and payloads as the real service, signs
// HS256 bearer tokens and stores bcrypt password hashes.
package fakebackend

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/service"
	"github.com/dataflow/console/internal/reference"
)

// Prefix is the versioned path the routes are mounted under.
const Prefix = "/api/v1"

const (
	tokenTTL     = 30 * time.Minute
	defaultQuota = 1000
	claimsKey    = "account"
)

type account struct {
	ID        int
	Email     string
	Name      string
	Plan      domain.Plan
	APIKey    string
	Hash      []byte
	CreatedAt time.Time
	Calls     int64
}

type scrape struct {
	ID          string
	Owner       string
	URL         string
	Platform    string
	Status      domain.ScrapeStatus
	Polls       int
	CreatedAt   time.Time
	CompletedAt *time.Time
	Records     *int
	Error       string
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	secret   []byte
	now      func() time.Time
	accounts map[string]*account
	scrapes  map[string]*scrape
	order    []string
	script   []domain.ScrapeStatus
	failMsg  string
	nextID   int
	e        *echo.Echo
}

// New builds a server with no accounts and a two-step scrape script:
// processing, then completed.
func New() *Server {
	s := &Server{
		secret:   []byte("fakebackend-" + uuid.NewString()),
		now:      time.Now,
		accounts: map[string]*account{},
		scrapes:  map[string]*scrape{},
		script:   []domain.ScrapeStatus{domain.ScrapeProcessing, domain.ScrapeCompleted},
		failMsg:  "Target site blocked the scraper",
		nextID:   1,
	}
	s.e = s.routes()
	return s
}

// Handler exposes the server for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.e
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password, name string, plan domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.addLocked(email, password, name, plan)
	return err
}

// ScriptScrapes sets the statuses reported by successive polls of every
// scrape. The last status repeats.
func (s *Server) ScriptScrapes(statuses ...domain.ScrapeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(statuses) == 0 {
		return
	}
	s.script = append([]domain.ScrapeStatus(nil), statuses...)
}

// Plan returns the current plan of an account.
func (s *Server) Plan(email string) (domain.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return "", false
	}
	return a.Plan, true
}

// Token mints a valid token for an existing account.
func (s *Server) Token(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return "", fmt.Errorf("fakebackend: unknown account %q", email)
	}
	return s.sign(a)
}

func (s *Server) addLocked(email, password, name string, plan domain.Plan) (*account, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.accounts[key]; exists {
		return nil, errors.New("Email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	a := &account{
		ID:        s.nextID,
		Email:     key,
		Name:      name,
		Plan:      plan,
		APIKey:    "df_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Hash:      hash,
		CreatedAt: s.now().UTC(),
	}
	s.nextID++
	s.accounts[key] = a
	return a, nil
}

func (s *Server) sign(a *account) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   a.Email,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = detailErrorHandler

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group(Prefix)
	v1.POST("/auth/signup", s.signUp)
	v1.POST("/auth/signin", s.signIn)
	v1.GET("/datasets", s.listDatasets)
	v1.GET("/datasets/:id", s.getDataset)
	v1.GET("/billing/plans", s.plans)

	authed := v1.Group("", s.requireToken)
	authed.GET("/auth/me", s.me)
	authed.POST("/auth/refresh", s.refresh)
	authed.POST("/datasets/:id/download", s.download)
	authed.POST("/scrape", s.submitScrape)
	authed.GET("/scrape", s.scrapeHistory)
	authed.GET("/scrape/:id", s.scrapeStatus)
	authed.DELETE("/scrape/:id", s.cancelScrape)
	authed.GET("/account", s.account)
	authed.GET("/account/usage", s.usage)
	authed.POST("/account/api-key/regenerate", s.regenerateKey)
	authed.POST("/billing/subscribe", s.subscribe)
	return e
}

// detailErrorHandler renders errors the way the real backend does: a JSON
// body with a single detail field.
func detailErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		detail = fmt.Sprint(he.Message)
	}
	_ = c.JSON(code, map[string]string{"detail": detail})
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}

		s.mu.Lock()
		a, found := s.accounts[claims.Subject]
		if found {
			a.Calls++
		}
		s.mu.Unlock()
		if !found {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		c.Set(claimsKey, a)
		return next(c)
	}
}

func current(c echo.Context) *account {
	return c.Get(claimsKey).(*account)
}

type userBody struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Plan      string  `json:"plan"`
	APIKey    *string `json:"api_key"`
	CreatedAt string  `json:"created_at"`
}

func userOf(a *account) userBody {
	key := a.APIKey
	return userBody{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Plan:      string(a.Plan),
		APIKey:    &key,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05.999999"),
	}
}

func (s *Server) signUp(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&body); err != nil || body.Email == "" || body.Password == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "email and password are required")
	}

	s.mu.Lock()
	a, err := s.addLocked(body.Email, body.Password, body.Name, domain.PlanFree)
	var out userBody
	if err == nil {
		out = userOf(a)
	}
	s.mu.Unlock()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) signIn(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	password := c.FormValue("password")

	s.mu.Lock()
	a, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(a.Hash, []byte(password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}

	s.mu.Lock()
	token, err := s.sign(a)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) me(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, userOf(current(c)))
}

func (s *Server) refresh(c echo.Context) error {
	s.mu.Lock()
	token, err := s.sign(current(c))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) listDatasets(c echo.Context) error {
	f := domain.DatasetFilter{
		Search:   c.QueryParam("search"),
		Platform: c.QueryParam("platform"),
		Category: c.QueryParam("category"),
	}
	if raw := c.QueryParam("is_premium"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "is_premium must be a boolean")
		}
		f.Premium = &v
	}
	limit, offset := 20, 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, _ = strconv.Atoi(raw)
	}

	all := service.FilterDatasets(reference.Datasets(), f)
	page := all
	if offset > len(page) {
		offset = len(page)
	}
	page = page[offset:]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	perPage := limit
	if perPage <= 0 {
		perPage = len(all)
	}
	pageNo := 1
	if perPage > 0 {
		pageNo = offset/perPage + 1
	}
	return c.JSON(http.StatusOK, domain.DatasetPage{
		Datasets: page,
		Total:    len(all),
		Page:     pageNo,
		PerPage:  perPage,
	})
}

func (s *Server) getDataset(c echo.Context) error {
	d, ok := reference.Dataset(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Dataset not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) download(c echo.Context) error {
	d, ok := reference.Dataset(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Dataset not found")
	}
	a := current(c)
	if d.IsPremium && !a.Plan.CanScrape() {
		return echo.NewHTTPError(http.StatusForbidden, "Premium dataset requires a paid plan")
	}
	return c.JSON(http.StatusOK, domain.DownloadLink{
		URL:         fmt.Sprintf("https://downloads.dataflow.example/%s.csv?sig=%s", d.ID, uuid.NewString()),
		ExpiresAt:   s.now().Add(time.Hour).UTC().Format(time.RFC3339),
		DatasetName: d.Name,
	})
}

func (s *Server) submitScrape(c echo.Context) error {
	var body struct {
		URL      string   `json:"url"`
		Platform string   `json:"platform"`
		Fields   []string `json:"fields"`
	}
	if err := c.Bind(&body); err != nil || body.URL == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "url is required")
	}
	a := current(c)
	if !a.Plan.CanScrape() {
		return echo.NewHTTPError(http.StatusForbidden, "Upgrade your plan to use custom scraping")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.scrapes[id] = &scrape{
		ID:        id,
		Owner:     a.Email,
		URL:       body.URL,
		Platform:  body.Platform,
		Status:    domain.ScrapePending,
		CreatedAt: s.now().UTC(),
	}
	s.order = append(s.order, id)
	return c.JSON(http.StatusOK, domain.ScrapeStatusReport{
		RequestID:     id,
		Status:        domain.ScrapePending,
		EstimatedTime: "2-5 minutes",
	})
}

func (s *Server) ownedScrape(c echo.Context) (*scrape, error) {
	sc, ok := s.scrapes[c.Param("id")]
	if !ok || sc.Owner != current(c).Email {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Scrape request not found")
	}
	return sc, nil
}

func (s *Server) scrapeStatus(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.ownedScrape(c)
	if err != nil {
		return err
	}

	if !sc.Status.IsTerminal() {
		sc.Polls++
		idx := sc.Polls - 1
		if idx >= len(s.script) {
			idx = len(s.script) - 1
		}
		sc.Status = s.script[idx]
		switch sc.Status {
		case domain.ScrapeCompleted:
			n := 42
			sc.Records = &n
			t := s.now().UTC()
			sc.CompletedAt = &t
		case domain.ScrapeFailed:
			sc.Error = s.failMsg
		}
	}

	report := domain.ScrapeStatusReport{
		RequestID:    sc.ID,
		Status:       sc.Status,
		RecordCount:  sc.Records,
		ErrorMessage: sc.Error,
	}
	if sc.Status == domain.ScrapeCompleted {
		report.Data = map[string]any{"url": sc.URL, "platform": sc.Platform}
	}
	return c.JSON(http.StatusOK, report)
}

type historyItem struct {
	RequestID   string  `json:"request_id"`
	URL         string  `json:"url"`
	Platform    string  `json:"platform"`
	Status      string  `json:"status"`
	ResultCount *int    `json:"result_count"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at"`
}

func (s *Server) scrapeHistory(c echo.Context) error {
	limit, offset := 20, 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, _ = strconv.Atoi(raw)
	}
	owner := current(c).Email

	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []historyItem
	for i := len(s.order) - 1; i >= 0; i-- {
		sc := s.scrapes[s.order[i]]
		if sc.Owner != owner {
			continue
		}
		item := historyItem{
			RequestID:   sc.ID,
			URL:         sc.URL,
			Platform:    sc.Platform,
			Status:      string(sc.Status),
			ResultCount: sc.Records,
			CreatedAt:   sc.CreatedAt.Format(time.RFC3339Nano),
		}
		if sc.CompletedAt != nil {
			ts := sc.CompletedAt.Format(time.RFC3339Nano)
			item.CompletedAt = &ts
		}
		mine = append(mine, item)
	}

	total := len(mine)
	if offset > total {
		offset = total
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	if mine == nil {
		mine = []historyItem{}
	}
	return c.JSON(http.StatusOK, map[string]any{"requests": mine, "total": total})
}

func (s *Server) cancelScrape(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.ownedScrape(c)
	if err != nil {
		return err
	}
	if sc.Status.IsTerminal() {
		return echo.NewHTTPError(http.StatusBadRequest, "Scrape request already finished")
	}
	sc.Status = domain.ScrapeFailed
	sc.Error = "Cancelled by user"
	return c.JSON(http.StatusOK, map[string]string{"message": "Scrape request cancelled"})
}

func (s *Server) account(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, struct {
		userBody
		IsActive  bool   `json:"is_active"`
		UpdatedAt string `json:"updated_at"`
	}{userOf(current(c)), true, s.now().UTC().Format(time.RFC3339)})
}

func (s *Server) usage(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := current(c)
	quota := int64(defaultQuota)
	if p, ok := reference.Plan(a.Plan); ok {
		quota = p.APICalls
	}
	remaining := quota - a.Calls
	if quota < 0 {
		remaining = -1
	} else if remaining < 0 {
		remaining = 0
	}
	reset := s.now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
	return c.JSON(http.StatusOK, map[string]any{
		"api_calls":  a.Calls,
		"quota":      quota,
		"remaining":  remaining,
		"reset_date": reset,
	})
}

func (s *Server) regenerateKey(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := current(c)
	a.APIKey = "df_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return c.JSON(http.StatusOK, domain.APIKeyRotation{APIKey: a.APIKey, Message: "API key regenerated"})
}

func (s *Server) plans(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"plans": reference.Plans()})
}

func (s *Server) subscribe(c echo.Context) error {
	plan, err := domain.ParsePlan(c.QueryParam("plan_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid plan")
	}
	s.mu.Lock()
	current(c).Plan = plan
	s.mu.Unlock()
	return c.JSON(http.StatusOK, domain.Subscription{
		Message: fmt.Sprintf("Subscribed to %s plan", plan),
		Plan:    plan,
	})
}
