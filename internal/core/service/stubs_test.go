package service

import (
	"context"
	"errors"
	"sync"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubTokens struct {
	mu     sync.Mutex
	token  string
	ok     bool
	getErr error
	sets   int
}

func (s *stubTokens) Get(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.ok, s.getErr
}

func (s *stubTokens) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.ok = token, true
	s.sets++
	return nil
}

func (s *stubTokens) Remove(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.ok = "", false
	return nil
}

type stubAuthAPI struct {
	signUpErr  error
	signInTok  string
	signInErr  error
	user       *domain.User
	userErr    error
	refreshTok string
	refreshErr error

	signUps  int
	signIns  int
	profiles int
}

func (a *stubAuthAPI) SignUp(_ context.Context, in ports.SignUpInput) (*domain.User, error) {
	a.signUps++
	if a.signUpErr != nil {
		return nil, a.signUpErr
	}
	return &domain.User{Email: in.Email, Name: in.Name, Plan: domain.PlanFree}, nil
}

func (a *stubAuthAPI) SignIn(context.Context, string, string) (*ports.Token, error) {
	a.signIns++
	if a.signInErr != nil {
		return nil, a.signInErr
	}
	return &ports.Token{AccessToken: a.signInTok, TokenType: "bearer"}, nil
}

func (a *stubAuthAPI) CurrentUser(context.Context) (*domain.User, error) {
	a.profiles++
	if a.userErr != nil {
		return nil, a.userErr
	}
	u := *a.user
	return &u, nil
}

func (a *stubAuthAPI) RefreshToken(context.Context) (*ports.Token, error) {
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	return &ports.Token{AccessToken: a.refreshTok, TokenType: "bearer"}, nil
}

type pollResult struct {
	report *domain.ScrapeStatusReport
	err    error
}

type stubScrapeAPI struct {
	mu sync.Mutex

	submitReport *domain.ScrapeStatusReport
	submitErr    error
	submits      []ports.ScrapeSubmission

	// polls is consumed in order; the last entry repeats once exhausted.
	polls     []pollResult
	pollCalls int

	history    *ports.ScrapeHistory
	historyErr error

	cancelErr error
	cancelled []string
}

func (s *stubScrapeAPI) SubmitScrape(_ context.Context, in ports.ScrapeSubmission) (*domain.ScrapeStatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits = append(s.submits, in)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	r := *s.submitReport
	return &r, nil
}

func (s *stubScrapeAPI) ScrapeStatus(_ context.Context, id string) (*domain.ScrapeStatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollCalls++
	if len(s.polls) == 0 {
		return nil, errors.New("no scripted poll")
	}
	next := s.polls[0]
	if len(s.polls) > 1 {
		s.polls = s.polls[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	r := *next.report
	r.RequestID = id
	return &r, nil
}

func (s *stubScrapeAPI) ScrapeHistory(context.Context, int, int) (*ports.ScrapeHistory, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *stubScrapeAPI) CancelScrape(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelErr != nil {
		return "", s.cancelErr
	}
	s.cancelled = append(s.cancelled, id)
	return "Scrape request cancelled", nil
}

func (s *stubScrapeAPI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollCalls
}

type stubUsers struct {
	user *domain.User
}

func (u stubUsers) User() (domain.User, bool) {
	if u.user == nil {
		return domain.User{}, false
	}
	return *u.user, true
}

type stubJournal struct {
	mu       sync.Mutex
	recorded []domain.ScrapeRequest
	err      error
}

func (j *stubJournal) Record(_ context.Context, r domain.ScrapeRequest) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.recorded = append(j.recorded, r)
	return nil
}

func (j *stubJournal) Recent(context.Context, int) ([]domain.ScrapeRequest, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.ScrapeRequest(nil), j.recorded...), nil
}

func status(s domain.ScrapeStatus) pollResult {
	return pollResult{report: &domain.ScrapeStatusReport{Status: s}}
}

func pollErr(msg string) pollResult {
	return pollResult{err: &domain.TransportError{Op: "GET /scrape/{id}", Err: errors.New(msg)}}
}
