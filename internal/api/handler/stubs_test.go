package handler

import (
	"context"
	"time"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/core/service"
)

type stubSession struct {
	user      *domain.User
	signInErr error
	signUpErr error
	signIns   int
	signOuts  int
	rotations int
	expiry    time.Time
}

func (s *stubSession) Start(context.Context) {}

func (s *stubSession) State() ports.SessionState {
	if s.user != nil {
		return ports.SessionAuthenticated
	}
	return ports.SessionAnonymous
}

func (s *stubSession) IsLoading() bool       { return false }
func (s *stubSession) IsAuthenticated() bool { return s.user != nil }

func (s *stubSession) User() (domain.User, bool) {
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

func (s *stubSession) SignIn(_ context.Context, email, _ string) error {
	s.signIns++
	if s.signInErr != nil {
		return s.signInErr
	}
	s.user = &domain.User{ID: "1", Email: email, Plan: domain.PlanStarter}
	return nil
}

func (s *stubSession) SignUp(_ context.Context, email, _, name string) error {
	if s.signUpErr != nil {
		return s.signUpErr
	}
	s.user = &domain.User{ID: "2", Email: email, Name: name, Plan: domain.PlanFree}
	return nil
}

func (s *stubSession) SignOut(context.Context) error {
	s.signOuts++
	s.user = nil
	return nil
}

func (s *stubSession) RefreshUser(context.Context) error { return nil }

func (s *stubSession) RotateToken(context.Context) error {
	s.rotations++
	return nil
}

func (s *stubSession) EnsureFreshToken(context.Context) (bool, error) { return false, nil }

func (s *stubSession) TokenExpiry(context.Context) (time.Time, bool) {
	return s.expiry, !s.expiry.IsZero()
}

type stubJob struct {
	req      domain.ScrapeRequest
	progress int
	done     chan struct{}
	outcome  error
}

func (j *stubJob) ID() string                    { return j.req.ID }
func (j *stubJob) Done() <-chan struct{}         { return j.done }
func (j *stubJob) Outcome() error                { return j.outcome }
func (j *stubJob) Progress() int                 { return j.progress }
func (j *stubJob) Request() domain.ScrapeRequest { return j.req }

type stubScrapes struct {
	jobs      map[string]*stubJob
	order     []string
	submitErr error
	cancelErr error
	history   int
	submitted []ports.SubmitScrapeInput
}

func newStubScrapes() *stubScrapes {
	return &stubScrapes{jobs: map[string]*stubJob{}}
}

func (s *stubScrapes) add(j *stubJob) {
	s.jobs[j.req.ID] = j
	s.order = append([]string{j.req.ID}, s.order...)
}

func (s *stubScrapes) Submit(_ context.Context, in ports.SubmitScrapeInput) (ports.ScrapeJob, error) {
	s.submitted = append(s.submitted, in)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	j := &stubJob{
		req:      domain.ScrapeRequest{ID: "req-1", URL: in.URL, Platform: in.Platform, Status: domain.ScrapePending},
		progress: 10,
		done:     make(chan struct{}),
	}
	s.add(j)
	return j, nil
}

func (s *stubScrapes) Cancel(_ context.Context, id string) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	j, ok := s.jobs[id]
	if !ok {
		return domain.ErrScrapeNotFound
	}
	j.req.Status = domain.ScrapeFailed
	j.req.ErrorMessage = "Cancelled by user"
	j.outcome = domain.ErrCancelled
	close(j.done)
	return nil
}

func (s *stubScrapes) Requests() []domain.ScrapeRequest {
	out := make([]domain.ScrapeRequest, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id].req)
	}
	return out
}

func (s *stubScrapes) Get(id string) (domain.ScrapeRequest, bool) {
	j, ok := s.jobs[id]
	if !ok {
		return domain.ScrapeRequest{}, false
	}
	return j.req, true
}

func (s *stubScrapes) Job(id string) (ports.ScrapeJob, bool) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return j, true
}

func (s *stubScrapes) Pending() (string, bool) {
	if len(s.order) == 0 {
		return "", false
	}
	return s.order[0], true
}

func (s *stubScrapes) LoadHistory(context.Context, int, int) error {
	s.history++
	return nil
}

// catalogFromReference serves the bundled reference data; it is the real
// service with no backend behind it.
func catalogFromReference(users service.UserSource) ports.CatalogService {
	return service.NewCatalog(nil, users, zeroLog)
}
