package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/infrastructure/queue"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var paidUser = &domain.User{ID: "1", Email: "ana@example.com", Plan: domain.PlanProfessional}

func validInput() ports.SubmitScrapeInput {
	return ports.SubmitScrapeInput{URL: "https://amazon.com/s?k=headphones", Platform: "amazon"}
}

type workflowFixture struct {
	api     *stubScrapeAPI
	clock   *queue.Manual
	journal *stubJournal
	wf      *ScrapeWorkflow
}

func newWorkflow(t *testing.T, user *domain.User, api *stubScrapeAPI, opts ScrapeOptions) *workflowFixture {
	t.Helper()
	if api.submitReport == nil {
		api.submitReport = &domain.ScrapeStatusReport{RequestID: "req-1", Status: domain.ScrapePending}
	}
	clock := queue.NewManual(epoch)
	journal := &stubJournal{}
	wf := NewScrapeWorkflow(api, stubUsers{user: user}, clock, journal, opts, zerolog.Nop())
	t.Cleanup(wf.Close)
	return &workflowFixture{api: api, clock: clock, journal: journal, wf: wf}
}

// ---------------------------------------------------------------------------
// Submit guards
// ---------------------------------------------------------------------------

func TestSubmit_LocalRejections(t *testing.T) {
	cases := []struct {
		name  string
		user  *domain.User
		input ports.SubmitScrapeInput
		check func(error) bool
	}{
		{
			name:  "anonymous",
			user:  nil,
			input: validInput(),
			check: func(err error) bool { return errors.Is(err, domain.ErrNotAuthenticated) },
		},
		{
			name:  "free plan",
			user:  &domain.User{ID: "2", Plan: domain.PlanFree},
			input: validInput(),
			check: func(err error) bool { return errors.Is(err, domain.ErrNotEntitled) },
		},
		{
			name:  "missing url",
			user:  paidUser,
			input: ports.SubmitScrapeInput{Platform: "amazon"},
			check: func(err error) bool {
				var ve *domain.ValidationError
				return errors.As(err, &ve) && ve.Field == "url"
			},
		},
		{
			name:  "relative url",
			user:  paidUser,
			input: ports.SubmitScrapeInput{URL: "amazon.com/foo", Platform: "amazon"},
			check: func(err error) bool {
				var ve *domain.ValidationError
				return errors.As(err, &ve)
			},
		},
		{
			name:  "unsupported platform",
			user:  paidUser,
			input: ports.SubmitScrapeInput{URL: "https://example.com", Platform: "alibaba"},
			check: func(err error) bool {
				var ve *domain.ValidationError
				return errors.As(err, &ve) && ve.Field == "platform"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWorkflow(t, tc.user, &stubScrapeAPI{}, ScrapeOptions{})

			job, err := f.wf.Submit(context.Background(), tc.input)
			if job != nil {
				t.Fatalf("expected no job")
			}
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.api.submits) != 0 {
				t.Fatalf("expected no network call, got %d", len(f.api.submits))
			}
			if got := len(f.wf.Requests()); got != 0 {
				t.Fatalf("expected no record, got %d", got)
			}
			if f.clock.Pending() != 0 {
				t.Fatalf("expected nothing scheduled")
			}
		})
	}
}

func TestSubmit_BackendErrorCreatesNoRecord(t *testing.T) {
	api := &stubScrapeAPI{submitErr: &domain.APIError{StatusCode: 429, Detail: "Rate limit exceeded"}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	_, err := f.wf.Submit(context.Background(), validInput())

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "Rate limit exceeded" {
		t.Fatalf("expected the backend error, got %v", err)
	}
	if len(api.submits) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(api.submits))
	}
	if len(f.wf.Requests()) != 0 || f.clock.Pending() != 0 {
		t.Fatalf("a failed submission must leave no trace")
	}
}

func TestSubmit_TracksNewRequest(t *testing.T) {
	api := &stubScrapeAPI{
		submitReport: &domain.ScrapeStatusReport{RequestID: "req-9", Status: domain.ScrapePending},
	}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, err := f.wf.Submit(context.Background(), ports.SubmitScrapeInput{
		URL:      "https://www.etsy.com/c/jewelry",
		Platform: "Etsy",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID() != "req-9" || job.Progress() != 10 {
		t.Fatalf("unexpected job state: id=%s progress=%d", job.ID(), job.Progress())
	}
	if api.submits[0].Platform != "etsy" {
		t.Fatalf("expected normalised platform, got %q", api.submits[0].Platform)
	}

	reqs := f.wf.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one record, got %d", len(reqs))
	}
	r := reqs[0]
	if r.ID != "req-9" || r.Status != domain.ScrapePending || !r.CreatedAt.Equal(epoch) {
		t.Fatalf("unexpected record: %+v", r)
	}
	if id, ok := f.wf.Pending(); !ok || id != "req-9" {
		t.Fatalf("expected pending marker req-9, got %q", id)
	}
	if d, ok := f.clock.NextDelay(); !ok || d != time.Second {
		t.Fatalf("expected first poll after 1s, got %v", d)
	}
}

func TestSubmit_NewestFirst(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapePending)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	for _, id := range []string{"a", "b", "c"} {
		api.submitReport = &domain.ScrapeStatusReport{RequestID: id, Status: domain.ScrapePending}
		if _, err := f.wf.Submit(context.Background(), validInput()); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}

	var got []string
	for _, r := range f.wf.Requests() {
		got = append(got, r.ID)
	}
	if len(got) != 3 || got[0] != "c" || got[2] != "a" {
		t.Fatalf("expected newest first, got %v", got)
	}
}

func TestSubmit_SameIDReusesTrackedJob(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeProcessing)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	first, err := f.wf.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := f.wf.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if first != second {
		t.Fatalf("expected the tracked job back for the same request id")
	}
	if n := f.clock.Pending(); n != 1 {
		t.Fatalf("expected one scheduled poll, got %d", n)
	}
	f.clock.Advance(time.Second)
	if n := api.calls(); n != 1 {
		t.Fatalf("expected one status call per tick, got %d", n)
	}
	if n := len(f.wf.Requests()); n != 1 {
		t.Fatalf("expected one record, got %d", n)
	}
}

func TestSubmit_SameIDAfterFinishTracksAgain(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeCompleted)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	first, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)
	if first.Outcome() != nil {
		t.Fatalf("first job should complete, got %v", first.Outcome())
	}

	second, err := f.wf.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first == second {
		t.Fatalf("a finished job must not be reused")
	}
	if n := len(f.wf.Requests()); n != 1 {
		t.Fatalf("expected one record, got %d", n)
	}
}

// ---------------------------------------------------------------------------
// Polling
// ---------------------------------------------------------------------------

func TestPoll_ProcessingThenCompleted(t *testing.T) {
	count := 120
	api := &stubScrapeAPI{polls: []pollResult{
		status(domain.ScrapeProcessing),
		status(domain.ScrapeProcessing),
		{report: &domain.ScrapeStatusReport{Status: domain.ScrapeCompleted, RecordCount: &count}},
	}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, err := f.wf.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.clock.Advance(time.Second)
	if job.Progress() != 25 {
		t.Fatalf("expected progress 25 after first processing, got %d", job.Progress())
	}
	if got := job.Request().Status; got != domain.ScrapeProcessing {
		t.Fatalf("expected processing, got %s", got)
	}

	f.clock.Advance(1500 * time.Millisecond)
	if job.Progress() != 40 {
		t.Fatalf("expected progress 40, got %d", job.Progress())
	}

	f.clock.Advance(1500 * time.Millisecond)
	select {
	case <-job.Done():
	default:
		t.Fatalf("expected job to be done")
	}
	if err := job.Outcome(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if job.Progress() != 100 {
		t.Fatalf("expected progress 100, got %d", job.Progress())
	}

	r := job.Request()
	if r.Status != domain.ScrapeCompleted || r.CompletedAt == nil || r.ResultCount == nil || *r.ResultCount != 120 {
		t.Fatalf("unexpected final record: %+v", r)
	}
	if !r.CompletedAt.Equal(epoch.Add(4 * time.Second)) {
		t.Fatalf("unexpected completion time %v", r.CompletedAt)
	}
	if _, ok := f.wf.Pending(); ok {
		t.Fatalf("pending marker should be cleared")
	}
	if f.clock.Pending() != 0 {
		t.Fatalf("no poll may be scheduled after completion")
	}
	if len(f.journal.recorded) != 1 || f.journal.recorded[0].Status != domain.ScrapeCompleted {
		t.Fatalf("expected the completed record to be journaled, got %+v", f.journal.recorded)
	}
}

func TestPoll_ProgressCapsAtNinety(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeProcessing)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)
	for i := 0; i < 10; i++ {
		f.clock.Advance(1500 * time.Millisecond)
	}

	if job.Progress() != 90 {
		t.Fatalf("expected progress to stop at 90, got %d", job.Progress())
	}
	if api.calls() != 11 {
		t.Fatalf("expected 11 polls, got %d", api.calls())
	}
}

func TestPoll_PendingKeepsPollingWithoutProgress(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{
		status(domain.ScrapePending),
		status("queued"),
		status(domain.ScrapeCompleted),
	}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)
	f.clock.Advance(1500 * time.Millisecond)
	if job.Progress() != 10 {
		t.Fatalf("expected progress unchanged at 10, got %d", job.Progress())
	}
	if job.Request().Status != domain.ScrapePending {
		t.Fatalf("unknown status must not replace the record status")
	}

	f.clock.Advance(1500 * time.Millisecond)
	if job.Outcome() != nil || job.Request().Status != domain.ScrapeCompleted {
		t.Fatalf("expected completion after pending ticks")
	}
}

func TestPoll_FailedUsesServerMessage(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{
		{report: &domain.ScrapeStatusReport{Status: domain.ScrapeFailed, ErrorMessage: "Blocked by robots.txt"}},
	}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)

	err := job.Outcome()
	if !errors.Is(err, domain.ErrScrapeFailed) {
		t.Fatalf("expected ErrScrapeFailed, got %v", err)
	}
	if domain.Message(err) != "Blocked by robots.txt" {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
	if job.Request().Status != domain.ScrapeFailed {
		t.Fatalf("expected failed record")
	}
	if _, ok := f.wf.Pending(); ok {
		t.Fatalf("pending marker should be cleared")
	}
}

func TestPoll_FailedFallbackMessage(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeFailed)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)

	var failure *domain.ScrapeFailure
	if !errors.As(job.Outcome(), &failure) || failure.Message != "Scraping failed" {
		t.Fatalf("expected fallback message, got %v", job.Outcome())
	}
	if job.Request().ErrorMessage != "Scraping failed" {
		t.Fatalf("expected fallback on the record, got %q", job.Request().ErrorMessage)
	}
}

func TestPoll_RegressionAfterTerminalKeepsRecordOutcome(t *testing.T) {
	api := &stubScrapeAPI{
		submitReport: &domain.ScrapeStatusReport{RequestID: "req-1", Status: domain.ScrapeCompleted},
		polls:        []pollResult{status(domain.ScrapeFailed)},
	}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)

	select {
	case <-job.Done():
	default:
		t.Fatalf("job should end on its terminal record")
	}
	if job.Outcome() != nil {
		t.Fatalf("expected success from the completed record, got %v", job.Outcome())
	}
	if got := job.Request().Status; got != domain.ScrapeCompleted {
		t.Fatalf("record must stay completed, got %s", got)
	}
}

func TestPoll_RegressionWhileActiveKeepsPolling(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{
		status(domain.ScrapeProcessing),
		status(domain.ScrapePending),
	}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)
	f.clock.Advance(1500 * time.Millisecond)

	if got := job.Progress(); got != 25 {
		t.Fatalf("expected progress to hold at 25, got %d", got)
	}
	if got := job.Request().Status; got != domain.ScrapeProcessing {
		t.Fatalf("expected processing, got %s", got)
	}
	if n := f.clock.Pending(); n != 1 {
		t.Fatalf("expected the next poll to be scheduled, got %d", n)
	}
}

func TestPoll_GivesUpAfterMaxFailures(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{pollErr("connection refused")}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{MaxPollFailures: 10})

	job, _ := f.wf.Submit(context.Background(), validInput())

	f.clock.Advance(time.Second)
	for i := 1; i < 10; i++ {
		if d, ok := f.clock.NextDelay(); !ok || d != 3*time.Second {
			t.Fatalf("retry %d: expected 3s delay, got %v (scheduled=%v)", i, d, ok)
		}
		f.clock.Advance(3 * time.Second)
	}

	if api.calls() != 10 {
		t.Fatalf("expected exactly 10 attempts, got %d", api.calls())
	}
	if !errors.Is(job.Outcome(), domain.ErrStatusUnavailable) {
		t.Fatalf("expected ErrStatusUnavailable, got %v", job.Outcome())
	}
	if errors.Is(job.Outcome(), domain.ErrScrapeFailed) {
		t.Fatalf("status unavailability must be distinct from scrape failure")
	}
	if f.clock.Pending() != 0 {
		t.Fatalf("no poll may be scheduled after giving up")
	}
	if job.Request().Status != domain.ScrapePending {
		t.Fatalf("record keeps its last known status")
	}
}

func TestPoll_FailureCountIsCumulative(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{
		pollErr("timeout"),
		status(domain.ScrapeProcessing),
		pollErr("timeout"),
		status(domain.ScrapeProcessing),
		pollErr("timeout"),
	}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{MaxPollFailures: 3})

	job, _ := f.wf.Submit(context.Background(), validInput())
	for i := 0; i < 5; i++ {
		if !f.clock.RunNext() {
			t.Fatalf("tick %d: nothing scheduled", i)
		}
	}

	if !errors.Is(job.Outcome(), domain.ErrStatusUnavailable) {
		t.Fatalf("expected give-up on the third failure, got %v", job.Outcome())
	}
	if api.calls() != 5 {
		t.Fatalf("expected 5 polls, got %d", api.calls())
	}
}

// ---------------------------------------------------------------------------
// Cancel
// ---------------------------------------------------------------------------

func TestCancel_StopsPolling(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeProcessing)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)

	if err := f.wf.Cancel(context.Background(), job.ID()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(api.cancelled) != 1 || api.cancelled[0] != job.ID() {
		t.Fatalf("expected one cancel call, got %v", api.cancelled)
	}
	if !errors.Is(job.Outcome(), domain.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", job.Outcome())
	}
	r := job.Request()
	if r.Status != domain.ScrapeFailed || r.ErrorMessage != "Cancelled by user" {
		t.Fatalf("unexpected record after cancel: %+v", r)
	}
	if f.clock.Pending() != 0 {
		t.Fatalf("polling must stop after cancel")
	}

	before := api.calls()
	f.clock.Advance(time.Minute)
	if api.calls() != before {
		t.Fatalf("no poll may run after cancel")
	}
}

func TestCancel_RejectsUnknownAndTerminal(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeCompleted)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)

	if err := f.wf.Cancel(context.Background(), "nope"); !errors.Is(err, domain.ErrScrapeNotFound) {
		t.Fatalf("expected ErrScrapeNotFound, got %v", err)
	}
	if err := f.wf.Cancel(context.Background(), job.ID()); !errors.Is(err, domain.ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
	if len(api.cancelled) != 0 {
		t.Fatalf("rejected cancels must not reach the backend")
	}
}

func TestCancel_BackendErrorKeepsPolling(t *testing.T) {
	api := &stubScrapeAPI{
		polls:     []pollResult{status(domain.ScrapeProcessing)},
		cancelErr: &domain.APIError{StatusCode: 404, Detail: "Scrape request not found"},
	}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	job, _ := f.wf.Submit(context.Background(), validInput())
	if err := f.wf.Cancel(context.Background(), job.ID()); err == nil {
		t.Fatalf("expected error")
	}
	if f.clock.Pending() != 1 {
		t.Fatalf("polling should continue when the cancel failed")
	}
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestLoadHistory_MergesBehindLocal(t *testing.T) {
	api := &stubScrapeAPI{
		submitReport: &domain.ScrapeStatusReport{RequestID: "shared", Status: domain.ScrapePending},
		polls:        []pollResult{status(domain.ScrapePending)},
		history: &ports.ScrapeHistory{
			Total: 3,
			Requests: []domain.ScrapeRequest{
				{ID: "shared", Status: domain.ScrapeCompleted, CreatedAt: epoch.Add(-time.Hour)},
				{ID: "old", Status: domain.ScrapeFailed, CreatedAt: epoch.Add(-2 * time.Hour)},
				{ID: "older", Status: domain.ScrapeCompleted, CreatedAt: epoch.Add(-3 * time.Hour)},
			},
		},
	}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})

	if _, err := f.wf.Submit(context.Background(), validInput()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.wf.LoadHistory(context.Background(), 20, 0); err != nil {
		t.Fatalf("load history: %v", err)
	}

	reqs := f.wf.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 unique records, got %d", len(reqs))
	}
	if reqs[0].ID != "shared" || reqs[0].Status != domain.ScrapePending {
		t.Fatalf("local record must win: %+v", reqs[0])
	}
	if reqs[1].ID != "old" || reqs[2].ID != "older" {
		t.Fatalf("unexpected order: %s, %s", reqs[1].ID, reqs[2].ID)
	}
}

func TestLoadHistory_RequiresSession(t *testing.T) {
	f := newWorkflow(t, nil, &stubScrapeAPI{}, ScrapeOptions{})
	if err := f.wf.LoadHistory(context.Background(), 20, 0); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestJournalErrorsAreNotSurfaced(t *testing.T) {
	api := &stubScrapeAPI{polls: []pollResult{status(domain.ScrapeCompleted)}}
	f := newWorkflow(t, paidUser, api, ScrapeOptions{})
	f.journal.err = errors.New("mongo down")

	job, _ := f.wf.Submit(context.Background(), validInput())
	f.clock.Advance(time.Second)

	if job.Outcome() != nil {
		t.Fatalf("journal failures must not change the outcome, got %v", job.Outcome())
	}
}

// latencyScrapeAPI answers status checks for "fast" immediately and holds
// every other request until release is closed or the call times out.
type latencyScrapeAPI struct {
	stubScrapeAPI
	release chan struct{}

	mu        sync.Mutex
	fastPolls int
	slowPolls int
}

func (a *latencyScrapeAPI) SubmitScrape(_ context.Context, in ports.ScrapeSubmission) (*domain.ScrapeStatusReport, error) {
	id := "fast"
	if strings.Contains(in.URL, "slow") {
		id = "slow"
	}
	return &domain.ScrapeStatusReport{RequestID: id, Status: domain.ScrapePending}, nil
}

func (a *latencyScrapeAPI) ScrapeStatus(ctx context.Context, id string) (*domain.ScrapeStatusReport, error) {
	a.mu.Lock()
	if id == "fast" {
		a.fastPolls++
		a.mu.Unlock()
		return &domain.ScrapeStatusReport{RequestID: id, Status: domain.ScrapeProcessing}, nil
	}
	a.slowPolls++
	a.mu.Unlock()

	select {
	case <-a.release:
	case <-ctx.Done():
	}
	return nil, &domain.TransportError{Op: "GET /scrape/{id}", Err: context.DeadlineExceeded}
}

func (a *latencyScrapeAPI) counts() (fast, slow int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fastPolls, a.slowPolls
}

func TestPoll_SlowStatusCallDoesNotStallOtherJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := queue.NewLoop(0, zerolog.Nop())
	loop.Start(ctx)

	api := &latencyScrapeAPI{release: make(chan struct{})}
	wf := NewScrapeWorkflow(api, stubUsers{user: paidUser}, loop, nil, ScrapeOptions{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		RetryDelay:   time.Second,
		PollTimeout:  5 * time.Second,
	}, zerolog.Nop())
	t.Cleanup(func() {
		wf.Close()
		close(api.release)
		cancel()
		<-loop.Done()
	})

	if _, err := wf.Submit(context.Background(), ports.SubmitScrapeInput{URL: "https://amazon.com/slow", Platform: "amazon"}); err != nil {
		t.Fatalf("submit slow: %v", err)
	}
	if _, err := wf.Submit(context.Background(), ports.SubmitScrapeInput{URL: "https://amazon.com/fast", Platform: "amazon"}); err != nil {
		t.Fatalf("submit fast: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		fast, slow := api.counts()
		if fast >= 5 {
			if slow != 1 {
				t.Fatalf("expected the slow job to hold one outstanding poll, got %d", slow)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("fast job starved behind the slow one: fast=%d slow=%d", fast, slow)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
