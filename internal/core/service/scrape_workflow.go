package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/pkg/metrics"
	"github.com/dataflow/console/internal/pkg/validation"
)

const (
	initialProgress = 10
	progressStep    = 15
	progressCeiling = 90

	scrapeFailedFallback = "Scraping failed"
	cancelledMessage     = "Cancelled by user"

	journalTimeout = 5 * time.Second
)

// ScrapeOptions are the timing knobs of the polling state machine.
type ScrapeOptions struct {
	SubmitTimeout   time.Duration
	InitialDelay    time.Duration
	PollInterval    time.Duration
	RetryDelay      time.Duration
	PollTimeout     time.Duration
	MaxPollFailures int
}

// DefaultScrapeOptions mirrors the configuration defaults.
func DefaultScrapeOptions() ScrapeOptions {
	return ScrapeOptions{
		SubmitTimeout:   30 * time.Second,
		InitialDelay:    time.Second,
		PollInterval:    1500 * time.Millisecond,
		RetryDelay:      3 * time.Second,
		PollTimeout:     15 * time.Second,
		MaxPollFailures: 10,
	}
}

// UserSource exposes the signed-in user.
type UserSource interface {
	User() (domain.User, bool)
}

// ScrapeWorkflow submits scrape jobs and tracks each one to a terminal
// outcome by polling its status. Records are kept newest first and only ever
// move forward through their lifecycle.
type ScrapeWorkflow struct {
	api      ports.ScrapeAPI
	users    UserSource
	sched    ports.Scheduler
	journal  ports.ScrapeJournal
	validate *validation.Validator
	opts     ScrapeOptions
	log      zerolog.Logger

	mu       sync.Mutex
	requests []*domain.ScrapeRequest
	jobs     map[string]*scrapeJob
	pending  string
	closed   bool
}

var _ ports.ScrapeService = (*ScrapeWorkflow)(nil)

func NewScrapeWorkflow(
	api ports.ScrapeAPI,
	users UserSource,
	sched ports.Scheduler,
	journal ports.ScrapeJournal,
	opts ScrapeOptions,
	log zerolog.Logger,
) *ScrapeWorkflow {
	def := DefaultScrapeOptions()
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = def.SubmitTimeout
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = def.InitialDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = def.PollTimeout
	}
	if opts.MaxPollFailures <= 0 {
		opts.MaxPollFailures = def.MaxPollFailures
	}
	return &ScrapeWorkflow{
		api:      api,
		users:    users,
		sched:    sched,
		journal:  journal,
		validate: validation.Default(),
		opts:     opts,
		log:      log,
		jobs:     make(map[string]*scrapeJob),
	}
}

// Submit checks the session and plan, validates the input and sends the job
// to the backend. Local rejections never reach the network and never create
// a record.
func (w *ScrapeWorkflow) Submit(ctx context.Context, in ports.SubmitScrapeInput) (ports.ScrapeJob, error) {
	// 1. Session and entitlement.
	user, ok := w.users.User()
	if !ok {
		metrics.ScrapeSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrNotAuthenticated
	}
	if !user.Plan.CanScrape() {
		metrics.ScrapeSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrNotEntitled
	}

	// 2. Input.
	if err := w.validate.Struct(in); err != nil {
		metrics.ScrapeSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	platform, _ := domain.ParsePlatform(in.Platform)

	// 3. Send, bounded.
	sctx, cancel := context.WithTimeout(ctx, w.opts.SubmitTimeout)
	defer cancel()
	report, err := w.api.SubmitScrape(sctx, ports.ScrapeSubmission{
		URL:      in.URL,
		Platform: string(platform),
		Fields:   in.Fields,
		Webhook:  in.Webhook,
	})
	if err != nil {
		metrics.ScrapeSubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("submit scrape: %w", err)
	}
	if report.RequestID == "" {
		metrics.ScrapeSubmissionsTotal.WithLabelValues("error").Inc()
		return nil, errors.New("submit scrape: backend returned no request id")
	}

	status := report.Status
	if !status.Known() {
		status = domain.ScrapePending
	}

	// 4. Track.
	req := &domain.ScrapeRequest{
		ID:        report.RequestID,
		URL:       in.URL,
		Platform:  string(platform),
		Status:    status,
		CreatedAt: w.sched.Now(),
	}
	job := &scrapeJob{w: w, id: req.ID, done: make(chan struct{}), progress: initialProgress}

	w.mu.Lock()
	if existing, ok := w.jobs[req.ID]; ok && !existing.finished {
		// The backend handed back a request that is already being polled.
		w.mu.Unlock()
		metrics.ScrapeSubmissionsTotal.WithLabelValues("duplicate").Inc()
		w.log.Info().Str("request_id", req.ID).Msg("scrape already tracked")
		return existing, nil
	}
	w.removeLocked(req.ID)
	w.requests = append([]*domain.ScrapeRequest{req}, w.requests...)
	w.jobs[req.ID] = job
	w.pending = req.ID
	job.timer = w.sched.AfterFunc(w.opts.InitialDelay, func() { w.poll(job) })
	w.mu.Unlock()

	metrics.ScrapeSubmissionsTotal.WithLabelValues("accepted").Inc()
	metrics.ScrapeJobsInFlight.Inc()
	w.log.Info().
		Str("request_id", req.ID).
		Str("platform", req.Platform).
		Str("status", string(status)).
		Msg("scrape submitted")

	return job, nil
}

// poll performs one status check. The next check is scheduled only after the
// current response is known, so a job never has two polls outstanding. The
// request itself runs off the scheduler so a slow status call only delays
// its own job.
func (w *ScrapeWorkflow) poll(job *scrapeJob) {
	w.mu.Lock()
	if job.finished || w.closed {
		w.mu.Unlock()
		return
	}
	job.timer = nil
	w.mu.Unlock()

	var (
		report *domain.ScrapeStatusReport
		err    error
	)
	w.sched.Offload(func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.PollTimeout)
		defer cancel()
		report, err = w.api.ScrapeStatus(ctx, job.id)
	}, func() {
		w.handlePoll(job, report, err)
	})
}

func (w *ScrapeWorkflow) handlePoll(job *scrapeJob, report *domain.ScrapeStatusReport, err error) {
	w.mu.Lock()
	// Cancelled or closed while the request was in flight.
	if job.finished || w.closed {
		w.mu.Unlock()
		return
	}

	if err != nil {
		metrics.ScrapePollsTotal.WithLabelValues("error").Inc()
		job.failures++
		if job.failures < w.opts.MaxPollFailures {
			metrics.ScrapePollRetriesTotal.Inc()
			job.timer = w.sched.AfterFunc(w.opts.RetryDelay, func() { w.poll(job) })
			w.mu.Unlock()
			w.log.Warn().Err(err).
				Str("request_id", job.id).
				Int("failures", job.failures).
				Msg("scrape status poll failed, retrying")
			return
		}
		rec := w.finishLocked(job, domain.ErrStatusUnavailable, "status_unavailable")
		w.mu.Unlock()
		w.log.Error().Err(err).Str("request_id", job.id).Msg("giving up on scrape status")
		w.record(rec)
		return
	}

	metrics.ScrapePollsTotal.WithLabelValues(string(report.Status)).Inc()

	// A rejected report carries no news; only a record that is already
	// terminal ends the job then.
	next := report.Status
	req := w.findLocked(job.id)
	if req != nil && !req.Apply(*report, w.sched.Now()) {
		w.log.Debug().
			Str("request_id", job.id).
			Str("from", string(req.Status)).
			Str("to", string(report.Status)).
			Msg("ignoring status regression")
		next = ""
		if req.Status.IsTerminal() {
			next = req.Status
		}
	}

	switch next {
	case domain.ScrapeCompleted:
		job.progress = 100
		rec := w.finishLocked(job, nil, "completed")
		w.mu.Unlock()
		w.log.Info().Str("request_id", job.id).Msg("scrape completed")
		w.record(rec)
		return

	case domain.ScrapeFailed:
		msg := report.ErrorMessage
		if req != nil && req.ErrorMessage != "" {
			msg = req.ErrorMessage
		}
		if msg == "" {
			msg = scrapeFailedFallback
		}
		if req != nil && req.ErrorMessage == "" {
			req.ErrorMessage = msg
		}
		rec := w.finishLocked(job, &domain.ScrapeFailure{RequestID: job.id, Message: msg}, "failed")
		w.mu.Unlock()
		w.log.Warn().Str("request_id", job.id).Str("reason", msg).Msg("scrape failed")
		w.record(rec)
		return

	case domain.ScrapeProcessing:
		job.progress = min(job.progress+progressStep, progressCeiling)
	}

	job.timer = w.sched.AfterFunc(w.opts.PollInterval, func() { w.poll(job) })
	w.mu.Unlock()
}

// Cancel asks the backend to stop a request that has not finished yet. On
// success the record is marked failed and any polling stops.
func (w *ScrapeWorkflow) Cancel(ctx context.Context, requestID string) error {
	w.mu.Lock()
	req := w.findLocked(requestID)
	if req == nil {
		w.mu.Unlock()
		return fmt.Errorf("cancel scrape %q: %w", requestID, domain.ErrScrapeNotFound)
	}
	if req.Status.IsTerminal() {
		w.mu.Unlock()
		return fmt.Errorf("cancel scrape %q: %w", requestID, domain.ErrAlreadyTerminal)
	}
	w.mu.Unlock()

	if _, err := w.api.CancelScrape(ctx, requestID); err != nil {
		return fmt.Errorf("cancel scrape %q: %w", requestID, err)
	}

	w.mu.Lock()
	req = w.findLocked(requestID)
	if req == nil || req.Status.IsTerminal() {
		// Finished on its own while the cancel was in flight.
		w.mu.Unlock()
		return nil
	}
	req.Status = domain.ScrapeFailed
	req.ErrorMessage = cancelledMessage

	var rec domain.ScrapeRequest
	if job, ok := w.jobs[requestID]; ok && !job.finished {
		if job.timer != nil {
			job.timer.Stop()
			job.timer = nil
		}
		rec = w.finishLocked(job, domain.ErrCancelled, "cancelled")
	} else {
		rec = req.Clone()
	}
	w.mu.Unlock()

	w.log.Info().Str("request_id", requestID).Msg("scrape cancelled")
	w.record(rec)
	return nil
}

// Requests returns a newest-first snapshot of every tracked record.
func (w *ScrapeWorkflow) Requests() []domain.ScrapeRequest {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]domain.ScrapeRequest, len(w.requests))
	for i, r := range w.requests {
		out[i] = r.Clone()
	}
	return out
}

func (w *ScrapeWorkflow) Get(requestID string) (domain.ScrapeRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if r := w.findLocked(requestID); r != nil {
		return r.Clone(), true
	}
	return domain.ScrapeRequest{}, false
}

// Job returns the handle of a job submitted in this process.
func (w *ScrapeWorkflow) Job(requestID string) (ports.ScrapeJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	job, ok := w.jobs[requestID]
	if !ok {
		return nil, false
	}
	return job, true
}

// Pending returns the most recently submitted request still being tracked.
func (w *ScrapeWorkflow) Pending() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending, w.pending != ""
}

// LoadHistory merges one page of the remote history behind the local
// records. Local records win on conflicting IDs.
func (w *ScrapeWorkflow) LoadHistory(ctx context.Context, limit, offset int) error {
	if _, ok := w.users.User(); !ok {
		return domain.ErrNotAuthenticated
	}

	page, err := w.api.ScrapeHistory(ctx, limit, offset)
	if err != nil {
		return fmt.Errorf("load scrape history: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]struct{}, len(w.requests))
	for _, r := range w.requests {
		seen[r.ID] = struct{}{}
	}
	for _, remote := range page.Requests {
		if remote.ID == "" {
			continue
		}
		if _, dup := seen[remote.ID]; dup {
			continue
		}
		seen[remote.ID] = struct{}{}
		r := remote.Clone()
		w.requests = append(w.requests, &r)
	}
	sort.SliceStable(w.requests, func(i, j int) bool {
		return w.requests[i].CreatedAt.After(w.requests[j].CreatedAt)
	})
	return nil
}

// Close stops every outstanding poll. Jobs that have not finished keep
// their current record and never report an outcome.
func (w *ScrapeWorkflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	for _, job := range w.jobs {
		if job.timer != nil {
			job.timer.Stop()
			job.timer = nil
		}
	}
}

// finishLocked ends a job and returns a snapshot of its record for the
// journal. Caller holds w.mu.
func (w *ScrapeWorkflow) finishLocked(job *scrapeJob, outcome error, label string) domain.ScrapeRequest {
	job.finished = true
	job.outcome = outcome
	close(job.done)
	if w.pending == job.id {
		w.pending = ""
	}

	metrics.ScrapeOutcomesTotal.WithLabelValues(label).Inc()
	metrics.ScrapeJobsInFlight.Dec()

	if r := w.findLocked(job.id); r != nil {
		return r.Clone()
	}
	return domain.ScrapeRequest{ID: job.id}
}

func (w *ScrapeWorkflow) record(req domain.ScrapeRequest) {
	if w.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := w.journal.Record(ctx, req); err != nil {
		w.log.Warn().Err(err).Str("request_id", req.ID).Msg("failed to journal scrape request")
	}
}

func (w *ScrapeWorkflow) findLocked(id string) *domain.ScrapeRequest {
	for _, r := range w.requests {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (w *ScrapeWorkflow) removeLocked(id string) {
	for i, r := range w.requests {
		if r.ID == id {
			w.requests = append(w.requests[:i], w.requests[i+1:]...)
			return
		}
	}
}

// scrapeJob is the handle returned by Submit. Its mutable fields are guarded
// by the owning workflow's mutex.
type scrapeJob struct {
	w    *ScrapeWorkflow
	id   string
	done chan struct{}

	progress int
	failures int
	timer    ports.Timer
	finished bool
	outcome  error
}

func (j *scrapeJob) ID() string { return j.id }

func (j *scrapeJob) Done() <-chan struct{} { return j.done }

func (j *scrapeJob) Outcome() error {
	j.w.mu.Lock()
	defer j.w.mu.Unlock()
	return j.outcome
}

func (j *scrapeJob) Progress() int {
	j.w.mu.Lock()
	defer j.w.mu.Unlock()
	return j.progress
}

func (j *scrapeJob) Request() domain.ScrapeRequest {
	r, _ := j.w.Get(j.id)
	return r
}
