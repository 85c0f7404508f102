package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"notewise/internal/backend"
	"notewise/internal/config"
	"notewise/internal/generation"
	"notewise/internal/task"
	"notewise/internal/websearch"
)

// ContentSeparator joins fetched page contents into the collated
// research document.
const ContentSeparator = "\n\n---\n\n"

// maxResearchChars caps how much collated content is quoted back into
// the generation prompt.
const maxResearchChars = 1200

// Submitter is the slice of the task pool the service needs.
type Submitter interface {
	Submit(u task.Unit) (*task.Handle, error)
}

// SessionRecord is the archived form of a finished session.
type SessionRecord struct {
	ID            uuid.UUID
	State         State
	OriginalText  string
	GeneratedText string
	Feedback      string
	ErrMessage    string
	Entities      []string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Archiver persists terminal sessions. Archiving is best-effort: a
// failure is logged, never surfaced to the user.
type Archiver interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
}

// StartRequest carries the inputs of one enhancement.
type StartRequest struct {
	Text       string
	Style      Style
	UserPrompt string
	Selection  *Selection
}

// View is a read-only snapshot of the current session for callers.
type View struct {
	SessionID     uuid.UUID `json:"session_id"`
	State         State     `json:"state"`
	Active        bool      `json:"active"`
	Progress      int       `json:"progress"`
	OriginalText  string    `json:"original_text,omitempty"`
	GeneratedText string    `json:"generated_text,omitempty"`
	Feedback      string    `json:"feedback,omitempty"`
	ErrMessage    string    `json:"error,omitempty"`
	Entities      []string  `json:"entities,omitempty"`
}

// Service owns the single enhancement session and drives the pipeline:
// entity extraction, per-entity search fan-out, per-link fetch fan-out,
// question answering over the collated content, and final generation.
// All session mutation happens under one mutex, so the session itself
// stays single-writer; stage handoffs run on the goroutines that
// complete each fan-out.
type Service struct {
	pool    Submitter
	factory *backend.Factory
	cfg     config.AIConfig
	logger  *slog.Logger
	archive Archiver

	mu         sync.Mutex
	generation uint64
	session    *Session
	tracker    *Tracker

	// pending data for the in-flight session, kept off the Session so a
	// reset cannot race a late stage.
	style      Style
	userPrompt string
	collated   string
}

// NewService wires the pipeline. archive may be nil.
func NewService(pool Submitter, factory *backend.Factory, cfg config.AIConfig, logger *slog.Logger, archive Archiver) *Service {
	return &Service{
		pool:    pool,
		factory: factory,
		cfg:     cfg,
		logger:  logger,
		archive: archive,
		session: NewSession(logger),
		tracker: NewTracker(nil),
	}
}

// StartEnhancement begins a new session. A second call while a session
// is active is rejected with ErrSessionActive; queueing, if wanted,
// belongs to the caller.
func (s *Service) StartEnhancement(ctx context.Context, req StartRequest) (uuid.UUID, error) {
	if strings.TrimSpace(req.Text) == "" {
		return uuid.Nil, fmt.Errorf("%w: note text is empty", generation.ErrEmptyResult)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.IsActive() {
		return uuid.Nil, ErrSessionActive
	}

	s.generation++
	gen := s.generation
	s.session.Start(gen, req.Text, req.Selection)
	s.style = req.Style
	s.userPrompt = req.UserPrompt
	s.collated = ""
	s.tracker = NewTracker(nil)

	unit, err := s.factory.NewUnit(backend.OpExtractEntities, backend.Request{Text: req.Text})
	if err != nil {
		// Factory errors are synchronous and fatal; no unit ever started.
		s.failLocked(err.Error())
		return uuid.Nil, err
	}
	h, err := s.pool.Submit(unit)
	if err != nil {
		s.failLocked(fmt.Sprintf("submitting entity extraction: %v", err))
		return uuid.Nil, err
	}

	s.logger.Info("enhancement session started",
		"session_id", s.session.ID,
		"style", req.Style,
		"text_chars", len(req.Text))

	go func() { s.onEntities(gen, <-h.Done()) }()
	return s.session.ID, nil
}

// Refine runs another generation round with user feedback. Valid only
// while the session holds a generated enhancement.
func (s *Service) Refine(ctx context.Context, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.State != StateEnhancementReceived {
		return fmt.Errorf("%w: refine requires state %s, session is %s",
			ErrNoSession, StateEnhancementReceived, s.session.State)
	}

	gen := s.session.Generation
	s.session.StartRefinement(feedback)
	prompt := BuildRefinementPrompt(s.session.OriginalText, s.session.GeneratedText, feedback)
	s.session.GeneratingEnhancement(prompt)

	// A refinement round restarts the indicator at the generation stage.
	s.tracker = NewTracker(nil)
	s.tracker.StageDone(StageQnA)

	return s.submitGenerationLocked(gen, prompt)
}

// Accept finishes the session and returns the accepted text.
func (s *Service) Accept(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Accept() {
		return "", fmt.Errorf("%w: accept requires state %s, session is %s",
			ErrNoSession, StateEnhancementReceived, s.session.State)
	}
	text := s.session.GeneratedText
	s.archiveLocked()
	s.resetLocked()
	return text, nil
}

// Reject finishes the session discarding the enhancement.
func (s *Service) Reject(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Reject() {
		return fmt.Errorf("%w: reject requires state %s, session is %s",
			ErrNoSession, StateEnhancementReceived, s.session.State)
	}
	s.archiveLocked()
	s.resetLocked()
	return nil
}

// Summarize condenses arbitrary note text through the resolved
// provider, synchronously from the caller's point of view.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	unit, err := s.factory.NewUnit(backend.OpSummarize, backend.Request{Text: text})
	if err != nil {
		return "", err
	}
	h, err := s.pool.Submit(unit)
	if err != nil {
		return "", err
	}

	select {
	case o := <-h.Done():
		if !o.Ok() {
			return "", o.Fault
		}
		summary, _ := o.Value.(string)
		return summary, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Snapshot returns the current session state for status polling.
func (s *Service) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		SessionID:     s.session.ID,
		State:         s.session.State,
		Active:        s.session.IsActive(),
		Progress:      s.tracker.Overall(),
		OriginalText:  s.session.OriginalText,
		GeneratedText: s.session.GeneratedText,
		Feedback:      s.session.Feedback,
		ErrMessage:    s.session.ErrMessage,
		Entities:      s.session.Entities,
	}
}

// --- pipeline stages -------------------------------------------------

func (s *Service) onEntities(gen uint64, o task.Outcome) {
	s.mu.Lock()

	if s.staleLocked(gen) {
		s.mu.Unlock()
		return
	}
	if !o.Ok() {
		s.failLocked(fmt.Sprintf("entity extraction failed: %v", o.Fault))
		s.mu.Unlock()
		return
	}

	names, _ := o.Value.([]string)
	s.session.EntitiesExtracted(names)
	s.tracker.StageDone(StageExtract)

	if len(names) == 0 {
		// No entities means nothing to research: go straight to
		// generation from the original text alone.
		s.logger.Info("no entities extracted, skipping research stages",
			"session_id", s.session.ID)
		s.tracker.StageDone(StageQnA)
		prompt := BuildPrompt(s.style, s.userPrompt, s.session.OriginalText)
		s.session.GeneratingEnhancement(prompt)
		if err := s.submitGenerationLocked(gen, prompt); err != nil {
			s.logger.Warn("generation submit failed", "error", err)
		}
		s.mu.Unlock()
		return
	}

	keys := names
	if len(keys) > s.searchCap() {
		keys = keys[:s.searchCap()]
	}
	order := append([]string(nil), keys...)
	s.mu.Unlock()

	fan := NewFanout[[]websearch.Result](func(combined map[string]Item[[]websearch.Result]) {
		s.onSearchDone(gen, order, combined)
	})
	fan.Start(order, func(entity string) (*task.Handle, error) {
		unit, err := s.factory.NewUnit(backend.OpSearch, backend.Request{Query: entity})
		if err != nil {
			return nil, err
		}
		return s.pool.Submit(unit)
	})
}

func (s *Service) onSearchDone(gen uint64, order []string, combined map[string]Item[[]websearch.Result]) {
	s.mu.Lock()

	if s.staleLocked(gen) {
		s.mu.Unlock()
		return
	}

	results := make(map[string][]websearch.Result, len(combined))
	failures := 0
	for entity, item := range combined {
		if item.Err != nil {
			failures++
			s.logger.Warn("entity search failed",
				"session_id", s.session.ID,
				"entity", entity,
				"error", item.Err)
			continue
		}
		results[entity] = item.Value
	}
	s.session.SearchResults = results
	s.tracker.StageDone(StageSearch)
	if failures > 0 {
		s.logger.Info("search stage completed with partial failures",
			"session_id", s.session.ID,
			"failed", failures,
			"total", len(combined))
	}

	// Unique URLs in first-seen order across entities, capped for the
	// fetch fan-out.
	var urls []string
	seen := make(map[string]struct{})
	for _, entity := range order {
		for _, r := range results[entity] {
			if r.URL == "" {
				continue
			}
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
			urls = append(urls, r.URL)
		}
	}
	if len(urls) > s.linkCap() {
		urls = urls[:s.linkCap()]
	}
	s.mu.Unlock()

	fan := NewFanout[websearch.Page](func(combined map[string]Item[websearch.Page]) {
		s.onFetchDone(gen, urls, combined)
	})
	fan.Start(urls, func(pageURL string) (*task.Handle, error) {
		unit, err := s.factory.NewUnit(backend.OpFetch, backend.Request{URL: pageURL})
		if err != nil {
			return nil, err
		}
		return s.pool.Submit(unit)
	})
}

func (s *Service) onFetchDone(gen uint64, urls []string, combined map[string]Item[websearch.Page]) {
	s.mu.Lock()

	if s.staleLocked(gen) {
		s.mu.Unlock()
		return
	}

	var pages []websearch.Page
	for _, u := range urls {
		item, ok := combined[u]
		if !ok || item.Err != nil {
			if ok {
				s.logger.Warn("page fetch failed",
					"session_id", s.session.ID,
					"url", u,
					"error", item.Err)
			}
			continue
		}
		pages = append(pages, item.Value)
	}
	s.session.Pages = pages
	s.tracker.StageDone(StageFetch)

	collated := Collate(pages)
	if collated == "" {
		s.failLocked(ErrNoContent.Error())
		s.mu.Unlock()
		return
	}
	s.collated = collated

	questions := SynthesizeQuestions(s.session.Entities, s.questionCap())
	passage := truncate(collated, 4*maxResearchChars)
	s.mu.Unlock()

	fan := NewFanout[string](func(combined map[string]Item[string]) {
		s.onQnADone(gen, questions, combined)
	})
	fan.Start(questions, func(question string) (*task.Handle, error) {
		unit, err := s.factory.NewUnit(backend.OpAnswer, backend.Request{Question: question, Passage: passage})
		if err != nil {
			return nil, err
		}
		return s.pool.Submit(unit)
	})
}

func (s *Service) onQnADone(gen uint64, questions []string, combined map[string]Item[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staleLocked(gen) {
		return
	}

	answers := make(map[string]string, len(combined))
	for q, item := range combined {
		if item.Err != nil {
			s.logger.Warn("question answering failed",
				"session_id", s.session.ID,
				"question", q,
				"error", item.Err)
			continue
		}
		answers[q] = item.Value
	}
	s.session.Answers = answers
	s.tracker.StageDone(StageQnA)

	base := BuildPrompt(s.style, s.userPrompt, s.session.OriginalText)
	prompt := BuildContextPrompt(base, truncate(s.collated, maxResearchChars), answers, questions)
	s.session.GeneratingEnhancement(prompt)

	if err := s.submitGenerationLocked(gen, prompt); err != nil {
		s.logger.Warn("generation submit failed", "error", err)
	}
}

func (s *Service) onGenerated(gen uint64, o task.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staleLocked(gen) {
		return
	}
	if !o.Ok() {
		s.failLocked(fmt.Sprintf("enhancement generation failed: %v", o.Fault))
		return
	}

	text, _ := o.Value.(string)
	text, err := generation.Normalize(text)
	if err != nil {
		s.failLocked("enhancement generation produced empty text")
		return
	}

	s.session.EnhancementGenerated(text)
	s.tracker.Complete()
	s.logger.Info("enhancement generated",
		"session_id", s.session.ID,
		"generated_chars", len(text))
}

// --- helpers ---------------------------------------------------------

// submitGenerationLocked dispatches the final generation unit. Callers
// hold s.mu.
func (s *Service) submitGenerationLocked(gen uint64, prompt string) error {
	unit, err := s.factory.NewUnit(backend.OpGenerate, backend.Request{Prompt: prompt})
	if err != nil {
		s.failLocked(err.Error())
		return err
	}
	h, err := s.pool.Submit(unit)
	if err != nil {
		s.failLocked(fmt.Sprintf("submitting generation: %v", err))
		return err
	}
	go func() { s.onGenerated(gen, <-h.Done()) }()
	return nil
}

// staleLocked reports whether a callback belongs to a superseded or
// finished session. Callers hold s.mu.
func (s *Service) staleLocked(gen uint64) bool {
	if s.session.Generation != gen || !s.session.IsActive() {
		s.logger.Debug("dropping stale pipeline callback",
			"callback_generation", gen,
			"session_generation", s.session.Generation,
			"session_state", s.session.State)
		return true
	}
	return false
}

// failLocked moves the session to its terminal error state and archives
// it. Callers hold s.mu.
func (s *Service) failLocked(message string) {
	if !s.session.Fail(message) {
		return
	}
	s.logger.Error("enhancement session failed",
		"session_id", s.session.ID,
		"error", message)
	s.archiveLocked()
}

// archiveLocked persists the (terminal) session. Callers hold s.mu.
func (s *Service) archiveLocked() {
	if s.archive == nil {
		return
	}
	rec := SessionRecord{
		ID:            s.session.ID,
		State:         s.session.State,
		OriginalText:  s.session.OriginalText,
		GeneratedText: s.session.GeneratedText,
		Feedback:      s.session.Feedback,
		ErrMessage:    s.session.ErrMessage,
		Entities:      s.session.Entities,
		StartedAt:     s.session.StartedAt,
		FinishedAt:    time.Now().UTC(),
	}
	go func() {
		if err := s.archive.SaveSession(context.Background(), rec); err != nil {
			s.logger.Warn("failed to archive session",
				"session_id", rec.ID,
				"error", err)
		}
	}()
}

// resetLocked returns the service to the idle state after a terminal
// transition. Callers hold s.mu.
func (s *Service) resetLocked() {
	s.session = NewSession(s.logger)
	s.tracker = NewTracker(nil)
	s.collated = ""
}

func (s *Service) searchCap() int {
	if s.cfg.MaxSearchEntities > 0 {
		return s.cfg.MaxSearchEntities
	}
	return 3
}

func (s *Service) linkCap() int {
	if s.cfg.MaxLinksForQnA > 0 {
		return s.cfg.MaxLinksForQnA
	}
	return 3
}

func (s *Service) questionCap() int {
	if s.cfg.MaxQuestions > 0 {
		return s.cfg.MaxQuestions
	}
	return 3
}

// Collate joins the non-empty page contents with a visible separator.
func Collate(pages []websearch.Page) string {
	var parts []string
	for _, p := range pages {
		if c := strings.TrimSpace(p.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ContentSeparator)
}

// SynthesizeQuestions builds the QnA question list from the entity
// list, capped at max.
func SynthesizeQuestions(entities []string, max int) []string {
	var questions []string
	for _, e := range entities {
		if strings.TrimSpace(e) == "" {
			continue
		}
		questions = append(questions, fmt.Sprintf("What is %s?", e))
		if len(questions) == max {
			break
		}
	}
	return questions
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
