// Package wizard implements the four-step article creation flow: outline,
// draft, review and published. A Controller owns one session's form data and
// generated artifacts and serializes the slow calls it makes to its
// collaborators.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/starford/articlegen/internal/models"
)

// GenerationService produces outline and article text.
type GenerationService interface {
	GenerateOutline(ctx context.Context, req models.OutlineRequest) (string, error)
	GenerateArticle(ctx context.Context, req models.ArticleRequest, outline string) (string, error)
}

// ArticleStore persists finished articles.
type ArticleStore interface {
	Publish(ctx context.Context, sub models.Submission) (models.PublishedArticle, error)
	SaveDraft(ctx context.Context, sub models.Submission) (models.PublishedArticle, error)
}

// NotificationSink delivers user-facing notifications. It must not block.
type NotificationSink interface {
	Notify(ctx context.Context, n models.Notification)
}

// Timeouts bound collaborator calls. Zero means no deadline.
type Timeouts struct {
	Generation time.Duration
	Publish    time.Duration
}

// Controller drives one wizard session. It is safe for concurrent use; at
// most one collaborator call is in flight at a time.
type Controller struct {
	id       string
	owner    string
	gen      GenerationService
	store    ArticleStore
	sink     NotificationSink
	timeouts Timeouts

	mu         sync.Mutex
	step       Step
	outline    models.OutlineRequest
	article    models.ArticleRequest
	outlineTxt string
	draft      string
	edits      Edits
	articleID  string
	published  *models.PublishedArticle
	busy       bool
	seq        uint64
	cancel     context.CancelFunc
	lastErr    string
	touched    time.Time
}

// NewController returns a controller positioned at the outline step.
func NewController(id, owner string, gen GenerationService, store ArticleStore, sink NotificationSink, t Timeouts) *Controller {
	return &Controller{
		id:       id,
		owner:    owner,
		gen:      gen,
		store:    store,
		sink:     sink,
		timeouts: t,
		step:     StepOutline,
		touched:  time.Now(),
	}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Owner returns the id of the user the session belongs to.
func (c *Controller) Owner() string { return c.owner }

// begin claims the busy gate for a call that must start at step want.
func (c *Controller) begin(parent context.Context, want Step, timeout time.Duration) (context.Context, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return nil, 0, ErrBusy
	}
	if c.step != want {
		return nil, 0, c.wrongStep(want)
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	c.seq++
	c.busy = true
	c.cancel = cancel
	c.lastErr = ""
	c.touched = time.Now()
	return ctx, c.seq, nil
}

// settle releases the busy gate if seq is still current. Callers hold c.mu.
// A false return means the call was canceled or superseded and its result
// must be dropped.
func (c *Controller) settle(seq uint64) bool {
	if seq != c.seq {
		return false
	}
	c.busy = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.touched = time.Now()
	return true
}

func (c *Controller) wrongStep(want Step) error {
	if c.step == want {
		return nil
	}
	return &transitionError{from: c.step, want: want}
}

type transitionError struct {
	from, want Step
}

func (e *transitionError) Error() string {
	return "wizard: operation requires step " + e.want.String() + ", session is at " + e.from.String()
}

func (e *transitionError) Unwrap() error { return ErrInvalidTransition }

// SubmitOutline validates req, asks the generation service for an outline and
// moves to the draft step on success. On failure the session stays at the
// outline step with its data unchanged.
func (c *Controller) SubmitOutline(ctx context.Context, req models.OutlineRequest) (string, error) {
	if err := validateOutline(req); err != nil {
		return "", err
	}

	callCtx, seq, err := c.begin(ctx, StepOutline, c.timeouts.Generation)
	if err != nil {
		return "", err
	}

	text, genErr := c.gen.GenerateOutline(callCtx, trimOutline(req))
	if genErr == nil && strings.TrimSpace(text) == "" {
		genErr = errors.New("empty outline")
	}

	c.mu.Lock()
	if !c.settle(seq) {
		c.mu.Unlock()
		return "", ErrSuperseded
	}
	if genErr != nil {
		gerr := &GenerationError{Kind: classify(genErr), Err: genErr}
		c.lastErr = gerr.Error()
		c.mu.Unlock()
		c.fail(ctx, "Outline generation", gerr.Kind, genErr)
		return "", gerr
	}
	c.outline = req
	c.outlineTxt = text
	c.step, _ = next(StepOutline)
	c.mu.Unlock()

	c.notify(ctx, models.LevelSuccess, "Outline generated", "Review and edit the outline before generating the article.")
	return text, nil
}

// trimOutline returns the outline fields as sent to the generator. The
// session keeps what the user typed.
func trimOutline(o models.OutlineRequest) models.OutlineRequest {
	o.Title = strings.TrimSpace(o.Title)
	o.Instructions = strings.TrimSpace(o.Instructions)
	o.Industry = strings.TrimSpace(o.Industry)
	return o
}

// SubmitArticle generates the article from the edited outline and moves to
// the review step. The outline fields of req are ignored in favour of the
// ones captured at the outline step.
func (c *Controller) SubmitArticle(ctx context.Context, req models.ArticleRequest, editedOutline string) (string, error) {
	if err := validateArticle(req, editedOutline); err != nil {
		return "", err
	}
	req.Keywords = slices.Clone(req.Keywords)

	callCtx, seq, err := c.begin(ctx, StepDraft, c.timeouts.Generation)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	req.OutlineRequest = c.outline
	c.mu.Unlock()

	genReq := req
	genReq.OutlineRequest = trimOutline(req.OutlineRequest)
	genReq.Keywords = normalizeList(req.Keywords)
	genReq.AdditionalInstructions = strings.TrimSpace(req.AdditionalInstructions)
	text, genErr := c.gen.GenerateArticle(callCtx, genReq, editedOutline)
	if genErr == nil && strings.TrimSpace(text) == "" {
		genErr = errors.New("empty article")
	}

	c.mu.Lock()
	if !c.settle(seq) {
		c.mu.Unlock()
		return "", ErrSuperseded
	}
	if genErr != nil {
		gerr := &GenerationError{Kind: classify(genErr), Err: genErr}
		c.lastErr = gerr.Error()
		c.mu.Unlock()
		c.fail(ctx, "Article generation", gerr.Kind, genErr)
		return "", gerr
	}
	c.article = req
	c.outlineTxt = editedOutline
	c.draft = text
	// A fresh draft replaces any hand-edited content.
	c.edits.Content = nil
	c.step, _ = next(StepDraft)
	c.mu.Unlock()

	c.notify(ctx, models.LevelSuccess, "Article generated", "Polish the article and publish when ready.")
	return text, nil
}

// EditFinal applies a partial update to the review form.
func (c *Controller) EditFinal(p FinalPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if err := c.wrongStep(StepReview); err != nil {
		return err
	}
	if err := validatePatch(p); err != nil {
		return err
	}
	c.edits.apply(p)
	c.touched = time.Now()
	return nil
}

// Publish stores the resolved article as published and moves to the final
// step. On failure the session stays at review.
func (c *Controller) Publish(ctx context.Context) (models.PublishedArticle, error) {
	res, err := c.persist(ctx, true)
	if err != nil {
		return res, err
	}
	c.notify(ctx, models.LevelSuccess, "Article published", res.URL)
	return res, nil
}

// SaveDraft stores the resolved article as a draft without leaving review.
// Later saves and the final publish reuse the same article id.
func (c *Controller) SaveDraft(ctx context.Context) (models.PublishedArticle, error) {
	res, err := c.persist(ctx, false)
	if err != nil {
		return res, err
	}
	c.notify(ctx, models.LevelSuccess, "Draft saved", "You can come back to it from the dashboard.")
	return res, nil
}

func (c *Controller) persist(ctx context.Context, publish bool) (models.PublishedArticle, error) {
	call, action := c.store.SaveDraft, "Saving the draft"
	if publish {
		call, action = c.store.Publish, "Publishing"
	}

	callCtx, seq, err := c.begin(ctx, StepReview, c.timeouts.Publish)
	if err != nil {
		return models.PublishedArticle{}, err
	}
	c.mu.Lock()
	sub := models.Submission{
		ID:      c.articleID,
		OwnerID: c.owner,
		Article: Resolve(c.edits, c.article, c.outline, c.draft),
	}
	if err := ValidateFinal(sub.Article); err != nil {
		c.settle(seq)
		c.mu.Unlock()
		return models.PublishedArticle{}, err
	}
	c.mu.Unlock()

	res, callErr := call(callCtx, sub)

	c.mu.Lock()
	if !c.settle(seq) {
		c.mu.Unlock()
		return models.PublishedArticle{}, ErrSuperseded
	}
	if callErr != nil {
		perr := &PublishError{Kind: classify(callErr), Err: callErr}
		c.lastErr = perr.Error()
		c.mu.Unlock()
		c.fail(ctx, action, perr.Kind, callErr)
		return models.PublishedArticle{}, perr
	}
	c.articleID = res.ID
	if publish {
		c.published = &res
		c.step, _ = next(StepReview)
	}
	c.mu.Unlock()
	return res, nil
}

// GoBack moves one step back. Entered data is kept.
func (c *Controller) GoBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	to, err := prev(c.step)
	if err != nil {
		return err
	}
	c.step = to
	c.touched = time.Now()
	return nil
}

// Cancel aborts the in-flight call, if any. Its result will be discarded.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.busy {
		return false
	}
	c.seq++
	c.busy = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.touched = time.Now()
	return true
}

// IdleSince reports when the session was last used. Busy sessions are never
// idle.
func (c *Controller) IdleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched, !c.busy
}

// View is a point-in-time copy of the session.
type View struct {
	ID               string                   `json:"id"`
	Step             Step                     `json:"step"`
	Progress         int                      `json:"progress"`
	Busy             bool                     `json:"busy"`
	CanGoBack        bool                     `json:"can_go_back"`
	Outline          models.OutlineRequest    `json:"outline"`
	Article          models.ArticleRequest    `json:"article"`
	GeneratedOutline string                   `json:"generated_outline"`
	GeneratedDraft   string                   `json:"generated_draft"`
	Final            models.FinalArticle      `json:"final"`
	Published        *models.PublishedArticle `json:"published,omitempty"`
	LastError        string                   `json:"last_error,omitempty"`
}

// View returns a deep copy of the session state with the final article
// resolved.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, canBack := backward[c.step]
	v := View{
		ID:               c.id,
		Step:             c.step,
		Progress:         progress(c.step),
		Busy:             c.busy,
		CanGoBack:        canBack && !c.busy,
		Outline:          c.outline,
		Article:          c.article,
		GeneratedOutline: c.outlineTxt,
		GeneratedDraft:   c.draft,
		Final:            Resolve(c.edits.clone(), c.article, c.outline, c.draft),
		LastError:        c.lastErr,
	}
	v.Article.Keywords = slices.Clone(c.article.Keywords)
	if c.published != nil {
		p := *c.published
		v.Published = &p
	}
	return v
}

func (c *Controller) fail(ctx context.Context, action string, kind ErrorKind, err error) {
	slog.Warn("wizard call failed",
		slog.String("session", c.id),
		slog.String("action", action),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
	c.notify(ctx, models.LevelError, action+" failed", userMessage(kind, action))
}

func (c *Controller) notify(ctx context.Context, level, title, msg string) {
	if c.sink == nil {
		return
	}
	c.sink.Notify(context.WithoutCancel(ctx), models.Notification{
		OwnerID:   c.owner,
		SessionID: c.id,
		Level:     level,
		Title:     title,
		Message:   msg,
	})
}
