package guided

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/jonathan/story-master/internal/types"
	"go.uber.org/zap"
)

// StoryCreator is the part of the story store the workflow submits to.
type StoryCreator interface {
	CreateStory(ctx context.Context, req *types.StoryCreateRequest) (*types.Story, error)
}

// ProgressGetter fetches the authoritative progress after a submission.
type ProgressGetter interface {
	GetProgress(ctx context.Context) (*types.Progress, error)
}

// PromptPolicy picks which starter prompt a stage shows.
type PromptPolicy int

const (
	// PromptFirst always shows the first starter and cannot re-roll.
	PromptFirst PromptPolicy = iota
	// PromptRandom picks a starter at random and allows re-rolling.
	PromptRandom
)

// ParsePromptPolicy accepts "first" or "random"; empty means first.
func ParsePromptPolicy(s string) (PromptPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return PromptFirst, nil
	case "random":
		return PromptRandom, nil
	}
	return PromptFirst, fmt.Errorf("unknown prompt policy %q", s)
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithNotifier sets the receiver for learner-facing notices.
func WithNotifier(n Notifier) Option {
	return func(w *Workflow) {
		if n != nil {
			w.notifier = n
		}
	}
}

// WithProgressRefresher re-reads progress after each successful submission
// and passes the result to onRefreshed, which may be nil.
func WithProgressRefresher(g ProgressGetter, onRefreshed func(types.Progress)) Option {
	return func(w *Workflow) {
		w.refresher = g
		w.onRefreshed = onRefreshed
	}
}

// WithOnStoryCreated hands each stored story to the caller.
func WithOnStoryCreated(fn func(types.Story)) Option {
	return func(w *Workflow) { w.onCreated = fn }
}

// WithPromptPolicy sets how stage prompts are chosen.
func WithPromptPolicy(p PromptPolicy) Option {
	return func(w *Workflow) { w.policy = p }
}

// WithRand sets the random source used by PromptRandom.
func WithRand(r *rand.Rand) Option {
	return func(w *Workflow) {
		if r != nil {
			w.rng = r
		}
	}
}

// WithClock sets the clock used for date_completed.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.logger = logging.OrNop(l) }
}

// WithReactiveGate makes ObserveProgress re-evaluate the lesson gate.
// By default the gate is checked once, when the workflow is created.
func WithReactiveGate(on bool) Option {
	return func(w *Workflow) { w.reactiveGate = on }
}

// Workflow is one guided writing session. Methods are safe for concurrent
// use; Submit blocks on the store without holding the lock.
type Workflow struct {
	catalog *catalog.Catalog
	stories StoryCreator

	notifier     Notifier
	refresher    ProgressGetter
	onRefreshed  func(types.Progress)
	onCreated    func(types.Story)
	policy       PromptPolicy
	rng          *rand.Rand
	now          func() time.Time
	logger       *zap.Logger
	reactiveGate bool

	mu       sync.Mutex
	phase    Phase
	draft    Draft
	progress types.Progress
	saving   bool
	closed   bool

	life   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New mounts a workflow. The lesson gate is evaluated against progress here;
// a nil progress counts as an incomplete lesson.
func New(progress *types.Progress, cat *catalog.Catalog, stories StoryCreator, opts ...Option) *Workflow {
	w := &Workflow{
		catalog:  cat,
		stories:  stories,
		notifier: nopNotifier{},
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.life, w.cancel = context.WithCancel(context.Background())

	if progress != nil {
		w.progress = *progress
	}
	if w.progress.LessonCompleted {
		w.phase = PhaseSelectCategory
	} else {
		w.phase = PhaseGated
		w.notifier.Notify(gateNotice())
	}
	return w
}

// Phase returns the current top-level state.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Snapshot returns a copy of the draft.
func (w *Workflow) Snapshot() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Draft {
	d := w.draft
	if d.Category != nil {
		d.Category = d.Category.Clone()
	}
	return d
}

// Saving reports whether a submission is in flight.
func (w *Workflow) Saving() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saving
}

// Progress returns the last progress the workflow observed.
func (w *Workflow) Progress() types.Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// checkLocked gates actions that need an open, idle workflow.
func (w *Workflow) checkLocked() error {
	switch {
	case w.closed:
		return ErrClosed
	case w.phase == PhaseGated:
		return ErrGateClosed
	case w.saving:
		return ErrSaving
	}
	return nil
}

// writingLocked additionally requires a chosen theme.
func (w *Workflow) writingLocked() error {
	if err := w.checkLocked(); err != nil {
		return err
	}
	if w.phase != PhaseWriting {
		return ErrNoCategory
	}
	return nil
}

// SelectCategory starts a fresh draft for the named theme (case-insensitive).
func (w *Workflow) SelectCategory(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkLocked(); err != nil {
		return err
	}
	if w.phase == PhaseWriting {
		return ErrCategoryChosen
	}
	cat, ok := w.catalog.CategoryByName(name)
	if !ok {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown story theme %q", name)}
	}

	c := cat.Clone()
	w.draft = Draft{Category: c, Stage: StageIntroduction}
	for _, s := range Stages {
		w.draft.promptIdx[s] = w.pickPromptLocked(s, -1)
	}
	w.phase = PhaseWriting
	w.logger.Debug("story theme selected", zap.String("category", c.Name))
	return nil
}

// pickPromptLocked chooses a prompt index for s, avoiding avoid when possible.
func (w *Workflow) pickPromptLocked(s Stage, avoid int) int {
	n := len(w.draft.Category.PromptsFor(s.Key()))
	if w.policy != PromptRandom || n <= 1 {
		return 0
	}
	idx := w.rng.IntN(n)
	if idx == avoid {
		idx = (idx + 1 + w.rng.IntN(n-1)) % n
	}
	return idx
}

// SetTitle replaces the title. Only allowed on the introduction stage.
func (w *Workflow) SetTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writingLocked(); err != nil {
		return err
	}
	if w.draft.Stage != StageIntroduction {
		return ErrTitleLocked
	}
	w.draft.Title = title
	return nil
}

// SetText replaces the active stage's text.
func (w *Workflow) SetText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writingLocked(); err != nil {
		return err
	}
	w.draft.Parts[w.draft.Stage] = text
	return nil
}

// SetStudentName records the optional author name sent with the story.
func (w *Workflow) SetStudentName(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writingLocked(); err != nil {
		return err
	}
	w.draft.StudentName = name
	return nil
}

// Advance completes the active stage and moves to the next one. It fails
// with a *ValidationError when the stage text is blank. On the last stage
// a complete text is accepted without moving; use Submit to finish.
func (w *Workflow) Advance() error {
	w.mu.Lock()
	if err := w.writingLocked(); err != nil {
		w.mu.Unlock()
		return err
	}

	cur := w.draft.Stage
	if !w.draft.Completed(cur) {
		w.mu.Unlock()
		w.notifier.Notify(emptyStageNotice(cur))
		return &ValidationError{Field: cur.Key(), Stage: cur, Message: "Write something first!"}
	}
	if cur.Last() {
		w.mu.Unlock()
		return nil
	}

	w.draft.Stage = cur + 1
	w.draft.HintCursor = 0
	w.mu.Unlock()

	w.notifier.Notify(stageDoneNotice(cur))
	return nil
}

// Back returns to the previous stage without touching any text. It is a
// no-op on the first stage.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writingLocked(); err != nil {
		return err
	}
	if w.draft.Stage > StageIntroduction {
		w.draft.Stage--
		w.draft.HintCursor = 0
	}
	return nil
}

// ChangeTheme discards the whole draft and returns to theme selection.
func (w *Workflow) ChangeTheme() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkLocked(); err != nil {
		return err
	}
	w.draft = Draft{}
	w.phase = PhaseSelectCategory
	return nil
}

// Hints returns the hint list for the active stage.
func (w *Workflow) Hints() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseWriting {
		return nil
	}
	return w.catalog.Hints(w.draft.Stage.Key())
}

// ToggleHints flips hint visibility for the active stage and returns the new state.
func (w *Workflow) ToggleHints() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writingLocked(); err != nil {
		return false, err
	}
	s := w.draft.Stage
	w.draft.HintsVisible[s] = !w.draft.HintsVisible[s]
	return w.draft.HintsVisible[s], nil
}

// NextHint advances the hint cursor with wrap-around and returns the new
// hint. It does nothing while hints are hidden.
func (w *Workflow) NextHint() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writingLocked() != nil || !w.draft.HintsVisible[w.draft.Stage] {
		return "", false
	}
	hints := w.catalog.Hints(w.draft.Stage.Key())
	if len(hints) == 0 {
		return "", false
	}
	w.draft.HintCursor = (w.draft.HintCursor + 1) % len(hints)
	return hints[w.draft.HintCursor], true
}

// Hint returns the current hint when hints are visible for the active stage.
func (w *Workflow) Hint() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != PhaseWriting || !w.draft.HintsVisible[w.draft.Stage] {
		return "", false
	}
	hints := w.catalog.Hints(w.draft.Stage.Key())
	if len(hints) == 0 {
		return "", false
	}
	return hints[w.draft.HintCursor%len(hints)], true
}

// Prompt returns the starter prompt for the active stage.
func (w *Workflow) Prompt() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != PhaseWriting {
		return ""
	}
	s := w.draft.Stage
	prompts := w.draft.Category.PromptsFor(s.Key())
	if len(prompts) == 0 {
		return ""
	}
	return prompts[w.draft.promptIdx[s]%len(prompts)]
}

// RerollPrompt picks a different prompt for the active stage. Only
// available under PromptRandom.
func (w *Workflow) RerollPrompt() (string, error) {
	w.mu.Lock()
	if err := w.writingLocked(); err != nil {
		w.mu.Unlock()
		return "", err
	}
	if w.policy != PromptRandom {
		w.mu.Unlock()
		return "", ErrRerollDisabled
	}
	s := w.draft.Stage
	w.draft.promptIdx[s] = w.pickPromptLocked(s, w.draft.promptIdx[s])
	w.mu.Unlock()
	return w.Prompt(), nil
}

// WordCount counts the words of the whole draft.
func (w *Workflow) WordCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.WordCount()
}

// Preview returns the story so far.
func (w *Workflow) Preview() []PreviewPart {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Preview()
}

// ObserveProgress records fresh progress. With a reactive gate, completing
// the lesson opens a gated workflow and losing it closes an idle one.
func (w *Workflow) ObserveProgress(p types.Progress) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.progress = p
	if !w.reactiveGate {
		return
	}
	switch {
	case p.LessonCompleted && w.phase == PhaseGated:
		w.phase = PhaseSelectCategory
	case !p.LessonCompleted && w.phase != PhaseGated && !w.saving:
		w.phase = PhaseGated
		w.draft = Draft{}
	}
}

// Close unmounts the workflow. Results of an in-flight submission are
// dropped, and Close waits for any progress refresh to finish.
func (w *Workflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}
