package guided

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/story-master/internal/types"
	"go.uber.org/zap"
)

// refreshTimeout bounds the progress refresh that follows a submission.
const refreshTimeout = 15 * time.Second

// Submit assembles the draft and creates the story.
//
// Submitting is only allowed from the conclusion stage; earlier stages fail
// with ErrNotFinalStage. A draft that is not ready fails with a
// *ValidationError before the store is contacted. While a submission is in
// flight every other submit returns ErrSaving. On store failure the draft is kept exactly as it was and the
// store's error is returned. On success the draft is cleared, the story is
// handed to the OnStoryCreated callback and progress is refreshed in the
// background; refresh failures are only logged.
func (w *Workflow) Submit(ctx context.Context) (*types.Story, error) {
	w.mu.Lock()
	if err := w.writingLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if !w.draft.Stage.Last() {
		w.mu.Unlock()
		return nil, ErrNotFinalStage
	}
	req, err := Assemble(w.draft, w.now())
	if err != nil {
		w.mu.Unlock()
		var v *ValidationError
		if errors.As(err, &v) {
			w.notifier.Notify(validationNotice(v))
		}
		return nil, err
	}
	w.saving = true
	w.mu.Unlock()

	w.logger.Info("submitting story",
		zap.String("title", req.Title),
		zap.String("category", req.Category),
		zap.Int("word_count", req.WordCount),
	)
	story, err := w.stories.CreateStory(ctx, req)

	w.mu.Lock()
	w.saving = false
	if w.closed {
		w.mu.Unlock()
		w.logger.Debug("workflow closed during submission, dropping result", zap.Error(err))
		return nil, ErrClosed
	}
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("story submission failed", zap.Error(err))
		w.notifier.Notify(saveFailedNotice(err))
		return nil, err
	}
	w.draft = Draft{}
	w.phase = PhaseSelectCategory
	refresh := w.refresher != nil
	if refresh {
		// Added under the lock so Close cannot miss it.
		w.wg.Add(1)
	}
	w.mu.Unlock()

	w.logger.Info("story saved", zap.String("id", story.ID))
	w.notifier.Notify(savedNotice(req.Title))
	if w.onCreated != nil {
		w.onCreated(*story)
	}
	if refresh {
		go w.refreshProgress()
	}
	return story, nil
}

// refreshProgress re-reads progress once the submission has succeeded.
// The caller has already added to wg.
func (w *Workflow) refreshProgress() {
	defer w.wg.Done()

	ctx, cancel := context.WithTimeout(w.life, refreshTimeout)
	defer cancel()

	p, err := w.refresher.GetProgress(ctx)
	if err != nil {
		w.logger.Warn("progress refresh failed", zap.Error(err))
		return
	}
	w.ObserveProgress(*p)

	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if !closed && w.onRefreshed != nil {
		w.onRefreshed(*p)
	}
}
