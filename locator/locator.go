package locator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bookpeek/books"
	"bookpeek/viewer"
)

// Status is the terminal outcome of one locator run.
type Status int

const (
	// StatusFound means a content page was classified and captured.
	StatusFound Status = iota
	// StatusExhausted means the preview ended or the attempt ceiling was
	// reached before a content page was classified. Not an error.
	StatusExhausted
	// StatusNavigationFailed means the session could not be acquired or
	// driven. The caller should fall back to other text sources.
	StatusNavigationFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	case StatusNavigationFailed:
		return "navigation_failed"
	}
	return "unknown"
}

// Screenshot is one captured viewport, JPEG-encoded. Never mutated after
// capture.
type Screenshot struct {
	Ordinal int
	Image   []byte
}

// Result is what one run yields. Page is non-nil exactly when Status is
// StatusFound.
type Result struct {
	Status   Status
	Page     *Screenshot
	Attempts int
	Err      error
}

// Classifier is the narrow predicate the loop consults each iteration.
type Classifier interface {
	IsContentPage(ctx context.Context, image []byte) (bool, error)
}

// Config bounds the loop. Defaults keep cost against the paid model and the
// remote session finite.
type Config struct {
	MaxAttempts       int
	FictionExtraPages int
	WallClockLimit    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:       15,
		FictionExtraPages: 1,
		WallClockLimit:    3 * time.Minute,
	}
}

// Locator drives a viewer session page by page until the classifier accepts
// a page or the run is exhausted. One session per run, released on every
// exit path.
type Locator struct {
	factory    viewer.Factory
	classifier Classifier
	sink       CaptureSink
	cfg        Config
	logger     *zap.Logger
}

func New(factory viewer.Factory, classifier Classifier, sink CaptureSink, cfg Config, logger *zap.Logger) *Locator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.WallClockLimit <= 0 {
		cfg.WallClockLimit = DefaultConfig().WallClockLimit
	}
	if sink == nil {
		sink = NoopSink{}
	}
	return &Locator{
		factory:    factory,
		classifier: classifier,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
	}
}

// Locate runs the bounded page-turn loop for the given identity. It never
// returns an unhandled fault: session and navigation errors are folded into
// StatusNavigationFailed, end-of-preview into StatusExhausted.
func (l *Locator) Locate(ctx context.Context, requestID string, identity books.BookIdentity) Result {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.WallClockLimit)
	defer cancel()

	logger := l.logger.With(
		zap.String("request_id", requestID),
		zap.String("volume_id", identity.ProviderID))

	sess, err := l.factory.NewSession(ctx)
	if err != nil {
		logger.Error("failed to acquire viewer session", zap.Error(err))
		return Result{Status: StatusNavigationFailed, Err: err}
	}
	defer sess.Close()

	if err := sess.Open(ctx, viewer.PreviewURL(identity.ProviderID)); err != nil {
		logger.Error("failed to open preview", zap.Error(err))
		return Result{Status: StatusNavigationFailed, Err: err}
	}

	for attempt := 1; attempt <= l.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("locate cancelled", zap.Int("attempt", attempt))
			return Result{Status: StatusNavigationFailed, Attempts: attempt - 1, Err: err}
		}

		shot, err := sess.Screenshot(ctx)
		if err != nil {
			logger.Error("screenshot failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return Result{Status: StatusNavigationFailed, Attempts: attempt - 1, Err: err}
		}

		isContent, err := l.classifier.IsContentPage(ctx, shot)
		if err != nil {
			// A flaky model call costs one attempt, not the whole run.
			logger.Warn("classification failed, counting as miss",
				zap.Int("attempt", attempt),
				zap.Error(err))
			isContent = false
		}

		if isContent {
			page := l.settle(ctx, sess, identity, Screenshot{Ordinal: attempt, Image: shot}, logger)
			if err := l.sink.Save(ctx, requestID, page.Ordinal, page.Image); err != nil {
				logger.Warn("capture sink failed", zap.Error(err))
			}
			logger.Info("content page located",
				zap.Int("attempt", attempt),
				zap.Int("ordinal", page.Ordinal))
			return Result{Status: StatusFound, Page: &page, Attempts: attempt}
		}

		if err := sess.NextPage(ctx); err != nil {
			if errors.Is(err, viewer.ErrNoNextPage) {
				logger.Info("end of preview reached",
					zap.Int("attempts", attempt))
				return Result{Status: StatusExhausted, Attempts: attempt}
			}
			logger.Error("page advance failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return Result{Status: StatusNavigationFailed, Attempts: attempt, Err: err}
		}
	}

	logger.Info("attempt ceiling reached without a content page",
		zap.Int("max_attempts", l.cfg.MaxAttempts))
	return Result{Status: StatusExhausted, Attempts: l.cfg.MaxAttempts}
}

// settle applies the stopping policy once a content page is classified. For
// non-fiction the classified page is the target. For fiction the loop
// advances FictionExtraPages further so the capture lands on the intended
// narrative page; if the advance or recapture fails, the already-captured
// page is kept rather than returning nothing.
func (l *Locator) settle(ctx context.Context, sess viewer.Session, identity books.BookIdentity, found Screenshot, logger *zap.Logger) Screenshot {
	if !identity.IsFiction || l.cfg.FictionExtraPages <= 0 {
		return found
	}

	page := found
	for i := 0; i < l.cfg.FictionExtraPages; i++ {
		if err := sess.NextPage(ctx); err != nil {
			logger.Warn("fiction page advance unavailable, keeping first content page",
				zap.Error(err))
			return page
		}
		shot, err := sess.Screenshot(ctx)
		if err != nil {
			logger.Warn("fiction page recapture failed, keeping previous capture",
				zap.Error(err))
			return page
		}
		page = Screenshot{Ordinal: page.Ordinal + 1, Image: shot}
	}
	return page
}
