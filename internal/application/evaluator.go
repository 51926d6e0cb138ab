package application

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
	"github.com/devbush/vid2slides/internal/similarity"
)

const (
	// HistogramCorrelationCutoff is the gray level histogram correlation
	// below which two frames are different slides.
	HistogramCorrelationCutoff = 0.95

	// TextDivergenceCutoff is the word set divergence above which two
	// frames are different slides.
	TextDivergenceCutoff = 0.3

	// MinWordsForTextCheck is the word count each frame must exceed for
	// the text comparison to apply.
	MinWordsForTextCheck = 3

	// frames kept per job: the accepted frame and the candidate, plus slack
	evaluatorCacheSize = 8
)

// Signal names the check that decided a comparison
type Signal string

const (
	SignalNone      Signal = ""
	SignalStructure Signal = "ssim"
	SignalHistogram Signal = "histogram"
	SignalText      Signal = "text"
)

// Verdict carries the scores computed for one comparison. Scores for
// checks that did not run are zero.
type Verdict struct {
	Different      bool
	Signal         Signal
	SSIM           float64
	Histogram      float64
	TextDivergence float64
	TextCompared   bool
}

// Evaluator decides whether a candidate frame starts a new slide. Frames
// are identified by their sample Index in its caches, so an Evaluator
// belongs to a single job run.
type Evaluator struct {
	recognizer    ports.TextRecognizer
	analysisWidth int
	planes        *lru.Cache[int, *image.Gray]
	texts         *lru.Cache[int, string]
	logger        *slog.Logger
}

// NewEvaluator creates an evaluator. A nil recognizer disables the text
// check. analysisWidth > 0 downscales frames before scoring.
func NewEvaluator(recognizer ports.TextRecognizer, analysisWidth int, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	// Only fails for a non-positive size
	planes, _ := lru.New[int, *image.Gray](evaluatorCacheSize)
	texts, _ := lru.New[int, string](evaluatorCacheSize)

	return &Evaluator{
		recognizer:    recognizer,
		analysisWidth: analysisWidth,
		planes:        planes,
		texts:         texts,
		logger:        logger,
	}
}

// IsDifferentSlide compares candidate against the previously accepted frame.
// The signals are tried in order and the first one that fires decides:
// SSIM below threshold, histogram correlation below
// HistogramCorrelationCutoff, then text divergence above
// TextDivergenceCutoff. Text is only recognized when the first two agree
// the frames are the same.
func (e *Evaluator) IsDifferentSlide(ctx context.Context, previous, candidate domain.Frame, threshold float64) (bool, Verdict) {
	var v Verdict

	prev := e.plane(previous)
	cand := e.plane(candidate)

	if prev.Bounds().Size() != cand.Bounds().Size() {
		v.Different = true
		v.Signal = SignalStructure
		return true, v
	}

	v.SSIM = similarity.SSIM(prev, cand)
	if v.SSIM < threshold {
		v.Different = true
		v.Signal = SignalStructure
		return true, v
	}

	v.Histogram = similarity.HistogramCorrelation(prev, cand)
	if v.Histogram < HistogramCorrelationCutoff {
		v.Different = true
		v.Signal = SignalHistogram
		return true, v
	}

	if e.recognizer == nil {
		return false, v
	}

	divergence, ok := similarity.TextDivergence(e.Text(ctx, previous), e.Text(ctx, candidate), MinWordsForTextCheck)
	v.TextCompared = ok
	v.TextDivergence = divergence
	if ok && divergence > TextDivergenceCutoff {
		v.Different = true
		v.Signal = SignalText
		return true, v
	}

	return false, v
}

// Text returns the recognized text of a frame. Results are cached by
// sample index. Recognition failures are logged and read as empty text.
func (e *Evaluator) Text(ctx context.Context, frame domain.Frame) string {
	if e.recognizer == nil {
		return ""
	}
	if text, ok := e.texts.Get(frame.Index); ok {
		return text
	}

	text, err := e.recognizer.Recognize(ctx, frame.Image)
	if err != nil {
		e.logger.Warn("text recognition failed",
			"sample", frame.Index,
			"error", fmt.Errorf("%w: %w", domain.ErrRecognitionFailure, err))
		text = ""
	}
	e.texts.Add(frame.Index, text)
	return text
}

// plane returns the analysis luma plane of a frame
func (e *Evaluator) plane(frame domain.Frame) *image.Gray {
	if g, ok := e.planes.Get(frame.Index); ok {
		return g
	}
	g := similarity.Downscale(similarity.Grayscale(frame.Image), e.analysisWidth)
	e.planes.Add(frame.Index, g)
	return g
}
