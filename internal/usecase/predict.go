package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
	"FakeNewsDetector/internal/preprocess"
	"FakeNewsDetector/internal/sequence"
)

// unpredictedLabel fills the label column so the emptiness filter keeps the article.
const unpredictedLabel = "not_predicted_yet"

// decisionThreshold is the probability at and above which an article is called unreliable.
const decisionThreshold = 0.5

// ErrRejected is returned when preprocessing filters out the article to classify.
var ErrRejected = errors.New("article rejected by preprocessing")

// RejectedError names the stage that dropped the article.
type RejectedError struct {
	Stage    string
	Counters map[string]int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%v at stage %s", ErrRejected, e.Stage)
}

// Is matches ErrRejected.
func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// PredictorDeps wires the prediction workflow.
type PredictorDeps struct {
	Preprocessor *Preprocessor
	Classifier   ports.Classifier
	Models       ports.ModelStore
	Extractor    ports.TextExtractor
	Logger       *slog.Logger
}

// Predictor classifies single articles with a stored model.
type Predictor struct {
	preprocessor *Preprocessor
	classifier   ports.Classifier
	models       ports.ModelStore
	extractor    ports.TextExtractor
	logger       *slog.Logger
}

// NewPredictor constructs the workflow.
func NewPredictor(deps PredictorDeps) *Predictor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Predictor{
		preprocessor: deps.Preprocessor,
		classifier:   deps.Classifier,
		models:       deps.Models,
		extractor:    deps.Extractor,
		logger:       logger,
	}
}

// PredictDocument extracts the article text from raw (HTML or plain text) and classifies it.
func (p *Predictor) PredictDocument(ctx context.Context, model string, raw []byte) (domain.Prediction, error) {
	text, err := p.extractor.Extract(raw)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("extract text: %w", err)
	}
	return p.Predict(ctx, model, text)
}

// Predict cleans text with the training pipeline, maps it through the model's word index and asks
// the classifier for the probability that the article is unreliable.
func (p *Predictor) Predict(ctx context.Context, model, text string) (domain.Prediction, error) {
	meta, wordIndex, err := p.models.Load(model)
	if err != nil {
		return domain.Prediction{}, err
	}

	in := corpus.MustNew(preprocess.ColumnBody, preprocess.ColumnLabel)
	if err := in.AppendRow(corpus.String(text), corpus.String(unpredictedLabel)); err != nil {
		return domain.Prediction{}, err
	}

	out, report, err := p.preprocessor.Clean(ctx, in)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("preprocess article: %w", err)
	}
	if out.Len() == 0 {
		return domain.Prediction{}, rejection(report)
	}

	body, err := out.Cell(0, preprocess.ColumnBody)
	if err != nil {
		return domain.Prediction{}, err
	}
	seq := sequence.Lookup(wordIndex, sequence.NewTokenizer(0).Words(body.Text))
	padded := sequence.Pad([][]int{seq}, meta.SequenceLength)

	probs, err := p.classifier.Predict(ctx, meta.Name, padded)
	if err != nil {
		return domain.Prediction{}, err
	}

	pred := domain.Prediction{Unreliable: probs[0], Label: domain.LabelReliable}
	if pred.Unreliable >= decisionThreshold {
		pred.Label = domain.LabelUnreliable
	}
	p.logger.Info("article classified", "model", meta.Name, "unreliable", pred.Unreliable, "label", pred.Label)
	return pred, nil
}

func rejection(report preprocess.Report) error {
	for _, m := range report.Stages {
		if m.Dropped() > 0 {
			return &RejectedError{Stage: m.Stage, Counters: m.Counters}
		}
	}
	return &RejectedError{Stage: "unknown"}
}
