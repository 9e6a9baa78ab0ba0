package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/embeddings"
	"FakeNewsDetector/internal/ports"
	"FakeNewsDetector/internal/preprocess"
	"FakeNewsDetector/internal/sequence"
)

// TrainOptions are the knobs of one training run.
type TrainOptions struct {
	Dataset        string
	Name           string
	MaxWords       int
	MaxSeqLen      int
	TestSize       float64
	Samples        int
	Seed           uint64
	EmbeddingsPath string
	BatchSize      int
	Epochs         int
	LearningRate   float64
	HiddenLayers   int
	LogsFolder     string
}

// TrainerDeps wires the training workflow.
type TrainerDeps struct {
	Loader       ports.CorpusLoader
	Preprocessor *Preprocessor
	Trainer      ports.Trainer
	Models       ports.ModelStore
	Logger       *slog.Logger
}

// Trainer prepares sequences from a labelled dataset and fits the remote model.
type Trainer struct {
	loader       ports.CorpusLoader
	preprocessor *Preprocessor
	trainer      ports.Trainer
	models       ports.ModelStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewTrainer constructs the workflow.
func NewTrainer(deps TrainerDeps) *Trainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Trainer{
		loader:       deps.Loader,
		preprocessor: deps.Preprocessor,
		trainer:      deps.Trainer,
		models:       deps.Models,
		logger:       logger,
		now:          time.Now,
	}
}

// Train runs load, clean, sample, encode, tokenize, pad, split, embed, fit and save in that order.
func (t *Trainer) Train(ctx context.Context, opts TrainOptions) (domain.ModelMeta, error) {
	if opts.Name == "" {
		opts.Name = t.now().Format("20060102-150405")
	}
	log := t.logger.With("model", opts.Name)

	raw, err := t.loader.Load(ctx, opts.Dataset)
	if err != nil {
		return domain.ModelMeta{}, fmt.Errorf("load dataset: %w", err)
	}
	data, _, err := t.preprocessor.Clean(ctx, raw)
	if err != nil {
		return domain.ModelMeta{}, fmt.Errorf("preprocess dataset: %w", err)
	}

	if opts.Samples > 0 && opts.Samples < data.Len() {
		keep := map[int]struct{}{}
		for _, i := range sequence.Sample(data.Len(), opts.Samples, opts.Seed) {
			keep[i] = struct{}{}
		}
		data = data.Filter(func(i int) bool {
			_, ok := keep[i]
			return ok
		})
	}
	if data.Len() < 2 {
		return domain.ModelMeta{}, fmt.Errorf("only %d articles left after preprocessing", data.Len())
	}

	labels, err := data.ColumnValues(preprocess.ColumnLabel)
	if err != nil {
		return domain.ModelMeta{}, fmt.Errorf("labels: %w", err)
	}
	bodies, err := data.ColumnValues(preprocess.ColumnBody)
	if err != nil {
		return domain.ModelMeta{}, fmt.Errorf("bodies: %w", err)
	}
	texts := make([]string, len(bodies))
	for i, b := range bodies {
		texts[i] = b.Text
	}

	tok := sequence.NewTokenizer(opts.MaxWords)
	tok.Fit(texts)
	seqs := sequence.Pad(tok.Transform(texts), opts.MaxSeqLen)
	wordIndex := tok.WordIndex()
	y := sequence.EncodeLabels(labels)

	seqLen := 0
	if len(seqs) > 0 {
		seqLen = len(seqs[0])
	}
	log.Info("sequences prepared", "articles", len(seqs), "vocabulary", len(wordIndex), "sequence_length", seqLen)

	trainIdx, testIdx, err := sequence.Split(len(seqs), opts.TestSize, opts.Seed)
	if err != nil {
		return domain.ModelMeta{}, fmt.Errorf("split: %w", err)
	}
	xTrain, yTrain := sequence.Gather(seqs, y, trainIdx)
	xTest, yTest := sequence.Gather(seqs, y, testIdx)

	matrix, dim, err := t.embeddingMatrix(opts.EmbeddingsPath, wordIndex, log)
	if err != nil {
		return domain.ModelMeta{}, err
	}

	result, err := t.trainer.Train(ctx, domain.TrainingSet{
		Name:         opts.Name,
		XTrain:       xTrain,
		YTrain:       yTrain,
		XTest:        xTest,
		YTest:        yTest,
		Embeddings:   matrix,
		BatchSize:    opts.BatchSize,
		Epochs:       opts.Epochs,
		LearningRate: opts.LearningRate,
		HiddenLayers: opts.HiddenLayers,
		LogsFolder:   opts.LogsFolder,
	})
	if err != nil {
		return domain.ModelMeta{}, err
	}

	meta := domain.ModelMeta{
		Name:           opts.Name,
		SequenceLength: seqLen,
		VocabularySize: len(wordIndex),
		EmbeddingDim:   dim,
		TrainSamples:   len(xTrain),
		TestSamples:    len(xTest),
		Accuracy:       result.Accuracy,
		TrainedAt:      t.now(),
	}
	if err := t.models.Save(meta, wordIndex); err != nil {
		return domain.ModelMeta{}, err
	}
	log.Info("model trained", "accuracy", result.Accuracy, "loss", result.Loss, "train", len(xTrain), "test", len(xTest))
	return meta, nil
}

func (t *Trainer) embeddingMatrix(path string, wordIndex map[string]int, log *slog.Logger) ([][]float32, int, error) {
	if path == "" {
		log.Warn("no pre-trained embeddings configured, the model learns them from scratch")
		return nil, 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()

	vectors, dim, err := embeddings.ReadVec(f, wordIndex)
	if err != nil {
		return nil, 0, fmt.Errorf("read embeddings: %w", err)
	}
	if len(vectors) == 0 {
		return nil, 0, errors.New("no vocabulary word has a pre-trained vector")
	}
	matrix, notFound := embeddings.Matrix(wordIndex, vectors, dim)
	log.Info("embeddings matrix built", "rows", len(matrix), "dim", dim, "not_found", notFound)
	return matrix, dim, nil
}
