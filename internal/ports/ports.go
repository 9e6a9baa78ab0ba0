package ports

import (
	"context"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
)

// CorpusLoader reads a tabular dataset into memory.
type CorpusLoader interface {
	Load(ctx context.Context, path string) (*corpus.Corpus, error)
}

// CorpusWriter persists a corpus as a dataset file. Remove discards a file written earlier.
type CorpusWriter interface {
	Write(ctx context.Context, path string, c *corpus.Corpus) error
	Remove(ctx context.Context, path string) error
}

// ArticleSource pulls raw articles and source annotations from the upstream platform.
type ArticleSource interface {
	FetchAll(ctx context.Context, fn func([]domain.RawArticle) error) error
	SourceAnnotations(ctx context.Context) ([]domain.Annotation, error)
}

// ArticleArchive stores raw platform payloads and reads them back for labelling.
type ArticleArchive interface {
	SaveArticles(articles []domain.RawArticle) error
	SaveAnnotations(annotations []domain.Annotation) error
	Articles() ([]domain.RawArticle, error)
	Annotations() ([]domain.Annotation, error)
}

// RunRepository keeps the history of preprocessing runs and their cleaned corpora.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.Run, cleaned *corpus.Corpus) error
	LoadCorpus(ctx context.Context, runID string) (*corpus.Corpus, error)
	Runs(ctx context.Context, limit int) ([]domain.Run, error)
}

// Trainer fits the detection network remotely.
type Trainer interface {
	Train(ctx context.Context, set domain.TrainingSet) (domain.TrainingResult, error)
}

// Classifier scores padded sequences with a trained model and returns the probability of
// the unreliable class per sequence.
type Classifier interface {
	Predict(ctx context.Context, model string, sequences [][]int) ([]float64, error)
}

// TextExtractor turns a downloaded document into plain article text.
type TextExtractor interface {
	Extract(raw []byte) (string, error)
}

// ModelStore keeps the artifacts prediction needs from a training run.
type ModelStore interface {
	Save(meta domain.ModelMeta, wordIndex map[string]int) error
	Load(name string) (domain.ModelMeta, map[string]int, error)
}
