package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
)

// RetrieverDeps wires the platform client, the raw archive and the dataset writer.
type RetrieverDeps struct {
	Source  ports.ArticleSource
	Archive ports.ArticleArchive
	Writer  ports.CorpusWriter
	Logger  *slog.Logger
}

// Retriever downloads articles with their source annotations and builds the labelled dataset.
type Retriever struct {
	source  ports.ArticleSource
	archive ports.ArticleArchive
	writer  ports.CorpusWriter
	logger  *slog.Logger
}

// NewRetriever constructs the workflow.
func NewRetriever(deps RetrieverDeps) *Retriever {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Retriever{source: deps.Source, archive: deps.Archive, writer: deps.Writer, logger: logger}
}

// Download stores every article page and the reliability annotations in the archive.
func (r *Retriever) Download(ctx context.Context) error {
	total := 0
	err := r.source.FetchAll(ctx, func(page []domain.RawArticle) error {
		if err := r.archive.SaveArticles(page); err != nil {
			return err
		}
		total += len(page)
		r.logger.Info("articles page saved", "articles", len(page), "total", total)
		return nil
	})
	if err != nil {
		return fmt.Errorf("download articles: %w", err)
	}

	annotations, err := r.source.SourceAnnotations(ctx)
	if err != nil {
		return fmt.Errorf("download annotations: %w", err)
	}
	if err := r.archive.SaveAnnotations(annotations); err != nil {
		return fmt.Errorf("save annotations: %w", err)
	}
	r.logger.Info("annotations saved", "annotations", len(annotations))
	return nil
}

// Label joins archived articles with their source annotations and writes the dataset to path.
func (r *Retriever) Label(ctx context.Context, path string) (*corpus.Corpus, error) {
	articles, err := r.archive.Articles()
	if err != nil {
		return nil, fmt.Errorf("read archived articles: %w", err)
	}
	annotations, err := r.archive.Annotations()
	if err != nil {
		return nil, fmt.Errorf("read archived annotations: %w", err)
	}

	labelled := Annotate(articles, annotations)
	c, err := ArticlesCorpus(labelled)
	if err != nil {
		return nil, err
	}

	unlabelled := 0
	for _, a := range labelled {
		if a.Label == nil {
			unlabelled++
		}
	}
	r.logger.Info("articles labelled", "articles", len(labelled), "without_label", unlabelled)

	if err := r.writer.Write(ctx, path, c); err != nil {
		return nil, fmt.Errorf("write dataset: %w", err)
	}
	return c, nil
}

// Annotate flattens raw articles and labels each one with the annotation of its source. Articles
// whose source has no annotation keep a missing label. Order is preserved.
func Annotate(articles []domain.RawArticle, annotations []domain.Annotation) []domain.Article {
	bySource := make(map[int64]string, len(annotations))
	for _, ann := range annotations {
		bySource[int64(ann.EntityID)] = ann.Value.Value
	}

	out := make([]domain.Article, 0, len(articles))
	for _, raw := range articles {
		a := domain.Article{
			ID:    raw.ID,
			Title: raw.Title,
			Perex: raw.Perex,
			Body:  raw.Body,
			Image: firstImage(raw.Media),
		}
		if raw.Author != nil {
			a.Author = raw.Author.Name
		}
		if raw.Source.Name != "" {
			name := raw.Source.Name
			a.Source = &name
		}
		if label, ok := bySource[raw.Source.ID]; ok {
			a.Label = &label
		}
		out = append(out, a)
	}
	return out
}

func firstImage(media []domain.Media) *string {
	for _, m := range media {
		if m.MediaType.Name != nil && *m.MediaType.Name == "image" {
			url := m.URL
			return &url
		}
	}
	return nil
}

// ArticlesCorpus lays articles out in the dataset columns.
func ArticlesCorpus(articles []domain.Article) (*corpus.Corpus, error) {
	c, err := corpus.New(domain.ArticleColumns...)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		err := c.AppendRow(
			corpus.String(strconv.FormatInt(a.ID, 10)),
			cell(a.Title), cell(a.Perex), cell(a.Body), cell(a.Author),
			cell(a.Image), cell(a.Source), cell(a.Label),
		)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", a.ID, err)
		}
	}
	return c, nil
}

func cell(s *string) corpus.Cell {
	if s == nil {
		return corpus.Null
	}
	return corpus.String(*s)
}
