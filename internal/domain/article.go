package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reliability labels attached to a source by annotators.
const (
	LabelReliable   = "reliable"
	LabelUnreliable = "unreliable"
)

// RawArticle is an article as delivered by the Monant platform. Raw keeps the original payload so
// archives store exactly what was received.
type RawArticle struct {
	ID     int64   `json:"id"`
	Title  *string `json:"title"`
	Perex  *string `json:"perex"`
	Body   *string `json:"body"`
	Author *Author `json:"author"`
	Media  []Media `json:"media"`
	Source Source  `json:"source"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the article and remembers the payload it came from.
func (a *RawArticle) UnmarshalJSON(data []byte) error {
	type plain RawArticle
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = RawArticle(p)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Author of an article; the platform sends null when unknown.
type Author struct {
	Name *string `json:"name"`
}

// Media attached to an article.
type Media struct {
	URL       string    `json:"url"`
	MediaType MediaType `json:"media_type"`
}

// MediaType names the kind of a media item, e.g. "image".
type MediaType struct {
	Name *string `json:"name"`
}

// Source is the publisher of an article.
type Source struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EntityID identifies the annotated entity. The platform is not consistent about sending it as a
// number or a string, so both are accepted.
type EntityID int64

// UnmarshalJSON accepts 42 and "42".
func (e *EntityID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("entity id %s: %w", data, err)
	}
	*e = EntityID(id)
	return nil
}

// Annotation is a source reliability judgement.
type Annotation struct {
	EntityID EntityID        `json:"entity_id"`
	Value    AnnotationValue `json:"value"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the annotation and remembers the payload it came from.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	type plain Annotation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Annotation(p)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// AnnotationValue wraps the label, e.g. {"value": "unreliable"}.
type AnnotationValue struct {
	Value string `json:"value"`
}

// Article is the flattened record stored in the dataset. Nil pointers are missing values.
type Article struct {
	ID     int64   `json:"id"`
	Title  *string `json:"title"`
	Perex  *string `json:"perex"`
	Body   *string `json:"body"`
	Author *string `json:"author"`
	Image  *string `json:"image"`
	Source *string `json:"source"`
	Label  *string `json:"label"`
}

// ArticleColumns lists the dataset columns in the order they are written.
var ArticleColumns = []string{"id", "title", "perex", "body", "author", "image", "source", "label"}

// Run records one preprocessing execution.
type Run struct {
	ID         string
	Dataset    string
	StartedAt  time.Time
	FinishedAt time.Time
	RowsIn     int
	RowsOut    int
	Stages     []StageResult
}

// StageResult is the persisted form of one stage's metrics.
type StageResult struct {
	Position int
	Name     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	Counters map[string]int
}

// ModelMeta describes a trained model stored next to its word index.
type ModelMeta struct {
	Name           string    `json:"name"`
	SequenceLength int       `json:"sequence_length"`
	VocabularySize int       `json:"vocabulary_size"`
	EmbeddingDim   int       `json:"embedding_dim"`
	TrainSamples   int       `json:"train_samples"`
	TestSamples    int       `json:"test_samples"`
	Accuracy       float64   `json:"accuracy"`
	TrainedAt      time.Time `json:"trained_at"`
}

// TrainingSet is what the remote trainer receives.
type TrainingSet struct {
	Name         string      `json:"name"`
	XTrain       [][]int     `json:"x_train"`
	YTrain       []int       `json:"y_train"`
	XTest        [][]int     `json:"x_test"`
	YTest        []int       `json:"y_test"`
	Embeddings   [][]float32 `json:"embeddings"`
	BatchSize    int         `json:"batch_size"`
	Epochs       int         `json:"epochs"`
	LearningRate float64     `json:"learning_rate"`
	HiddenLayers int         `json:"hidden_layers"`
	LogsFolder   string      `json:"logs_folder,omitempty"`
}

// TrainingResult is returned by the remote trainer.
type TrainingResult struct {
	Model    string  `json:"model"`
	Accuracy float64 `json:"accuracy"`
	Loss     float64 `json:"loss"`
}

// Prediction is the classifier output for one article.
type Prediction struct {
	Unreliable float64
	Label      string
}
