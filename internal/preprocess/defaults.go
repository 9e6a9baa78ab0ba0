package preprocess

import "fmt"

// Stage names, in the order the default pipeline runs them.
const (
	StageColumns        = "columns_filter"
	StageEmpty          = "empty_filter"
	StageSize           = "size_filter"
	StageSentenceLength = "sentence_length_filter"
	StageLanguage       = "language_filter"
	StageNormalize      = "text_normalizer"
	StageDuplicates     = "duplicate_filter"
)

// Column names of the training corpus.
const (
	ColumnBody  = "body"
	ColumnLabel = "label"
)

// Config holds the parameters of every default stage.
type Config struct {
	Columns        ColumnsConfig        `yaml:"columns"`
	Emptiness      EmptinessConfig      `yaml:"emptiness"`
	Size           SizeConfig           `yaml:"size"`
	SentenceLength SentenceLengthConfig `yaml:"sentenceLength"`
	Language       LanguageConfig       `yaml:"language"`
	Normalize      NormalizeConfig      `yaml:"normalize"`
	Duplicates     DuplicatesConfig     `yaml:"duplicates"`
}

// DefaultConfig returns the parameters used to build the training corpus.
func DefaultConfig() Config {
	return Config{
		Columns:        ColumnsConfig{KeepOnly: []string{ColumnBody, ColumnLabel}},
		Emptiness:      EmptinessConfig{Columns: []string{ColumnBody, ColumnLabel}},
		Size:           SizeConfig{Column: ColumnBody, Lower: 200, Upper: 10000},
		SentenceLength: SentenceLengthConfig{Column: ColumnBody, Lower: 5, Upper: 60},
		Language:       LanguageConfig{Column: ColumnBody, Code: "en"},
		Normalize:      NormalizeConfig{Column: ColumnBody},
		Duplicates:     DuplicatesConfig{Column: ColumnBody},
	}
}

// DefaultStages builds the stages in pipeline order: projection, emptiness, size, sentence
// length, language, normalization, duplicates.
func DefaultStages(cfg Config, detector LanguageDetector, segmenter SentenceSegmenter) ([]Stage, error) {
	columns, err := NewColumnProjector(cfg.Columns)
	if err != nil {
		return nil, err
	}
	empty, err := NewEmptinessFilter(cfg.Emptiness)
	if err != nil {
		return nil, err
	}
	size, err := NewSizeFilter(cfg.Size)
	if err != nil {
		return nil, err
	}
	sentences, err := NewSentenceLengthFilter(cfg.SentenceLength, segmenter)
	if err != nil {
		return nil, err
	}
	lang, err := NewLanguageFilter(cfg.Language, detector)
	if err != nil {
		return nil, err
	}
	normalize, err := NewTextNormalizer(cfg.Normalize)
	if err != nil {
		return nil, err
	}
	dups, err := NewDuplicateFilter(cfg.Duplicates)
	if err != nil {
		return nil, err
	}

	return []Stage{columns, empty, size, sentences, lang, normalize, dups}, nil
}

// NewDefaultEngine builds an engine running DefaultStages.
func NewDefaultEngine(cfg Config, detector LanguageDetector, segmenter SentenceSegmenter) (*Engine, error) {
	stages, err := DefaultStages(cfg, detector, segmenter)
	if err != nil {
		return nil, fmt.Errorf("build stages: %w", err)
	}
	return NewEngine(stages...)
}
