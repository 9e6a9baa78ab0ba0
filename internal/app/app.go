package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"FakeNewsDetector/internal/config"
	"FakeNewsDetector/internal/dataset"
	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/infrastructure/ml"
	"FakeNewsDetector/internal/infrastructure/monant"
	"FakeNewsDetector/internal/infrastructure/nlp"
	"FakeNewsDetector/internal/infrastructure/parser"
	"FakeNewsDetector/internal/infrastructure/storage"
	"FakeNewsDetector/internal/logging"
	"FakeNewsDetector/internal/ports"
	"FakeNewsDetector/internal/preprocess"
	"FakeNewsDetector/internal/usecase"
)

// Application wires configs to use cases.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	runs      *storage.SQLRepository
	extractor *parser.HTMLExtractor

	preprocessor *usecase.Preprocessor
	trainer      *usecase.Trainer
	predictor    *usecase.Predictor
	files        *dataset.FileLoader
	archiveDir   string
}

// New builds the application. The run database is opened and migrated when a DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	segmenter, err := nlp.NewSentenceSegmenter()
	if err != nil {
		return nil, fmt.Errorf("sentence segmenter: %w", err)
	}
	engine, err := preprocess.NewDefaultEngine(cfg.Preprocess, nlp.NewLanguageDetector(cfg.Language.MinConfidence), segmenter)
	if err != nil {
		return nil, err
	}

	files := dataset.NewFileLoader(dataset.DefaultRegistry(), cfg.Data.Format, logging.Component(baseLogger, "dataset"))

	a := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		files:      files,
		extractor:  parser.NewHTMLExtractor(nil),
		archiveDir: cfg.Data.Folder,
	}

	var runs ports.RunRepository
	if cfg.Database.DSN != "" {
		if err := a.openRuns(ctx); err != nil {
			return nil, err
		}
		runs = a.runs
	}

	a.preprocessor = usecase.NewPreprocessor(usecase.PreprocessorDeps{
		Engine: engine,
		Loader: files,
		Writer: files,
		Runs:   runs,
		Logger: logging.Component(baseLogger, "preprocess"),

		// corpora are cleaned one after another
		Parallel: 1,
	})

	mlClient := ml.NewClient(cfg.ML.Endpoint, cfg.ML.APIKey, cfg.ML.Timeout)
	models := storage.NewModelStore(cfg.Models.Dir)

	a.trainer = usecase.NewTrainer(usecase.TrainerDeps{
		Loader:       files,
		Preprocessor: a.preprocessor,
		Trainer:      mlClient,
		Models:       models,
		Logger:       logging.Component(baseLogger, "train"),
	})
	a.predictor = usecase.NewPredictor(usecase.PredictorDeps{
		Preprocessor: a.preprocessor,
		Classifier:   mlClient,
		Models:       models,
		Extractor:    a.extractor,
		Logger:       logging.Component(baseLogger, "predict"),
	})
	return a, nil
}

func (a *Application) openRuns(ctx context.Context) error {
	driver := a.cfg.Database.Driver
	if driver == "" {
		driver = storage.DriverSQLite
	}
	if driver == storage.DriverSQLite {
		if dir := filepath.Dir(a.cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create database folder: %w", err)
			}
		}
	}

	db, err := storage.Open(driver, a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	repo := storage.NewSQLRepository(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return fmt.Errorf("migrate run database: %w", err)
	}
	a.db = db
	a.runs = repo
	return nil
}

// Close releases the run database.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Retrieve downloads the article archive when download is set and writes the labelled dataset
// when label is set.
func (a *Application) Retrieve(ctx context.Context, download, label bool) error {
	archive, err := storage.NewArchive(a.archiveDir)
	if err != nil {
		return err
	}

	client := monant.NewClient(monant.Config{
		APIHost:  a.cfg.Monant.APIHost,
		Username: a.cfg.Monant.Username,
		Password: a.cfg.Monant.Password,
		PageSize: a.cfg.Monant.PageSize,
		Pause:    a.cfg.Monant.Pause,
	}, nil, logging.Component(a.logger, "monant"))

	retriever := usecase.NewRetriever(usecase.RetrieverDeps{
		Source:  client,
		Archive: archive,
		Writer:  a.files,
		Logger:  logging.Component(a.logger, "retrieve"),
	})

	if download {
		if err := retriever.Download(ctx); err != nil {
			return err
		}
	}
	if label {
		path := a.cfg.Data.Dataset
		if path == "" {
			path = archive.DatasetPath()
		}
		if _, err := retriever.Label(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// Preprocess cleans every job's dataset.
func (a *Application) Preprocess(ctx context.Context, jobs []usecase.Job) ([]usecase.Outcome, error) {
	return a.preprocessor.PreprocessAll(ctx, jobs)
}

// Train fits and stores a model.
func (a *Application) Train(ctx context.Context, opts usecase.TrainOptions) (domain.ModelMeta, error) {
	return a.trainer.Train(ctx, opts)
}

// PredictText classifies article text or HTML.
func (a *Application) PredictText(ctx context.Context, model string, raw []byte) (domain.Prediction, error) {
	return a.predictor.PredictDocument(ctx, model, raw)
}

// PredictURL downloads an article page and classifies its text.
func (a *Application) PredictURL(ctx context.Context, model, pageURL string) (domain.Prediction, error) {
	text, err := a.extractor.Fetch(ctx, pageURL)
	if err != nil {
		return domain.Prediction{}, err
	}
	return a.predictor.Predict(ctx, model, text)
}

// Runs lists recorded preprocessing runs, newest first.
func (a *Application) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	if a.runs == nil {
		return nil, errors.New("run database is not configured")
	}
	return a.runs.Runs(ctx, limit)
}

// Config returns the configuration the application was built with.
func (a *Application) Config() config.Config { return a.cfg }
