package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"FakeNewsDetector/internal/app"
	"FakeNewsDetector/internal/config"
	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/logging"
	"FakeNewsDetector/internal/usecase"
)

const usage = `usage: fakenews <command> [flags]

commands:
  retrieve    download articles and annotations, build the labelled dataset
  preprocess  clean one or more datasets
  train       train a model on a dataset
  predict     classify an article
  runs        list recorded preprocessing runs
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, command string, args []string) error {
	switch command {
	case "retrieve":
		return retrieve(ctx, cfg, logger, args)
	case "preprocess":
		return preprocessCmd(ctx, cfg, logger, args)
	case "train":
		return train(ctx, cfg, logger, args)
	case "predict":
		return predict(ctx, cfg, logger, args)
	case "runs":
		return runs(ctx, cfg, logger, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func retrieve(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	flags := flag.NewFlagSet("retrieve", flag.ExitOnError)
	download := flags.Bool("download", true, "download articles and annotations into the data folder")
	label := flags.Bool("label", true, "join the archive with annotations and write the dataset")
	folder := flags.String("data", cfg.Data.Folder, "data folder for the raw archive")
	out := flags.String("out", cfg.Data.Dataset, "labelled dataset path")
	_ = flags.Parse(args)

	cfg.Data.Folder = *folder
	cfg.Data.Dataset = *out

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Retrieve(ctx, *download, *label)
}

func preprocessCmd(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	flags := flag.NewFlagSet("preprocess", flag.ExitOnError)
	out := flags.String("out", cfg.Data.Preprocessed, "cleaned dataset path (single input)")
	outDir := flags.String("out-dir", "", "folder for cleaned datasets when several inputs are given")
	_ = flags.Parse(args)

	inputs := flags.Args()
	if len(inputs) == 0 {
		inputs = []string{cfg.Data.Dataset}
	}

	jobs := make([]usecase.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = usecase.Job{Input: in, Output: *out}
		if len(inputs) > 1 {
			if *outDir == "" {
				return errors.New("-out-dir is required with several inputs")
			}
			jobs[i].Output = filepath.Join(*outDir, filepath.Base(in))
		}
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	outcomes, err := application.Preprocess(ctx, jobs)
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		fmt.Printf("%s\t%s\t%d -> %d rows\t%s\n", o.Result.RunID, o.Job.Input, o.Result.Report.RowsIn, o.Result.Report.RowsOut, o.Job.Output)
	}
	return err
}

func train(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	t := cfg.Training
	flags := flag.NewFlagSet("train", flag.ExitOnError)
	data := flags.String("data", cfg.Data.Dataset, "labelled dataset to train on")
	name := flags.String("name", "", "model name (default: timestamp)")
	embeddings := flags.String("embeddings", cfg.Models.Embeddings, "fastText .vec file with pre-trained vectors")
	flags.IntVar(&t.BatchSize, "batch-size", t.BatchSize, "training batch size")
	flags.Float64Var(&t.LearningRate, "learning-rate", t.LearningRate, "optimizer learning rate")
	flags.IntVar(&t.HiddenLayers, "hidden-layers", t.HiddenLayers, "number of hidden layers")
	flags.IntVar(&t.Epochs, "epochs", t.Epochs, "training epochs")
	flags.StringVar(&t.LogsFolder, "logs", t.LogsFolder, "folder for training logs")
	flags.IntVar(&t.Samples, "samples", t.Samples, "train on a random sample of this many articles (0: all)")
	flags.IntVar(&t.MaxWords, "max-words", t.MaxWords, "vocabulary size limit (0: unlimited)")
	flags.IntVar(&t.MaxSeqLen, "max-seq-len", t.MaxSeqLen, "sequence length (0: longest article)")
	flags.Float64Var(&t.TestSize, "test-size", t.TestSize, "share of articles held out for evaluation")
	_ = flags.Parse(args)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	meta, err := application.Train(ctx, usecase.TrainOptions{
		Dataset:        *data,
		Name:           *name,
		MaxWords:       t.MaxWords,
		MaxSeqLen:      t.MaxSeqLen,
		TestSize:       t.TestSize,
		Samples:        t.Samples,
		Seed:           t.Seed,
		EmbeddingsPath: *embeddings,
		BatchSize:      t.BatchSize,
		Epochs:         t.Epochs,
		LearningRate:   t.LearningRate,
		HiddenLayers:   t.HiddenLayers,
		LogsFolder:     t.LogsFolder,
	})
	if err != nil {
		return err
	}
	fmt.Printf("model %s: accuracy %.4f (%d train, %d test)\n", meta.Name, meta.Accuracy, meta.TrainSamples, meta.TestSamples)
	return nil
}

func predict(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	flags := flag.NewFlagSet("predict", flag.ExitOnError)
	model := flags.String("model", "", "name of a trained model")
	file := flags.String("file", "", "article file, plain text or HTML (default: stdin)")
	pageURL := flags.String("url", "", "article page to download")
	_ = flags.Parse(args)

	if *model == "" {
		return errors.New("-model is required")
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	var pred domain.Prediction
	if *pageURL != "" {
		pred, err = application.PredictURL(ctx, *model, *pageURL)
	} else {
		var raw []byte
		if raw, err = readInput(*file); err != nil {
			return err
		}
		pred, err = application.PredictText(ctx, *model, raw)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (p_unreliable=%.4f)\n", pred.Label, pred.Unreliable)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runs(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	flags := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := flags.Int("limit", 20, "number of runs to list")
	_ = flags.Parse(args)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	list, err := application.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	for _, r := range list {
		fmt.Printf("%s\t%s\t%s\t%d -> %d rows\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Dataset, r.RowsIn, r.RowsOut)
		for _, s := range r.Stages {
			fmt.Printf("\t%d %-24s %d -> %d\n", s.Position, s.Name, s.RowsIn, s.RowsOut)
		}
	}
	return nil
}
