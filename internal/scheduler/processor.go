package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/jeheap-analysis/internal/advisor"
	"github.com/jeheap-analysis/internal/analyzer"
	"github.com/jeheap-analysis/internal/formatter"
	"github.com/jeheap-analysis/internal/repository"
	"github.com/jeheap-analysis/internal/storage"
	"github.com/jeheap-analysis/pkg/config"
	apperrors "github.com/jeheap-analysis/pkg/errors"
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/parallel"
	"github.com/jeheap-analysis/pkg/utils"
	"github.com/jeheap-analysis/pkg/writer"
)

// DefaultTaskProcessor implements TaskProcessor using the analyzer components.
// It downloads the dump, runs the analysis, uploads the generated artifacts
// and persists the result summary.
type DefaultTaskProcessor struct {
	config          *config.Config
	storage         storage.Storage
	repos           *repository.Repositories
	analyzerFactory *analyzer.Factory
	formatters      *formatter.Registry
	advisor         *advisor.Advisor
	resultWriter    *writer.GzipWriter[*model.AnalysisResult]
	logger          utils.Logger
}

// ProcessorConfig holds processor configuration.
type ProcessorConfig struct {
	Config  *config.Config
	Storage storage.Storage
	Repos   *repository.Repositories
	Logger  utils.Logger
}

// NewDefaultTaskProcessor creates a new DefaultTaskProcessor.
func NewDefaultTaskProcessor(cfg *ProcessorConfig) *DefaultTaskProcessor {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	analyzerConfig := analyzer.DefaultBaseAnalyzerConfig()
	if cfg.Config != nil {
		analyzerConfig.TopN = cfg.Config.Analysis.TopN
		analyzerConfig.MaxThreads = cfg.Config.Analysis.MaxThreads
		analyzerConfig.WriteFolded = cfg.Config.Analysis.WriteFolded
	}
	analyzerConfig.Logger = cfg.Logger

	return &DefaultTaskProcessor{
		config:          cfg.Config,
		storage:         cfg.Storage,
		repos:           cfg.Repos,
		analyzerFactory: analyzer.NewFactory(analyzerConfig),
		formatters:      formatter.NewRegistry(),
		advisor:         advisor.NewAdvisor(),
		resultWriter:    writer.NewGzipWriter[*model.AnalysisResult](),
		logger:          cfg.Logger,
	}
}

// Process runs the full analysis pipeline for a single task.
func (p *DefaultTaskProcessor) Process(ctx context.Context, task *Task) error {
	p.logger.Info("Starting analysis for task %s (Format: %s)", task.UUID, task.Format)

	taskDir := p.config.GetTaskDir(task.UUID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return fmt.Errorf("create task directory: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(taskDir); err != nil {
			p.logger.Warn("Failed to clean up task directory %s: %v", taskDir, err)
		}
	}()

	localFile := filepath.Join(taskDir, filepath.Base(task.DumpFile))
	if err := p.storage.DownloadFile(ctx, task.DumpFile, localFile); err != nil {
		return apperrors.Wrap(apperrors.CodeDownloadError, "download dump file", err)
	}

	a, err := p.analyzerFactory.CreateAnalyzer(task.Format)
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}

	req := &model.AnalysisRequest{
		TaskID:    task.ID,
		TaskUUID:  task.UUID,
		Format:    task.Format,
		InputFile: localFile,
		OutputDir: taskDir,
		COSBucket: task.COSBucket,
		TopN:      p.config.Analysis.TopN,
	}

	resp, err := a.Analyze(ctx, req)
	if err != nil {
		if errors.Is(err, analyzer.ErrParseError) {
			return apperrors.Wrap(apperrors.CodeParseError, "analysis failed", err)
		}
		return apperrors.Wrap(apperrors.CodeAnalysisError, "analysis failed", err)
	}

	if isEmptyResult(resp) {
		p.logger.Info("Task %s dump holds no live allocations", task.UUID)
		return p.repos.Task.UpdateAnalysisStatus(ctx, task.ID, model.AnalysisStatusEmpty)
	}

	if err := p.saveResults(ctx, task, resp, taskDir); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	if err := p.repos.Task.UpdateAnalysisStatus(ctx, task.ID, model.AnalysisStatusCompleted); err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	p.logger.Info("Task %s analysis completed successfully", task.UUID)
	return nil
}

// isEmptyResult reports whether the dump carried no live allocations.
// Everything sampled was already freed, so there is nothing to persist.
func isEmptyResult(resp *model.AnalysisResponse) bool {
	if resp.TotalStacks == 0 {
		return true
	}
	if data, ok := resp.Data.(*model.HeapAnalysisData); ok {
		return data.LiveBytes == 0
	}
	return false
}

// saveResults uploads generated artifacts, writes the result archive and
// persists the summary to the database.
func (p *DefaultTaskProcessor) saveResults(ctx context.Context, task *Task, resp *model.AnalysisResponse, taskDir string) error {
	// Artifact uploads are independent of each other, a failed one is
	// logged and the rest still go out.
	parallel.ForEach(ctx, resp.OutputFiles, parallel.DefaultPoolConfig().WithWorkers(4),
		func(ctx context.Context, f model.OutputFile) error {
			if _, err := os.Stat(f.Path); os.IsNotExist(err) {
				return nil
			}

			key := path.Join(task.UUID, filepath.Base(f.Path))
			if err := p.storage.UploadFile(ctx, key, f.Path); err != nil {
				p.logger.Error("Failed to upload %s artifact %s: %v", f.Kind, f.Path, err)
				return nil
			}
			p.logger.Debug("Uploaded %s artifact to %s", f.Kind, key)
			return nil
		})

	summary := p.formatters.FormatSummary(resp)
	if data, ok := resp.Data.(*model.HeapAnalysisData); ok {
		if suggestions := p.advisor.Advise(data); len(suggestions) > 0 {
			summary["suggestions"] = suggestions
		}
	}

	result := &model.AnalysisResult{
		TaskUUID: task.UUID,
		Summary:  summary,
		Version:  p.config.Analysis.Version,
	}

	resultPath := filepath.Join(taskDir, "result.json.gz")
	if err := p.resultWriter.WriteToFile(result, resultPath); err != nil {
		return fmt.Errorf("write result archive: %w", err)
	}

	resultKey := path.Join(task.UUID, "result.json.gz")
	if err := p.storage.UploadFile(ctx, resultKey, resultPath); err != nil {
		return apperrors.Wrap(apperrors.CodeUploadError, "upload result archive", err)
	}

	if err := p.repos.Task.UpdateResultFile(ctx, task.ID, resultKey); err != nil {
		return fmt.Errorf("record result file: %w", err)
	}

	return p.repos.Result.SaveResult(ctx, result)
}
