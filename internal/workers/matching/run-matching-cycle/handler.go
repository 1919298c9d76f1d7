// internal/workers/matching/run-matching-cycle/handler.go
package runmatchingcycle

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/common/validation"
	"matching-workers/internal/matching"
	"matching-workers/internal/store"
)

const TaskType = "run-matching-cycle"

// Handler drives one matching cycle end to end: lock the population, load
// its snapshot, run the engine, persist results unless the run is a dry
// run, and publish diagnostics. The engine stays pure; everything stateful
// lives here.
type Handler struct {
	config  *Config
	engine  *matching.Engine
	db      *sql.DB
	lock    *store.RunLock
	cache   *store.DiagnosticsCache
	archive *store.Archive
	obs     *observability.Observability
	logger  logger.Logger
}

// NewHandler wires the worker. archive and obs may be nil; archiving and
// OTel recording are then skipped.
func NewHandler(config *Config, engine *matching.Engine, db *sql.DB, redisClient *redis.Client, archive *store.Archive, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		engine:  engine,
		db:      db,
		lock:    store.NewRunLock(redisClient, config.RunLockTTL),
		cache:   store.NewDiagnosticsCache(redisClient, config.DiagnosticsTTL),
		archive: archive,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		h.failJob(client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute runs one cycle and records run metrics regardless of outcome.
// Exported so tests can drive the worker without a Zeebe broker.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	output, err := h.execute(ctx, input, start)

	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.MatchingRunsTotal.WithLabelValues(status, strconv.FormatBool(input.DryRun)).Inc()
	metrics.MatchingRunDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if h.obs != nil {
		h.obs.RecordRunCompleted(ctx, status, input.DryRun)
		h.obs.RecordRunDuration(ctx, time.Since(start), status)
	}

	return output, err
}

func (h *Handler) execute(ctx context.Context, input *Input, start time.Time) (*Output, error) {
	token, err := h.lock.Acquire(ctx, input.PopulationID)
	if stderrors.Is(err, store.ErrLockHeld) {
		owner, _ := h.lock.Owner(ctx, input.PopulationID)
		return nil, errors.NewRunAlreadyInProgressError(input.PopulationID, owner)
	}
	if err != nil {
		return nil, errors.NewRunLockFailedError(input.PopulationID, err)
	}
	// The TTL backstops a release lost to a dead context or crashed pod.
	defer func() {
		if err := h.lock.Release(context.Background(), input.PopulationID, token); err != nil {
			h.logger.Warn("failed to release run lock", map[string]interface{}{
				"populationId": input.PopulationID,
				"error":        err.Error(),
			})
		}
	}()

	participants, err := store.LoadPopulation(ctx, h.db, input.PopulationID)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError(input.PopulationID, err)
	}

	result, err := h.engine.Run(ctx, participants)
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, errors.NewRunExecutionFailedError(err)
	}

	runID := uuid.NewString()
	diag := result.Diagnostics
	diag.RunID = runID
	diag.PopulationID = input.PopulationID
	diag.CompletedAt = time.Now().UTC().Format(time.RFC3339)

	output := &Output{
		RunID:              runID,
		PopulationID:       input.PopulationID,
		DryRun:             input.DryRun,
		ParticipantCount:   diag.ParticipantCount,
		MatchesCreated:     len(result.Matches),
		UnmatchedCount:     len(result.Unmatched),
		PerfectionistCount: len(diag.Eligibility.Perfectionists),
		MeanPairScore:      diag.Scores.Mean,
	}

	if !input.DryRun {
		counts, err := store.WriteRunResult(ctx, h.db, runID, input.PopulationID, result)
		if err != nil {
			return nil, errors.NewResultWriteFailedError(runID, err)
		}
		output.MatchRowsWritten = counts.MatchRows
		output.UnmatchedRowsWritten = counts.UnmatchedRows
	}

	if err := h.cache.Store(ctx, input.PopulationID, diag); err != nil {
		h.logger.Warn("failed to cache run diagnostics", map[string]interface{}{
			"runId": runID,
			"error": err.Error(),
		})
	}
	if h.archive != nil {
		if err := h.archive.Index(ctx, diag); err != nil {
			archiveErr := errors.NewDiagnosticsArchiveFailedError(runID, err)
			h.logger.Warn("failed to archive run diagnostics", map[string]interface{}{
				"runId": runID,
				"error": archiveErr.Error(),
			})
		}
	}

	metrics.MatchingMatchesPerRun.Observe(float64(len(result.Matches)))
	metrics.MatchingUnmatchedPerRun.Observe(float64(len(result.Unmatched)))
	if h.obs != nil {
		h.obs.RecordPairsScored(ctx, int64(diag.Scores.Count))
	}

	output.DurationMs = time.Since(start).Milliseconds()

	h.logger.Info("matching run completed", map[string]interface{}{
		"runId":          runID,
		"populationId":   input.PopulationID,
		"dryRun":         input.DryRun,
		"triggeredBy":    input.TriggeredBy,
		"participants":   output.ParticipantCount,
		"matches":        output.MatchesCreated,
		"unmatched":      output.UnmatchedCount,
		"perfectionists": output.PerfectionistCount,
		"durationMs":     output.DurationMs,
	})

	return output, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "INPUT_PARSING_FAILED",
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	validationResult := validation.ValidateInput(variables, GetInputSchema())
	if !validationResult.Valid {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "Input validation failed",
			Details:   fmt.Sprintf("Validation errors: %v", validationResult.GetErrorMessages()),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	input := &Input{
		PopulationID: variables["populationId"].(string),
	}
	if dryRun, ok := variables["dryRun"].(bool); ok {
		input.DryRun = dryRun
	}
	if triggeredBy, ok := variables["triggeredBy"].(string); ok {
		input.TriggeredBy = triggeredBy
	}

	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

// failJob reports the failure to the broker. Retryable errors go through
// FailJob so the broker retries them; business errors become BPMN errors
// the process model can catch.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := convertToStandardError(err)
	bpmnErr := errors.ConvertToBPMNError(stdErr)

	h.logger.Error("matching run job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
		"retries":      bpmnErr.Retries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if bpmnErr.Retryable {
		_, sendErr := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(bpmnErr.Retries)).
			ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message)).
			Send(ctx)
		if sendErr != nil {
			h.logger.Error("failed to fail job", map[string]interface{}{
				"jobKey": job.Key,
				"error":  sendErr.Error(),
			})
		}
		return
	}

	_, sendErr := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		Send(ctx)
	if sendErr != nil {
		h.logger.Error("failed to throw BPMN error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func convertToStandardError(err error) *errors.StandardError {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return errors.NewRunExecutionFailedError(err)
}

func extractErrorCode(err error) string {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "UNKNOWN"
}
