// internal/workers/matching/validate-population/handler.go
package validatepopulation

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/common/validation"
	"matching-workers/internal/matching"
	"matching-workers/internal/store"
	"matching-workers/pkg/catalog"
)

const TaskType = "validate-population"

// Handler pre-flights a population: it loads the snapshot and runs the
// engine's participant validation without scoring anything. An invalid
// snapshot is a reported finding, not a job failure, so process models can
// branch on `valid` instead of catching errors.
type Handler struct {
	config  *Config
	catalog *catalog.Catalog
	db      *sql.DB
	logger  logger.Logger
}

func NewHandler(config *Config, cat *catalog.Catalog, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: cat,
		db:      db,
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

// Execute loads the snapshot and reports its structural problems. Only
// infrastructure failures return an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	participants, err := store.LoadPopulation(ctx, h.db, input.PopulationID)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError(input.PopulationID, err)
	}

	output := &Output{
		PopulationID:     input.PopulationID,
		ParticipantCount: len(participants),
	}

	for _, issue := range matching.ValidatePopulation(h.catalog, participants) {
		output.Issues = append(output.Issues, Issue{
			ParticipantID: issue.ParticipantID,
			Field:         issue.Field,
			Message:       issue.Message,
		})
	}

	if len(participants) < 2 {
		output.Issues = append(output.Issues, Issue{
			Field:   "population",
			Message: fmt.Sprintf("%d participant(s) is not enough to form a pair", len(participants)),
		})
	}

	output.Valid = len(output.Issues) == 0

	h.logger.Info("population validated", map[string]interface{}{
		"populationId": input.PopulationID,
		"participants": output.ParticipantCount,
		"valid":        output.Valid,
		"issueCount":   len(output.Issues),
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

	return &Input{PopulationID: variables["populationId"].(string)}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := convertToStandardError(err)
	bpmnErr := errors.ConvertToBPMNError(stdErr)

	h.logger.Error("population validation job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
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
