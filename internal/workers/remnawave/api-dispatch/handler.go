package apidispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remnawave-workers/internal/common/camunda"
	"remnawave-workers/internal/common/config"
	"remnawave-workers/internal/common/errors"
	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/common/metrics"
	"remnawave-workers/internal/common/observability"
	"remnawave-workers/internal/remnawave"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType  = "remnawave.api.dispatch"
	configKey = "remnawave-api-dispatch"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	service      *Service
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	jobWorker    worker.JobWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger

	Credentials   remnawave.CredentialsProvider
	Transport     remnawave.Transport
	Audit         remnawave.AuditRecorder
	Observability *observability.Observability

	// Runner replaces the processor built from the options above.
	Runner BatchRunner
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", configKey, err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": TaskType})

	runner := opts.Runner
	if runner == nil {
		processor, err := remnawave.NewProcessor(remnawave.ProcessorOptions{
			Credentials: opts.Credentials,
			Transport:   opts.Transport,
			Policy:      remnawave.FailurePolicy(workerConfig.FailurePolicy),
			Audit:       opts.Audit,
			Logger:      loggerInstance,
			Tracer:      opts.Observability.Tracer(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build dispatcher for %s: %w", configKey, err)
		}
		runner = processor
	}

	handler := &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		errorHandler: errors.NewErrorHandler(loggerInstance),
		obs:          opts.Observability,
	}

	handler.service = NewService(ServiceDependencies{
		Logger:    loggerInstance,
		Processor: runner,
	}, handler.config)

	return handler, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing Remnawave dispatch job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	h.obs.RecordBatch(ctx, output.Succeeded, output.Failed)
	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	result := GetInputSchema().Validate(variables)
	if !result.Valid {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeValidation,
			Message:   "Input validation failed",
			Details:   strings.Join(result.GetErrorMessages(), "; "),
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	input := &Input{
		BatchID:       stringVar(variables, "batchId"),
		CredentialsID: stringVar(variables, "credentialsId"),
		Selection: remnawave.Selection{
			Resource:  stringVar(variables, "resource"),
			Operation: stringVar(variables, "operation"),
			Action:    stringVar(variables, "action"),
		},
	}

	items, ok := variables["items"].([]interface{})
	if !ok {
		input.Items = []map[string]interface{}{variables}
		return input, nil
	}

	input.Items = make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		// the schema already guarantees every item is an object
		record, _ := item.(map[string]interface{})
		input.Items = append(input.Items, record)
	}
	return input, nil
}

func stringVar(variables map[string]interface{}, key string) string {
	s, _ := variables[key].(string)
	return strings.TrimSpace(s)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{
		"batchId":   output.BatchID,
		"results":   output.Results,
		"succeeded": output.Succeeded,
		"failed":    output.Failed,
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Successfully completed Remnawave dispatch", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"batchId":   output.BatchID,
		"succeeded": output.Succeeded,
		"failed":    output.Failed,
	})
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("camunda client is required to register %s", TaskType)
	}

	h.jobWorker = h.camunda.GetClient().NewJobWorker().
		JobType(TaskType).
		Handler(h.Handle).
		MaxJobsActive(h.config.MaxJobsActive).
		Timeout(h.config.Timeout).
		Name(fmt.Sprintf("%s-worker", TaskType)).
		Open()

	h.logger.Info("Remnawave dispatch worker registered with Camunda", map[string]interface{}{
		"taskType":      TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
		"failurePolicy": h.config.FailurePolicy,
	})

	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", nil)
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return fmt.Errorf("camunda client not configured")
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[configKey]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}
		cfg.FailurePolicy = appConfig.Dispatch.NormalizedFailurePolicy()
	}

	return cfg
}

// Execute runs a parsed input without going through Zeebe.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
