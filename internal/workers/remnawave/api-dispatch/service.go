package apidispatch

import (
	"context"

	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/remnawave"
)

type Service struct {
	config *Config
	logger logger.Logger
	runner BatchRunner
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		runner: deps.Processor,
	}
}

// Execute runs the job's records as one batch. Under the abort policy a
// failed record returns the error and no output.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	s.logger.Info("Executing Remnawave dispatch", map[string]interface{}{
		"batchId":       input.BatchID,
		"selection":     input.Selection.String(),
		"records":       len(input.Items),
		"failurePolicy": s.config.FailurePolicy,
	})

	result, err := s.runner.Run(ctx, remnawave.Batch{
		ID:            input.BatchID,
		CredentialsID: input.CredentialsID,
		Selection:     input.Selection,
		Records:       input.Items,
	})
	if err != nil {
		fields := map[string]interface{}{
			"batchId": input.BatchID,
			"error":   err.Error(),
		}
		if result != nil {
			fields["batchId"] = result.BatchID
			fields["succeeded"] = result.Succeeded
		}
		s.logger.Warn("Remnawave dispatch batch failed", fields)
		return nil, err
	}

	s.logger.Info("Remnawave dispatch batch finished", map[string]interface{}{
		"batchId":   result.BatchID,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})

	return &Output{
		BatchID:   result.BatchID,
		Results:   result.Outputs,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}, nil
}
