package apidispatch

import (
	"context"

	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/remnawave"
)

// Input is the job envelope. Items are the batch records; without items the
// job variables themselves form a single record.
type Input struct {
	BatchID       string                   `json:"batchId,omitempty"`
	CredentialsID string                   `json:"credentialsId,omitempty"`
	Selection     remnawave.Selection      `json:"selection"`
	Items         []map[string]interface{} `json:"items"`
}

type Output struct {
	BatchID   string                   `json:"batchId"`
	Results   []remnawave.OutputRecord `json:"results"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
}

// BatchRunner is implemented by *remnawave.Processor.
type BatchRunner interface {
	Run(ctx context.Context, batch remnawave.Batch) (*remnawave.Result, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Processor BatchRunner
}
