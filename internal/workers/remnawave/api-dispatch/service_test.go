package apidispatch

import (
	"context"
	"testing"

	"remnawave-workers/internal/common/errors"
	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/remnawave"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, batch remnawave.Batch) (*remnawave.Result, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remnawave.Result), args.Error(1)
}

func newTestService(t *testing.T, runner BatchRunner) *Service {
	return NewService(ServiceDependencies{
		Logger:    logger.NewTestLogger(t),
		Processor: runner,
	}, DefaultConfig())
}

func TestService_Execute(t *testing.T) {
	runner := new(MockRunner)
	input := &Input{
		BatchID:       "batch-7",
		CredentialsID: "tenant-a",
		Selection:     remnawave.Selection{Action: "checkUser"},
		Items: []map[string]interface{}{
			{"identifierValue": "u-1"},
			{"identifierValue": "u-2"},
		},
	}

	runner.On("Run", mock.Anything, remnawave.Batch{
		ID:            "batch-7",
		CredentialsID: "tenant-a",
		Selection:     input.Selection,
		Records:       input.Items,
	}).Return(&remnawave.Result{
		BatchID: "batch-7",
		Outputs: []remnawave.OutputRecord{
			{JSON: map[string]interface{}{"uuid": "u-1"}},
			{JSON: map[string]interface{}{"error": "boom", "errorCode": "API_ERROR"}},
		},
		Succeeded: 1,
		Failed:    1,
	}, nil)

	output, err := newTestService(t, runner).Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "batch-7", output.BatchID)
	assert.Len(t, output.Results, 2)
	assert.Equal(t, 1, output.Succeeded)
	assert.Equal(t, 1, output.Failed)
	runner.AssertExpectations(t)
}

func TestService_ExecuteAbortReturnsError(t *testing.T) {
	runner := new(MockRunner)
	aborted := errors.NewBatchAbortedError(0, errors.NewConfigurationError("nodes.restart"))
	runner.On("Run", mock.Anything, mock.Anything).
		Return(&remnawave.Result{BatchID: "b"}, aborted)

	output, err := newTestService(t, runner).Execute(context.Background(), &Input{
		Items: []map[string]interface{}{{"resource": "nodes", "operation": "restart"}},
	})

	assert.Nil(t, output)
	assert.Same(t, aborted, err)
}
