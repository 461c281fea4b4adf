package remnawave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remnawave-workers/internal/common/errors"
	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/common/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FailurePolicy decides what a failed record does to the rest of the batch.
type FailurePolicy string

const (
	// FailurePolicyContinue captures the error into the record's output and
	// moves on to the next record.
	FailurePolicyContinue FailurePolicy = "continue"
	// FailurePolicyAbort stops at the first failed record.
	FailurePolicyAbort FailurePolicy = "abort"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailurePolicyContinue:
		return FailurePolicyContinue, nil
	case FailurePolicyAbort:
		return FailurePolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// Selection names the route either by resource and operation or by a single
// action. Resource and operation win when both forms are present.
type Selection struct {
	Resource  string `json:"resource,omitempty"`
	Operation string `json:"operation,omitempty"`
	Action    string `json:"action,omitempty"`
}

func (s Selection) IsZero() bool {
	return s.Resource == "" && s.Operation == "" && s.Action == ""
}

func (s Selection) String() string {
	if s.Resource != "" || s.Operation != "" {
		return RouteKey{s.Resource, s.Operation}.String()
	}
	if s.Action != "" {
		return "action " + s.Action
	}
	return "(none)"
}

// Key resolves the selection against the route table.
func (s Selection) Key() (RouteKey, error) {
	if s.Resource != "" || s.Operation != "" {
		key := RouteKey{Resource: s.Resource, Operation: s.Operation}
		if _, ok := Lookup(key); !ok {
			return RouteKey{}, errors.NewConfigurationError(key.String())
		}
		return key, nil
	}
	if key, ok := ActionKey(s.Action); ok {
		return key, nil
	}
	return RouteKey{}, errors.NewConfigurationError(s.String())
}

// selectionFor lets a record override the batch selection.
func selectionFor(record map[string]interface{}, fallback Selection) Selection {
	own := Selection{
		Resource:  stringField(record, "resource"),
		Operation: stringField(record, "operation"),
		Action:    stringField(record, "action"),
	}
	if own.IsZero() {
		return fallback
	}
	return own
}

func stringField(record map[string]interface{}, key string) string {
	s, _ := record[key].(string)
	return strings.TrimSpace(s)
}

// OutputRecord is one entry of the output sequence.
type OutputRecord struct {
	JSON interface{} `json:"json"`
}

// ErrorObject is the captured form of a failed record.
func ErrorObject(err error) map[string]interface{} {
	return map[string]interface{}{
		"error":     errors.MessageOf(err),
		"errorCode": string(errors.CodeOf(err)),
	}
}

// Batch is one ordered set of records sharing credentials.
type Batch struct {
	ID            string
	CredentialsID string
	Selection     Selection
	Records       []map[string]interface{}
}

// Result holds one output per processed record, in input order.
type Result struct {
	BatchID   string         `json:"batchId"`
	Outputs   []OutputRecord `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// Processor runs batches record by record.
type Processor struct {
	credentials CredentialsProvider
	dispatcher  *Dispatcher
	policy      FailurePolicy
	audit       AuditRecorder
	logger      logger.Logger
	tracer      trace.Tracer
}

type ProcessorOptions struct {
	Credentials CredentialsProvider
	Transport   Transport
	Policy      FailurePolicy
	// Audit is optional.
	Audit  AuditRecorder
	Logger logger.Logger
	Tracer trace.Tracer
}

func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("credentials provider is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	policy, err := ParseFailurePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("remnawave-workers/remnawave")
	}

	return &Processor{
		credentials: opts.Credentials,
		dispatcher:  NewDispatcher(opts.Transport, log, tracer),
		policy:      policy,
		audit:       opts.Audit,
		logger:      log.Named("remnawave"),
		tracer:      tracer,
	}, nil
}

func (p *Processor) Policy() FailurePolicy {
	return p.policy
}

// Run fetches credentials once and processes the records strictly in order.
// Under the abort policy the partial result is returned with the error.
func (p *Processor) Run(ctx context.Context, batch Batch) (*Result, error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	result := &Result{
		BatchID: batch.ID,
		Outputs: make([]OutputRecord, 0, len(batch.Records)),
	}

	ctx, span := p.tracer.Start(ctx, "remnawave.batch", trace.WithAttributes(
		attribute.String("remnawave.batch_id", batch.ID),
		attribute.Int("remnawave.records", len(batch.Records)),
		attribute.String("remnawave.failure_policy", string(p.policy)),
	))
	defer span.End()

	creds, err := p.credentials.Credentials(ctx, batch.CredentialsID)
	if err != nil {
		span.SetStatus(codes.Error, "credentials unavailable")
		return result, errors.NewCredentialsUnavailableError(err)
	}
	endpoint := NewEndpoint(creds)

	log := p.logger.With(map[string]interface{}{"batchId": batch.ID})
	log.Info("Processing Remnawave batch", map[string]interface{}{
		"records":   len(batch.Records),
		"selection": batch.Selection.String(),
		"policy":    string(p.policy),
	})

	for i, record := range batch.Records {
		output, err := p.processRecord(ctx, batch, i, record, endpoint)
		if err != nil {
			result.Failed++
			metrics.RemnawaveRecords.WithLabelValues(string(errors.CodeOf(err))).Inc()
			log.Warn("Record failed", map[string]interface{}{
				"recordIndex": i,
				"errorCode":   string(errors.CodeOf(err)),
				"error":       errors.MessageOf(err),
			})

			if p.policy == FailurePolicyAbort {
				span.SetStatus(codes.Error, "batch aborted")
				return result, errors.NewBatchAbortedError(i, err)
			}
			result.Outputs = append(result.Outputs, OutputRecord{JSON: ErrorObject(err)})
			continue
		}

		result.Succeeded++
		metrics.RemnawaveRecords.WithLabelValues("ok").Inc()
		result.Outputs = append(result.Outputs, OutputRecord{JSON: output})
	}

	log.Info("Remnawave batch finished", map[string]interface{}{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	return result, nil
}

// processRecord runs resolve, plan, dispatch and normalize for one record.
func (p *Processor) processRecord(ctx context.Context, batch Batch, index int, record map[string]interface{}, endpoint Endpoint) (output interface{}, err error) {
	start := time.Now()
	entry := AuditEntry{BatchID: batch.ID, RecordIndex: index}
	defer func() {
		p.recordAudit(ctx, entry, start, err)
	}()

	key, err := selectionFor(record, batch.Selection).Key()
	if err != nil {
		return nil, err
	}
	route, _ := Lookup(key)
	entry.Route = route.Name()
	entry.Method = route.Method

	params, err := Resolve(route, record)
	if err != nil {
		return nil, err
	}

	plan := planRoute(route, params, endpoint)
	entry.Path = strings.SplitN(strings.TrimPrefix(plan.URL, endpoint.BaseURL()), "?", 2)[0]

	p.logger.Debug("Dispatching record", map[string]interface{}{
		"batchId":     batch.ID,
		"recordIndex": index,
		"route":       route.Name(),
		"method":      plan.Method,
		"path":        entry.Path,
	})

	response, err := p.dispatcher.Dispatch(ctx, route, params, plan)
	if err != nil {
		return nil, err
	}
	return Normalize(route, response), nil
}

func (p *Processor) recordAudit(ctx context.Context, entry AuditEntry, start time.Time, err error) {
	if p.audit == nil {
		return
	}
	entry.Duration = time.Since(start)
	entry.CreatedAt = time.Now().UTC()
	entry.Outcome = AuditOutcomeSucceeded
	if err != nil {
		entry.Outcome = AuditOutcomeFailed
		entry.ErrorCode = string(errors.CodeOf(err))
	}
	if auditErr := p.audit.Record(ctx, entry); auditErr != nil {
		p.logger.Warn("Failed to write audit entry", map[string]interface{}{
			"batchId":     entry.BatchID,
			"recordIndex": entry.RecordIndex,
			"error":       auditErr.Error(),
		})
	}
}
