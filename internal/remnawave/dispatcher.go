package remnawave

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"remnawave-workers/internal/common/errors"
	commonhttp "remnawave-workers/internal/common/http"
	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Transport executes one JSON request. Failures should carry a
// *commonhttp.ResponseError so the status code can be inspected.
type Transport interface {
	Do(ctx context.Context, req commonhttp.Request) (interface{}, error)
}

// Dispatcher sends request plans and maps failures onto the error taxonomy.
// It never retries.
type Dispatcher struct {
	transport Transport
	logger    logger.Logger
	tracer    trace.Tracer
}

func NewDispatcher(transport Transport, log logger.Logger, tracer trace.Tracer) *Dispatcher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if tracer == nil {
		tracer = otel.Tracer("remnawave-workers/remnawave")
	}
	return &Dispatcher{
		transport: transport,
		logger:    log,
		tracer:    tracer,
	}
}

// Dispatch executes plan for route. On success the parsed response is
// returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, route *Route, params Params, plan *RequestPlan) (interface{}, error) {
	ctx, span := d.tracer.Start(ctx, "remnawave.dispatch", trace.WithAttributes(
		attribute.String("remnawave.route", route.Name()),
		attribute.String("http.request.method", plan.Method),
	))
	defer span.End()

	req := commonhttp.Request{
		Method:  plan.Method,
		URL:     plan.URL,
		Headers: plan.Headers,
	}
	// Assign only a non-nil map so routes without a body send none.
	if plan.Body != nil {
		req.Body = plan.Body
	}

	start := time.Now()
	response, err := d.transport.Do(ctx, req)
	metrics.RemnawaveRequestDuration.WithLabelValues(route.Name()).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.RemnawaveRequests.WithLabelValues(route.Name(), metrics.OutcomeSuccess).Inc()
		span.SetStatus(codes.Ok, "")
		return response, nil
	}

	mapped := mapTransportError(route, params, err)
	outcome := metrics.OutcomeError
	if errors.IsNotFound(mapped) {
		outcome = metrics.OutcomeNotFound
	}
	metrics.RemnawaveRequests.WithLabelValues(route.Name(), outcome).Inc()

	span.RecordError(err)
	span.SetStatus(codes.Error, errors.MessageOf(mapped))
	if status := statusCode(err); status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}

	d.logger.Debug("Remnawave request failed", map[string]interface{}{
		"route":      route.Name(),
		"method":     plan.Method,
		"statusCode": statusCode(err),
		"errorCode":  string(errors.CodeOf(mapped)),
	})

	return nil, mapped
}

// mapTransportError turns a 404 into a not-found error when the route knows
// how to describe it. Everything else becomes an API error.
func mapTransportError(route *Route, params Params, err error) error {
	if statusCode(err) == http.StatusNotFound && route.NotFound != nil {
		return errors.NewNotFoundError(route.Name(), route.NotFound(params), err)
	}

	subject := ""
	if route.Subject != nil {
		subject = route.Subject(params)
	}
	return errors.NewAPIError(route.Name(), subject, err)
}

func statusCode(err error) int {
	var respErr *commonhttp.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
