package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ahrav/go-scrutiny/internal/constraint"
	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
	"github.com/ahrav/go-scrutiny/internal/segment"
	"github.com/ahrav/go-scrutiny/internal/verify"
)

// Diagnostic messages attached to the pipeline's constraints. Terminal
// failures surface these messages verbatim.
const (
	msgStepCount = "there should be at least 3 steps in the rationale, or it is probably not a good rationale"
	msgStepValid = "each step in the thought process must be necessary for reaching an answer and be logically and factually valid"
	msgObjective = "the answer must meet the user's objectives"
)

// Result is the outcome of one successfully verified round: the
// conversational response plus the per-step verification trace.
type Result struct {
	// RoundID uniquely identifies this round for tracing and logs.
	RoundID string

	// Response is the final conversational response to the user.
	Response string

	// Answer is the direct answer produced alongside the accepted
	// rationale, before conversational phrasing.
	Answer string

	// Steps holds one verification result per qualifying step of the
	// accepted rationale, in step order.
	Steps []domain.VerificationResult

	// Backtracks is the number of regeneration attempts consumed.
	Backtracks int
}

// Orchestrator sequences one request through the pipeline: message
// understanding, rationale generation, segmentation, parallel step
// verification, response generation, and objective-level verification,
// with the constraint engine wired around the two generation stages that
// may be retried.
//
// An Orchestrator is safe for concurrent use; all per-request state
// (the reasoning chain and the backtrack counter) is created per call.
type Orchestrator struct {
	config Config

	backend           ports.GenerationBackend
	stepVerifier      ports.VerifierStrategy
	objectiveVerifier ports.VerifierStrategy

	segmenter *segment.Segmenter
	pool      *verify.ParallelVerifier

	logger  *zap.Logger
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObjectiveVerifier sets a distinct strategy for the objective-level
// check of the final response. When absent, the step verifier is used for
// both.
func WithObjectiveVerifier(v ports.VerifierStrategy) Option {
	return func(o *Orchestrator) { o.objectiveVerifier = v }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(o *Orchestrator) { o.metrics = collector }
}

// WithTracer sets the tracer used for pipeline stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

// NewOrchestrator creates an Orchestrator over the given generation backend
// and step verifier strategy. Telemetry and the objective verifier are
// injected through options; nothing is read from process-wide state.
func NewOrchestrator(
	config Config,
	backend ports.GenerationBackend,
	stepVerifier ports.VerifierStrategy,
	opts ...Option,
) (*Orchestrator, error) {
	if backend == nil {
		return nil, fmt.Errorf("generation backend cannot be nil")
	}
	if stepVerifier == nil {
		return nil, fmt.Errorf("step verifier cannot be nil")
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		config:       config,
		backend:      backend,
		stepVerifier: stepVerifier,
		segmenter:    segment.New(segment.WithMinSpaces(config.MinStepSpaces)),
		logger:       zap.NewNop(),
		tracer:       noop.NewTracerProvider().Tracer("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.objectiveVerifier == nil {
		o.objectiveVerifier = stepVerifier
	}

	pool, err := verify.NewParallelVerifier(stepVerifier, config.MaxWorkers)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	return o, nil
}

// Respond runs the full pipeline for one user message and returns the
// verified response together with the per-step trace.
//
// Soft constraint failures trigger bounded backtracking: a failing step
// re-runs rationale generation and everything downstream of it, a failing
// objective check re-runs response generation only. Message understanding
// is performed once and reused across backtracks. Hard constraint
// failures, backend schema violations, and backend unavailability are
// terminal immediately.
func (o *Orchestrator) Respond(ctx context.Context, message string, chatHistory []string) (*Result, error) {
	roundID := uuid.NewString()
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "pipeline.respond",
		trace.WithAttributes(
			attribute.String("round.id", roundID),
			attribute.String("verifier.step", string(o.stepVerifier.Type())),
			attribute.String("verifier.objective", string(o.objectiveVerifier.Type())),
		))
	defer span.End()

	logger := o.logger.With(zap.String("round_id", roundID))
	engine := constraint.NewEngine(o.config.MaxBacktracks, logger)

	structured, err := o.understand(ctx, message, chatHistory)
	if err != nil {
		return nil, err
	}

	// The chat as the verifiers see it: prior turns plus the new message.
	fullChat := append(slices.Clone(chatHistory), message)

	chain, err := o.generateVerifiedChain(ctx, engine, logger, structured, fullChat)
	if err != nil {
		return nil, err
	}

	response, err := o.generateVerifiedResponse(ctx, engine, logger, message, structured, chain, chatHistory)
	if err != nil {
		return nil, err
	}

	backtracks := engine.State().Attempts()
	o.recordRound(time.Since(start), len(chain.Steps), backtracks)
	logger.Info("round completed",
		zap.Int("steps", len(chain.Steps)),
		zap.Int("backtracks", backtracks))

	return &Result{
		RoundID:    roundID,
		Response:   response,
		Answer:     chain.Answer,
		Steps:      chain.Results,
		Backtracks: backtracks,
	}, nil
}

// understand obtains the structured understanding of the user's message.
// It runs exactly once per request; backtracking never re-runs it.
func (o *Orchestrator) understand(ctx context.Context, message string, chatHistory []string) (domain.UnderstoodMessage, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.understand")
	defer span.End()

	structured, err := o.backend.UnderstandMessage(ctx, chatHistory, message)
	if err != nil {
		return domain.UnderstoodMessage{}, fmt.Errorf("message understanding failed: %w", err)
	}
	return structured, nil
}

// generateVerifiedChain runs the rationale loop: generate a rationale,
// segment it, hard-assert the structural floor, verify all steps
// concurrently, and evaluate the per-step soft constraint. Any step's soft
// failure regenerates the whole rationale, the most conservative reading
// of partial failures under concurrent fan-out.
func (o *Orchestrator) generateVerifiedChain(
	ctx context.Context,
	engine *constraint.Engine,
	logger *zap.Logger,
	structured domain.UnderstoodMessage,
	fullChat []string,
) (domain.ReasoningChain, error) {
	for {
		chain, err := o.generateChain(ctx, structured)
		if err != nil {
			return domain.ReasoningChain{}, err
		}

		// Fail fast on the cheap structural check; the fan-out must not
		// start for a chain that is already dead.
		if err := engine.Assert(len(chain.Steps) >= o.config.MinSteps, "step_count", msgStepCount); err != nil {
			o.countOperation("hard_constraint", "failed")
			return domain.ReasoningChain{}, err
		}
		logger.Debug("rationale segmented", zap.Int("steps", len(chain.Steps)))

		results, err := o.verifySteps(ctx, structured.Objective, chain, fullChat)
		if err != nil {
			return domain.ReasoningChain{}, err
		}
		chain.Results = results

		switch outcome := o.evaluateSteps(engine, results); outcome {
		case constraint.Pass:
			return chain, nil
		case constraint.Backtrack:
			o.countOperation("backtrack", "rationale")
			continue
		default:
			o.countOperation("soft_constraint", "exhausted")
			return domain.ReasoningChain{}, engine.Violation(msgStepValid)
		}
	}
}

func (o *Orchestrator) generateChain(ctx context.Context, structured domain.UnderstoodMessage) (domain.ReasoningChain, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.generate_rationale")
	defer span.End()

	rationale, answer, err := o.backend.GenerateRationale(ctx, structured)
	if err != nil {
		return domain.ReasoningChain{}, fmt.Errorf("rationale generation failed: %w", err)
	}
	if rationale == "" {
		return domain.ReasoningChain{}, domain.ErrEmptyRationale
	}

	return domain.ReasoningChain{
		Rationale: rationale,
		Answer:    answer,
		Steps:     o.segmenter.Segment(rationale),
	}, nil
}

func (o *Orchestrator) verifySteps(
	ctx context.Context,
	objective string,
	chain domain.ReasoningChain,
	fullChat []string,
) ([]domain.VerificationResult, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.verify_steps",
		trace.WithAttributes(attribute.Int("chain.steps", len(chain.Steps))))
	defer span.End()

	start := time.Now()
	results, err := o.pool.VerifyAll(ctx, objective, chain, fullChat)
	if err != nil {
		return nil, fmt.Errorf("step verification failed: %w", err)
	}

	if o.metrics != nil {
		labels := map[string]string{"strategy": string(o.stepVerifier.Type())}
		o.metrics.RecordLatency("verify_steps", time.Since(start), labels)
		for _, r := range results {
			o.metrics.RecordHistogram("verification_score", r.Score, labels)
		}
	}
	return results, nil
}

// evaluateSteps applies the per-step soft constraint in step order. The
// first failing step decides the outcome for the round.
func (o *Orchestrator) evaluateSteps(engine *constraint.Engine, results []domain.VerificationResult) constraint.Outcome {
	for _, r := range results {
		outcome := engine.Suggest(r.Annotation == domain.AnnotationEssentialAndValid, msgStepValid)
		if outcome != constraint.Pass {
			return outcome
		}
	}
	return constraint.Pass
}

// generateVerifiedResponse runs the response loop: generate the
// conversational response from the validated rationale, verify it at the
// objective level, and evaluate the final soft constraint. A failure here
// regenerates only the response, not the rationale.
func (o *Orchestrator) generateVerifiedResponse(
	ctx context.Context,
	engine *constraint.Engine,
	logger *zap.Logger,
	message string,
	structured domain.UnderstoodMessage,
	chain domain.ReasoningChain,
	chatHistory []string,
) (string, error) {
	for {
		response, err := o.generateResponse(ctx, message, structured, chain)
		if err != nil {
			return "", err
		}

		annotation, score, err := o.verifyObjective(ctx, structured.Objective, response, chain, chatHistory)
		if err != nil {
			return "", err
		}
		logger.Debug("objective verified",
			zap.String("annotation", annotation.String()),
			zap.Float64("score", score))

		switch outcome := engine.Suggest(annotation == domain.AnnotationEssentialAndValid, msgObjective); outcome {
		case constraint.Pass:
			return response, nil
		case constraint.Backtrack:
			o.countOperation("backtrack", "response")
			continue
		default:
			o.countOperation("soft_constraint", "exhausted")
			return "", engine.Violation(msgObjective)
		}
	}
}

func (o *Orchestrator) generateResponse(
	ctx context.Context,
	message string,
	structured domain.UnderstoodMessage,
	chain domain.ReasoningChain,
) (string, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.generate_response")
	defer span.End()

	response, err := o.backend.GenerateResponse(ctx, message, structured, chain.Rationale)
	if err != nil {
		return "", fmt.Errorf("response generation failed: %w", err)
	}
	return response, nil
}

func (o *Orchestrator) verifyObjective(
	ctx context.Context,
	objective, response string,
	chain domain.ReasoningChain,
	chatHistory []string,
) (domain.Annotation, float64, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.verify_objective")
	defer span.End()

	annotation, score, err := o.objectiveVerifier.VerifyStep(ctx, ports.VerifyRequest{
		Objective:   objective,
		Candidate:   response,
		Chain:       chain.Texts(),
		ChatHistory: chatHistory,
	})
	if err != nil {
		return "", 0, fmt.Errorf("objective verification failed: %w", err)
	}
	return annotation, score, nil
}

func (o *Orchestrator) countOperation(operation, status string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter(operation, 1, map[string]string{
		"status":   status,
		"strategy": string(o.stepVerifier.Type()),
	})
}

func (o *Orchestrator) recordRound(elapsed time.Duration, steps, backtracks int) {
	if o.metrics == nil {
		return
	}
	labels := map[string]string{"strategy": string(o.stepVerifier.Type())}
	o.metrics.RecordLatency("round", elapsed, labels)
	o.metrics.RecordGauge("chain_steps", float64(steps), labels)
	o.metrics.RecordCounter("rounds_total", 1, labels)
	if backtracks > 0 {
		o.metrics.RecordCounter("round_backtracks", float64(backtracks), labels)
	}
}
