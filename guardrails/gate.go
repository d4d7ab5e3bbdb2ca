package guardrails

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Stage names the phase of the gate pipeline a result came from.
type Stage string

const (
	StageInputCheck  Stage = "INPUT_CHECK"
	StageGenerate    Stage = "GENERATE"
	StageOutputCheck Stage = "OUTPUT_CHECK"
)

// User-facing rejection messages. Clients match on these strings, so they
// are part of the API surface.
const (
	InputRejectedMessage  = "⚠️ Potential prompt injection detected. Please rephrase your request."
	OutputRejectedMessage = "⚠️ The response seems irrelevant to your query. Please try again."
)

// Answerer produces an answer for a query; satisfied by rag.Orchestrator.
type Answerer interface {
	Answer(ctx context.Context, query string, image []byte, systemPrompt string) string
}

// StageObserver receives per-stage timing and outcome; satisfied by the
// metrics collector. Nil observers are allowed.
type StageObserver interface {
	ObserveStage(stage string, rejected bool, elapsed time.Duration)
}

// Result is the outcome of one gated request.
type Result struct {
	// Answer is the text returned to the user: the model answer, an
	// orchestrator degrade message, or a rejection message.
	Answer string

	// Stage is the last stage that ran.
	Stage Stage

	// Rejected reports whether a validator stopped the request.
	Rejected bool
}

// GateConfig controls which validation stages run.
type GateConfig struct {
	InputValidation  bool
	OutputValidation bool

	// IsDegraded reports whether an answer is an orchestrator degrade
	// message. Degraded answers skip OUTPUT_CHECK so an internal error is
	// surfaced to the user instead of being replaced by a relevance
	// rejection. Nil disables the check.
	IsDegraded func(answer string) bool
}

// Gate runs the INPUT_CHECK -> GENERATE -> OUTPUT_CHECK pipeline,
// short-circuiting on the first rejection. A rejected input never reaches
// the orchestrator; a rejected output never reaches the user. The gate
// holds no state across requests.
type Gate struct {
	input    Validator
	answerer Answerer
	output   Validator
	observer StageObserver
	config   GateConfig
	logger   *zap.Logger
}

// NewGate creates a Gate. Disabled stages may pass a nil validator;
// observer may be nil.
func NewGate(input Validator, answerer Answerer, output Validator, observer StageObserver, cfg GateConfig, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		input:    input,
		answerer: answerer,
		output:   output,
		observer: observer,
		config:   cfg,
		logger:   logger.With(zap.String("component", "validation_gate")),
	}
}

// Run processes one request through the gate.
func (g *Gate) Run(ctx context.Context, query string, image []byte, systemPrompt string) Result {
	if g.config.InputValidation && g.input != nil {
		start := time.Now()
		outcome, err := g.input.Validate(ctx, query, "")
		rejected := err != nil || !outcome.Valid
		g.observe(StageInputCheck, rejected, time.Since(start))

		if rejected {
			reason := "validator error"
			if err == nil {
				reason = outcome.Reason
			} else {
				g.logger.Error("input validator failed", zap.Error(err))
			}
			g.logger.Info("input rejected",
				zap.String("validator", g.input.Name()),
				zap.String("reason", reason))
			return Result{Answer: InputRejectedMessage, Stage: StageInputCheck, Rejected: true}
		}
	}

	start := time.Now()
	answer := g.answerer.Answer(ctx, query, image, systemPrompt)
	g.observe(StageGenerate, false, time.Since(start))

	if g.config.IsDegraded != nil && g.config.IsDegraded(answer) {
		g.logger.Warn("degraded answer, skipping output validation")
		return Result{Answer: answer, Stage: StageGenerate, Rejected: false}
	}

	if g.config.OutputValidation && g.output != nil {
		start := time.Now()
		outcome, err := g.output.Validate(ctx, answer, query)
		rejected := err == nil && !outcome.Valid
		g.observe(StageOutputCheck, rejected, time.Since(start))

		if err != nil {
			// Output validation fails open at the gate level too.
			g.logger.Error("output validator failed, keeping answer", zap.Error(err))
		} else if rejected {
			g.logger.Info("output rejected",
				zap.String("validator", g.output.Name()),
				zap.String("reason", outcome.Reason))
			return Result{Answer: OutputRejectedMessage, Stage: StageOutputCheck, Rejected: true}
		}
		return Result{Answer: answer, Stage: StageOutputCheck, Rejected: false}
	}

	return Result{Answer: answer, Stage: StageGenerate, Rejected: false}
}

func (g *Gate) observe(stage Stage, rejected bool, elapsed time.Duration) {
	if g.observer != nil {
		g.observer.ObserveStage(string(stage), rejected, elapsed)
	}
}
