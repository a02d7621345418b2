package askbob

import (
	"context"
	"fmt"
	"time"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/prompts"
	"github.com/handybob/callops/internal/telephony"
	"github.com/handybob/callops/pkg/completion"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// Store is the record-loading capability the dispatcher consumes.
// Lookups return (nil, nil) when the record does not exist.
type Store interface {
	GetCall(ctx context.Context, id string) (*domain.CallRecord, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetQuote(ctx context.Context, id string) (*domain.Quote, error)
}

// Dispatcher is the single entry point for AskBob tasks. One completion
// call per Run, no retries, no persistence; callers decide what to do
// with the typed result.
type Dispatcher struct {
	store      Store
	completion completion.Service
	warnings   *telephony.MigrationWarnings
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store Store, svc completion.Service, warnings *telephony.MigrationWarnings) *Dispatcher {
	return &Dispatcher{store: store, completion: svc, warnings: warnings}
}

// Run executes a task: tenant validation, entity loading with tenant
// re-check, deterministic prompt, one completion call, strict parse and
// per-variant validation. Returns the typed result with model latency,
// or a typed *Error.
func (d *Dispatcher) Run(ctx context.Context, auth AuthContext, task Task) (*TaskResult, error) {
	if auth.WorkspaceID == "" {
		return nil, newError(CodeForbidden, "missing authenticated workspace")
	}
	if task.Context.WorkspaceID != auth.WorkspaceID {
		logger.Base().Warn("askbob task workspace mismatch",
			zap.String("auth_workspace", auth.WorkspaceID),
			zap.String("task_workspace", task.Context.WorkspaceID),
			zap.String("kind", string(task.Kind)))
		return nil, newError(CodeForbidden, "task context does not belong to the caller's workspace")
	}

	prompt, err := d.buildPrompt(ctx, task)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := d.completion.Complete(ctx, prompt)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, wrapError(CodeUpstreamError, "completion service failed", err)
	}

	payload, err := parseResult(task.Kind, raw)
	if err != nil {
		return nil, err
	}

	logger.Base().Info("askbob task completed",
		zap.String("kind", string(task.Kind)),
		zap.String("workspace_id", auth.WorkspaceID),
		zap.Int64("latency_ms", latency))

	return &TaskResult{Kind: task.Kind, LatencyMillis: latency, Payload: payload}, nil
}

// buildPrompt loads and tenant-verifies the referenced entities, then
// builds the variant's prompt from normalized, bounded text only.
func (d *Dispatcher) buildPrompt(ctx context.Context, task Task) (string, error) {
	switch task.Kind {
	case TaskCallScript:
		cc, err := d.callContext(ctx, task)
		if err != nil {
			return "", err
		}
		return prompts.CallScript(cc), nil

	case TaskLiveGuidance:
		if _, err := d.loadCall(ctx, task.Context, task.CallID); err != nil {
			return "", err
		}
		cc, err := d.callContext(ctx, task)
		if err != nil {
			return "", err
		}
		return prompts.LiveGuidance(cc, telephony.NormalizeNotes(task.TranscriptSnippet)), nil

	case TaskCallEnrichment:
		call, err := d.loadCall(ctx, task.Context, task.CallID)
		if err != nil {
			return "", err
		}
		cc, err := d.callContext(ctx, task)
		if err != nil {
			return "", err
		}
		codes := make([]string, 0, len(domain.KnownOutcomeCodes))
		for _, c := range domain.KnownOutcomeCodes {
			codes = append(codes, string(c))
		}
		return prompts.CallEnrichment(cc, call.ProviderStatus, telephony.NormalizeNotes(call.Summary), codes), nil

	case TaskJobAfterCallSummary:
		call, err := d.loadCall(ctx, task.Context, task.CallID)
		if err != nil {
			return "", err
		}
		cc, err := d.callContext(ctx, task)
		if err != nil {
			return "", err
		}
		return prompts.JobAfterCallSummary(cc, telephony.NormalizeNotes(call.OutcomeNotes)), nil

	case TaskJobSchedulingSuggestion:
		job, err := d.loadJob(ctx, task.Context)
		if err != nil {
			return "", err
		}
		schedule := ""
		if job.ScheduledAt != nil {
			schedule = job.ScheduledAt.Format("2006-01-02")
		}
		return prompts.JobSchedulingSuggestion(job.Title, telephony.NormalizeNotes(job.Notes), schedule), nil

	case TaskQuoteGeneration:
		job, err := d.loadJob(ctx, task.Context)
		if err != nil {
			return "", err
		}
		return prompts.QuoteGeneration(job.Title, telephony.NormalizeNotes(job.Description), telephony.NormalizeNotes(job.Notes)), nil

	case TaskQuoteExplanation:
		quote, err := d.loadQuote(ctx, task.Context)
		if err != nil {
			return "", err
		}
		return prompts.QuoteExplanation(summarizeQuote(quote), telephony.NormalizeNotes(task.Question)), nil

	case TaskMaterialsGeneration:
		job, err := d.loadJob(ctx, task.Context)
		if err != nil {
			return "", err
		}
		return prompts.MaterialsGeneration(job.Title, telephony.NormalizeNotes(job.Description)), nil

	case TaskMaterialsExplanation:
		job, err := d.loadJob(ctx, task.Context)
		if err != nil {
			return "", err
		}
		return prompts.MaterialsExplanation(telephony.NormalizeNotes(job.Description), telephony.NormalizeNotes(task.Question)), nil

	case TaskFollowUpDraft:
		call, err := d.loadCall(ctx, task.Context, task.CallID)
		if err != nil {
			return "", err
		}
		cc, err := d.callContext(ctx, task)
		if err != nil {
			return "", err
		}
		outcome := telephony.ResolveOutcome(call, call.OutcomeNotes, d.warnings)
		return prompts.FollowUpDraft(cc, string(outcome), telephony.NormalizeNotes(call.OutcomeNotes)), nil

	default:
		return "", newError(CodeInvalidTask, fmt.Sprintf("unknown task kind %q", task.Kind))
	}
}

// callContext assembles the shared call-level prompt context from the
// task's optional job and customer references, tenant-checking each.
func (d *Dispatcher) callContext(ctx context.Context, task Task) (prompts.CallContext, error) {
	cc := prompts.CallContext{Goal: telephony.NormalizeNotes(task.Goal)}

	if task.Context.JobID != "" {
		job, err := d.loadJob(ctx, task.Context)
		if err != nil {
			return prompts.CallContext{}, err
		}
		cc.JobTitle = job.Title
		cc.JobNotes = telephony.NormalizeNotes(job.Notes)
	}
	if task.Context.CustomerID != "" {
		customer, err := d.loadCustomer(ctx, task.Context)
		if err != nil {
			return prompts.CallContext{}, err
		}
		cc.CustomerName = customer.Name
	}
	return cc, nil
}

// verifyTenant is the single load-and-verify primitive: every entity a
// task references must belong to the task's workspace, even when it
// exists under another tenant.
func verifyTenant(entity domain.TenantOwned, workspaceID, what string) error {
	if entity.OwnerWorkspaceID() != workspaceID {
		logger.Base().Warn("askbob entity tenant mismatch",
			zap.String("entity", what),
			zap.String("task_workspace", workspaceID))
		return newError(CodeForbidden, what+" does not belong to the caller's workspace")
	}
	return nil
}

func (d *Dispatcher) loadCall(ctx context.Context, tc TaskContext, callID string) (*domain.CallRecord, error) {
	if callID == "" {
		return nil, newError(CodeInvalidTask, "task requires a call id")
	}
	call, err := d.store.GetCall(ctx, callID)
	if err != nil {
		return nil, wrapError(CodeUpstreamError, "failed to load call", err)
	}
	if call == nil {
		return nil, newError(CodeInvalidTask, "call not found")
	}
	if err := verifyTenant(call, tc.WorkspaceID, "call"); err != nil {
		return nil, err
	}
	return call, nil
}

func (d *Dispatcher) loadJob(ctx context.Context, tc TaskContext) (*domain.Job, error) {
	if tc.JobID == "" {
		return nil, newError(CodeInvalidTask, "task requires a job id")
	}
	job, err := d.store.GetJob(ctx, tc.JobID)
	if err != nil {
		return nil, wrapError(CodeUpstreamError, "failed to load job", err)
	}
	if job == nil {
		return nil, newError(CodeInvalidTask, "job not found")
	}
	if err := verifyTenant(job, tc.WorkspaceID, "job"); err != nil {
		return nil, err
	}
	return job, nil
}

func (d *Dispatcher) loadCustomer(ctx context.Context, tc TaskContext) (*domain.Customer, error) {
	customer, err := d.store.GetCustomer(ctx, tc.CustomerID)
	if err != nil {
		return nil, wrapError(CodeUpstreamError, "failed to load customer", err)
	}
	if customer == nil {
		return nil, newError(CodeInvalidTask, "customer not found")
	}
	if err := verifyTenant(customer, tc.WorkspaceID, "customer"); err != nil {
		return nil, err
	}
	return customer, nil
}

func (d *Dispatcher) loadQuote(ctx context.Context, tc TaskContext) (*domain.Quote, error) {
	if tc.QuoteID == "" {
		return nil, newError(CodeInvalidTask, "task requires a quote id")
	}
	quote, err := d.store.GetQuote(ctx, tc.QuoteID)
	if err != nil {
		return nil, wrapError(CodeUpstreamError, "failed to load quote", err)
	}
	if quote == nil {
		return nil, newError(CodeInvalidTask, "quote not found")
	}
	if err := verifyTenant(quote, tc.WorkspaceID, "quote"); err != nil {
		return nil, err
	}
	return quote, nil
}

func summarizeQuote(quote *domain.Quote) string {
	summary := fmt.Sprintf("Total: %d.%02d", quote.TotalCents/100, quote.TotalCents%100)
	for _, item := range quote.LineItems {
		summary += fmt.Sprintf("\n- %s x%.1f at %d.%02d each",
			item.Description, item.Quantity, item.UnitCents/100, item.UnitCents%100)
	}
	return summary
}
