package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remittance"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/testutil"
)

// Harness executes one scenario against its own ledger.
type Harness struct {
	contract *remittance.Contract
	clock    *testutil.LedgerClock
	logger   *slog.Logger
	seq      int64
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes the ledger's diagnostic output to l. By default it is
// discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory backend. A non-nil error
// means the scenario could not be executed (for example a storage
// failure); failed expectations are reported in Result instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	start := scenario.StartTime
	if start == 0 {
		start = DefaultStartTime
	}
	clock := testutil.NewLedgerClock(start)

	backend := store.NewMemory(store.WithClock(clock))
	defer backend.Close()

	contractOpts := []remittance.Option{
		remittance.WithLogger(o.logger),
		remittance.WithCallIDs(host.NewSequenceGenerator(scenario.Name)),
		remittance.WithStrictCurrency(scenario.StrictCurrency),
	}
	if scenario.Retention != nil {
		contractOpts = append(contractOpts, remittance.WithRetention(store.Retention{
			Threshold: scenario.Retention.Threshold,
			ExtendTo:  scenario.Retention.ExtendTo,
		}))
	}

	h := &Harness{
		contract: remittance.New(backend, host.IdentityAuthorizer{}, clock, contractOpts...),
		clock:    clock,
		logger:   o.logger,
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.AddTrace(event)

		for _, msg := range checkExpect(step.Expect, event) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Op, msg))
		}
	}

	for _, msg := range EvaluateAssertions(ctx, result, scenario.Assertions, h.contract) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep performs one ledger call. Rejected calls become the event
// outcome; only storage failures are returned as errors.
func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, error) {
	h.seq++
	event := TraceEvent{
		Seq:     h.seq,
		Op:      step.Op,
		Args:    stepArgs(step),
		Outcome: OutcomeOK,
	}

	ids := make([]remit.Address, len(step.As))
	for i, id := range step.As {
		ids[i] = remit.Address(id)
	}
	ctx = host.WithIdentities(ctx, ids...)

	var err error
	switch step.Op {
	case OpSend:
		amount, parseErr := remit.ParseAmount(step.Amount)
		if parseErr != nil {
			event.Outcome = string(remittance.ErrCodeInvalidAmount)
			return event, nil
		}
		var id uint64
		id, err = h.contract.Send(ctx,
			remit.Address(step.Sender), remit.Address(step.Recipient),
			amount, remit.Currency(step.Currency))
		if err == nil {
			event.Result = map[string]any{"id": id}
		}

	case OpComplete:
		err = h.contract.Complete(ctx, *step.ID, remit.Address(step.Processor))

	case OpGet:
		var (
			rec remit.Record
			ok  bool
		)
		rec, ok, err = h.contract.Get(ctx, *step.ID)
		if err == nil {
			event.Result = map[string]any{"found": ok, "record": rec.Fields()}
		}

	case OpTotal:
		var n uint64
		n, err = h.contract.Total(ctx)
		if err == nil {
			event.Result = map[string]any{"total": n}
		}

	case OpAdvance:
		now := h.clock.Advance(step.Seconds)
		event.Result = map[string]any{"now": now}

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		code := remittance.CodeOf(err)
		if code == "" {
			return event, err
		}
		event.Outcome = string(code)
	}

	h.logger.Debug("scenario step executed",
		"seq", event.Seq,
		"op", event.Op,
		"outcome", event.Outcome,
	)
	return event, nil
}

// stepArgs returns the step's arguments in canonical-JSON-ready form.
// Unset fields are omitted.
func stepArgs(step Step) map[string]any {
	args := map[string]any{}
	if len(step.As) > 0 {
		as := make([]any, len(step.As))
		for i, id := range step.As {
			as[i] = id
		}
		args["as"] = as
	}
	put := func(key, val string) {
		if val != "" {
			args[key] = val
		}
	}
	put("sender", step.Sender)
	put("recipient", step.Recipient)
	put("amount", step.Amount)
	put("currency", step.Currency)
	put("processor", step.Processor)
	if step.ID != nil {
		args["id"] = *step.ID
	}
	if step.Seconds != 0 {
		args["seconds"] = step.Seconds
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(expect *ExpectClause, event TraceEvent) []string {
	wantOutcome := OutcomeOK
	if expect != nil && expect.Error != "" {
		wantOutcome = expect.Error
	}

	var errs []string
	if event.Outcome != wantOutcome {
		errs = append(errs, fmt.Sprintf("expected outcome %s, got %s", wantOutcome, event.Outcome))
		return errs
	}
	if expect == nil {
		return nil
	}

	if expect.ID != nil {
		if got, _ := event.Result["id"].(uint64); got != *expect.ID {
			errs = append(errs, fmt.Sprintf("expected id %d, got %d", *expect.ID, got))
		}
	}
	if expect.Total != nil {
		if got, _ := event.Result["total"].(uint64); got != *expect.Total {
			errs = append(errs, fmt.Sprintf("expected total %d, got %d", *expect.Total, got))
		}
	}
	if expect.Found != nil {
		if got, _ := event.Result["found"].(bool); got != *expect.Found {
			errs = append(errs, fmt.Sprintf("expected found=%t, got %t", *expect.Found, got))
		}
	}
	if expect.Status != "" {
		var got string
		if rec, ok := event.Result["record"].(map[string]any); ok {
			got, _ = rec["status"].(string)
		}
		if got != expect.Status {
			errs = append(errs, fmt.Sprintf("expected status %s, got %s", expect.Status, got))
		}
	}
	return errs
}
