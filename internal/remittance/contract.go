package remittance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
)

// Contract is the remittance ledger. It is safe for concurrent use to the
// extent its Backend is: each call is one Backend transaction.
type Contract struct {
	backend        store.Backend
	auth           host.Authorizer
	clock          host.Clock
	logger         *slog.Logger
	retention      store.Retention
	strictCurrency bool
	callIDs        host.CallIDGenerator
}

// New creates a Contract over backend. auth decides who may act as a
// sender or processor; clock stamps new remittances.
func New(backend store.Backend, auth host.Authorizer, clock host.Clock, opts ...Option) *Contract {
	c := &Contract{
		backend:   backend,
		auth:      auth,
		clock:     clock,
		logger:    slog.Default(),
		retention: store.DefaultRetention,
		callIDs:   host.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send records a new PENDING remittance from sender to recipient and
// returns its id.
//
// Checks run in order: sender authorization, amount > 0, then address and
// currency format. The counter, the record and the retention extension
// commit together or not at all.
func (c *Contract) Send(
	ctx context.Context,
	sender, recipient remit.Address,
	amount decimal.Decimal,
	currency remit.Currency,
) (uint64, error) {
	log := c.callLogger("send")

	if err := c.auth.RequireAuth(ctx, sender); err != nil {
		return 0, c.reject(log, "sender not authorized", newUnauthorizedError(err))
	}

	if !amount.IsPositive() {
		return 0, c.reject(log, "amount must be greater than zero", newInvalidAmountError(nil),
			"amount", amount.String())
	}
	if err := remit.CheckAmount(amount); err != nil {
		return 0, c.reject(log, "amount out of range", newInvalidAmountError(err),
			"amount", amount.String())
	}

	if err := sender.Validate(); err != nil {
		return 0, c.reject(log, "malformed sender", newInvalidArgumentError("sender", err))
	}
	if err := recipient.Validate(); err != nil {
		return 0, c.reject(log, "malformed recipient", newInvalidArgumentError("recipient", err))
	}
	if err := c.validateCurrency(currency); err != nil {
		return 0, c.reject(log, "malformed currency", newInvalidArgumentError("currency", err))
	}

	amount = amount.Truncate(0)

	var id uint64
	err := c.backend.Update(ctx, func(txn store.Txn) error {
		ledger := store.NewLedger(txn, c.retention)

		n, err := ledger.Counter()
		if err != nil {
			return err
		}
		if n == math.MaxUint64 {
			return newCounterExhaustedError()
		}
		id = n + 1

		rec := remit.Record{
			ID:        id,
			Sender:    sender,
			Recipient: recipient,
			Amount:    amount,
			Currency:  currency,
			Timestamp: c.clock.Timestamp(),
			Status:    remit.StatusPending,
		}
		if err := ledger.PutRecord(id, rec); err != nil {
			return err
		}
		if err := ledger.SetCounter(id); err != nil {
			return err
		}
		return ledger.ExtendRetention()
	})
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			return 0, c.reject(log, re.Message, re)
		}
		log.Error("send failed", "error", err)
		return 0, fmt.Errorf("send: %w", err)
	}

	log.Info("remittance created", "tx_id", id,
		"sender", string(sender), "recipient", string(recipient),
		"amount", amount.String(), "currency", string(currency))
	return id, nil
}

// Complete moves remittance id from PENDING to COMPLETE on behalf of
// processor.
func (c *Contract) Complete(ctx context.Context, id uint64, processor remit.Address) error {
	log := c.callLogger("complete").With("tx_id", id)

	if err := c.auth.RequireAuth(ctx, processor); err != nil {
		return c.reject(log, "processor not authorized", newUnauthorizedError(err))
	}

	err := c.backend.Update(ctx, func(txn store.Txn) error {
		ledger := store.NewLedger(txn, c.retention)

		rec, ok, err := ledger.Record(id)
		if err != nil {
			return err
		}
		if !ok {
			return newNotFoundError(id)
		}
		if rec.Status != remit.StatusPending {
			return newAlreadyProcessedError(id)
		}

		rec.Status = remit.StatusComplete
		if err := ledger.PutRecord(id, rec); err != nil {
			return err
		}
		return ledger.ExtendRetention()
	})
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			return c.reject(log, re.Message, re)
		}
		log.Error("complete failed", "error", err)
		return fmt.Errorf("complete %d: %w", id, err)
	}

	log.Info("remittance completed", "processor", string(processor))
	return nil
}

// Get returns remittance id. When it does not exist, ok is false and rec
// is remit.NotFoundRecord(), whose ID of 0 also signals absence.
func (c *Contract) Get(ctx context.Context, id uint64) (rec remit.Record, ok bool, err error) {
	err = c.backend.View(ctx, func(txn store.Txn) error {
		var err error
		rec, ok, err = store.NewLedger(txn, c.retention).Record(id)
		return err
	})
	if err != nil {
		return remit.NotFoundRecord(), false, fmt.Errorf("get %d: %w", id, err)
	}
	if !ok {
		return remit.NotFoundRecord(), false, nil
	}
	return rec, true, nil
}

// Total returns the number of remittances ever created.
func (c *Contract) Total(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.backend.View(ctx, func(txn store.Txn) error {
		var err error
		n, err = store.NewLedger(txn, c.retention).Counter()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("total: %w", err)
	}
	return n, nil
}

func (c *Contract) validateCurrency(cur remit.Currency) error {
	if c.strictCurrency {
		return cur.ValidateISO()
	}
	return cur.Validate()
}

func (c *Contract) callLogger(op string) *slog.Logger {
	return c.logger.With("call_id", c.callIDs.Generate(), "op", op)
}

// reject logs a rejected call and returns err.
func (c *Contract) reject(log *slog.Logger, msg string, err *Error, args ...any) error {
	args = append(args, "code", string(err.Code))
	if err.Err != nil {
		args = append(args, "error", err.Err)
	}
	log.Warn(msg, args...)
	return err
}
