package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

type PayBillInput struct {
	BillID string
	Mode   core.PaymentMode
	// PaidAt defaults to now when zero.
	PaidAt time.Time
}

// PaymentReceipt is what MarkPaid committed.
type PaymentReceipt struct {
	Payment core.BillPayment `json:"payment"`
	Expense core.Expense     `json:"expense"`
}

type BillPaymentService struct {
	*base
}

// MarkPaid records that a bill was paid for the month of PaidAt and books the
// matching expense in the same transaction. A second payment for the same
// bill and month fails with core.ErrDuplicatePayment.
func (s *BillPaymentService) MarkPaid(ctx context.Context, ownerID string, in PayBillInput) (PaymentReceipt, error) {
	if err := requireOwner(ownerID); err != nil {
		return PaymentReceipt{}, err
	}
	if !in.Mode.Valid() {
		return PaymentReceipt{}, core.ErrInvalidPaymentMode
	}

	bill, err := s.store.GetBill(ctx, ownerID, in.BillID)
	if err != nil {
		return PaymentReceipt{}, fmt.Errorf("get bill: %w", err)
	}

	now := s.clock.Now()
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	paidAt = paidAt.UTC()
	period := core.PeriodOf(paidAt)

	// Early exit only; the unique index decides under concurrency.
	if _, err := s.store.GetBillPayment(ctx, ownerID, bill.ID, period); err == nil {
		s.metrics.BillPayment("duplicate")
		return PaymentReceipt{}, core.ErrDuplicatePayment
	} else if !errors.Is(err, core.ErrNotFound) {
		return PaymentReceipt{}, fmt.Errorf("check existing payment: %w", err)
	}

	receipt := PaymentReceipt{
		Payment: core.BillPayment{
			ID:        newID(),
			OwnerID:   ownerID,
			BillID:    bill.ID,
			BillName:  bill.Name,
			Amount:    bill.Amount,
			Mode:      in.Mode,
			PaidAt:    paidAt,
			Period:    period,
			CreatedAt: now,
		},
		Expense: core.Expense{
			ID:        newID(),
			OwnerID:   ownerID,
			Item:      "Bill Payment: " + bill.Name,
			Amount:    bill.Amount,
			Category:  core.Bills,
			Mode:      in.Mode,
			SpentAt:   paidAt,
			Notes:     "Recurring bill payment for " + period.String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if err := s.store.RecordBillPayment(ctx, receipt.Payment, receipt.Expense); err != nil {
		if errors.Is(err, core.ErrDuplicatePayment) {
			s.metrics.BillPayment("duplicate")
			return PaymentReceipt{}, err
		}
		s.metrics.BillPayment("error")
		return PaymentReceipt{}, fmt.Errorf("record bill payment: %w", err)
	}
	s.metrics.BillPayment("ok")
	s.metrics.ExpenseWritten("bill_payment")

	slog.InfoContext(ctx, "Bill marked as paid",
		"bill_id", bill.ID,
		"period", period.String(),
		"amount", bill.Amount.String(),
		"payment_id", receipt.Payment.ID)

	s.invalidate(ctx, ownerID, period)
	s.publish(ctx, amqp.BillPaid, ownerID, receipt.Payment.ID, period)
	s.publish(ctx, amqp.ExpenseCreated, ownerID, receipt.Expense.ID, period)

	return receipt, nil
}
