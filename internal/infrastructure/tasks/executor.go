// Package tasks executes and transports the side-effect tasks emitted after
// a ledger commit.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/documents"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/mailer"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
)

var ErrUnknownTaskKind = errors.New("unknown task kind")

// Handler runs one task to completion.
type Handler interface {
	Execute(ctx context.Context, task application.Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task application.Task) error

func (f HandlerFunc) Execute(ctx context.Context, task application.Task) error {
	return f(ctx, task)
}

// Executor renders the receipt for a task and emails it to the payer.
type Executor struct {
	renderer *documents.Renderer
	sender   mailer.Sender
	company  config.CompanyConfig
	logger   *slog.Logger
}

func NewExecutor(renderer *documents.Renderer, sender mailer.Sender, company config.CompanyConfig, logger *slog.Logger) *Executor {
	return &Executor{
		renderer: renderer,
		sender:   sender,
		company:  company,
		logger:   logger,
	}
}

func (e *Executor) Execute(ctx context.Context, task application.Task) error {
	err := e.execute(ctx, task)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordTaskExecuted(string(task.Kind), result)
	return err
}

func (e *Executor) execute(ctx context.Context, task application.Task) error {
	switch task.Kind {
	case application.TaskPaymentReceipt, application.TaskEntryReceipt:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTaskKind, task.Kind)
	}

	payload, err := task.Receipt()
	if err != nil {
		return err
	}

	doc, err := e.renderer.Receipt(task.Kind, payload)
	if err != nil {
		return err
	}

	email := mailer.Email{
		To:       []string{payload.Email},
		Subject:  e.subject(task.Kind, payload),
		TextBody: e.body(payload),
		Headers:  map[string]string{"X-JMW-Reference": payload.Reference},
		Attachments: []mailer.Attachment{{
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			Data:        doc.Body,
		}},
	}
	if err := e.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("send %s for %s: %w", task.Kind, task.Reference, err)
	}

	e.logger.Info("receipt sent",
		"task_id", task.ID,
		"kind", task.Kind,
		"reference", payload.Reference)
	return nil
}

func (e *Executor) subject(kind application.TaskKind, p application.ReceiptPayload) string {
	if kind == application.TaskEntryReceipt {
		return fmt.Sprintf("%s: order #%d confirmed", e.company.Name, p.SerialNumber)
	}
	return fmt.Sprintf("%s: payment received (%s)", e.company.Name, p.Reference)
}

func (e *Executor) body(p application.ReceiptPayload) string {
	name := p.CustomerName
	if name == "" {
		name = "there"
	}
	if p.CouponCode != "" {
		return fmt.Sprintf("Hello %s,\n\nYour order was confirmed with coupon %s. Your receipt is attached.\n\n%s\n",
			name, p.CouponCode, e.company.Name)
	}
	return fmt.Sprintf("Hello %s,\n\nWe received your payment of %s. Your receipt is attached.\n\n%s\n",
		name, e.renderer.FormatNaira(p.Amount), e.company.Name)
}
