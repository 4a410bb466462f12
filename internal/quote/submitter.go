// internal/quote/submitter.go
package quote

import (
	"context"
	"time"

	"seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/common/metrics"
	"seguros-cotacoes/internal/common/observability"
)

// Uploader stores an attachment and returns the storage path.
type Uploader interface {
	Upload(ctx context.Context, product Product, att *Attachment) (string, error)
}

// Notifier sends the operations mailbox notification for a persisted quote.
// The attachment is nil when there was no file or the upload failed.
type Notifier interface {
	Send(ctx context.Context, spec *ProductSpec, q *Quote, att *Attachment) error
}

// FollowUpLinker produces the WhatsApp deep link for the quote's consultant.
type FollowUpLinker interface {
	Link(q *Quote) string
}

// Inserter is satisfied by Repository; extracted so the submitter can be
// tested without a database.
type Inserter interface {
	Insert(ctx context.Context, spec *ProductSpec, q *Quote) error
}

// Submission is one raw quote request as it arrives from the API layer.
type Submission struct {
	Product          string
	Values           map[string]interface{}
	Dependents       []Dependent
	Attachment       *Attachment
	IdempotencyToken string
}

// Submitter runs the full pipeline for one submission: resolve the product,
// validate and normalize, claim the idempotency token, upload the attachment,
// persist, notify, and build the follow-up link. The database insert is the
// only fatal step after validation; upload and email failures are downgraded
// to warnings on the receipt.
type Submitter struct {
	catalog  *Catalog
	repo     Inserter
	guard    *IdempotencyGuard
	uploader Uploader
	notifier Notifier
	links    FollowUpLinker
	obs      *observability.Observability
	logger   logger.Logger
}

func NewSubmitter(
	catalog *Catalog,
	repo Inserter,
	guard *IdempotencyGuard,
	uploader Uploader,
	notifier Notifier,
	links FollowUpLinker,
	obs *observability.Observability,
	log logger.Logger,
) *Submitter {
	return &Submitter{
		catalog:  catalog,
		repo:     repo,
		guard:    guard,
		uploader: uploader,
		notifier: notifier,
		links:    links,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "quote-submitter"}),
	}
}

func (s *Submitter) Submit(ctx context.Context, sub *Submission) (*Receipt, error) {
	start := time.Now()

	spec, err := s.catalog.Spec(sub.Product)
	if err != nil {
		return nil, err
	}
	product := string(spec.Product)
	defer func() {
		metrics.QuoteSubmissionDuration.WithLabelValues(product).Observe(time.Since(start).Seconds())
		if s.obs != nil {
			s.obs.RecordRequestDuration(ctx, time.Since(start), product)
		}
	}()

	q, err := s.catalog.Build(spec, sub.Values, sub.Dependents)
	if err != nil {
		metrics.QuotesRejected.WithLabelValues(product).Inc()
		if s.obs != nil {
			s.obs.RecordSubmission(ctx, product, "rejected")
		}
		return nil, err
	}

	if !s.guard.Claim(ctx, sub.IdempotencyToken) {
		s.logger.Warn("duplicate submission blocked", map[string]interface{}{
			"product": product,
			"token":   sub.IdempotencyToken,
		})
		return nil, errors.NewDuplicateSubmissionError(sub.IdempotencyToken)
	}

	var warnings []string

	// The attachment is best-effort: a failed upload never blocks the quote,
	// and the email then goes out without the file.
	emailAttachment := sub.Attachment
	if sub.Attachment != nil && s.uploader != nil {
		path, uploadErr := s.uploader.Upload(ctx, spec.Product, sub.Attachment)
		if uploadErr != nil {
			s.logger.Warn("attachment upload failed", map[string]interface{}{
				"error":    uploadErr.Error(),
				"product":  product,
				"filename": sub.Attachment.Filename,
			})
			warnings = append(warnings, "Não foi possível armazenar o arquivo anexado")
			emailAttachment = nil
		} else {
			q.AttachmentPath = path
		}
	}

	if err := s.repo.Insert(ctx, spec, q); err != nil {
		s.guard.Release(ctx, sub.IdempotencyToken)
		if s.obs != nil {
			s.obs.RecordSubmission(ctx, product, "failed")
		}
		return nil, err
	}

	if s.notifier != nil {
		if notifyErr := s.notifier.Send(ctx, spec, q, emailAttachment); notifyErr != nil {
			s.logger.Warn("notification send failed after persist", map[string]interface{}{
				"error":   notifyErr.Error(),
				"product": product,
				"quoteId": q.ID,
			})
			metrics.NotificationFailures.WithLabelValues(product).Inc()
			warnings = append(warnings, "Cotação registrada, mas o e-mail de notificação não pôde ser enviado")
		}
	}

	metrics.QuotesSubmitted.WithLabelValues(product).Inc()
	if s.obs != nil {
		s.obs.RecordSubmission(ctx, product, "accepted")
	}
	s.logger.Info("quote submitted", map[string]interface{}{
		"product":  product,
		"quoteId":  q.ID,
		"seller":   q.Seller,
		"warnings": len(warnings),
	})

	receipt := &Receipt{
		Success:   true,
		QuoteID:   q.ID,
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
		Warnings:  warnings,
	}
	if s.links != nil {
		receipt.WhatsAppLink = s.links.Link(q)
	}
	return receipt, nil
}
