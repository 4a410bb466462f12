// internal/quote/submitter_test.go
package quote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appErrors "seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
)

type mockInserter struct {
	mock.Mock
}

func (m *mockInserter) Insert(ctx context.Context, spec *ProductSpec, q *Quote) error {
	args := m.Called(ctx, spec, q)
	return args.Error(0)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, product Product, att *Attachment) (string, error) {
	args := m.Called(ctx, product, att)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, spec *ProductSpec, q *Quote, att *Attachment) error {
	args := m.Called(ctx, spec, q, att)
	return args.Error(0)
}

type stubLinker struct{}

func (stubLinker) Link(q *Quote) string {
	return "https://wa.me/5521972110705?text=stub"
}

func autoSubmission() *Submission {
	return &Submission{
		Product: "auto",
		Values: map[string]interface{}{
			"full_name":       "Maria Silva",
			"document_number": "123.456.789-00",
			"email":           "maria@example.com",
			"phone":           "(21) 99999-0000",
			"seller":          "Felipe",
			"vehicle_brand":   "Fiat",
			"vehicle_model":   "Argo",
			"vehicle_year":    2023.0,
		},
	}
}

func newTestSubmitter(t *testing.T, repo Inserter, uploader Uploader, notifier Notifier) *Submitter {
	return NewSubmitter(
		NewCatalog(testSellers), repo, nil, uploader, notifier,
		stubLinker{}, nil, logger.NewTestLogger(t),
	)
}

func TestSubmitter_Success(t *testing.T) {
	repo := new(mockInserter)
	notifier := new(mockNotifier)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, (*Attachment)(nil)).Return(nil).Once()

	s := newTestSubmitter(t, repo, nil, notifier)
	receipt, err := s.Submit(context.Background(), autoSubmission())

	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.NotEmpty(t, receipt.QuoteID)
	assert.NotEmpty(t, receipt.CreatedAt)
	assert.Empty(t, receipt.Warnings)
	assert.True(t, strings.HasPrefix(receipt.WhatsAppLink, "https://wa.me/"))
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubmitter_UnknownProduct(t *testing.T) {
	repo := new(mockInserter)
	s := newTestSubmitter(t, repo, nil, nil)

	sub := autoSubmission()
	sub.Product = "pet"

	_, err := s.Submit(context.Background(), sub)
	require.Error(t, err)
	stdErr := err.(*appErrors.StandardError)
	assert.Equal(t, appErrors.ErrCodeUnknownProduct, stdErr.Code)
	repo.AssertNotCalled(t, "Insert")
}

func TestSubmitter_ValidationFailureStopsPipeline(t *testing.T) {
	repo := new(mockInserter)
	notifier := new(mockNotifier)
	s := newTestSubmitter(t, repo, nil, notifier)

	sub := autoSubmission()
	delete(sub.Values, "email")

	_, err := s.Submit(context.Background(), sub)
	require.Error(t, err)
	fields := appErrors.FieldErrors(err)
	assert.Equal(t, "Campo obrigatório", fields["email"])
	repo.AssertNotCalled(t, "Insert")
	notifier.AssertNotCalled(t, "Send")
}

func TestSubmitter_EmailFailureIsWarningNotError(t *testing.T) {
	repo := new(mockInserter)
	notifier := new(mockNotifier)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(appErrors.NewNotificationSendFailedError(errors.New("ses timeout"))).Once()

	s := newTestSubmitter(t, repo, nil, notifier)
	receipt, err := s.Submit(context.Background(), autoSubmission())

	require.NoError(t, err)
	assert.True(t, receipt.Success)
	require.Len(t, receipt.Warnings, 1)
	assert.Contains(t, receipt.Warnings[0], "e-mail")
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubmitter_InsertFailureIsFatal(t *testing.T) {
	repo := new(mockInserter)
	notifier := new(mockNotifier)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(appErrors.NewDatabaseInsertFailedError("auto_quotes", errors.New("down"))).Once()

	s := newTestSubmitter(t, repo, nil, notifier)
	_, err := s.Submit(context.Background(), autoSubmission())

	require.Error(t, err)
	stdErr := err.(*appErrors.StandardError)
	assert.Equal(t, appErrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	notifier.AssertNotCalled(t, "Send")
}

func TestSubmitter_UploadSuccessAttachesFile(t *testing.T) {
	repo := new(mockInserter)
	uploader := new(mockUploader)
	notifier := new(mockNotifier)

	att := &Attachment{Filename: "apolice.pdf", ContentType: "application/pdf", Data: []byte("pdf")}
	uploader.On("Upload", mock.Anything, ProductAuto, att).Return("auto/uuid-apolice.pdf", nil).Once()
	repo.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(q *Quote) bool {
		return q.AttachmentPath == "auto/uuid-apolice.pdf"
	})).Return(nil).Once()
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, att).Return(nil).Once()

	s := newTestSubmitter(t, repo, uploader, notifier)
	sub := autoSubmission()
	sub.Attachment = att

	receipt, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Empty(t, receipt.Warnings)
	repo.AssertExpectations(t)
	uploader.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubmitter_UploadFailureStillPersistsWithoutFile(t *testing.T) {
	repo := new(mockInserter)
	uploader := new(mockUploader)
	notifier := new(mockNotifier)

	att := &Attachment{Filename: "apolice.pdf", Data: []byte("pdf")}
	uploader.On("Upload", mock.Anything, ProductAuto, att).
		Return("", appErrors.NewAttachmentUploadFailedError(errors.New("bucket down"))).Once()
	repo.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(q *Quote) bool {
		return q.AttachmentPath == ""
	})).Return(nil).Once()
	// The email goes out without the attachment.
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, (*Attachment)(nil)).Return(nil).Once()

	s := newTestSubmitter(t, repo, uploader, notifier)
	sub := autoSubmission()
	sub.Attachment = att

	receipt, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	require.Len(t, receipt.Warnings, 1)
	assert.Contains(t, receipt.Warnings[0], "arquivo")
	repo.AssertExpectations(t)
	uploader.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubmitter_DuplicateTokenRejected(t *testing.T) {
	repo := new(mockInserter)
	notifier := new(mockNotifier)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	guard, _ := newTestGuard(t)
	s := NewSubmitter(
		NewCatalog(testSellers), repo, guard, nil, notifier,
		stubLinker{}, nil, logger.NewTestLogger(t),
	)

	sub := autoSubmission()
	sub.IdempotencyToken = "tok-1"
	_, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)

	retry := autoSubmission()
	retry.IdempotencyToken = "tok-1"
	_, err = s.Submit(context.Background(), retry)
	require.Error(t, err)
	stdErr := err.(*appErrors.StandardError)
	assert.Equal(t, appErrors.ErrCodeDuplicateSubmission, stdErr.Code)
	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestSubmitter_TokenReleasedWhenInsertFails(t *testing.T) {
	repo := new(mockInserter)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(appErrors.NewDatabaseInsertFailedError("auto_quotes", errors.New("down"))).Once()
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	guard, _ := newTestGuard(t)
	s := NewSubmitter(
		NewCatalog(testSellers), repo, guard, nil, nil,
		stubLinker{}, nil, logger.NewTestLogger(t),
	)

	sub := autoSubmission()
	sub.IdempotencyToken = "tok-2"
	_, err := s.Submit(context.Background(), sub)
	require.Error(t, err)

	// The failed attempt released the token, so the retry goes through.
	retry := autoSubmission()
	retry.IdempotencyToken = "tok-2"
	receipt, err := s.Submit(context.Background(), retry)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	repo.AssertNumberOfCalls(t, "Insert", 2)
}
