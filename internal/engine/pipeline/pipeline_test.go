package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"leadflow/internal/engine/crm"
	"leadflow/internal/engine/extract"
	"leadflow/internal/engine/notify"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/models"
)

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) Extract(ctx context.Context, text string) (*extract.Contact, error) {
	args := m.Called(ctx, text)
	if c := args.Get(0); c != nil {
		return c.(*extract.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCRM struct{ mock.Mock }

func (m *mockCRM) Create(ctx context.Context, accessToken string, contact *extract.Contact) (*crm.Result, error) {
	args := m.Called(ctx, accessToken, contact)
	if r := args.Get(0); r != nil {
		return r.(*crm.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) EnsureValid(ctx context.Context, userID, provider string) (string, error) {
	args := m.Called(ctx, userID, provider)
	return args.String(0), args.Error(1)
}

type mockStatusLog struct{ mock.Mock }

func (m *mockStatusLog) Create(entry *models.CRMStatusLog) error {
	args := m.Called(entry)
	return args.Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(outcome notify.Outcome) {
	m.Called(outcome)
}

func testLead() *models.LeadLog {
	return &models.LeadLog{
		ID:     "lead_1",
		UserID: "usr_1",
		Text:   "John Doe|Acme|john@acme.com|555-1234",
	}
}

func testContact() *extract.Contact {
	return &extract.Contact{FirstName: "John", LastName: "Doe", Company: "Acme"}
}

func TestPipeline_Run_Success(t *testing.T) {
	extractor := new(mockExtractor)
	crmClient := new(mockCRM)
	tokens := new(mockTokens)
	statusLog := new(mockStatusLog)
	notifier := new(mockNotifier)

	lead := testLead()
	contact := testContact()

	extractor.On("Extract", mock.Anything, lead.Text).Return(contact, nil).Once()
	tokens.On("EnsureValid", mock.Anything, "usr_1", "zoho").Return("tok", nil).Once()
	crmClient.On("Create", mock.Anything, "tok", contact).
		Return(&crm.Result{ID: "zoho-42", Status: "SUCCESS"}, nil).Once()
	statusLog.On("Create", mock.MatchedBy(func(e *models.CRMStatusLog) bool {
		return e.Status == models.CRMStatusSuccess && e.LeadLogID == "lead_1"
	})).Return(nil).Once()
	notifier.On("Notify", mock.MatchedBy(func(o notify.Outcome) bool {
		return o.Success && o.CRMID == "zoho-42" && o.UserID == "usr_1"
	})).Once()

	p := New(extractor, crmClient, tokens, statusLog, notifier, 3, 0)

	err := p.Run(context.Background(), lead)
	assert.NoError(t, err)

	extractor.AssertExpectations(t)
	tokens.AssertExpectations(t)
	crmClient.AssertExpectations(t)
	statusLog.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPipeline_Run_CRMFailureLogsFailure(t *testing.T) {
	extractor := new(mockExtractor)
	crmClient := new(mockCRM)
	tokens := new(mockTokens)
	statusLog := new(mockStatusLog)
	notifier := new(mockNotifier)

	lead := testLead()
	upstream := errors.New(errors.KindUpstream, "CRM rejected record")

	extractor.On("Extract", mock.Anything, mock.Anything).Return(testContact(), nil)
	tokens.On("EnsureValid", mock.Anything, "usr_1", "zoho").Return("tok", nil)
	crmClient.On("Create", mock.Anything, "tok", mock.Anything).Return(nil, upstream).Times(3)
	statusLog.On("Create", mock.MatchedBy(func(e *models.CRMStatusLog) bool {
		return e.Status == models.CRMStatusFailure
	})).Return(nil).Once()
	notifier.On("Notify", mock.MatchedBy(func(o notify.Outcome) bool {
		return !o.Success
	})).Once()

	p := New(extractor, crmClient, tokens, statusLog, notifier, 3, 0)

	err := p.Run(context.Background(), lead)
	assert.ErrorIs(t, err, upstream)

	crmClient.AssertExpectations(t)
	statusLog.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPipeline_Run_RetriesUpstreamThenSucceeds(t *testing.T) {
	extractor := new(mockExtractor)
	crmClient := new(mockCRM)
	tokens := new(mockTokens)
	statusLog := new(mockStatusLog)
	notifier := new(mockNotifier)

	lead := testLead()
	contact := testContact()
	upstream := errors.New(errors.KindUpstream, "transient")

	extractor.On("Extract", mock.Anything, mock.Anything).Return(contact, nil)
	tokens.On("EnsureValid", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	crmClient.On("Create", mock.Anything, "tok", contact).Return(nil, upstream).Twice()
	crmClient.On("Create", mock.Anything, "tok", contact).
		Return(&crm.Result{ID: "zoho-7", Status: "SUCCESS"}, nil).Once()
	statusLog.On("Create", mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything)

	p := New(extractor, crmClient, tokens, statusLog, notifier, 3, 0)

	err := p.Run(context.Background(), lead)
	assert.NoError(t, err)

	crmClient.AssertNumberOfCalls(t, "Create", 3)
	statusLog.AssertNumberOfCalls(t, "Create", 1)
}

func TestPipeline_Run_ValidationFailureDoesNotReachCRM(t *testing.T) {
	extractor := new(mockExtractor)
	crmClient := new(mockCRM)
	tokens := new(mockTokens)
	statusLog := new(mockStatusLog)
	notifier := new(mockNotifier)

	lead := testLead()
	invalid := errors.New(errors.KindValidation, "no usable contact fields")

	extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, invalid).Once()
	statusLog.On("Create", mock.MatchedBy(func(e *models.CRMStatusLog) bool {
		return e.Status == models.CRMStatusFailure
	})).Return(nil).Once()
	notifier.On("Notify", mock.Anything).Once()

	p := New(extractor, crmClient, tokens, statusLog, notifier, 3, 0)

	err := p.Run(context.Background(), lead)
	assert.ErrorIs(t, err, invalid)

	// Deterministic failures do not retry and never reach the CRM.
	extractor.AssertNumberOfCalls(t, "Extract", 1)
	crmClient.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "EnsureValid", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Run_StatusLogFailureSuppressesNotification(t *testing.T) {
	extractor := new(mockExtractor)
	crmClient := new(mockCRM)
	tokens := new(mockTokens)
	statusLog := new(mockStatusLog)
	notifier := new(mockNotifier)

	lead := testLead()
	contact := testContact()

	extractor.On("Extract", mock.Anything, mock.Anything).Return(contact, nil)
	tokens.On("EnsureValid", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	crmClient.On("Create", mock.Anything, "tok", contact).
		Return(&crm.Result{ID: "zoho-9", Status: "SUCCESS"}, nil)
	statusLog.On("Create", mock.Anything).Return(errors.New(errors.KindPersistence, "disk full"))

	p := New(extractor, crmClient, tokens, statusLog, notifier, 1, 0)

	err := p.Run(context.Background(), lead)
	assert.NoError(t, err)

	notifier.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, 3, time.Minute, func() error {
		calls++
		return errors.New(errors.KindUpstream, "flaky")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
