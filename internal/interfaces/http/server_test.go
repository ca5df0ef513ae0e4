package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/application/service"
	"github.com/hypervisual/finance-workflow/internal/classify"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// Mock services

type mockApprovalService struct {
	submitFunc   func(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error)
	validateFunc func(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error)
}

func (m *mockApprovalService) Submit(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, id, actor)
	}
	return &entity.FinancialDocument{ID: id, Status: entity.StatusPendingValidation}, nil
}

func (m *mockApprovalService) Validate(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error) {
	if m.validateFunc != nil {
		return m.validateFunc(ctx, id, actor)
	}
	return &entity.FinancialDocument{ID: id, Status: entity.StatusValidated}, nil
}

func (m *mockApprovalService) Reject(ctx context.Context, id string, actor entity.Identity, reason string) (*entity.FinancialDocument, error) {
	return &entity.FinancialDocument{ID: id, Status: entity.StatusRejected}, nil
}

func (m *mockApprovalService) SchedulePayment(ctx context.Context, id string, actor entity.Identity, paymentDate time.Time) (*entity.FinancialDocument, error) {
	return &entity.FinancialDocument{ID: id, Status: entity.StatusValidated, PaymentStatus: entity.PaymentScheduled}, nil
}

func (m *mockApprovalService) MarkPaid(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error) {
	return &entity.FinancialDocument{ID: id, Status: entity.StatusPaid}, nil
}

func (m *mockApprovalService) Dispute(ctx context.Context, id string, actor entity.Identity, reason string) (*entity.FinancialDocument, error) {
	return &entity.FinancialDocument{ID: id, Status: entity.StatusDispute, DisputeReason: reason}, nil
}

type mockDocumentService struct {
	getFunc    func(ctx context.Context, id string) (*entity.FinancialDocument, error)
	importFunc func(ctx context.Context, kind string, actor entity.Identity) (*service.ImportResult, error)
}

func (m *mockDocumentService) Create(ctx context.Context, input service.CreateDocumentInput, actor entity.Identity) (*entity.FinancialDocument, error) {
	return &entity.FinancialDocument{ID: "new-doc", Kind: input.Kind, Status: entity.StatusDraft}, nil
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*entity.FinancialDocument, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &entity.FinancialDocument{ID: id, Status: entity.StatusDraft}, nil
}

func (m *mockDocumentService) List(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error) {
	return []*entity.FinancialDocument{}, nil
}

func (m *mockDocumentService) AuditTrail(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	return []*entity.AuditEvent{}, nil
}

func (m *mockDocumentService) Import(ctx context.Context, kind string, actor entity.Identity) (*service.ImportResult, error) {
	if m.importFunc != nil {
		return m.importFunc(ctx, kind, actor)
	}
	return &service.ImportResult{Imported: 2}, nil
}

func (m *mockDocumentService) Suggest(ctx context.Context, id string, freeText string) (*classify.Suggestion, error) {
	return &classify.Suggestion{Category: "Transport"}, nil
}

type mockSummaryService struct{}

func (m *mockSummaryService) Summarize(ctx context.Context, today time.Time) (*service.Summary, error) {
	return &service.Summary{}, nil
}

type testLogger struct{}

func (l *testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *testLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(approval service.ApprovalService, documents service.DocumentService) (*Server, *TokenManager) {
	tokens := NewTokenManager("test-secret", time.Hour)
	server := NewServer(DefaultServerConfig(), approval, documents, &mockSummaryService{}, tokens, &testLogger{})
	return server, tokens
}

func bearerFor(t *testing.T, tokens *TokenManager, identity entity.Identity) string {
	t.Helper()
	token, err := tokens.IssueToken(identity)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return "Bearer " + token
}

func TestServer_HealthIsPublic(t *testing.T) {
	server, _ := newTestServer(&mockApprovalService{}, &mockDocumentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", w.Code)
	}
}

func TestServer_RequiresToken(t *testing.T) {
	server, _ := newTestServer(&mockApprovalService{}, &mockDocumentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request status = %d, want 401", w.Code)
	}
}

func TestServer_RejectsBadToken(t *testing.T) {
	server, _ := newTestServer(&mockApprovalService{}, &mockDocumentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
}

func TestServer_IdentityReachesService(t *testing.T) {
	var gotActor entity.Identity
	approval := &mockApprovalService{
		validateFunc: func(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error) {
			gotActor = actor
			return &entity.FinancialDocument{ID: id, Status: entity.StatusValidated}, nil
		},
	}
	server, tokens := newTestServer(approval, &mockDocumentService{})

	identity := entity.Identity{ID: "marie", Role: entity.RoleFinanceManager, Permissions: []string{entity.PermissionFinanceValidate}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/validate", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens, identity))
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if gotActor.ID != "marie" || !gotActor.HasPermission(entity.PermissionFinanceValidate) {
		t.Errorf("service saw actor %+v, want marie with finance.validate", gotActor)
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"permission denied", service.ErrInsufficientPermission, http.StatusForbidden},
		{"not found", service.ErrDocumentNotFound, http.StatusNotFound},
		{"invalid state", service.ErrInvalidState, http.StatusConflict},
		{"already finalized", service.ErrAlreadyFinalized, http.StatusConflict},
		{"revision conflict", port.ErrRevisionConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approval := &mockApprovalService{
				validateFunc: func(ctx context.Context, id string, actor entity.Identity) (*entity.FinancialDocument, error) {
					return nil, tt.err
				},
			}
			server, tokens := newTestServer(approval, &mockDocumentService{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/validate", nil)
			req.Header.Set("Authorization", bearerFor(t, tokens, entity.Identity{ID: "u1"}))
			server.Router().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_ImportSourceDown(t *testing.T) {
	documents := &mockDocumentService{
		importFunc: func(ctx context.Context, kind string, actor entity.Identity) (*service.ImportResult, error) {
			return nil, service.ErrIngestionUnavailable
		},
	}
	server, tokens := newTestServer(&mockApprovalService{}, documents)

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"kind": "supplier_invoice"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, tokens, entity.Identity{ID: "admin", Role: entity.RoleSuperadmin}))
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("import with source down status = %d, want 502", w.Code)
	}
}

func TestServer_CreateDocument(t *testing.T) {
	server, tokens := newTestServer(&mockApprovalService{}, &mockDocumentService{})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"kind": "supplier_invoice", "amounts": {"net_amount": 1000, "currency": "CHF"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, tokens, entity.Identity{ID: "u1"}))
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("create status = %d, want 201, body %s", w.Code, w.Body.String())
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	identity := entity.Identity{ID: "u1", Name: "User One", Role: entity.RoleEmployee, Permissions: []string{"finance.validate"}}

	signed, err := tokens.IssueToken(identity)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	parsed, err := tokens.ParseToken(signed)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if parsed.ID != identity.ID || parsed.Role != identity.Role || len(parsed.Permissions) != 1 {
		t.Errorf("ParseToken() = %+v, want %+v", parsed, identity)
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tokens := NewTokenManager("secret", -time.Minute)
	signed, err := tokens.IssueToken(entity.Identity{ID: "u1"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := tokens.ParseToken(signed); err == nil {
		t.Errorf("ParseToken() accepted an expired token")
	}
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	signed, err := issuer.IssueToken(entity.Identity{ID: "u1"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := verifier.ParseToken(signed); err == nil {
		t.Errorf("ParseToken() accepted a token signed with another secret")
	}
}
