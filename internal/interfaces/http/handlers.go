package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/application/service"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	documentService service.DocumentService
	summaryService  service.SummaryService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	approvalService service.ApprovalService,
	documentService service.DocumentService,
	summaryService service.SummaryService,
	logger Logger,
) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		documentService: documentService,
		summaryService:  summaryService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ListDocumentsRequest represents query parameters for listing documents
type ListDocumentsRequest struct {
	Kind         string `form:"kind"`
	Status       string `form:"status"`
	Entity       string `form:"entity"`
	Counterparty string `form:"counterparty"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

// ReasonRequest carries the mandatory free-text reason of a command
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// SchedulePaymentRequest carries the payment date, as YYYY-MM-DD
type SchedulePaymentRequest struct {
	PaymentDate string `json:"payment_date" binding:"required"`
}

// ImportRequest selects the document kind to pull from the record store
type ImportRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateDocument handles POST /api/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	var input service.CreateDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), input, actingIdentity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	docs, err := h.documentService.List(c.Request.Context(), port.DocumentFilter{
		Kind:         req.Kind,
		Status:       req.Status,
		Entity:       req.Entity,
		Counterparty: req.Counterparty,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// GetAuditTrail handles GET /api/documents/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	events, err := h.documentService.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

// ClassifyDocument handles GET /api/documents/:id/classify
func (h *Handlers) ClassifyDocument(c *gin.Context) {
	suggestion, err := h.documentService.Suggest(c.Request.Context(), c.Param("id"), c.Query("text"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: suggestion})
}

// SubmitDocument handles POST /api/documents/:id/submit
func (h *Handlers) SubmitDocument(c *gin.Context) {
	doc, err := h.approvalService.Submit(c.Request.Context(), c.Param("id"), actingIdentity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// ValidateDocument handles POST /api/documents/:id/validate
func (h *Handlers) ValidateDocument(c *gin.Context) {
	doc, err := h.approvalService.Validate(c.Request.Context(), c.Param("id"), actingIdentity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// RejectDocument handles POST /api/documents/:id/reject
func (h *Handlers) RejectDocument(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	doc, err := h.approvalService.Reject(c.Request.Context(), c.Param("id"), actingIdentity(c), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// SchedulePayment handles POST /api/documents/:id/payment
func (h *Handlers) SchedulePayment(c *gin.Context) {
	var req SchedulePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "payment_date is required"})
		return
	}
	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "payment_date must be YYYY-MM-DD"})
		return
	}

	doc, err := h.approvalService.SchedulePayment(c.Request.Context(), c.Param("id"), actingIdentity(c), paymentDate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// MarkPaid handles POST /api/documents/:id/paid
func (h *Handlers) MarkPaid(c *gin.Context) {
	doc, err := h.approvalService.MarkPaid(c.Request.Context(), c.Param("id"), actingIdentity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// DisputeDocument handles POST /api/documents/:id/dispute
func (h *Handlers) DisputeDocument(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	doc, err := h.approvalService.Dispute(c.Request.Context(), c.Param("id"), actingIdentity(c), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// ImportDocuments handles POST /api/import
func (h *Handlers) ImportDocuments(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "kind is required"})
		return
	}
	if req.Kind != entity.KindSupplierInvoice && req.Kind != entity.KindExpenseReport {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown document kind"})
		return
	}

	result, err := h.documentService.Import(c.Request.Context(), req.Kind, actingIdentity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetSummary handles GET /api/summary
func (h *Handlers) GetSummary(c *gin.Context) {
	today := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "date must be YYYY-MM-DD"})
			return
		}
		today = parsed
	}

	summary, err := h.summaryService.Summarize(c.Request.Context(), today)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// writeError maps engine errors onto HTTP statuses.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrMalformedInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientPermission):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrAlreadyFinalized),
		errors.Is(err, service.ErrDuplicateDetected),
		errors.Is(err, port.ErrRevisionConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrIngestionUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err.Error())
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
