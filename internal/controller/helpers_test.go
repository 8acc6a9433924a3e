package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      any
		expectedBody string
	}{
		{
			name:         "simple map",
			status:       http.StatusOK,
			payload:      map[string]string{"message": "hello"},
			expectedBody: `{"message":"hello"}`,
		},
		{
			name:         "error response",
			status:       http.StatusBadRequest,
			payload:      ErrorResponse{Error: "bad request", Code: "invalid_input"},
			expectedBody: `{"error":"bad request","code":"invalid_input"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.status, tt.payload)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWriteError_ValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewValidationError("amount", "must be greater than zero")

	writeError(w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "validation_error", response.Code)
	assert.Contains(t, response.Error, "amount")
}

func TestWriteError_DomainErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "payment not found",
			err:            domainErrors.ErrPaymentNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name:           "operation in progress",
			err:            domainErrors.ErrOperationInProgress,
			expectedStatus: http.StatusConflict,
			expectedCode:   "operation_in_progress",
		},
		{
			name:           "duplicate idempotency key",
			err:            domainErrors.ErrDuplicateIdempotencyKey,
			expectedStatus: http.StatusConflict,
			expectedCode:   "duplicate_request",
		},
		{
			name:           "invalid state transition",
			err:            domainErrors.ErrInvalidStateTransition,
			expectedStatus: http.StatusConflict,
			expectedCode:   "invalid_state_transition",
		},
		{
			name:           "gateway not configured",
			err:            domainErrors.ErrGatewayNotFound,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "gateway_not_configured",
		},
		{
			name:           "gateway unavailable",
			err:            domainErrors.ErrGatewayUnavailable,
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "gateway_unavailable",
		},
		{
			name:           "wrapped sentinel",
			err:            fmt.Errorf("dedup lookup: %w", domainErrors.ErrPaymentNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name: "domain error carries its own code",
			err: domainErrors.NewDomainError(
				"gateway_exhausted",
				"gateway stripe failed after 3 attempts",
				nil,
			),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "gateway_exhausted",
		},
		{
			name: "domain error wrapping a mapped sentinel uses the mapping",
			err: domainErrors.NewDomainError(
				"idempotency_conflict",
				"request already being processed",
				domainErrors.ErrOperationInProgress,
			),
			expectedStatus: http.StatusConflict,
			expectedCode:   "operation_in_progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedCode, response.Code)
		})
	}
}

func TestWriteError_UnknownError_Masked(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, fmt.Errorf("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "internal_error", response.Code)
	assert.NotContains(t, response.Error, "pq:")
}

func TestDecodeAndValidate(t *testing.T) {
	valid := `{"user_id":"user-1","order_id":"order-1","amount":25.5,"currency":"USD","gateway":"stripe"}`

	var req ProcessPaymentRequest
	r := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBufferString(valid))
	require.NoError(t, decodeAndValidate(r, &req))
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, 25.5, req.Amount)
}

func TestDecodeAndValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"user_id":`},
		{"missing user", `{"order_id":"o","amount":1,"currency":"USD","gateway":"stripe"}`},
		{"zero amount", `{"user_id":"u","order_id":"o","amount":0,"currency":"USD","gateway":"stripe"}`},
		{"negative amount", `{"user_id":"u","order_id":"o","amount":-5,"currency":"USD","gateway":"stripe"}`},
		{"bad currency", `{"user_id":"u","order_id":"o","amount":1,"currency":"US","gateway":"stripe"}`},
		{"unknown gateway", `{"user_id":"u","order_id":"o","amount":1,"currency":"USD","gateway":"square"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ProcessPaymentRequest
			r := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(tt.body))
			err := decodeAndValidate(r, &req)
			assert.Error(t, err)

			var ve *domainErrors.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestFloatToCents(t *testing.T) {
	tests := []struct {
		input    float64
		expected int64
	}{
		{25.50, 2550},
		{0.01, 1},
		{100, 10000},
		{19.99, 1999},
		{0.1 + 0.2, 30}, // float noise must round away
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, floatToCents(tt.input), "input %v", tt.input)
	}
}
