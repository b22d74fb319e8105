package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
	"github.com/sbilibin2017/gw-user-auth/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockLoginer(ctrl)

	tests := []struct {
		name         string
		inputBody    interface{}
		mockSetup    func()
		expectedCode int
		expectedBody interface{}
	}{
		{
			name: "success",
			inputBody: models.LoginRequest{
				Email:    "john@example.com",
				Password: "pass123",
			},
			mockSetup: func() {
				mockSvc.EXPECT().
					Login(gomock.Any(), "john@example.com", "pass123").
					Return(&models.AuthResult{Token: "JWT_TOKEN", Username: "john"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &models.TokenResponse{
				AccessToken: "JWT_TOKEN",
				TokenType:   "bearer",
				Username:    "john",
			},
		},
		{
			name:         "invalid JSON",
			inputBody:    "{invalid json}",
			mockSetup:    func() {},
			expectedCode: http.StatusBadRequest,
			expectedBody: &models.ErrorResponse{
				Detail: "Invalid request body",
			},
		},
		{
			name: "wrong credentials",
			inputBody: models.LoginRequest{
				Email:    "wrong@example.com",
				Password: "wrongpass",
			},
			mockSetup: func() {
				mockSvc.EXPECT().
					Login(gomock.Any(), "wrong@example.com", "wrongpass").
					Return(nil, services.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: &models.ErrorResponse{
				Detail: "Invalid credentials",
			},
		},
		{
			name: "malformed email",
			inputBody: models.LoginRequest{
				Email:    "john",
				Password: "pass123",
			},
			mockSetup: func() {
				mockSvc.EXPECT().
					Login(gomock.Any(), "john", "pass123").
					Return(nil, &services.ValidationError{Field: "email", Reason: "value is not a valid email address"})
			},
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: &models.ErrorResponse{
				Detail: "email: value is not a valid email address",
			},
		},
		{
			name: "internal error",
			inputBody: models.LoginRequest{
				Email:    "john@example.com",
				Password: "pass123",
			},
			mockSetup: func() {
				mockSvc.EXPECT().
					Login(gomock.Any(), "john@example.com", "pass123").
					Return(nil, errors.New("some internal error"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: &models.ErrorResponse{
				Detail: "Internal server error",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			var bodyBytes []byte
			switch v := tt.inputBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, _ = json.Marshal(v)
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(bodyBytes))
			w := httptest.NewRecorder()

			handler := NewLoginHandler(mockSvc)
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)

			switch expected := tt.expectedBody.(type) {
			case *models.TokenResponse:
				var resp models.TokenResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, *expected, resp)
			case *models.ErrorResponse:
				var resp models.ErrorResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, *expected, resp)
			}
		})
	}
}
