package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	"github.com/kbalijepalli/dreas/internal/security/http/dto"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
	"github.com/kbalijepalli/dreas/internal/security/usecase/mocks"
)

const testToken = "test-token"

// testLogger returns a discarding logger for handler tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestContext builds a gin test context carrying the bearer token and
// an optional JSON body.
func createTestContext(
	method, target string,
	body interface{},
	token string,
) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)

	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req = req.WithContext(WithToken(req.Context(), token))
	}
	c.Request = req

	return c, w
}

func TestSecurityHandler_ProtectHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		plaintext := []byte("order payload")
		request := dto.ProtectRequest{
			Value:     base64.StdEncoding.EncodeToString(plaintext),
			PolicyTag: "orders/2026",
		}

		output := &securityUseCase.ProtectOutput{
			Envelope:    []byte{0x00, 0x01, 0xaa},
			Ref:         "abcd1234",
			KeyHandleID: "primary",
		}

		mockUseCase.On("Protect", mock.Anything, testToken, plaintext, "orders/2026").
			Return(output, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/protect", request, testToken)
		handler.ProtectHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.ProtectResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(output.Envelope), response.Envelope)
		assert.Equal(t, "abcd1234", response.Ref)
		assert.Equal(t, "primary", response.KeyHandleID)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_MissingToken", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		request := dto.ProtectRequest{
			Value:     base64.StdEncoding.EncodeToString([]byte("x")),
			PolicyTag: "orders/2026",
		}

		c, w := createTestContext(http.MethodPost, "/v1/protect", request, "")
		handler.ProtectHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "Protect")
	})

	t.Run("Error_InvalidBase64Value", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		request := dto.ProtectRequest{
			Value:     "not-valid-base64!@#$%",
			PolicyTag: "orders/2026",
		}

		c, w := createTestContext(http.MethodPost, "/v1/protect", request, testToken)
		handler.ProtectHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Protect")
	})

	t.Run("Error_InvalidPolicyTag", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		request := dto.ProtectRequest{
			Value:     base64.StdEncoding.EncodeToString([]byte("x")),
			PolicyTag: "orders/*",
		}

		c, w := createTestContext(http.MethodPost, "/v1/protect", request, testToken)
		handler.ProtectHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Protect")
	})

	t.Run("Error_Forbidden", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		plaintext := []byte("order payload")
		request := dto.ProtectRequest{
			Value:     base64.StdEncoding.EncodeToString(plaintext),
			PolicyTag: "orders/2026",
		}

		mockUseCase.On("Protect", mock.Anything, testToken, plaintext, "orders/2026").
			Return(nil, apperrors.ErrForbidden).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/protect", request, testToken)
		handler.ProtectHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestSecurityHandler_RevealHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		envelope := []byte{0x00, 0x01, 0xbb}
		plaintext := []byte("order payload")
		request := dto.RevealRequest{
			Envelope: base64.StdEncoding.EncodeToString(envelope),
		}

		mockUseCase.On("Reveal", mock.Anything, testToken, envelope).
			Return(plaintext, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/reveal", request, testToken)
		handler.RevealHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.RevealResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)

		decoded, err := base64.StdEncoding.DecodeString(response.Value)
		assert.NoError(t, err)
		assert.Equal(t, "order payload", string(decoded))
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidBase64Envelope", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		request := dto.RevealRequest{
			Envelope: "###",
		}

		c, w := createTestContext(http.MethodPost, "/v1/reveal", request, testToken)
		handler.RevealHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Reveal")
	})

	t.Run("Error_Unauthorized", func(t *testing.T) {
		mockUseCase := &mocks.MockSecurityUseCase{}
		handler := NewSecurityHandler(mockUseCase, testLogger())

		envelope := []byte{0x00, 0x01}
		request := dto.RevealRequest{
			Envelope: base64.StdEncoding.EncodeToString(envelope),
		}

		mockUseCase.On("Reveal", mock.Anything, testToken, envelope).
			Return(nil, apperrors.ErrUnauthorized).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/reveal", request, testToken)
		handler.RevealHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}
