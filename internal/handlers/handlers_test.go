// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mishragini/metaverse/internal/auth"
	"github.com/Mishragini/metaverse/internal/models"
)

func testDiscardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// These tests cover the request validation paths that never reach the
// database; the full flows against Postgres live in the database package's
// integration environment.

func TestSignupRejectsBadPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/signup", bytes.NewBufferString(`{not json`))
	w := httptest.NewRecorder()
	SignupHandler(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest("POST", "/api/v1/signup", bytes.NewBufferString(`{"email":"","password":""}`))
	w = httptest.NewRecorder()
	SignupHandler(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpaceHandlersRequireAuth(t *testing.T) {
	auth.Init()
	logger := testDiscardLogger()

	endpoints := []struct {
		name string
		h    http.HandlerFunc
		req  *http.Request
	}{
		{"create space", CreateSpaceHandler(logger), httptest.NewRequest("POST", "/api/v1/space", bytes.NewBufferString(`{}`))},
		{"list spaces", ListSpacesHandler(logger), httptest.NewRequest("GET", "/api/v1/space/all", nil)},
		{"add element", AddSpaceElementHandler(logger), httptest.NewRequest("POST", "/api/v1/space/element", bytes.NewBufferString(`{}`))},
		{"update metadata", UpdateMetadataHandler(logger), httptest.NewRequest("POST", "/api/v1/user/metadata", bytes.NewBufferString(`{}`))},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ep.h.ServeHTTP(w, ep.req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAdminHandlersRejectPlainUsers(t *testing.T) {
	auth.Init()
	logger := testDiscardLogger()
	token, err := auth.CreateJWT(uuid.NewString(), models.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/admin/element", bytes.NewBufferString(`{"imageUrl":"x","width":1,"height":1}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	CreateElementHandler(logger).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSpaceValidatesDimensions(t *testing.T) {
	auth.Init()
	logger := testDiscardLogger()
	token, err := auth.CreateJWT(uuid.NewString(), models.RoleUser)
	require.NoError(t, err)

	body := `{"name":"office","dimensions":"not-dims"}`
	req := httptest.NewRequest("POST", "/api/v1/space", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	CreateSpaceHandler(logger).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
