package predictapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

func catFile() *entity.SelectedFile {
	return &entity.SelectedFile{Name: "cat.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}
}

func TestClient_Predict_Request(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File, 1, "exactly one part")

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)

		assert.Equal(t, "cat.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("jpeg-bytes"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"prediction":"cat","confidence":0.9123}`)
	}))
	t.Cleanup(srv.Close)

	// 末尾のスラッシュは取り除かれる
	c := NewClient(Config{BaseURL: srv.URL + "/"}, srv.Client())

	got, err := c.Predict(context.Background(), catFile())

	require.NoError(t, err)
	assert.Equal(t, entity.Prediction{Label: "cat", Confidence: 0.9123}, got)
}

func TestClient_Predict_Responses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		body          string
		expected      entity.Prediction
		expectMalform bool
		expectStatus  *StatusError
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"prediction":"Dog","confidence":0.8345}`,
			expected: entity.Prediction{Label: "Dog", Confidence: 0.8345},
		},
		{
			name:     "boundary confidence 0",
			status:   http.StatusOK,
			body:     `{"prediction":"Cat","confidence":0}`,
			expected: entity.Prediction{Label: "Cat", Confidence: 0},
		},
		{
			name:     "boundary confidence 1",
			status:   http.StatusOK,
			body:     `{"prediction":"Dog","confidence":1}`,
			expected: entity.Prediction{Label: "Dog", Confidence: 1},
		},
		{
			name:          "non json body",
			status:        http.StatusOK,
			body:          `<html>oops</html>`,
			expectMalform: true,
		},
		{
			name:          "missing prediction",
			status:        http.StatusOK,
			body:          `{"confidence":0.5}`,
			expectMalform: true,
		},
		{
			name:          "missing confidence",
			status:        http.StatusOK,
			body:          `{"prediction":"Dog"}`,
			expectMalform: true,
		},
		{
			name:          "confidence out of range",
			status:        http.StatusOK,
			body:          `{"prediction":"Dog","confidence":1.5}`,
			expectMalform: true,
		},
		{
			name:          "wrong field type",
			status:        http.StatusOK,
			body:          `{"prediction":1,"confidence":0.5}`,
			expectMalform: true,
		},
		{
			name:         "bad request with error body",
			status:       http.StatusBadRequest,
			body:         `{"error":"No file uploaded"}`,
			expectStatus: &StatusError{StatusCode: http.StatusBadRequest, Message: "No file uploaded"},
		},
		{
			name:         "server error with html body",
			status:       http.StatusInternalServerError,
			body:         `<h1>Internal Server Error</h1>`,
			expectStatus: &StatusError{StatusCode: http.StatusInternalServerError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			c := NewClient(Config{BaseURL: srv.URL}, srv.Client())
			got, err := c.Predict(context.Background(), catFile())

			switch {
			case tt.expectMalform:
				assert.ErrorIs(t, err, ErrMalformedResponse)
				assert.Equal(t, "The prediction service returned an unexpected response.", usecase.FailureMessage(err))
				assert.Equal(t, entity.Prediction{}, got)
			case tt.expectStatus != nil:
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.expectStatus, se)
				assert.Equal(t, entity.Prediction{}, got)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestClient_Predict_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, &http.Client{Timeout: time.Second})
	_, err := c.Predict(context.Background(), catFile())

	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

func TestClient_Predict_ContextCancelled(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	_, err := c.Predict(ctx, catFile())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfig_Endpoint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://localhost:10000/predict", Config{}.endpoint())
	assert.Equal(t, "https://api.example.com/predict", Config{BaseURL: "https://api.example.com/"}.endpoint())
	assert.Equal(t, "https://api.example.com/v2/predict", Config{BaseURL: " https://api.example.com/v2 "}.endpoint())
}

func TestStatusError_UserMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "The prediction service is unavailable (HTTP 503).",
		(&StatusError{StatusCode: 503}).UserMessage())
	assert.Equal(t, "The prediction service rejected the image: No file uploaded",
		(&StatusError{StatusCode: 400, Message: "No file uploaded"}).UserMessage())
	assert.Equal(t, "The prediction service rejected the image (HTTP 415).",
		(&StatusError{StatusCode: 415}).UserMessage())
}
