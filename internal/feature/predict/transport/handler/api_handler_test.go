package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classifier_web/internal/api"
	"classifier_web/internal/feature/predict/adapters/predictapi"
	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

func TestAPIHandler_Predict(t *testing.T) {
	tests := []struct {
		name           string
		request        func(t *testing.T) *http.Request
		maxUpload      int64
		predictFunc    func(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error)
		expectedStatus int
		expectedBody   any
	}{
		{
			name: "success",
			request: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/predict", "file", "cat.jpg", []byte("\xff\xd8\xff\xe0jpeg"))
			},
			predictFunc: func(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
				if file == nil || file.Name != "cat.jpg" {
					return entity.Prediction{}, usecase.ErrNoImageSelected
				}
				return entity.Prediction{Label: "Cat", Confidence: 0.8345}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: api.PredictionResponse{
				Prediction: "Cat", Confidence: 0.8345, ConfidencePercent: "83.45",
			},
		},
		{
			name: "error: no file",
			request: func(t *testing.T) *http.Request {
				req, err := http.NewRequest(http.MethodPost, "/v1/predict", bytes.NewReader(nil))
				require.NoError(t, err)
				return req
			},
			predictFunc: func(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
				assert.Nil(t, file)
				return entity.Prediction{}, usecase.ErrNoImageSelected
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   api.ErrorResponse{Error: "image file is required"},
		},
		{
			name: "error: upstream rejected",
			request: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/predict", "file", "cat.jpg", []byte("data"))
			},
			predictFunc: func(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
				return entity.Prediction{}, &predictapi.StatusError{StatusCode: http.StatusServiceUnavailable}
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   api.ErrorResponse{Error: "The prediction service is unavailable (HTTP 503)."},
		},
		{
			name: "error: too large",
			request: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/predict", "file", "big.jpg", bytes.Repeat([]byte{1}, 32))
			},
			maxUpload: 4,
			predictFunc: func(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
				t.Fatal("predict must not be called")
				return entity.Prediction{}, nil
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   api.ErrorResponse{Error: "image is too large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxUpload := tt.maxUpload
			if maxUpload == 0 {
				maxUpload = 10 << 20
			}
			uc := &mockViewUsecase{PredictFunc: tt.predictFunc}
			r := newRouter(t, uc, maxUpload)

			w := serve(r, tt.request(t))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			want, err := json.Marshal(tt.expectedBody)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), w.Body.String())
		})
	}
}
