package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"classifier_web/internal/api"
	"classifier_web/internal/feature/predict/usecase"
)

// APIHandler は推論のJSON APIを処理します。
type APIHandler struct {
	page *PageHandler
}

// NewAPIHandler はAPIHandlerの新しいインスタンスを生成します。
// アップロードの読み込みは PageHandler と共有します。
func NewAPIHandler(page *PageHandler) *APIHandler {
	return &APIHandler{page: page}
}

// Predict は画像をアップロードして単発の推論を行います。ビューの状態は変更しません。
//
// エンドポイント: POST /v1/predict
// Content-Type: multipart/form-data
// フィールド: file（画像ファイル）
func (h *APIHandler) Predict(c *gin.Context) {
	file, err := h.page.readFile(c)
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "image is too large"})
			return
		}
		slog.Error("failed to read upload", "error", err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "failed to read image"})
		return
	}

	result, err := h.page.uc.Predict(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, usecase.ErrNoImageSelected) {
			slog.Warn("prediction request without image", "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "image file is required"})
			return
		}
		slog.Error("prediction failed", "file", file.Name, "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: usecase.FailureMessage(err)})
		return
	}

	c.JSON(http.StatusOK, api.PredictionResponse{
		Prediction:        result.Label,
		Confidence:        result.Confidence,
		ConfidencePercent: usecase.FormatConfidence(result.Confidence),
	})
}
