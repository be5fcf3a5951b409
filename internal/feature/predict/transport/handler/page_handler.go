// Package handler はpredictフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

const (
	// FileField はアップロードフォームのファイルフィールド名です。
	FileField = "file"
	// multipartOverhead はマルチパートの境界やヘッダー分の許容量です。
	multipartOverhead = 1 << 20

	expiredMessage  = "Your page expired, so a new one was started. Please select the image again."
	tooLargeMessage = "The image is too large."
	internalMessage = "Something went wrong. Please reload the page."
)

// errUploadTooLarge はアップロードが上限を超えた場合のエラーです。
var errUploadTooLarge = errors.New("upload too large")

// previewTypes は配信を許可するプレビューのContent-Typeです。
// プレビューは再エンコードしたサムネイルのみで、アップロードされたバイト列は配信しない。
var previewTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ViewUsecase はアップロード・推論画面のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ViewUsecase interface {
	Open(ctx context.Context) (*entity.View, error)
	Get(ctx context.Context, viewID string) (*entity.View, error)
	SelectFile(ctx context.Context, viewID string, file *entity.SelectedFile) (*entity.View, error)
	Submit(ctx context.Context, viewID string) (*entity.View, error)
	ToggleInfoModal(ctx context.Context, viewID string, visible bool) (*entity.View, error)
	Close(ctx context.Context, viewID string) error
	Preview(ctx context.Context, previewID string) (*entity.Preview, error)
	Predict(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error)
}

// PageHandler はアップロード画面のHTTPリクエストを処理します。
type PageHandler struct {
	uc        ViewUsecase
	info      entity.ModelInfo
	maxUpload int64
}

// NewPageHandler はPageHandlerの新しいインスタンスを生成します。
func NewPageHandler(uc ViewUsecase, info entity.ModelInfo, maxUpload int64) *PageHandler {
	return &PageHandler{uc: uc, info: info, maxUpload: maxUpload}
}

// PreviewURL はプレビューIDから画像URLを組み立てます。
func PreviewURL(id string) string {
	return "/previews/" + id
}

// Index は新しいビューを生成して画面を表示します。リロードのたびに状態は初期化されます。
//
// エンドポイント: GET /
func (h *PageHandler) Index(c *gin.Context) {
	v, err := h.uc.Open(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to open view", err)
		return
	}
	h.render(c, http.StatusOK, v, "")
}

// Select は選択ファイルを置き換えます。
//
// エンドポイント: POST /views/:id/select
// Content-Type: multipart/form-data
// フィールド: file（画像ファイル）
func (h *PageHandler) Select(c *gin.Context) {
	file, err := h.readFile(c)
	if err != nil {
		h.uploadError(c, err)
		return
	}

	h.withView(c, func(ctx context.Context, id string) (*entity.View, error) {
		return h.uc.SelectFile(ctx, id, file)
	})
}

// Predict は（送信されていれば）ファイルを選択し直し、推論を実行します。
//
// エンドポイント: POST /views/:id/predict
// Content-Type: multipart/form-data
// フィールド: file（任意。未送信の場合は選択済みのファイルを使用）
func (h *PageHandler) Predict(c *gin.Context) {
	file, err := h.readFile(c)
	if err != nil {
		h.uploadError(c, err)
		return
	}

	h.withView(c, func(ctx context.Context, id string) (*entity.View, error) {
		if !file.IsEmpty() {
			if _, err := h.uc.SelectFile(ctx, id, file); err != nil {
				return nil, err
			}
		}
		return h.uc.Submit(ctx, id)
	})
}

// Info は情報モーダルの表示・非表示を切り替えます。
//
// エンドポイント: POST /views/:id/info
// フィールド: visible（true / false）
func (h *PageHandler) Info(c *gin.Context) {
	visible, err := strconv.ParseBool(c.PostForm("visible"))
	if err != nil {
		visible = false
	}

	h.withView(c, func(ctx context.Context, id string) (*entity.View, error) {
		return h.uc.ToggleInfoModal(ctx, id, visible)
	})
}

// Close はページ離脱時（sendBeacon）にビューを破棄します。
//
// エンドポイント: POST /views/:id/close
func (h *PageHandler) Close(c *gin.Context) {
	if err := h.uc.Close(c.Request.Context(), c.Param("id")); err != nil {
		slog.Warn("failed to close view", "view_id", c.Param("id"), "error", err)
	}
	c.Status(http.StatusNoContent)
}

// Preview はプレビュー画像を返します。
//
// エンドポイント: GET /previews/:id
func (h *PageHandler) Preview(c *gin.Context) {
	p, err := h.uc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrPreviewNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("failed to load preview", "preview_id", c.Param("id"), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if !previewTypes[p.ContentType] {
		slog.Warn("refusing to serve preview", "preview_id", c.Param("id"), "content_type", p.ContentType)
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "default-src 'none'; sandbox")
	c.Data(http.StatusOK, p.ContentType, p.Data)
}

// withView は :id のビューに対して op を実行し、結果を描画します。
// ビューが期限切れの場合は新しいビューを生成して op をやり直します。
func (h *PageHandler) withView(c *gin.Context, op func(ctx context.Context, id string) (*entity.View, error)) {
	ctx := c.Request.Context()
	notice := ""

	v, err := op(ctx, c.Param("id"))
	if errors.Is(err, usecase.ErrViewNotFound) {
		fresh, openErr := h.uc.Open(ctx)
		if openErr != nil {
			h.fail(c, "failed to open view", openErr)
			return
		}
		notice = expiredMessage
		v, err = op(ctx, fresh.ID)
		if v == nil {
			v = fresh
		}
	}

	switch {
	case err == nil:
		h.render(c, http.StatusOK, v, notice)
	case errors.Is(err, usecase.ErrNoImageSelected):
		h.render(c, http.StatusBadRequest, v, joinNotices(notice, usecase.NoImageMessage))
	case errors.Is(err, usecase.ErrSubmissionInProgress):
		h.render(c, http.StatusConflict, v, joinNotices(notice, usecase.InProgressMessage))
	default:
		h.fail(c, "view operation failed", err)
	}
}

func joinNotices(notices ...string) string {
	return strings.Join(slices.DeleteFunc(notices, func(n string) bool { return n == "" }), " ")
}

// readFile はフォームのファイルを読み込みます。
// ファイルが送信されていない、または空の場合は nil を返します（ピッカーのキャンセル）。
func (h *PageHandler) readFile(c *gin.Context) (*entity.SelectedFile, error) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	}

	header, err := c.FormFile(FileField)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errUploadTooLarge
		}
		// ファイル未送信・マルチパート以外のリクエストは「選択なし」として扱う
		return nil, nil
	}
	if header.Size == 0 || header.Filename == "" {
		return nil, nil
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return nil, errUploadTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded file", "error", err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &entity.SelectedFile{
		Name:        header.Filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// uploadError はアップロードの読み込みエラーを描画します。
func (h *PageHandler) uploadError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	v, findErr := h.currentOrNew(ctx, c.Param("id"))
	if findErr != nil {
		h.fail(c, "failed to load view", findErr)
		return
	}
	if errors.Is(err, errUploadTooLarge) {
		slog.Warn("upload rejected", "view_id", v.ID, "limit", h.maxUpload, "remote_addr", c.ClientIP())
		h.render(c, http.StatusRequestEntityTooLarge, v, tooLargeMessage)
		return
	}
	slog.Error("failed to read upload", "view_id", v.ID, "error", err)
	h.render(c, http.StatusBadRequest, v, internalMessage)
}

// currentOrNew は :id のビューを返します。見つからない場合は新しいビューを生成します。
func (h *PageHandler) currentOrNew(ctx context.Context, id string) (*entity.View, error) {
	v, err := h.uc.Get(ctx, id)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, usecase.ErrViewNotFound) {
		return nil, err
	}
	return h.uc.Open(ctx)
}

func (h *PageHandler) render(c *gin.Context, status int, v *entity.View, notice string) {
	s := usecase.Render(v, h.info, PreviewURL)
	s.Notice = notice
	c.Header("Cache-Control", "no-store")
	c.HTML(status, "index.html", s)
}

func (h *PageHandler) fail(c *gin.Context, msg string, err error) {
	slog.Error(msg, "view_id", c.Param("id"), "error", err)
	c.String(http.StatusInternalServerError, internalMessage)
}
