package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

const (
	// FileField は推論サービスが受け付けるマルチパートのフィールド名です。
	FileField = "file"
	// maxErrorBody はエラー応答から読み取る最大バイト数です。
	maxErrorBody = 4 << 10
)

// predictResponse は推論サービスの応答です。欠落を検出するためポインタで受けます。
type predictResponse struct {
	Prediction *string  `json:"prediction"`
	Confidence *float64 `json:"confidence"`
}

// errorResponse は推論サービスのエラー応答（{"error": "..."}）です。
type errorResponse struct {
	Error string `json:"error"`
}

// Client は POST {BaseURL}/predict を呼び出す Predictor 実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

// ClientがPredictorを実装していることをコンパイル時に検証します。
var _ usecase.Predictor = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// Predict は画像をマルチパートで送信し、分類結果を返します。
func (c *Client) Predict(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
	body, contentType, err := encodeFile(file)
	if err != nil {
		return entity.Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.endpoint(), body)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("prediction request failed: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return entity.Prediction{}, statusError(res)
	}

	var out predictResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return entity.Prediction{}, &malformedError{detail: "decode body", err: err}
	}
	return out.toEntity()
}

// toEntity は必須フィールドを検証してドメインモデルに変換します。
func (r predictResponse) toEntity() (entity.Prediction, error) {
	if r.Prediction == nil || strings.TrimSpace(*r.Prediction) == "" {
		return entity.Prediction{}, &malformedError{detail: "missing prediction"}
	}
	if r.Confidence == nil {
		return entity.Prediction{}, &malformedError{detail: "missing confidence"}
	}
	if c := *r.Confidence; c < 0 || c > 1 {
		return entity.Prediction{}, &malformedError{detail: fmt.Sprintf("confidence %v out of range", c)}
	}
	return entity.Prediction{Label: *r.Prediction, Confidence: *r.Confidence}, nil
}

// encodeFile はファイルを単一パート "file" のマルチパートボディに変換します。
func encodeFile(file *entity.SelectedFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	name := file.Name
	if name == "" {
		name = "upload"
	}
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, escapeQuotes(name)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// statusError は2xx以外の応答を StatusError に変換します。
func statusError(res *http.Response) error {
	se := &StatusError{StatusCode: res.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			se.Message = er.Error
		}
	}
	return se
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
