package predictapi

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse は応答がJSONでない、または必須フィールドが欠けている場合に返されます。
var ErrMalformedResponse = errors.New("malformed prediction response")

// StatusError は推論サービスが2xx以外のステータスを返したことを表します。
type StatusError struct {
	StatusCode int
	Message    string // 応答の "error" フィールド（存在する場合）
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("prediction api http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("prediction api http %d", e.StatusCode)
}

// UserMessage は画面に表示する文言を返します。
func (e *StatusError) UserMessage() string {
	if e.StatusCode >= 500 {
		return fmt.Sprintf("The prediction service is unavailable (HTTP %d).", e.StatusCode)
	}
	if e.Message != "" {
		return fmt.Sprintf("The prediction service rejected the image: %s", e.Message)
	}
	return fmt.Sprintf("The prediction service rejected the image (HTTP %d).", e.StatusCode)
}

// malformedError wraps ErrMalformedResponse with detail while keeping a fixed user message.
type malformedError struct {
	detail string
	err    error
}

func (e *malformedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedResponse, e.detail, e.err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.detail)
}

func (e *malformedError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *malformedError) Unwrap() error { return e.err }

func (e *malformedError) UserMessage() string {
	return "The prediction service returned an unexpected response."
}
