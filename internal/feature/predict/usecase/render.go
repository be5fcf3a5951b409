package usecase

import (
	"context"
	"errors"
	"strconv"

	"classifier_web/internal/feature/predict/domain/entity"
)

// Screen はテンプレートに渡す描画用モデルです。
type Screen struct {
	ViewID string
	State  entity.ViewState

	ShowPreview bool
	PreviewURL  string
	// FileName は選択中のファイル名です（プレビューがない場合の表示用）。
	FileName string

	ShowResult     bool
	Label          string
	ConfidenceText string

	ShowError bool
	ErrorText string

	ShowModal bool
	Info      entity.ModelInfo

	// Notice はブロッキング通知（alert）として表示する文言です。
	Notice string
}

// Render はビューの状態から描画用モデルを組み立てます。
// previewURL はプレビューIDからURLを組み立てる関数です。
func Render(v *entity.View, info entity.ModelInfo, previewURL func(id string) string) Screen {
	s := Screen{
		ViewID:    v.ID,
		State:     v.State,
		ShowModal: v.ModalOpen,
		Info:      info,
	}
	if v.HasFile() {
		s.FileName = v.File.Name
	}
	if v.PreviewID != "" {
		s.ShowPreview = true
		s.PreviewURL = previewURL(v.PreviewID)
	}
	if v.State == entity.StateResulted && v.Result != nil && v.Result.Label != "" {
		s.ShowResult = true
		s.Label = v.Result.Label
		s.ConfidenceText = FormatConfidence(v.Result.Confidence)
	}
	if v.State == entity.StateErrored {
		s.ShowError = true
		s.ErrorText = v.Failure
		if s.ErrorText == "" {
			s.ErrorText = defaultFailureMessage
		}
	}
	return s
}

// FormatConfidence は0~1の信頼度を小数点以下2桁のパーセント文字列に変換します（0.8345 -> "83.45"）。
func FormatConfidence(c float64) string {
	return strconv.FormatFloat(c*100, 'f', 2, 64)
}

const defaultFailureMessage = "Prediction failed. Please try again."

// FailureMessage は推論失敗時にユーザーへ表示する文言を返します。
func FailureMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The prediction service did not respond in time."
	}
	if errors.Is(err, context.Canceled) {
		return "The prediction request was cancelled."
	}
	return defaultFailureMessage
}
