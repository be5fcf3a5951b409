package entity

// ViewState はアップロード画面の状態です。
type ViewState string

const (
	StateIdle         ViewState = "idle"
	StateFileSelected ViewState = "file_selected"
	StateSubmitting   ViewState = "submitting"
	StateResulted     ViewState = "resulted"
	StateErrored      ViewState = "errored"
)

// View はページ読み込みごとに生成される画面状態です。
type View struct {
	ID    string        `json:"id"`
	State ViewState     `json:"state"`
	File  *SelectedFile `json:"file,omitempty"`
	// SelectionID はファイルを選択するたびに採番されます。
	SelectionID string `json:"selection_id,omitempty"`
	// PreviewID はプレビューを生成できなかった場合は空です。
	PreviewID string      `json:"preview_id,omitempty"`
	Result    *Prediction `json:"result,omitempty"`
	Failure   string      `json:"failure,omitempty"`
	ModalOpen bool        `json:"modal_open"`
}

// HasFile は送信可能なファイルが選択されているかを返します。
func (v *View) HasFile() bool {
	return !v.File.IsEmpty()
}
