// Package entity はpredictフィーチャーのドメインモデルを定義します。
package entity

// SelectedFile はユーザーが選択した画像ファイルを表します。
type SelectedFile struct {
	Name        string // アップロード時のファイル名
	ContentType string // バイト列から判定したMIMEタイプ
	Data        []byte // ファイル本体
}

// IsEmpty はファイルが選択されていない（ピッカーのキャンセルなど）場合にtrueを返します。
func (f *SelectedFile) IsEmpty() bool {
	return f == nil || len(f.Data) == 0
}

// Preview は選択ファイルの表示用データです。推論APIには送信されません。
type Preview struct {
	ID          string
	ContentType string
	Data        []byte
}
