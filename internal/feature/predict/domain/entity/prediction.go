package entity

// Prediction は推論APIから返された分類結果を表します。
type Prediction struct {
	Label      string  // 分類ラベル（例: "Dog", "Cat"）
	Confidence float64 // 信頼度（0.0 ~ 1.0）
}
