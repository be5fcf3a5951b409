package entity

// ModelInfo は情報モーダルに表示するモデルの説明です。
type ModelInfo struct {
	Title          string `yaml:"title"`
	Subtitle       string `yaml:"subtitle"`
	Framework      string `yaml:"framework"`
	Accuracy       string `yaml:"accuracy"`
	TrainingImages string `yaml:"training_images"`
	Note           string `yaml:"note"`
	ContactEmail   string `yaml:"contact_email"`
}
