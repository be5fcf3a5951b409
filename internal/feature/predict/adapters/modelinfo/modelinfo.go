// Package modelinfo は情報モーダルの表示内容をYAMLファイルから読み込みます。
package modelinfo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"classifier_web/internal/feature/predict/domain/entity"
)

// Default はYAMLファイルが指定されない場合の表示内容です。
func Default() entity.ModelInfo {
	return entity.ModelInfo{
		Title:          "Dog vs Cat Classifier",
		Subtitle:       "Upload an image and let the model predict",
		Framework:      "PyTorch CNN",
		Accuracy:       "80%",
		TrainingImages: "25,000+",
		Note:           "This project is part of my learning phase. I will upgrade and improve the accuracy in future versions.",
		ContactEmail:   "gauravtarale67@gmail.com",
	}
}

// Load はpathのYAMLを読み込み、未指定の項目を Default の値で補完します。
// path が空の場合は Default をそのまま返します。
func Load(path string) (entity.ModelInfo, error) {
	info := Default()
	if path == "" {
		return info, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("read model info %q: %w", path, err)
	}

	var file entity.ModelInfo
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return info, fmt.Errorf("parse model info %q: %w", path, err)
	}
	merge(&info, file)
	return info, nil
}

func merge(dst *entity.ModelInfo, src entity.ModelInfo) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Title, src.Title)
	set(&dst.Subtitle, src.Subtitle)
	set(&dst.Framework, src.Framework)
	set(&dst.Accuracy, src.Accuracy)
	set(&dst.TrainingImages, src.TrainingImages)
	set(&dst.Note, src.Note)
	set(&dst.ContactEmail, src.ContactEmail)
}
