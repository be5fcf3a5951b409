// Package preview は選択画像のプレビュー（サムネイル）を生成します。
package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // gif decoder registration
	"image/jpeg"
	"image/png"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // webp decoder registration

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

const (
	// DefaultSize はサムネイルの最大幅・高さ（px）です。
	DefaultSize = 250
	// MaxPixels はデコードを許可する画像の最大画素数（幅x高さ）です。
	MaxPixels   = 40_000_000
	jpegQuality = 85
)

// Builder はサムネイルを生成する PreviewBuilder 実装です。
type Builder struct {
	size uint
}

var _ usecase.PreviewBuilder = (*Builder)(nil)

// NewBuilder はBuilderの新しいインスタンスを生成します。size が0の場合は DefaultSize を使用します。
func NewBuilder(size uint) *Builder {
	if size == 0 {
		size = DefaultSize
	}
	return &Builder{size: size}
}

// Build はファイルからプレビューを生成します。
// プレビューは再エンコードしたJPEG/PNGのみです。デコードできないファイルや
// MaxPixels を超える画像の場合は nil を返します（プレビューなし）。
func (b *Builder) Build(file *entity.SelectedFile) (*entity.Preview, error) {
	if file.IsEmpty() {
		return nil, fmt.Errorf("preview: empty file")
	}

	// 展開前にヘッダーの画素数を確認する
	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		slog.Debug("no preview for undecodable file", "file", file.Name, "content_type", file.ContentType, "error", err)
		return nil, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		slog.Warn("no preview for oversized image", "file", file.Name, "width", cfg.Width, "height", cfg.Height)
		return nil, nil
	}

	img, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		slog.Debug("no preview for undecodable file", "file", file.Name, "content_type", file.ContentType, "error", err)
		return nil, nil
	}

	thumb := resize.Thumbnail(b.size, b.size, img, resize.Lanczos3)

	var (
		buf bytes.Buffer
		ct  string
	)
	switch format {
	case "png", "gif":
		// 透過を保持するためPNGで出力する
		err = png.Encode(&buf, thumb)
		ct = "image/png"
	default:
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality})
		ct = "image/jpeg"
	}
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return &entity.Preview{ContentType: ct, Data: buf.Bytes()}, nil
}

// DetectContentType はバイト列からMIMEタイプを判定します。
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
