// Package usecase はアップロード・推論画面（UploadAndPredictView）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"classifier_web/internal/feature/predict/domain/entity"
)

const (
	// DefaultViewTTL は画面状態の保持期間のデフォルト値です。
	DefaultViewTTL = 30 * time.Minute
	// NoImageMessage はファイル未選択で送信された場合の通知文です。
	NoImageMessage = "Please upload an image."
	// InProgressMessage は推論中に再送信された場合の通知文です。
	InProgressMessage = "A prediction is already in progress."
)

// Predictor は推論エンドポイントへのクライアントインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Predictor interface {
	Predict(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error)
}

// PreviewBuilder は選択ファイルからプレビュー用データを生成します。
// 安全なプレビューを生成できない場合は nil, nil を返します。
type PreviewBuilder interface {
	Build(file *entity.SelectedFile) (*entity.Preview, error)
}

// ViewRepository は画面状態の保存先を抽象化します。
type ViewRepository interface {
	Save(ctx context.Context, view *entity.View, ttl time.Duration) error
	// Find は存在しない場合 ErrViewNotFound を返します。
	Find(ctx context.Context, id string) (*entity.View, error)
	Delete(ctx context.Context, id string) error
	// TryLock はビュー単位の送信ロックを取得します。既に取得済みなら false を返します。
	TryLock(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, id string) error
}

// PreviewRepository はプレビューの保存先を抽象化します。
type PreviewRepository interface {
	Put(ctx context.Context, preview *entity.Preview, ttl time.Duration) error
	// Get は存在しない場合 ErrPreviewNotFound を返します。
	Get(ctx context.Context, id string) (*entity.Preview, error)
	// Touch は保持期間を延長します。存在しない場合 ErrPreviewNotFound を返します。
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Release(ctx context.Context, id string) error
}

// viewUsecase は画面状態の遷移を管理します。
type viewUsecase struct {
	views     ViewRepository
	previews  PreviewRepository
	builder   PreviewBuilder
	predictor Predictor
	ttl       time.Duration
	newID     func() string
}

// NewViewUsecase はviewUsecaseの新しいインスタンスを生成します。
// ttl が0以下の場合は DefaultViewTTL を使用します。
func NewViewUsecase(views ViewRepository, previews PreviewRepository, builder PreviewBuilder, predictor Predictor, ttl time.Duration) *viewUsecase {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &viewUsecase{
		views:     views,
		previews:  previews,
		builder:   builder,
		predictor: predictor,
		ttl:       ttl,
		newID:     uuid.NewString,
	}
}

// Open は新しいIdle状態のビューを生成して保存します。
func (u *viewUsecase) Open(ctx context.Context) (*entity.View, error) {
	v := &entity.View{ID: u.newID(), State: entity.StateIdle}
	if err := u.save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get は保存済みのビューを返します。
func (u *viewUsecase) Get(ctx context.Context, viewID string) (*entity.View, error) {
	return u.views.Find(ctx, viewID)
}

// SelectFile は選択ファイルを置き換え、プレビューを再生成します。
// 空のファイル（ピッカーのキャンセル）の場合はビューを変更しません。
func (u *viewUsecase) SelectFile(ctx context.Context, viewID string, file *entity.SelectedFile) (*entity.View, error) {
	v, err := u.views.Find(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if file.IsEmpty() {
		return v, nil
	}

	p, err := u.builder.Build(file)
	if err != nil {
		return nil, fmt.Errorf("build preview: %w", err)
	}
	previewID := ""
	if p != nil {
		p.ID = u.newID()
		if err := u.previews.Put(ctx, p, u.ttl); err != nil {
			return nil, fmt.Errorf("store preview: %w", err)
		}
		previewID = p.ID
	}

	old := v.PreviewID
	v.File = file
	v.SelectionID = u.newID()
	v.PreviewID = previewID
	v.Result = nil
	v.Failure = ""
	v.State = entity.StateFileSelected
	if err := u.save(ctx, v); err != nil {
		return nil, err
	}

	if old != "" {
		if err := u.previews.Release(ctx, old); err != nil && !errors.Is(err, ErrPreviewNotFound) {
			slog.Warn("failed to release superseded preview", "view_id", v.ID, "preview_id", old, "error", err)
		}
	}
	return v, nil
}

// Submit は選択中のファイルを推論エンドポイントへ送信し、結果をビューに反映します。
//
// 推論の失敗はエラーとして返さず、Errored 状態としてビューに記録します。
// 返されるエラーは入力エラー（ErrNoImageSelected）、多重送信（ErrSubmissionInProgress）、
// またはストアの障害です。
func (u *viewUsecase) Submit(ctx context.Context, viewID string) (*entity.View, error) {
	v, err := u.views.Find(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if !v.HasFile() {
		return v, ErrNoImageSelected
	}

	locked, err := u.views.TryLock(ctx, viewID, u.ttl)
	if err != nil {
		return nil, fmt.Errorf("lock view: %w", err)
	}
	if !locked {
		return v, ErrSubmissionInProgress
	}
	defer func() {
		// リクエストがキャンセルされてもロックは解放する
		if err := u.views.Unlock(context.WithoutCancel(ctx), viewID); err != nil {
			slog.Warn("failed to unlock view", "view_id", viewID, "error", err)
		}
	}()

	// ロック取得後の最新の選択を送信する
	v, err = u.views.Find(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if !v.HasFile() {
		return v, ErrNoImageSelected
	}

	v.State = entity.StateSubmitting
	if err := u.save(ctx, v); err != nil {
		return nil, err
	}
	submitted := v.SelectionID

	result, predictErr := u.predictor.Predict(ctx, v.File)

	// 推論中の選択変更やモーダル操作を上書きしないよう最新の状態に反映する
	saveCtx := context.WithoutCancel(ctx)
	cur, err := u.views.Find(saveCtx, viewID)
	if err != nil {
		return nil, err
	}
	if cur.SelectionID != submitted {
		slog.Info("discarding prediction for superseded selection", "view_id", viewID)
		return cur, nil
	}

	if predictErr != nil {
		slog.Error("prediction failed", "view_id", viewID, "file", cur.File.Name, "error", predictErr)
		cur.State = entity.StateErrored
		cur.Result = nil
		cur.Failure = FailureMessage(predictErr)
	} else {
		cur.State = entity.StateResulted
		cur.Result = &result
		cur.Failure = ""
	}

	if err := u.save(saveCtx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// ToggleInfoModal は情報モーダルの表示フラグのみを変更します。
func (u *viewUsecase) ToggleInfoModal(ctx context.Context, viewID string, visible bool) (*entity.View, error) {
	v, err := u.views.Find(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if v.ModalOpen == visible {
		return v, nil
	}
	v.ModalOpen = visible
	if err := u.save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Close はページ離脱時にビューとそのプレビューを破棄します。
func (u *viewUsecase) Close(ctx context.Context, viewID string) error {
	v, err := u.views.Find(ctx, viewID)
	if err != nil {
		if errors.Is(err, ErrViewNotFound) {
			return nil
		}
		return err
	}
	if v.PreviewID != "" {
		if err := u.previews.Release(ctx, v.PreviewID); err != nil && !errors.Is(err, ErrPreviewNotFound) {
			slog.Warn("failed to release preview", "view_id", viewID, "preview_id", v.PreviewID, "error", err)
		}
	}
	if err := u.views.Delete(ctx, viewID); err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	return nil
}

// Preview はプレビューIDに対応するデータを返します。
func (u *viewUsecase) Preview(ctx context.Context, previewID string) (*entity.Preview, error) {
	return u.previews.Get(ctx, previewID)
}

// save はビューを保存し、参照中のプレビューの保持期間をビューに合わせて延長します。
// プレビューが既に失われている場合は参照を外します。
func (u *viewUsecase) save(ctx context.Context, v *entity.View) error {
	if v.PreviewID != "" {
		if err := u.previews.Touch(ctx, v.PreviewID, u.ttl); err != nil {
			if !errors.Is(err, ErrPreviewNotFound) {
				return fmt.Errorf("touch preview: %w", err)
			}
			slog.Warn("preview expired before its view", "view_id", v.ID, "preview_id", v.PreviewID)
			v.PreviewID = ""
		}
	}
	if err := u.views.Save(ctx, v, u.ttl); err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	return nil
}

// Predict はビューを介さずに単発の推論を行います（JSON API用）。
func (u *viewUsecase) Predict(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
	if file.IsEmpty() {
		return entity.Prediction{}, ErrNoImageSelected
	}
	return u.predictor.Predict(ctx, file)
}
