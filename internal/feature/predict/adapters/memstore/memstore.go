// Package memstore はRedisが利用できない場合に使用するインメモリのビュー・プレビューストアです。
package memstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

type viewEntry struct {
	view      entity.View
	expiresAt time.Time
}

type previewEntry struct {
	preview   entity.Preview
	expiresAt time.Time
}

// Store は ViewRepository と PreviewRepository を実装するTTL付きインメモリストアです。
type Store struct {
	mu       sync.Mutex
	views    map[string]viewEntry
	previews map[string]previewEntry
	locks    map[string]time.Time
	now      func() time.Time
}

var (
	_ usecase.ViewRepository    = (*Store)(nil)
	_ usecase.PreviewRepository = (*Store)(nil)
)

// Option はStoreの設定を変更します。
type Option func(*Store)

// WithClock は有効期限の判定に使う現在時刻の取得関数を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New はStoreの新しいインスタンスを生成します。
func New(opts ...Option) *Store {
	s := &Store{
		views:    make(map[string]viewEntry),
		previews: make(map[string]previewEntry),
		locks:    make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save はビューのコピーを保存します。
func (s *Store) Save(_ context.Context, view *entity.View, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[view.ID] = viewEntry{view: cloneView(view), expiresAt: s.now().Add(ttl)}
	return nil
}

// Find はビューのコピーを返します。期限切れの場合は ErrViewNotFound を返します。
func (s *Store) Find(_ context.Context, id string) (*entity.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.views[id]
	if !ok {
		return nil, usecase.ErrViewNotFound
	}
	if s.now().After(e.expiresAt) {
		s.dropViewLocked(id)
		return nil, usecase.ErrViewNotFound
	}
	v := cloneView(&e.view)
	return &v, nil
}

// Delete はビューと、そのビューが参照するプレビューを削除します。
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropViewLocked(id)
	return nil
}

// TryLock はビュー単位の送信ロックを取得します。
func (s *Store) TryLock(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.locks[id]; ok && s.now().Before(exp) {
		return false, nil
	}
	s.locks[id] = s.now().Add(ttl)
	return true, nil
}

// Unlock は送信ロックを解放します。
func (s *Store) Unlock(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
	return nil
}

// Put はプレビューを保存します。
func (s *Store) Put(_ context.Context, preview *entity.Preview, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews[preview.ID] = previewEntry{preview: *preview, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get はプレビューのコピーを返します。期限切れの場合は ErrPreviewNotFound を返します。
func (s *Store) Get(_ context.Context, id string) (*entity.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.previews[id]
	if !ok {
		return nil, usecase.ErrPreviewNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.previews, id)
		return nil, usecase.ErrPreviewNotFound
	}
	p := e.preview
	return &p, nil
}

// Touch はプレビューの有効期限を延長します。
func (s *Store) Touch(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.previews[id]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.previews, id)
		return usecase.ErrPreviewNotFound
	}
	e.expiresAt = s.now().Add(ttl)
	s.previews[id] = e
	return nil
}

// Release はプレビューを削除します。
func (s *Store) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.previews[id]; !ok {
		return usecase.ErrPreviewNotFound
	}
	delete(s.previews, id)
	return nil
}

// Sweep removes expired views, previews and stale locks. It returns the number of removed entries.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.views {
		if now.After(e.expiresAt) {
			s.dropViewLocked(id)
			n++
		}
	}
	for id, e := range s.previews {
		if now.After(e.expiresAt) {
			delete(s.previews, id)
			n++
		}
	}
	for id, exp := range s.locks {
		if now.After(exp) {
			delete(s.locks, id)
		}
	}
	return n
}

// Run sweeps expired entries every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("memstore sweep", "removed", n)
			}
		}
	}
}

func (s *Store) dropViewLocked(id string) {
	if e, ok := s.views[id]; ok && e.view.PreviewID != "" {
		delete(s.previews, e.view.PreviewID)
	}
	delete(s.views, id)
	delete(s.locks, id)
}

func cloneView(v *entity.View) entity.View {
	out := *v
	if v.File != nil {
		f := *v.File
		out.File = &f
	}
	if v.Result != nil {
		r := *v.Result
		out.Result = &r
	}
	return out
}
