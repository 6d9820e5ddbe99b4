package cache

import "context"

// GalleryCache 畫廊列表快取，存放已序列化的回應資料.
//
// 任何會改變畫廊內容的寫入（新增、按讚、解鎖）都必須呼叫 InvalidateGallery，
// 它會清除內容並遞增版本號。填入快取前先以 GalleryVersion 取得版本，
// 讀完資料庫後交給 SetGallery；期間版本若已變動則不寫入。
type GalleryCache interface {
	// GetGallery 回傳快取內容；未命中時 ok 為 false
	GetGallery(ctx context.Context) (data []byte, ok bool, err error)
	// GalleryVersion 回傳目前的畫廊版本號
	GalleryVersion(ctx context.Context) (int64, error)
	// SetGallery 僅在版本仍為 version 時寫入，stored 表示是否寫入
	SetGallery(ctx context.Context, version int64, data []byte) (stored bool, err error)
	InvalidateGallery(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Nop 不做任何事的快取，Redis 未啟用時使用.
type Nop struct{}

var _ GalleryCache = Nop{}

func (Nop) GetGallery(context.Context) ([]byte, bool, error) {
	return nil, false, nil
}

func (Nop) GalleryVersion(context.Context) (int64, error) {
	return 0, nil
}

func (Nop) SetGallery(context.Context, int64, []byte) (bool, error) {
	return false, nil
}

func (Nop) InvalidateGallery(context.Context) error {
	return nil
}

func (Nop) Ping(context.Context) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
