package studio

// ImageStatus 生成结果状态（用于系列图片、角色预览、背景图、缩略图）
type ImageStatus string

const (
	ImageStatusGenerating ImageStatus = "generating" // 生成中（占位）
	ImageStatusSuccess    ImageStatus = "success"    // 已完成
	ImageStatusError      ImageStatus = "error"      // 失败
	ImageStatusCancelled  ImageStatus = "cancelled"  // 已取消（用户停止或配额耗尽）
	ImageStatusRetrying   ImageStatus = "retrying"   // 重试批次中的占位
)

// String 返回状态的字符串表示
func (s ImageStatus) String() string {
	return string(s)
}

// IsPending 是否仍在等待批次处理
func (s ImageStatus) IsPending() bool {
	return s == ImageStatusGenerating || s == ImageStatusRetrying
}

// IsRetryable 是否可被「重试失败项」重新编排
func (s ImageStatus) IsRetryable() bool {
	return s == ImageStatusError || s == ImageStatusCancelled
}

// Ledger 账本名称（用于事件推送）
type Ledger string

const (
	LedgerSeries     Ledger = "series"
	LedgerThumbnails Ledger = "thumbnails"
	LedgerCharacters Ledger = "characters"
	LedgerContext    Ledger = "context"
	LedgerVideo      Ledger = "video_prompts"
)

// String 返回账本名称
func (l Ledger) String() string {
	return string(l)
}

const (
	// MinStep 向导第一步（风格参考图）
	MinStep = 1
	// MaxStep 向导最后一步（缩略图）
	MaxStep = 8
)
