package generation

import (
	"fmt"

	"tmmedia/internal/model/studio"
)

// Task 原子生成任务
// 说明：由编排函数产生，只在一次 Runner 调用期间存在，不做持久化
type Task struct {
	PromptID        string // 来源提示词ID（一次性产物为空）
	SourceValue     string // 待渲染的提示词文本
	TargetImageID   string // 本任务写入的账本ID
	VariationSuffix string // 区分同一场景多个镜头的附加指令，variations=1 时为空
}

// VariationSuffix 生成第 index 个镜头（共 variations 个）的附加指令
func VariationSuffix(index, variations int) string {
	if variations <= 1 {
		return ""
	}
	return fmt.Sprintf("(Shot %d/%d, different cinematic angle)", index+1, variations)
}

func newSeriesTask(p studio.SeriesPrompt, index int) Task {
	return Task{
		PromptID:        p.ID,
		SourceValue:     p.Value,
		TargetImageID:   SeriesImageID(p.ID, index),
		VariationSuffix: VariationSuffix(index, p.VariationCount()),
	}
}
