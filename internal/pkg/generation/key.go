package generation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	seriesImagePrefix    = "series-"
	seriesVariationInfix = "-var-"
)

// ErrInvalidImageID 图片ID不符合 series-{promptId}-var-{index} 结构
var ErrInvalidImageID = errors.New("invalid series image id")

// SeriesImageKey 系列图片的结构化键
// 说明：持久化的项目与重试逻辑都依赖 ID 能够双向转换，编码格式不可更改
type SeriesImageKey struct {
	PromptID string
	Index    int
}

// String 编码为账本中的图片ID
func (k SeriesImageKey) String() string {
	return seriesImagePrefix + k.PromptID + seriesVariationInfix + strconv.Itoa(k.Index)
}

// SeriesImageID 根据提示词ID和变体序号生成图片ID
func SeriesImageID(promptID string, index int) string {
	return SeriesImageKey{PromptID: promptID, Index: index}.String()
}

// ParseSeriesImageID 解析图片ID
// 以最后一个 "-var-" 为分隔，允许 promptId 自身包含该片段
func ParseSeriesImageID(id string) (SeriesImageKey, error) {
	if !strings.HasPrefix(id, seriesImagePrefix) {
		return SeriesImageKey{}, fmt.Errorf("%w: %q", ErrInvalidImageID, id)
	}
	body := strings.TrimPrefix(id, seriesImagePrefix)
	pos := strings.LastIndex(body, seriesVariationInfix)
	if pos <= 0 {
		return SeriesImageKey{}, fmt.Errorf("%w: %q", ErrInvalidImageID, id)
	}

	index, err := strconv.Atoi(body[pos+len(seriesVariationInfix):])
	if err != nil || index < 0 {
		return SeriesImageKey{}, fmt.Errorf("%w: %q", ErrInvalidImageID, id)
	}

	return SeriesImageKey{PromptID: body[:pos], Index: index}, nil
}

// ParseVariationIndex 从图片ID中取出变体序号，无法解析时返回 0
func ParseVariationIndex(id string) int {
	key, err := ParseSeriesImageID(id)
	if err != nil {
		return 0
	}
	return key.Index
}
