package studio

import (
	"tmmedia/internal/pkg/sse"
	studiosvc "tmmedia/internal/service/studio"
)

// Handler 制作向导处理器
// 所有 studio 相关的 Handler 方法都通过这个结构体访问 Service
type Handler struct {
	studioService studiosvc.StudioService
	hub           *sse.Hub
}

// NewHandler 创建制作向导处理器
func NewHandler(studioService studiosvc.StudioService, hub *sse.Hub) *Handler {
	return &Handler{
		studioService: studioService,
		hub:           hub,
	}
}
