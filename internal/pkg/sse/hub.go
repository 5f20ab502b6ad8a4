package sse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

const publishBuffer = 256

// Hub 管理基于 topic 的 SSE 订阅者
//
// 说明：
//   - 每个 topic 对应一组客户端通道，发布到该 topic 的消息广播到所有订阅通道
//   - subscribe/unsubscribe/publish 三个控制通道由 Run 在单个 goroutine 中串行处理
//   - 客户端读取过慢时丢弃消息，不阻塞发布者（生成批次）
type Hub struct {
	topics map[string]map[chan []byte]struct{}

	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan topicMessage
	done        chan struct{}
}

type subscription struct {
	ch    chan []byte
	topic string
}

type topicMessage struct {
	topic string
	msg   []byte
}

// NewHub 创建 Hub，需要调用 Run 才开始分发
func NewHub() *Hub {
	return &Hub{
		topics:      make(map[string]map[chan []byte]struct{}),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan topicMessage, publishBuffer),
		done:        make(chan struct{}),
	}
}

// Run 启动事件循环，ctx 取消后退出
//
//	hub := sse.NewHub()
//	go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.subscribe:
			subs, ok := h.topics[s.topic]
			if !ok {
				subs = make(map[chan []byte]struct{})
				h.topics[s.topic] = subs
			}
			subs[s.ch] = struct{}{}
		case s := <-h.unsubscribe:
			if subs, ok := h.topics[s.topic]; ok {
				delete(subs, s.ch)
				if len(subs) == 0 {
					delete(h.topics, s.topic)
				}
			}
		case tm := <-h.publish:
			for ch := range h.topics[tm.topic] {
				select {
				case ch <- tm.msg:
				default:
					// 客户端未及时读取
				}
			}
		}
	}
}

// PublishTopic 发布消息到 topic，缓冲已满时丢弃
func (h *Hub) PublishTopic(topic string, msg []byte) {
	select {
	case h.publish <- topicMessage{topic: topic, msg: msg}:
	default:
		log.Warn().Str("topic", topic).Msg("sse publish buffer full, event dropped")
	}
}

// PublishJSON 序列化后发布
func (h *Hub) PublishJSON(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal sse event: %w", err)
	}
	h.PublishTopic(topic, data)
	return nil
}

// Subscribe 将通道注册为 topic 的订阅者
// 调用方提供有缓冲的通道，并在不再需要时调用 Unsubscribe；Hub 不会关闭该通道
func (h *Hub) Subscribe(ctx context.Context, ch chan []byte, topic string) error {
	select {
	case h.subscribe <- subscription{ch: ch, topic: topic}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return fmt.Errorf("sse hub stopped")
	}
}

// Unsubscribe 取消某个通道对 topic 的订阅
func (h *Hub) Unsubscribe(ch chan []byte, topic string) {
	select {
	case h.unsubscribe <- subscription{ch: ch, topic: topic}:
	case <-h.done:
	}
}

// ProjectTopic 项目事件的 topic 名称
func ProjectTopic(projectID string) string {
	return "project:" + projectID
}
