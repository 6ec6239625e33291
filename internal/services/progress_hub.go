package services

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"thrivex/pkg/cache"
	"thrivex/pkg/logger"

	"github.com/sirupsen/logrus"
)

const progressBuffer = 16

// ProgressHub 将 Redis 中的导入进度分发给本实例的 WebSocket 连接
//
// 订阅者的缓冲区写满时直接断开，不阻塞其他连接。
type ProgressHub struct {
	store *cache.Store
	mu    sync.Mutex
	subs  map[uint]map[chan []byte]struct{}
}

func NewProgressHub(store *cache.Store) *ProgressHub {
	return &ProgressHub{
		store: store,
		subs:  make(map[uint]map[chan []byte]struct{}),
	}
}

// Subscribe 订阅操作者的导入进度，调用 cancel 取消订阅
func (h *ProgressHub) Subscribe(operatorID uint) (<-chan []byte, func()) {
	ch := make(chan []byte, progressBuffer)

	h.mu.Lock()
	if h.subs[operatorID] == nil {
		h.subs[operatorID] = make(map[chan []byte]struct{})
	}
	h.subs[operatorID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() { h.remove(operatorID, ch) }
}

func (h *ProgressHub) remove(operatorID uint, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[operatorID]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, operatorID)
	}
}

// Dispatch 投递一条消息
func (h *ProgressHub) Dispatch(operatorID uint, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[operatorID] {
		select {
		case ch <- payload:
		default:
			delete(h.subs[operatorID], ch)
			close(ch)
			logger.GetLogger().WithField("operator_id", operatorID).Warn("导入进度订阅者处理过慢，已断开")
		}
	}
	if len(h.subs[operatorID]) == 0 {
		delete(h.subs, operatorID)
	}
}

// Subscribers 当前订阅者数量
func (h *ProgressHub) Subscribers(operatorID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[operatorID])
}

// Run 订阅全部操作者的进度频道并分发，直到 ctx 结束
func (h *ProgressHub) Run(ctx context.Context) error {
	pubsub := h.store.PSubscribe(ctx, importProgressPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	log := logger.GetLogger().WithField("component", "progress_hub")
	log.Info("导入进度分发已启动")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			name := h.store.ChannelName(msg.Channel)
			id, err := strconv.ParseUint(strings.TrimPrefix(name, importProgressPrefix), 10, 64)
			if err != nil {
				log.WithFields(logrus.Fields{"channel": msg.Channel}).Warn("无法识别的进度频道")
				continue
			}
			h.Dispatch(uint(id), []byte(msg.Payload))
		}
	}
}
