package event

import (
	"context"
	"fmt"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/services"
)

// Service Event 业务服务接口
type Service interface {
	// FetchTransactionEvents 读取交易日志并解码事件
	FetchTransactionEvents(ctx context.Context, signature string) (*TransactionEvents, error)

	// Subscribe 订阅提及 x84 程序的交易事件（需要 WebSocket 连接）
	Subscribe(ctx context.Context) (<-chan *EventInfo, error)
}

// eventService Event 服务实现
type eventService struct {
	rpc    client.RPC
	config services.Config
	logger client.Logger
}

// NewService 创建 Event 服务
func NewService(rpc client.RPC, config services.Config, logger client.Logger) Service {
	if logger == nil {
		logger = client.NopLogger
	}
	return &eventService{rpc: rpc, config: config, logger: logger}
}

// TransactionEvents 单笔交易的事件
type TransactionEvents struct {
	Signature string
	Slot      uint64
	BlockTime *int64
	// Failed 交易执行失败（失败交易不会产生事件，但日志仍可用于错误翻译）
	Failed bool
	Events []Event
	Logs   []string
}

// EventInfo 订阅推送的事件
type EventInfo struct {
	Event     Event
	Signature string
	Slot      uint64
}

// FetchTransactionEvents 读取交易事件；交易不存在时返回 (nil, nil)
func (s *eventService) FetchTransactionEvents(ctx context.Context, signature string) (*TransactionEvents, error) {
	tx, err := s.rpc.GetTransactionLogs(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("get transaction logs failed: %w", err)
	}
	if tx == nil {
		return nil, nil
	}
	return &TransactionEvents{
		Signature: tx.Signature,
		Slot:      tx.Slot,
		BlockTime: tx.BlockTime,
		Failed:    tx.Failed(),
		Events:    DecodeLogs(s.config.Program(), tx.LogMessages),
		Logs:      tx.LogMessages,
	}, nil
}

// Subscribe 订阅事件
//
// 失败的交易被跳过；ctx 取消后通道关闭。
func (s *eventService) Subscribe(ctx context.Context) (<-chan *EventInfo, error) {
	notifications, err := s.rpc.SubscribeLogs(ctx, s.config.Program())
	if err != nil {
		return nil, fmt.Errorf("subscribe events failed: %w", err)
	}

	infoChan := make(chan *EventInfo, 16)
	go func() {
		defer close(infoChan)
		for n := range notifications {
			if len(n.Err) > 0 && string(n.Err) != "null" {
				s.logger.Debug("skip failed transaction", "signature", n.Signature)
				continue
			}
			for _, ev := range DecodeLogs(s.config.Program(), n.Logs) {
				select {
				case infoChan <- &EventInfo{Event: ev, Signature: n.Signature, Slot: n.Slot}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return infoChan, nil
}
