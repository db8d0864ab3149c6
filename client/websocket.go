package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsNotifyBuffer     = 100
)

// websocketClient WebSocket 客户端实现
type websocketClient struct {
	endpoint string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	closed   int32
	nextID   uint64
	timeout  time.Duration
	logger   Logger
	debug    bool

	muReq    sync.Mutex
	requests map[uint64]*pendingCall

	muSub sync.RWMutex
	subs  map[uint64]*subscription
}

// pendingCall 等待响应的请求；sub 非空时表示订阅请求
type pendingCall struct {
	resp chan *jsonRPCResponse
	sub  *subscription
}

// subscription 一个活跃订阅
type subscription struct {
	id   uint64
	ch   chan json.RawMessage
	done chan struct{}
	mu   sync.Mutex
	once sync.Once
	dead bool
}

func newSubscription() *subscription {
	return &subscription{
		ch:   make(chan json.RawMessage, wsNotifyBuffer),
		done: make(chan struct{}),
	}
}

// deliver 投递通知，不阻塞读取循环
//
// 订阅关闭后直接丢弃；缓冲区已满时丢弃并返回 false。
func (s *subscription) deliver(msg json.RawMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return true
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.dead = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// NewWebSocketClient 创建 WebSocket 客户端
func NewWebSocketClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := toWebSocketURL(config.Endpoint)
	dialer := websocket.Dialer{
		HandshakeTimeout: wsHandshakeTimeout,
	}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial websocket: %w", err))
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &websocketClient{
		endpoint: endpoint,
		conn:     conn,
		timeout:  timeout,
		logger:   config.logger(),
		debug:    config.Debug,
		requests: make(map[uint64]*pendingCall),
		subs:     make(map[uint64]*subscription),
	}

	// 启动消息读取循环
	go c.readLoop()

	return c, nil
}

// toWebSocketURL 将 http(s):// 转换为 ws(s)://
func toWebSocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return endpoint
	default:
		return "ws://" + endpoint
	}
}

// readLoop 消息读取循环
func (c *websocketClient) readLoop() {
	defer c.shutdown()

	for {
		var msg jsonRPCResponse
		if err := c.conn.ReadJSON(&msg); err != nil {
			if atomic.LoadInt32(&c.closed) == 0 {
				c.logger.Warn("websocket read failed", "endpoint", c.endpoint, "error", err)
			}
			return
		}

		// 订阅通知
		if msg.ID == nil {
			if msg.Params == nil {
				continue
			}
			c.muSub.RLock()
			sub := c.subs[msg.Params.Subscription]
			c.muSub.RUnlock()
			if sub == nil {
				if c.debug {
					c.logger.Debug("dropping notification for unknown subscription", "method", msg.Method, "subscription", msg.Params.Subscription)
				}
				continue
			}
			if !sub.deliver(msg.Params.Result) {
				c.logger.Warn("subscription buffer full, notification dropped", "method", msg.Method, "subscription", msg.Params.Subscription)
			}
			continue
		}

		// 请求响应
		c.muReq.Lock()
		pending, exists := c.requests[*msg.ID]
		if exists {
			delete(c.requests, *msg.ID)
		}
		c.muReq.Unlock()
		if !exists {
			continue
		}

		// 订阅在响应交付前登记，避免丢失紧随其后的首条通知
		if pending.sub != nil && msg.Error == nil {
			var subID uint64
			if err := json.Unmarshal(msg.Result, &subID); err == nil {
				pending.sub.id = subID
				c.muSub.Lock()
				c.subs[subID] = pending.sub
				c.muSub.Unlock()
			}
		}
		pending.resp <- &msg
	}
}

// shutdown 关闭所有等待中的请求与订阅
func (c *websocketClient) shutdown() {
	atomic.StoreInt32(&c.closed, 1)

	c.muReq.Lock()
	for id, pending := range c.requests {
		close(pending.resp)
		delete(c.requests, id)
	}
	c.muReq.Unlock()

	c.muSub.Lock()
	for id, sub := range c.subs {
		sub.close()
		delete(c.subs, id)
	}
	c.muSub.Unlock()
}

func (c *websocketClient) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *websocketClient) call(ctx context.Context, method string, params interface{}, sub *subscription) (json.RawMessage, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, NewClosedError()
	}

	// 1. 登记响应通道
	reqID := atomic.AddUint64(&c.nextID, 1)
	pending := &pendingCall{resp: make(chan *jsonRPCResponse, 1), sub: sub}
	c.muReq.Lock()
	c.requests[reqID] = pending
	c.muReq.Unlock()

	forget := func() {
		c.muReq.Lock()
		delete(c.requests, reqID)
		c.muReq.Unlock()
	}

	// 2. 发送请求
	req := jsonRPCRequest{JSONRPC: "2.0", Method: method, Params: params, ID: reqID}
	if c.debug {
		c.logger.Debug("JSON-RPC request", "method", method, "id", reqID)
	}
	if err := c.write(req); err != nil {
		forget()
		return nil, NewNetworkError(fmt.Errorf("write request: %w", err))
	}

	// 3. 等待响应
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case resp, ok := <-pending.resp:
		if !ok || resp == nil {
			return nil, NewClosedError()
		}
		if resp.Error != nil {
			return nil, NewRPCError(resp.Error.Code, resp.Error.Message, resp.Error.Data)
		}
		return resp.Result, nil
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	case <-timer.C:
		forget()
		return nil, NewTimeoutError()
	}
}

// Call 调用 JSON-RPC 方法
func (c *websocketClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return c.call(ctx, method, params, nil)
}

// Subscribe 建立订阅
//
// **流程**：
// 1. 发送订阅请求，读取循环在交付响应前登记订阅 ID
// 2. 返回通知通道
// 3. ctx 取消后发送退订请求并关闭通道
func (c *websocketClient) Subscribe(ctx context.Context, req SubscribeRequest) (<-chan json.RawMessage, error) {
	sub := newSubscription()
	if _, err := c.call(ctx, req.Method, req.Params, sub); err != nil {
		c.muSub.Lock()
		for id, s := range c.subs {
			if s == sub {
				delete(c.subs, id)
			}
		}
		c.muSub.Unlock()
		sub.close()
		return nil, fmt.Errorf("%s failed: %w", req.Method, err)
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
			return
		}

		c.muSub.Lock()
		delete(c.subs, sub.id)
		c.muSub.Unlock()
		sub.close()

		if req.UnsubscribeMethod == "" || atomic.LoadInt32(&c.closed) == 1 {
			return
		}
		unsubCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if _, err := c.Call(unsubCtx, req.UnsubscribeMethod, []interface{}{sub.id}); err != nil {
			c.logger.Warn("unsubscribe failed", "method", req.UnsubscribeMethod, "subscription", sub.id, "error", err)
		}
	}()

	return sub.ch, nil
}

// Close 关闭连接
func (c *websocketClient) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		return c.conn.Close()
	}
	return nil
}
