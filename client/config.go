package client

// 公共 RPC 端点
const (
	DevnetRPCEndpoint  = "https://api.devnet.solana.com"
	MainnetRPCEndpoint = "https://api.mainnet-beta.solana.com"
)

// Commitment 账本确认级别
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Config 客户端配置
type Config struct {
	// Endpoint 节点端点地址
	Endpoint string

	// Protocol 协议类型
	Protocol Protocol

	// Timeout 超时时间（秒）
	Timeout int

	// Commitment 默认确认级别（为空时使用 confirmed）
	Commitment Commitment

	// Retry HTTP 重试策略（为 nil 时不重试，调用方按需设置 DefaultRetryConfig()）
	Retry *RetryConfig

	// 调试模式
	Debug bool

	// 日志器（可选）
	Logger Logger
}

// Protocol 协议类型
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// DefaultConfig 返回默认配置（devnet，HTTP）
func DefaultConfig() *Config {
	return &Config{
		Endpoint:   DevnetRPCEndpoint,
		Protocol:   ProtocolHTTP,
		Timeout:    30,
		Commitment: CommitmentConfirmed,
		Debug:      false,
	}
}

func (c *Config) commitment() Commitment {
	if c == nil || c.Commitment == "" {
		return CommitmentConfirmed
	}
	return c.Commitment
}

func (c *Config) logger() Logger {
	if c == nil || c.Logger == nil {
		return NopLogger
	}
	return c.Logger
}
