package api

// Network 后端网络预设
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkDevnet  Network = "devnet"
)

// 后端基础地址
const (
	MainnetBaseURL = "https://api.x84.ai"
	DevnetBaseURL  = "https://api-dev.x84.ai"
)

// Cursor 分页游标
type Cursor struct {
	Next    *string `json:"next"`
	HasMore bool    `json:"hasMore"`
}

// Page 分页响应
type Page[T any] struct {
	Data   []T    `json:"data"`
	Cursor Cursor `json:"cursor"`
}

// ListAgentsParams 代理列表查询参数（零值字段不发送）
type ListAgentsParams struct {
	Cursor   string
	Limit    int
	Q        string
	Category string
	Active   *bool
	Owner    string
}

// ReputationSummary 信誉汇总
type ReputationSummary struct {
	VerifiedCount      int     `json:"verifiedCount"`
	VerifiedAvgScore   float64 `json:"verifiedAvgScore"`
	UnverifiedCount    int     `json:"unverifiedCount"`
	UnverifiedAvgScore float64 `json:"unverifiedAvgScore"`
	ValidationCount    int     `json:"validationCount"`
}

// AgentListItem 代理列表项
type AgentListItem struct {
	NftMint     string            `json:"nftMint"`
	Owner       string            `json:"owner"`
	MetadataURI string            `json:"metadataUri,omitempty"`
	Categories  []string          `json:"categories,omitempty"`
	Active      bool              `json:"active"`
	Reputation  ReputationSummary `json:"reputation"`
}

// AgentDetail 代理详情
type AgentDetail struct {
	AgentListItem
	Address           string         `json:"address"`
	OwnerVersion      uint64         `json:"ownerVersion"`
	FeedbackAuthority string         `json:"feedbackAuthority"`
	MetadataHash      string         `json:"metadataHash,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	DelegationCount   uint64         `json:"delegationCount"`
	Services          []AgentService `json:"services"`
}

// GetAgentServicesParams 服务查询参数
type GetAgentServicesParams struct {
	ServiceType string
	Active      *bool
}

// AgentService 服务条目
type AgentService struct {
	Address     string `json:"address"`
	ServiceType string `json:"serviceType"`
	Endpoint    string `json:"endpoint,omitempty"`
	Version     string `json:"version,omitempty"`
	Active      bool   `json:"active"`
}

// GetAgentFeedbackParams 反馈查询参数
type GetAgentFeedbackParams struct {
	Reviewer string
	Verified *bool
}

// FeedbackEntry 反馈条目
type FeedbackEntry struct {
	Address         string `json:"address"`
	Reviewer        string `json:"reviewer"`
	Score           int    `json:"score"`
	DetailURI       string `json:"detailUri"`
	Tag1            string `json:"tag1"`
	Tag2            string `json:"tag2"`
	AuthVerified    bool   `json:"authVerified"`
	HasPaymentProof bool   `json:"hasPaymentProof"`
	PaymentAmount   uint64 `json:"paymentAmount"`
	PaymentToken    string `json:"paymentToken"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// Category 分类
type Category struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// RegisterAgentParams 注册请求（后端共同签名）
type RegisterAgentParams struct {
	Name         string   `json:"name"`
	OwnerAddress string   `json:"ownerAddress"`
	MetadataURI  string   `json:"metadataUri"`
	Tags         []string `json:"tags,omitempty"`
}

// RegisterAgentResponse 注册响应
type RegisterAgentResponse struct {
	// Transaction base64 编码、已由后端部分签名的交易
	Transaction          string `json:"transaction"`
	AssetPublicKey       string `json:"assetPublicKey"`
	AgentPDA             string `json:"agentPda"`
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
