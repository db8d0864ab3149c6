// Package delegation 委托层级模型与委托指令
//
// Config 为不可变值，With* 返回修改后的副本；Finalize 依据父委托快照做子集校验，
// 只拒绝不合法的配置，从不自动收窄。
package delegation

import (
	"github.com/x84-ai/client-sdk-go/services/account"
	"github.com/x84-ai/client-sdk-go/types"
)

// MaxDepth 委托最大深度（根委托深度为 0）
const MaxDepth = 2

// Permissions 七项权限
type Permissions struct {
	Transact         bool
	GiveFeedback     bool
	UpdateMetadata   bool
	UpdatePricing    bool
	RegisterServices bool
	Manage           bool
	Redelegate       bool
}

// AllPermissions 全部权限
func AllPermissions() Permissions {
	return Permissions{true, true, true, true, true, true, true}
}

// SubsetOf 每项为 true 的权限在 parent 中也为 true
func (p Permissions) SubsetOf(parent Permissions) bool {
	return implies(p.Transact, parent.Transact) &&
		implies(p.GiveFeedback, parent.GiveFeedback) &&
		implies(p.UpdateMetadata, parent.UpdateMetadata) &&
		implies(p.UpdatePricing, parent.UpdatePricing) &&
		implies(p.RegisterServices, parent.RegisterServices) &&
		implies(p.Manage, parent.Manage) &&
		implies(p.Redelegate, parent.Redelegate)
}

func implies(a, b bool) bool {
	return !a || b
}

// Constraints 委托约束，零值表示不限制
type Constraints struct {
	MaxSpendPerTx   uint64
	MaxSpendTotal   uint64
	AllowedTokens   []types.PublicKey
	AllowedPrograms []types.PublicKey
	ExpiresAt       int64
	UsesRemaining   uint64
}

func (c Constraints) clone() Constraints {
	c.AllowedTokens = cloneKeys(c.AllowedTokens)
	c.AllowedPrograms = cloneKeys(c.AllowedPrograms)
	return c
}

func cloneKeys(in []types.PublicKey) []types.PublicKey {
	if in == nil {
		return nil
	}
	out := make([]types.PublicKey, len(in))
	copy(out, in)
	return out
}

// ParentDelegation 父委托快照（按地址引用）
type ParentDelegation struct {
	Address     types.PublicKey
	Depth       uint8
	Active      bool
	Permissions Permissions
	Constraints Constraints
}

// ParentFromAccount 由链上委托账户构造父委托快照
func ParentFromAccount(address types.PublicKey, d *account.Delegation) *ParentDelegation {
	return &ParentDelegation{
		Address:     address,
		Depth:       d.Depth,
		Active:      d.Active,
		Permissions: PermissionsOf(d),
		Constraints: Constraints{
			MaxSpendPerTx:   d.MaxSpendPerTx,
			MaxSpendTotal:   d.MaxSpendTotal,
			AllowedTokens:   cloneKeys(d.AllowedTokens),
			AllowedPrograms: cloneKeys(d.AllowedPrograms),
			ExpiresAt:       d.ExpiresAt,
			UsesRemaining:   d.UsesRemaining,
		},
	}
}

// PermissionsOf 读取委托账户的权限位
func PermissionsOf(d *account.Delegation) Permissions {
	return Permissions{
		Transact:         d.CanTransact,
		GiveFeedback:     d.CanGiveFeedback,
		UpdateMetadata:   d.CanUpdateMetadata,
		UpdatePricing:    d.CanUpdatePricing,
		RegisterServices: d.CanRegisterServices,
		Manage:           d.CanManage,
		Redelegate:       d.CanRedelegate,
	}
}

// Config 委托配置（不可变）
type Config struct {
	permissions Permissions
	constraints Constraints
}

// NewConfig 空配置：无权限、无约束
func NewConfig() Config {
	return Config{}
}

func (c Config) Permissions() Permissions { return c.permissions }

// Constraints 返回约束副本
func (c Config) Constraints() Constraints { return c.constraints.clone() }

func (c Config) with(fn func(*Config)) Config {
	next := Config{permissions: c.permissions, constraints: c.constraints.clone()}
	fn(&next)
	return next
}

func (c Config) WithTransact() Config {
	return c.with(func(n *Config) { n.permissions.Transact = true })
}

func (c Config) WithGiveFeedback() Config {
	return c.with(func(n *Config) { n.permissions.GiveFeedback = true })
}

func (c Config) WithUpdateMetadata() Config {
	return c.with(func(n *Config) { n.permissions.UpdateMetadata = true })
}

func (c Config) WithUpdatePricing() Config {
	return c.with(func(n *Config) { n.permissions.UpdatePricing = true })
}

func (c Config) WithRegisterServices() Config {
	return c.with(func(n *Config) { n.permissions.RegisterServices = true })
}

func (c Config) WithManage() Config {
	return c.with(func(n *Config) { n.permissions.Manage = true })
}

func (c Config) WithRedelegate() Config {
	return c.with(func(n *Config) { n.permissions.Redelegate = true })
}

// WithPermissions 整体替换权限
func (c Config) WithPermissions(p Permissions) Config {
	return c.with(func(n *Config) { n.permissions = p })
}

// WithSpendLimit 单笔与累计上限（0 表示不限制）
func (c Config) WithSpendLimit(perTx, total uint64) Config {
	return c.with(func(n *Config) {
		n.constraints.MaxSpendPerTx = perTx
		n.constraints.MaxSpendTotal = total
	})
}

// WithTokens 允许的代币（空表示全部允许）
func (c Config) WithTokens(mints ...types.PublicKey) Config {
	return c.with(func(n *Config) { n.constraints.AllowedTokens = cloneKeys(mints) })
}

// WithPrograms 允许的程序（空表示全部允许）
func (c Config) WithPrograms(ids ...types.PublicKey) Config {
	return c.with(func(n *Config) { n.constraints.AllowedPrograms = cloneKeys(ids) })
}

// WithExpiry 过期时间（Unix 秒，0 表示永不过期）
func (c Config) WithExpiry(unixSeconds int64) Config {
	return c.with(func(n *Config) { n.constraints.ExpiresAt = unixSeconds })
}

// WithUses 可用次数（0 表示不限制）
func (c Config) WithUses(count uint64) Config {
	return c.with(func(n *Config) { n.constraints.UsesRemaining = count })
}

// Finalized 通过校验的委托配置
type Finalized struct {
	Permissions Permissions
	Constraints Constraints
	// Parent 父委托地址，根委托为 nil
	Parent *types.PublicKey
	Depth  uint8
}

// Finalize 校验配置并生成可编码的委托参数
//
// 依次检查（各有独立错误）：
// 1. 父委托可再委托且处于激活状态
// 2. 深度 parent.Depth+1 ≤ MaxDepth
// 3. 单笔与累计上限不超过父委托（父为 0 时不限制；子为 0 而父有限视为超出）
// 4. 代币与程序白名单为父的子集（父为空时不限制；子为空而父非空视为超出）
// 5. 过期时间不晚于父委托（子为 0 而父有限视为超出）
// 6. 权限为父的子集
//
// 任何情况下都先检查白名单数量上限。
func (c Config) Finalize(parent *ParentDelegation) (*Finalized, error) {
	cons := c.constraints.clone()
	if len(cons.AllowedTokens) > types.MaxAllowedTokens {
		return nil, types.NewValidationError("allowedTokens", ErrTooManyAllowedTokens, "%d entries, maximum %d", len(cons.AllowedTokens), types.MaxAllowedTokens)
	}
	if len(cons.AllowedPrograms) > types.MaxAllowedPrograms {
		return nil, types.NewValidationError("allowedPrograms", ErrTooManyAllowedPrograms, "%d entries, maximum %d", len(cons.AllowedPrograms), types.MaxAllowedPrograms)
	}

	out := &Finalized{Permissions: c.permissions, Constraints: cons}
	if parent == nil {
		return out, nil
	}

	// 1. 父委托状态
	if !parent.Permissions.Redelegate {
		return nil, types.NewValidationError("parentDelegation", ErrCannotRedelegate, "%s", parent.Address)
	}
	if !parent.Active {
		return nil, types.NewValidationError("parentDelegation", ErrParentInactive, "%s", parent.Address)
	}

	// 2. 深度
	depth := int(parent.Depth) + 1
	if depth > MaxDepth {
		return nil, types.NewValidationError("depth", ErrMaxDepthExceeded, "depth %d exceeds maximum %d", depth, MaxDepth)
	}

	// 3. 支出上限
	pc := parent.Constraints
	if exceedsLimit(cons.MaxSpendPerTx, pc.MaxSpendPerTx) {
		return nil, types.NewValidationError("maxSpendPerTx", ErrSpendExceedsParent, "%d exceeds parent limit %d", cons.MaxSpendPerTx, pc.MaxSpendPerTx)
	}
	if exceedsLimit(cons.MaxSpendTotal, pc.MaxSpendTotal) {
		return nil, types.NewValidationError("maxSpendTotal", ErrSpendExceedsParent, "%d exceeds parent limit %d", cons.MaxSpendTotal, pc.MaxSpendTotal)
	}

	// 4. 白名单
	if !subsetList(cons.AllowedTokens, pc.AllowedTokens) {
		return nil, types.NewValidationError("allowedTokens", ErrTokensNotSubset, "not a subset of parent's %d tokens", len(pc.AllowedTokens))
	}
	if !subsetList(cons.AllowedPrograms, pc.AllowedPrograms) {
		return nil, types.NewValidationError("allowedPrograms", ErrProgramsNotSubset, "not a subset of parent's %d programs", len(pc.AllowedPrograms))
	}

	// 5. 过期时间
	if pc.ExpiresAt != 0 && (cons.ExpiresAt == 0 || cons.ExpiresAt > pc.ExpiresAt) {
		return nil, types.NewValidationError("expiresAt", ErrExpiryExceedsParent, "%d exceeds parent expiry %d", cons.ExpiresAt, pc.ExpiresAt)
	}

	// 6. 权限
	if !c.permissions.SubsetOf(parent.Permissions) {
		return nil, types.NewValidationError("permissions", ErrPermissionsExceedParent, "child grants permissions the parent lacks")
	}

	addr := parent.Address
	out.Parent = &addr
	out.Depth = uint8(depth)
	return out, nil
}

// exceedsLimit 子上限是否超出父上限（0 表示不限制）
func exceedsLimit(child, parent uint64) bool {
	if parent == 0 {
		return false
	}
	return child == 0 || child > parent
}

// subsetList 子白名单是否为父白名单子集（空表示全部允许）
func subsetList(child, parent []types.PublicKey) bool {
	if len(parent) == 0 {
		return true
	}
	if len(child) == 0 {
		return false
	}
	allowed := make(map[types.PublicKey]struct{}, len(parent))
	for _, pk := range parent {
		allowed[pk] = struct{}{}
	}
	for _, pk := range child {
		if _, ok := allowed[pk]; !ok {
			return false
		}
	}
	return true
}
