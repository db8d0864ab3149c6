package settlement

import (
	"math/bits"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

const bpsDenominator = 10_000

// Fee 手续费拆分
type Fee struct {
	Fee uint64
	Net uint64
}

// ComputeFee 计算协议手续费：floor(amount·bps/10000)，128 位中间结果
//
// bps 超过 MaxSettlementFeeBps 时返回校验错误。
func ComputeFee(amount uint64, bps uint16) (Fee, error) {
	if bps > services.MaxSettlementFeeBps {
		return Fee{}, types.NewValidationError("settlementFeeBps", types.ErrValueOutOfRange, "%d exceeds maximum %d", bps, services.MaxSettlementFeeBps)
	}
	hi, lo := bits.Mul64(amount, uint64(bps))
	// hi < bps ≤ 1000 < 10000，Div64 不会溢出
	fee, _ := bits.Div64(hi, lo, bpsDenominator)
	return Fee{Fee: fee, Net: amount - fee}, nil
}
