package event

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/x84-ai/client-sdk-go/types"
)

// ProgramDataPrefix Anchor emit! 写入的日志前缀
const ProgramDataPrefix = "Program data: "

// ErrUnknownEvent 判别码不属于任何已知事件
var ErrUnknownEvent = errors.New("unknown event discriminator")

// DecodeEventData 解码一条事件负载（8 字节判别码 ‖ Borsh 字段）
func DecodeEventData(data []byte) (Event, error) {
	if len(data) < types.DiscriminatorLength {
		return nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}
	var disc types.Discriminator
	copy(disc[:], data[:types.DiscriminatorLength])
	fn, ok := registry[disc]
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrUnknownEvent, disc[:])
	}
	ev, err := fn(types.NewReader(data[types.DiscriminatorLength:]))
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeLogs 从交易日志中解码 programID 发出的事件
//
// 按 "Program <id> invoke [n]" / "Program <id> success|failed" 维护调用栈，
// 只有栈顶为 programID 时的 "Program data: <base64>" 行才会被解码；
// 其他程序（包括被 x84 CPI 调用的程序）写入的同名负载被忽略。
// 无法识别或解码失败的行被跳过，结果保持日志中的出现顺序。
func DecodeLogs(programID types.PublicKey, logs []string) []Event {
	program := programID.String()
	var (
		out   []Event
		stack []string
	)
	for _, line := range logs {
		if payload, ok := strings.CutPrefix(line, ProgramDataPrefix); ok {
			if len(stack) == 0 || stack[len(stack)-1] != program {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
			if err != nil {
				continue
			}
			ev, err := DecodeEventData(data)
			if err != nil {
				continue
			}
			out = append(out, ev)
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "Program" {
			continue
		}
		switch {
		case fields[2] == "invoke":
			stack = append(stack, fields[1])
		case fields[2] == "success", strings.HasPrefix(fields[2], "failed"):
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return out
}

// EncodeLogLine 将事件负载编码为日志行（测试与回放使用）
func EncodeLogLine(data []byte) string {
	return ProgramDataPrefix + base64.StdEncoding.EncodeToString(data)
}
