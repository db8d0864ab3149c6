package utils

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// FileProgress 文件处理进度
type FileProgress struct {
	// Loaded 已处理字节数
	Loaded int64
	// Total 总字节数（未知时为 0）
	Total int64
	// Percentage 进度百分比（0-100）
	Percentage int
}

const hashBufferSize = 64 * 1024 // 64KB 缓冲区

// HashMetadataFile 流式计算元数据文件的 sha256
//
// 结果即注册/更新代理时上链的 metadataHash，与托管在 metadataUri 的内容逐字节对应。
//
// 示例：
//
//	hash, err := HashMetadataFile(ctx, "agent.json", func(p FileProgress) {
//	    fmt.Printf("Progress: %d%%\n", p.Percentage)
//	})
func HashMetadataFile(ctx context.Context, filePath string, onProgress func(FileProgress)) ([32]byte, error) {
	var out [32]byte
	file, err := os.Open(filePath)
	if err != nil {
		return out, fmt.Errorf("open file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return out, fmt.Errorf("get file info failed: %w", err)
	}
	return HashMetadata(ctx, file, fileInfo.Size(), onProgress)
}

// HashMetadata 流式计算 r 的 sha256；total 为预期长度，仅用于进度百分比
func HashMetadata(ctx context.Context, r io.Reader, total int64, onProgress func(FileProgress)) ([32]byte, error) {
	var out [32]byte
	h := sha256.New()
	buffer := make([]byte, hashBufferSize)
	var loaded int64

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		n, err := r.Read(buffer)
		if n > 0 {
			h.Write(buffer[:n])
			loaded += int64(n)
			if onProgress != nil {
				onProgress(newFileProgress(loaded, total))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read file failed: %w", err)
		}
	}

	copy(out[:], h.Sum(nil))
	return out, nil
}

func newFileProgress(loaded, total int64) FileProgress {
	p := FileProgress{Loaded: loaded, Total: total}
	if total > 0 {
		p.Percentage = int((loaded * 100) / total)
		if p.Percentage > 100 {
			p.Percentage = 100
		}
	}
	return p
}
