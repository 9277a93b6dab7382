package serial

import "bytes"

// Terminator 是 TMU 帧结束符（回车）
const Terminator byte = 0x0D

// ExtractFrame 从 buf 中取出第一帧：
//   - frame: 终止符之前的字节（不含终止符）
//   - rest:  终止符之后的剩余字节，终止符本身被丢弃
//   - ok:    未找到终止符时为 false，此时 rest 即原 buf，等待后续数据
func ExtractFrame(buf []byte) (frame []byte, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, Terminator)
	if i < 0 {
		return nil, buf, false
	}
	return buf[:i], buf[i+1:], true
}
