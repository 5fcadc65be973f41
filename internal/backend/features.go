package backend

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// simdHint names the widest vector extension the host advertises. It is
// informational only: the pure-Go kernels benefit from wide vectors through
// the compiler, not through hand-written assembly.
func simdHint() string {
	if runtime.GOARCH == "amd64" {
		switch {
		case cpu.X86.HasAVX512F:
			return "avx512"
		case cpu.X86.HasAVX2:
			return "avx2"
		case cpu.X86.HasAVX:
			return "avx"
		case cpu.X86.HasSSE42:
			return "sse4.2"
		}
	}
	if runtime.GOARCH == "arm64" && cpu.ARM64.HasASIMD {
		return "neon"
	}
	return "none"
}
