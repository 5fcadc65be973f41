package tensor

import (
	"runtime"
	"sync"
)

// MatMul computes dst = a * b. dst must be an F32 matrix of shape a.R x b.C
// and is overwritten. a and b may be F32 or F16; rows are decoded as they
// stream through, so F16 operands never materialize a full F32 copy.
//
// The kernel accumulates one row of b at a time (axpy order) so access stays
// sequential for every operand.
func MatMul(dst, a, b *Mat) {
	checkMatMul(dst, a, b)
	matMulRange(dst, a, b, 0, a.R, make([]float32, a.C), make([]float32, b.C))
}

// MatMulParallel computes dst = a * b splitting output rows across a shared
// worker pool. Small inputs fall back to the serial kernel.
func MatMulParallel(dst, a, b *Mat) {
	checkMatMul(dst, a, b)

	pool := getMatMulPool()
	workers := pool.size
	if workers > a.R {
		workers = a.R
	}
	if workers <= 1 || a.R*b.C < parallelThreshold {
		matMulRange(dst, a, b, 0, a.R, make([]float32, a.C), make([]float32, b.C))
		return
	}

	chunk := (a.R + workers - 1) / workers
	var wg sync.WaitGroup
	for rs := 0; rs < a.R; rs += chunk {
		re := rs + chunk
		if re > a.R {
			re = a.R
		}
		wg.Add(1)
		pool.tasks <- matMulTask{dst: dst, a: a, b: b, rs: rs, re: re, wg: &wg}
	}
	wg.Wait()
}

// parallelThreshold is the output element count below which goroutine
// scheduling costs more than the multiply itself.
const parallelThreshold = 4096

func checkMatMul(dst, a, b *Mat) {
	if a.C != b.R {
		panic("tensor: matmul inner dimension mismatch")
	}
	if dst.DType != F32 || dst.R != a.R || dst.C != b.C {
		panic("tensor: matmul destination shape mismatch")
	}
}

func matMulRange(dst, a, b *Mat, rs, re int, arow, brow []float32) {
	for i := rs; i < re; i++ {
		a.RowTo(arow, i)
		drow := dst.Data[i*dst.C : (i+1)*dst.C]
		for j := range drow {
			drow[j] = 0
		}
		for k := 0; k < a.C; k++ {
			s := arow[k]
			if s == 0 {
				continue
			}
			b.RowTo(brow, k)
			for j, v := range brow {
				drow[j] += s * v
			}
		}
	}
}

type matMulTask struct {
	dst, a, b *Mat
	rs, re    int
	wg        *sync.WaitGroup
}

type matMulPool struct {
	size  int
	tasks chan matMulTask
}

var (
	matMulWorkPool *matMulPool
	matMulPoolOnce sync.Once
)

func getMatMulPool() *matMulPool {
	matMulPoolOnce.Do(func() {
		size := runtime.GOMAXPROCS(0)
		if size < 1 {
			size = 1
		}
		p := &matMulPool{
			size:  size,
			tasks: make(chan matMulTask, size*2),
		}
		for i := 0; i < size; i++ {
			go func() {
				var arow, brow []float32
				for task := range p.tasks {
					if cap(arow) < task.a.C {
						arow = make([]float32, task.a.C)
					}
					if cap(brow) < task.b.C {
						brow = make([]float32, task.b.C)
					}
					matMulRange(task.dst, task.a, task.b, task.rs, task.re, arow[:task.a.C], brow[:task.b.C])
					task.wg.Done()
				}
			}()
		}
		matMulWorkPool = p
	})
	return matMulWorkPool
}
