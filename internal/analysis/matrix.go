package analysis

import "gonum.org/v1/gonum/mat"

// A nil *mat.Dense stands for a zero block throughout the assembly; gonum's
// constructors reject zero-sized matrices.

func zeroBlock(r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return nil
	}
	return mat.NewDense(r, c, nil)
}

func eyeBlock(n int, scale float64) *mat.Dense {
	if n == 0 {
		return nil
	}
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, scale)
	}
	return out
}

// norm maps an empty matrix to nil so the remaining helpers only see real
// blocks or nil.
func norm(m *mat.Dense) *mat.Dense {
	if m == nil || m.IsEmpty() {
		return nil
	}
	return m
}

// put copies src into dst at (r0, c0); nil blocks are zero and dst nil means
// the whole target is zero-sized.
func put(dst *mat.Dense, r0, c0 int, src *mat.Dense) {
	if dst == nil || norm(src) == nil {
		return
	}
	r, c := src.Dims()
	dst.Slice(r0, r0+r, c0, c0+c).(*mat.Dense).Copy(src)
}

// mulz multiplies, propagating nil as zero.
func mulz(a, b *mat.Dense) *mat.Dense {
	if norm(a) == nil || norm(b) == nil {
		return nil
	}
	ar, _ := a.Dims()
	_, bc := b.Dims()
	out := mat.NewDense(ar, bc, nil)
	out.Mul(a, b)
	return out
}

func transposeBlock(m *mat.Dense) *mat.Dense {
	if norm(m) == nil {
		return nil
	}
	r, c := m.Dims()
	out := mat.NewDense(c, r, nil)
	out.Copy(m.T())
	return out
}

// selection builds the len(idx) x cols matrix picking the given rows.
func selection(idx []int, cols int) *mat.Dense {
	if len(idx) == 0 || cols == 0 {
		return nil
	}
	out := mat.NewDense(len(idx), cols, nil)
	for i, j := range idx {
		out.Set(i, j, 1)
	}
	return out
}
