package ss

import "gonum.org/v1/gonum/mat"

func zeros(r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		// gonum rejects zero-sized Dense; keep an explicit empty stand-in
		// with the requested logical shape encoded as 0x0.
		return &mat.Dense{}
	}
	return mat.NewDense(r, c, nil)
}

func eye(n int, scale float64) *mat.Dense {
	m := zeros(n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, scale)
	}
	return m
}

func dims(m *mat.Dense) (int, int) {
	if m.IsEmpty() {
		return 0, 0
	}
	return m.Dims()
}

// hstack places a and b side by side. Empty operands are treated as
// zero-width blocks of the other operand's row count.
func hstack(a, b *mat.Dense) *mat.Dense {
	ra, ca := dims(a)
	rb, cb := dims(b)
	if ca == 0 {
		return b
	}
	if cb == 0 {
		return a
	}
	r := ra
	if rb > r {
		r = rb
	}
	out := zeros(r, ca+cb)
	if ra > 0 {
		out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	}
	if rb > 0 {
		out.Slice(0, rb, ca, ca+cb).(*mat.Dense).Copy(b)
	}
	return out
}

// vstack places a above b.
func vstack(a, b *mat.Dense) *mat.Dense {
	ra, ca := dims(a)
	rb, cb := dims(b)
	if ra == 0 {
		return b
	}
	if rb == 0 {
		return a
	}
	c := ca
	if cb > c {
		c = cb
	}
	out := zeros(ra+rb, c)
	if ca > 0 {
		out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	}
	if cb > 0 {
		out.Slice(ra, ra+rb, 0, cb).(*mat.Dense).Copy(b)
	}
	return out
}

// blkdiag places a and b on the diagonal of a larger zero matrix.
func blkdiag(a, b *mat.Dense) *mat.Dense {
	ra, ca := dims(a)
	rb, cb := dims(b)
	if ra == 0 && ca == 0 {
		return b
	}
	if rb == 0 && cb == 0 {
		return a
	}
	out := zeros(ra+rb, ca+cb)
	if ra > 0 && ca > 0 {
		out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	}
	if rb > 0 && cb > 0 {
		out.Slice(ra, ra+rb, ca, ca+cb).(*mat.Dense).Copy(b)
	}
	return out
}

// grid assembles a block matrix from rows of blocks. A nil block is zero.
// Row heights and column widths come from the declared layout so that empty
// operands keep their logical size in the stacked result.
func grid(heights, widths []int, blocks [][]*mat.Dense) *mat.Dense {
	total := func(xs []int) int {
		n := 0
		for _, x := range xs {
			n += x
		}
		return n
	}
	r, c := total(heights), total(widths)
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(r, c, nil)
	r0 := 0
	for i, row := range blocks {
		c0 := 0
		for j, blk := range row {
			if blk != nil && !blk.IsEmpty() {
				out.Slice(r0, r0+heights[i], c0, c0+widths[j]).(*mat.Dense).Copy(blk)
			}
			c0 += widths[j]
		}
		r0 += heights[i]
	}
	return out
}

// mul multiplies a by b, treating empty operands as zero maps.
func mul(a, b *mat.Dense) *mat.Dense {
	ra, ca := dims(a)
	rb, cb := dims(b)
	if ca == 0 || rb == 0 || ra == 0 || cb == 0 {
		return zeros(ra, cb)
	}
	out := mat.NewDense(ra, cb, nil)
	out.Mul(a, b)
	return out
}

// add sums a and b; empty operands act as zero.
func add(a, b *mat.Dense) *mat.Dense {
	ra, ca := dims(a)
	rb, cb := dims(b)
	if ra == 0 || ca == 0 {
		return b
	}
	if rb == 0 || cb == 0 {
		return a
	}
	out := mat.NewDense(ra, ca, nil)
	out.Add(a, b)
	return out
}
