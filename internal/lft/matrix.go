package lft

import "gonum.org/v1/gonum/mat"

// emptyDense stands in for any zero-sized block; gonum's constructors reject
// zero dimensions.
func emptyDense() *mat.Dense { return &mat.Dense{} }

func zeroMat(r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return emptyDense()
	}
	return mat.NewDense(r, c, nil)
}

// sub extracts the nr x nc block of m anchored at (r0, c0), materializing
// a possibly-empty m as an all-zero matrix of the stated full size first.
func sub(m *mat.Dense, fullR, fullC, r0, nr, c0, nc int) *mat.Dense {
	if nr == 0 || nc == 0 {
		return emptyDense()
	}
	if m == nil || m.IsEmpty() {
		return zeroMat(nr, nc)
	}
	out := mat.NewDense(nr, nc, nil)
	out.Copy(m.Slice(r0, r0+nr, c0, c0+nc))
	return out
}

// grid assembles a block matrix from rows of blocks. A nil block is zero.
// Row heights and column widths are taken from the declared layouts so that
// empty blocks do not lose their size.
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
		return emptyDense()
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

// mulMat multiplies treating empty operands as zero blocks of the stated
// result size.
func mulMat(a, b *mat.Dense, r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return emptyDense()
	}
	if a == nil || a.IsEmpty() || b == nil || b.IsEmpty() {
		return zeroMat(r, c)
	}
	out := mat.NewDense(r, c, nil)
	out.Mul(a, b)
	return out
}

func addMat(a, b *mat.Dense, r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return emptyDense()
	}
	aEmpty := a == nil || a.IsEmpty()
	bEmpty := b == nil || b.IsEmpty()
	switch {
	case aEmpty && bEmpty:
		return zeroMat(r, c)
	case aEmpty:
		return mat.DenseCopyOf(b)
	case bEmpty:
		return mat.DenseCopyOf(a)
	}
	out := mat.NewDense(r, c, nil)
	out.Add(a, b)
	return out
}
