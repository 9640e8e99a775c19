package geom

import (
	"math"
	"math/big"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Static forward error bounds for the double-precision determinants. When
// the computed determinant's magnitude exceeds bound*permanent its sign is
// certain; otherwise the predicate falls back to exact rational arithmetic.
var (
	epsilon       = math.Ldexp(1, -53)
	orientBound   = (3 + 16*epsilon) * epsilon
	inCircleBound = (10 + 96*epsilon) * epsilon
)

// Orient2D returns +1 if a, b, c make a counter-clockwise turn, -1 for a
// clockwise turn and 0 when they are collinear. The sign is exact.
func Orient2D(a, b, c v2.Vec) int {
	detLeft := (a.X - c.X) * (b.Y - c.Y)
	detRight := (a.Y - c.Y) * (b.X - c.X)
	det := detLeft - detRight
	perm := math.Abs(detLeft) + math.Abs(detRight)
	if math.Abs(det) > orientBound*perm {
		return sign(det)
	}
	return orientExact(a, b, c)
}

// InCircle returns +1 if d lies strictly inside the circumcircle of the
// counter-clockwise triangle a, b, c, -1 if strictly outside and 0 if the
// four points are co-circular. For a clockwise triangle the sign flips. The
// sign is exact.
func InCircle(a, b, c, d v2.Vec) int {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y

	bdxcdy, cdxbdy := bdx*cdy, cdx*bdy
	alift := adx*adx + ady*ady
	cdxady, adxcdy := cdx*ady, adx*cdy
	blift := bdx*bdx + bdy*bdy
	adxbdy, bdxady := adx*bdy, bdx*ady
	clift := cdx*cdx + cdy*cdy

	det := alift*(bdxcdy-cdxbdy) + blift*(cdxady-adxcdy) + clift*(adxbdy-bdxady)
	perm := (math.Abs(bdxcdy)+math.Abs(cdxbdy))*alift +
		(math.Abs(cdxady)+math.Abs(adxcdy))*blift +
		(math.Abs(adxbdy)+math.Abs(bdxady))*clift
	if math.Abs(det) > inCircleBound*perm {
		return sign(det)
	}
	return inCircleExact(a, b, c, d)
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func rat(f float64) *big.Rat {
	return new(big.Rat).SetFloat64(f)
}

func sub(a, b float64) *big.Rat {
	return new(big.Rat).Sub(rat(a), rat(b))
}

func mul(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Mul(a, b)
}

func orientExact(a, b, c v2.Vec) int {
	l := mul(sub(a.X, c.X), sub(b.Y, c.Y))
	r := mul(sub(a.Y, c.Y), sub(b.X, c.X))
	return l.Sub(l, r).Sign()
}

func inCircleExact(a, b, c, d v2.Vec) int {
	adx, ady := sub(a.X, d.X), sub(a.Y, d.Y)
	bdx, bdy := sub(b.X, d.X), sub(b.Y, d.Y)
	cdx, cdy := sub(c.X, d.X), sub(c.Y, d.Y)

	lift := func(x, y *big.Rat) *big.Rat {
		s := mul(x, x)
		return s.Add(s, mul(y, y))
	}
	cross := func(x1, y1, x2, y2 *big.Rat) *big.Rat {
		s := mul(x1, y2)
		return s.Sub(s, mul(x2, y1))
	}

	det := mul(lift(adx, ady), cross(bdx, bdy, cdx, cdy))
	det.Add(det, mul(lift(bdx, bdy), cross(cdx, cdy, adx, ady)))
	det.Add(det, mul(lift(cdx, cdy), cross(adx, ady, bdx, bdy)))
	return det.Sign()
}
