package ir

import (
	"math"
	"math/big"
)

// F80 is an x87 80-bit extended-precision value in its exact machine layout:
// a sign bit and 15-bit biased exponent, plus a 64-bit significand with an
// explicit integer bit. Arithmetic goes through math/big at 64-bit precision.
type F80 struct {
	se   uint16 // sign (bit 15) and biased exponent
	mant uint64 // significand including the integer bit
}

func (F80) irValue() {}

const (
	f80Bias     = 16383
	f80MaxExp   = 0x7FFF
	f80IntBit   = uint64(1) << 63
	f80QuietNaN = uint64(3) << 62
)

// F80FromBits builds a value from its sign/exponent word and significand.
func F80FromBits(se uint16, mant uint64) F80 {
	return F80{se: se, mant: mant}
}

// Bits returns the sign/exponent word and significand.
func (f F80) Bits() (uint16, uint64) {
	return f.se, f.mant
}

// F80NaN returns the default quiet NaN.
func F80NaN() F80 {
	return F80{se: f80MaxExp, mant: f80QuietNaN}
}

// F80Inf returns positive or negative infinity.
func F80Inf(negative bool) F80 {
	f := F80{se: f80MaxExp, mant: f80IntBit}
	if negative {
		f.se |= 0x8000
	}
	return f
}

func (f F80) exp() int       { return int(f.se & f80MaxExp) }
func (f F80) negative() bool { return f.se&0x8000 != 0 }

// IsNaN reports whether f is a NaN.
func (f F80) IsNaN() bool {
	return f.exp() == f80MaxExp && f.mant<<1 != 0
}

// IsInf reports whether f is an infinity.
func (f F80) IsInf() bool {
	return f.exp() == f80MaxExp && f.mant<<1 == 0
}

// IsZero reports whether f is positive or negative zero.
func (f F80) IsZero() bool {
	return f.mant == 0 && f.exp() != f80MaxExp
}

// Neg flips the sign.
func (f F80) Neg() F80 {
	return F80{se: f.se ^ 0x8000, mant: f.mant}
}

// Big returns f as a big.Float. Infinities map to big infinities.
// The result is undefined for NaN; callers check IsNaN first.
func (f F80) Big() *big.Float {
	r := new(big.Float).SetPrec(64)
	switch {
	case f.IsInf():
		r.SetInf(f.negative())
		return r
	case f.mant == 0:
		if f.negative() {
			r.Neg(r)
		}
		return r
	}
	e := f.exp()
	if e == 0 {
		e = 1 // denormal
	}
	r.SetUint64(f.mant)
	r.SetMantExp(r, e-f80Bias-63)
	if f.negative() {
		r.Neg(r)
	}
	return r
}

// F80FromBig rounds x to extended precision (round to nearest even).
func F80FromBig(x *big.Float) F80 {
	var sign uint16
	if x.Signbit() {
		sign = 0x8000
	}
	if x.IsInf() {
		return F80Inf(sign != 0)
	}
	if x.Sign() == 0 {
		return F80{se: sign}
	}
	abs := new(big.Float).SetPrec(x.Prec()).Abs(x)
	r := new(big.Float).SetPrec(64).SetMode(big.ToNearestEven).Set(abs)
	m := new(big.Float)
	e := r.MantExp(m) // r = m * 2^e, 0.5 <= m < 1
	biased := e - 1 + f80Bias
	if biased >= f80MaxExp {
		return F80Inf(sign != 0)
	}
	if biased > 0 {
		m.SetMantExp(m, 64)
		u, _ := m.Uint64()
		return F80{se: sign | uint16(biased), mant: u}
	}
	// Denormal: value = mant * 2^(1-bias-63).
	scaled := new(big.Float).SetPrec(abs.Prec() + 64).SetMantExp(abs, f80Bias-1+63)
	u := roundHalfEven(scaled)
	if u >= f80IntBit {
		return F80{se: sign | 1, mant: u}
	}
	return F80{se: sign, mant: u}
}

func roundHalfEven(x *big.Float) uint64 {
	i, _ := x.Int(nil) // truncates toward zero; x is non-negative
	frac := new(big.Float).Sub(x, new(big.Float).SetInt(i))
	half := big.NewFloat(0.5)
	switch frac.Cmp(half) {
	case 1:
		i.Add(i, big.NewInt(1))
	case 0:
		if i.Bit(0) == 1 {
			i.Add(i, big.NewInt(1))
		}
	}
	return i.Uint64()
}

// F80FromFloat64 converts exactly; every float64 is representable.
func F80FromFloat64(v float64) F80 {
	switch {
	case math.IsNaN(v):
		return F80NaN()
	case math.IsInf(v, 0):
		return F80Inf(v < 0)
	}
	return F80FromBig(new(big.Float).SetFloat64(v))
}

// F80FromInt converts an integer, rounding to 64 significant bits.
func F80FromInt(x *big.Int) F80 {
	return F80FromBig(new(big.Float).SetPrec(uint(x.BitLen()) + 1).SetInt(x))
}

// Float64 rounds to double precision.
func (f F80) Float64() float64 {
	if f.IsNaN() {
		return math.NaN()
	}
	v, _ := f.Big().Float64()
	return v
}

// Float32 rounds to single precision.
func (f F80) Float32() float32 {
	if f.IsNaN() {
		return float32(math.NaN())
	}
	v, _ := f.Big().Float32()
	return v
}

// Int truncates toward zero. ok is false for NaN and infinities.
func (f F80) Int() (*big.Int, bool) {
	if f.IsNaN() || f.IsInf() {
		return nil, false
	}
	i, _ := f.Big().Int(nil)
	return i, true
}

// Cmp compares a and b. unordered is true when either is NaN, in which case
// the ordering result is meaningless.
func (f F80) Cmp(g F80) (ord int, unordered bool) {
	if f.IsNaN() || g.IsNaN() {
		return 0, true
	}
	return f.Big().Cmp(g.Big()), false
}

// Add returns f+g.
func (f F80) Add(g F80) F80 {
	if f.IsNaN() || g.IsNaN() {
		return F80NaN()
	}
	if f.IsInf() && g.IsInf() && f.negative() != g.negative() {
		return F80NaN()
	}
	return F80FromBig(new(big.Float).SetPrec(128).Add(f.Big(), g.Big()))
}

// Sub returns f-g.
func (f F80) Sub(g F80) F80 {
	return f.Add(g.Neg())
}

// Mul returns f*g.
func (f F80) Mul(g F80) F80 {
	if f.IsNaN() || g.IsNaN() {
		return F80NaN()
	}
	if (f.IsInf() && g.IsZero()) || (f.IsZero() && g.IsInf()) {
		return F80NaN()
	}
	return F80FromBig(new(big.Float).SetPrec(128).Mul(f.Big(), g.Big()))
}

// Quo returns f/g.
func (f F80) Quo(g F80) F80 {
	if f.IsNaN() || g.IsNaN() {
		return F80NaN()
	}
	if (f.IsZero() && g.IsZero()) || (f.IsInf() && g.IsInf()) {
		return F80NaN()
	}
	return F80FromBig(new(big.Float).SetPrec(128).Quo(f.Big(), g.Big()))
}

// Rem returns the C fmod remainder of f/g, computed exactly.
func (f F80) Rem(g F80) F80 {
	if f.IsNaN() || g.IsNaN() || f.IsInf() || g.IsZero() {
		return F80NaN()
	}
	if g.IsInf() || f.IsZero() {
		return f
	}
	ma, ea := f.intMantExp()
	mb, eb := g.intMantExp()
	e := min(ea, eb)
	a := new(big.Int).Lsh(new(big.Int).SetUint64(ma), uint(ea-e))
	b := new(big.Int).Lsh(new(big.Int).SetUint64(mb), uint(eb-e))
	r := new(big.Int).Rem(a, b)
	res := new(big.Float).SetPrec(uint(max(r.BitLen(), 1))).SetInt(r)
	res.SetMantExp(res, e)
	if f.negative() {
		res.Neg(res)
	}
	return F80FromBig(res)
}

// intMantExp returns the integer significand and unbiased exponent so that
// |f| = mant * 2^exp.
func (f F80) intMantExp() (uint64, int) {
	e := f.exp()
	if e == 0 {
		e = 1
	}
	return f.mant, e - f80Bias - 63
}

// String renders f with 21 significant digits.
func (f F80) String() string {
	switch {
	case f.IsNaN():
		return "nan"
	case f.IsInf() && f.negative():
		return "-inf"
	case f.IsInf():
		return "+inf"
	}
	return f.Big().Text('g', 21)
}
