package algebra

// Dense polynomials are coefficient slices, lowest degree first.

// PolyBackend is the dense polynomial and vector arithmetic of one scalar
// field, bound to gnark-crypto's fr/polynomial and fr.Vector. Inputs are
// never empty.
type PolyBackend[E any] struct {
	Eval         func(p []E, x E) E
	Add          func(a, b []E) []E
	Scale        func(p []E, s E) []E
	MulPointwise func(a, b []E) []E
	InnerProduct func(a, b []E) E
	BatchInvert  func(v []E) []E
}

// Polynomials is the polynomial toolbox of a curve's scalar field. Products
// go through the curve's FFT domains; division and composition, which
// gnark-crypto does not provide for dense polynomials, are done here.
type Polynomials[E any, PE Element[E]] struct {
	be     PolyBackend[E]
	domain func(size uint64) (*Domain[E, PE], error)
}

func newPolynomials[E any, PE Element[E]](be PolyBackend[E], domain func(uint64) (*Domain[E, PE], error)) *Polynomials[E, PE] {
	return &Polynomials[E, PE]{be: be, domain: domain}
}

// Eval evaluates p at x.
func (me *Polynomials[E, PE]) Eval(p []E, x E) E {
	if len(p) == 0 {
		var zero E
		return zero
	}
	return me.be.Eval(p, x)
}

func (me *Polynomials[E, PE]) Add(a, b []E) []E {
	switch {
	case len(a) == 0:
		return append([]E(nil), b...)
	case len(b) == 0:
		return append([]E(nil), a...)
	}
	return me.be.Add(a, b)
}

func (me *Polynomials[E, PE]) Sub(a, b []E) []E {
	return me.AddScaled(a, Neg[E, PE](One[E, PE]()), b)
}

func (me *Polynomials[E, PE]) Scale(p []E, s E) []E {
	if len(p) == 0 {
		return nil
	}
	return me.be.Scale(p, s)
}

// Neg returns -p.
func (me *Polynomials[E, PE]) Neg(p []E) []E {
	return me.Scale(p, Neg[E, PE](One[E, PE]()))
}

// AddScaled returns a + s*b.
func (me *Polynomials[E, PE]) AddScaled(a []E, s E, b []E) []E {
	return me.Add(a, me.Scale(b, s))
}

// AddConstant returns p + c.
func (me *Polynomials[E, PE]) AddConstant(p []E, c E) []E {
	if len(p) == 0 {
		return []E{c}
	}
	return me.be.Add(p, []E{c})
}

// Mul multiplies a and b. Large products are interpolated from their
// pointwise product over the smallest domain that holds them.
func (me *Polynomials[E, PE]) Mul(a, b []E) []E {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	n := len(a) + len(b) - 1
	if min(len(a), len(b)) <= schoolbookThreshold {
		return me.schoolbook(a, b)
	}
	d, err := me.domain(uint64(n))
	if err != nil {
		return me.schoolbook(a, b)
	}
	ea, _ := d.Evaluate(a)
	eb, _ := d.Evaluate(b)
	res, _ := d.Interpolate(me.be.MulPointwise(ea, eb))
	return res[:n]
}

const schoolbookThreshold = 8

func (me *Polynomials[E, PE]) schoolbook(a, b []E) []E {
	res := make([]E, len(a)+len(b)-1)
	var tmp E
	for i := range a {
		if PE(&a[i]).IsZero() {
			continue
		}
		for j := range b {
			PE(&tmp).Mul(&a[i], &b[j])
			PE(&res[i+j]).Add(&res[i+j], &tmp)
		}
	}
	return res
}

// InnerProduct returns sum a[i]*b[i]; a and b have the same length.
func (me *Polynomials[E, PE]) InnerProduct(a, b []E) E {
	if len(a) == 0 {
		var zero E
		return zero
	}
	return me.be.InnerProduct(a, b)
}

// BatchInvert inverts every element of vec in place with a single field
// inversion. Zero entries stay zero.
func (me *Polynomials[E, PE]) BatchInvert(vec []E) {
	if len(vec) == 0 {
		return
	}
	copy(vec, me.be.BatchInvert(vec))
}

// ComposeScale returns the coefficients of p(s*X).
func (me *Polynomials[E, PE]) ComposeScale(p []E, s E) []E {
	res := make([]E, len(p))
	for i, pow := range Powers[E, PE](s, len(p)) {
		PE(&res[i]).Mul(&p[i], &pow)
	}
	return res
}

// DivByLinear returns the quotient of p by (X - x); the remainder p(x) is
// dropped.
func (me *Polynomials[E, PE]) DivByLinear(p []E, x E) []E {
	if len(p) <= 1 {
		return nil
	}
	q := make([]E, len(p)-1)
	var carry E
	for i := len(p) - 1; i >= 1; i-- {
		PE(&carry).Mul(&carry, &x)
		PE(&carry).Add(&carry, &p[i])
		q[i-1] = carry
	}
	return q
}

// DivByVanishing divides p by X^n - 1 and returns quotient and remainder.
func (me *Polynomials[E, PE]) DivByVanishing(p []E, n int) (q, r []E) {
	r = append([]E(nil), p...)
	if len(p) <= n {
		return nil, r
	}
	q = make([]E, len(p)-n)
	for i := len(r) - 1; i >= n; i-- {
		// X^i = X^(i-n) * (X^n - 1) + X^(i-n)
		q[i-n] = r[i]
		PE(&r[i-n]).Add(&r[i-n], &r[i])
		PE(&r[i]).SetZero()
	}
	return q, PolyTrim[E, PE](r[:n])
}

// PolyTrim drops trailing zero coefficients.
func PolyTrim[E any, PE Element[E]](p []E) []E {
	for len(p) > 0 && PE(&p[len(p)-1]).IsZero() {
		p = p[:len(p)-1]
	}
	return p
}

func PolyIsZero[E any, PE Element[E]](p []E) bool {
	return len(PolyTrim[E, PE](p)) == 0
}
