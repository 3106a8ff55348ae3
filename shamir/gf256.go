package shamir

// Arithmetic over GF(2^8) with the AES irreducible polynomial
// (x^8 + x^4 + x^3 + x + 1). Every byte value 0-255 is a field element,
// so secrets round-trip without loss regardless of content.
//
// Multiplication and inversion avoid table lookups and data-dependent
// branches so share material does not leak through timing or cache
// side channels.

// irreduciblePolynomial is the reduction constant; the x^8 term is
// implicit since operands are bytes.
const irreduciblePolynomial = 0x1B

// gfAdd adds two field elements. In GF(2^8) addition and subtraction are
// both XOR.
func gfAdd(a, b byte) byte {
	return a ^ b
}

// gfMul multiplies two field elements using branch-free carry-less
// multiplication with modular reduction at each step.
func gfMul(a, b byte) byte {
	var product byte
	for i := 7; i >= 0; i-- {
		// If the MSB of the running product is set, reduce by the
		// irreducible polynomial; the negation trick yields an all-ones
		// or all-zeros mask without branching.
		mod := (-(product >> 7)) & irreduciblePolynomial
		aiTimesB := -((a >> i) & 1) & b
		product = aiTimesB ^ mod ^ (product << 1)
	}
	return product
}

// gfInv returns the multiplicative inverse of a non-zero element by
// computing a^254 via a fixed multiplication chain. gfInv(0) returns 0;
// callers must not divide by zero.
func gfInv(a byte) byte {
	b := gfMul(a, a)          // a^2
	c := gfMul(a, b)          // a^3
	b = gfMul(c, c)           // a^6
	b = gfMul(b, b)           // a^12
	c = gfMul(b, c)           // a^15
	b = gfMul(b, b)           // a^30
	b = gfMul(b, b)           // a^60
	b = gfMul(b, c)           // a^63
	b = gfMul(b, b)           // a^126
	b = gfMul(a, b)           // a^127
	return gfMul(b, b)        // a^254 = a^-1
}

// gfDiv divides a by b. Division by zero is a programming error and
// returns 0.
func gfDiv(a, b byte) byte {
	return gfMul(a, gfInv(b))
}

// evalPolynomial evaluates a polynomial with the given coefficients at x
// using Horner's method. coefficients[0] is the constant term.
func evalPolynomial(coefficients []byte, x byte) byte {
	sum := byte(0)
	for i := len(coefficients) - 1; i > 0; i-- {
		sum = gfMul(gfAdd(sum, coefficients[i]), x)
	}
	return gfAdd(sum, coefficients[0])
}

// interpolateAtZero recovers f(0) from the points (xs[i], ys[i]) via
// Lagrange interpolation. All xs must be distinct and non-zero.
func interpolateAtZero(xs, ys []byte) byte {
	var secret byte
	for i := range xs {
		basis := byte(1)
		for j := range xs {
			if i == j {
				continue
			}
			// L_i(0) = prod_j x_j / (x_j - x_i); subtraction is XOR.
			basis = gfMul(basis, gfDiv(xs[j], gfAdd(xs[j], xs[i])))
		}
		secret = gfAdd(secret, gfMul(basis, ys[i]))
	}
	return secret
}
