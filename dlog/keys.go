// Package dlog implements the discrete-log polynomial commitment (an
// inner-product argument over a transparent key) and the accumulation scheme
// built on its succinct check polynomials.
package dlog

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"runtime"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/darlin/algebra"
)

const (
	dstG = "DARLIN-DLOG-CK-G"
	dstH = "DARLIN-DLOG-CK-H"
)

// CommitterKey is the transparent key of the commitment scheme: N = len(G)
// generators (a power of two) plus H, the generator used to bind evaluations.
type CommitterKey[P any] struct {
	G    []P
	H    P
	Hash [32]byte
}

// Size is the number of coefficients a committed polynomial may have.
func (me *CommitterKey[P]) Size() int {
	return len(me.G)
}

// Degree is the maximum supported degree.
func (me *CommitterKey[P]) Degree() int {
	return len(me.G) - 1
}

// LogSize is log2 of Size, the number of folding rounds of an opening.
func (me *CommitterKey[P]) LogSize() int {
	return bits.TrailingZeros(uint(len(me.G)))
}

type setupConfig struct {
	progress func(int)
}

type SetupOption func(*setupConfig)

// WithProgress registers a callback invoked with the number of generators
// derived since the previous call. Calls are serialized.
func WithProgress(fn func(int)) SetupOption {
	return func(c *setupConfig) {
		c.progress = fn
	}
}

// Setup derives a committer key of n generators from seed by hashing to the
// curve, so nobody knows a discrete-log relation between them.
func Setup[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], n int, seed []byte, opts ...SetupOption) (*CommitterKey[P], error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("committer key size %d is not a power of two >= 2", n)
	}
	var cfg setupConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ck := &CommitterKey[P]{G: make([]P, n)}
	h, err := c.HashToPoint(seed, []byte(dstH))
	if err != nil {
		return nil, err
	}
	ck.H = h

	const chunk = 256
	var (
		eg errgroup.Group
		mu sync.Mutex
	)
	eg.SetLimit(runtime.NumCPU())
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		eg.Go(func() error {
			for i := start; i < end; i++ {
				g, err := generator(c, seed, i)
				if err != nil {
					return err
				}
				ck.G[i] = g
			}
			if cfg.progress != nil {
				mu.Lock()
				cfg.progress(end - start)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	ck.Hash = KeyHash(c, ck)
	return ck, nil
}

func generator[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], seed []byte, i int) (P, error) {
	msg := binary.BigEndian.AppendUint64(append([]byte(nil), seed...), uint64(i))
	g, err := c.HashToPoint(msg, []byte(dstG))
	if err != nil {
		return g, fmt.Errorf("generator %d: %w", i, err)
	}
	return g, nil
}

// CheckGenerators re-derives H and the generators at the given indices from
// seed and compares them with ck. It is a cheap sanity check of a key read
// from disk.
func CheckGenerators[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], seed []byte, indices ...int) error {
	h, err := c.HashToPoint(seed, []byte(dstH))
	if err != nil {
		return err
	}
	if !algebra.EqualPoints[P, E, PP](h, ck.H) {
		return fmt.Errorf("committer key H does not match the seed")
	}
	for _, i := range indices {
		if i < 0 || i >= len(ck.G) {
			return fmt.Errorf("generator %d out of range", i)
		}
		g, err := generator(c, seed, i)
		if err != nil {
			return err
		}
		if !algebra.EqualPoints[P, E, PP](g, ck.G[i]) {
			return fmt.Errorf("committer key generator %d does not match the seed", i)
		}
	}
	return nil
}

// KeyHash fingerprints a committer key. It is bound into every transcript that
// depends on the key.
func KeyHash[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P]) [32]byte {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(ck.G)))
	h.Write(buf[:])
	for i := range ck.G {
		h.Write(PP(&ck.G[i]).Marshal())
	}
	h.Write(PP(&ck.H).Marshal())
	var res [32]byte
	copy(res[:], h.Sum(nil))
	return res
}

// Trim returns a key made of the first n generators of ck.
func Trim[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], n int) (*CommitterKey[P], error) {
	if n < 2 || n&(n-1) != 0 || n > len(ck.G) {
		return nil, fmt.Errorf("cannot trim a key of size %d to %d", len(ck.G), n)
	}
	res := &CommitterKey[P]{G: append([]P(nil), ck.G[:n]...), H: ck.H}
	res.Hash = KeyHash(c, res)
	return res, nil
}

// Commit returns sum_i coeffs[i]*G[i].
func Commit[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], coeffs []E) (P, error) {
	if len(coeffs) > len(ck.G) {
		var zero P
		return zero, fmt.Errorf("polynomial of degree %d exceeds the key degree %d", len(coeffs)-1, ck.Degree())
	}
	return c.MultiExp(ck.G[:len(coeffs)], coeffs, 0)
}
