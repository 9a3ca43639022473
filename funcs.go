package darlin

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path"

	"github.com/consensys/gnark/logger"
	"github.com/schollz/progressbar/v3"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
)

// LoadCommitterKeys returns the committer keys of both curves, reading them
// from the cache directory and generating (then caching) any that is missing
// or does not match its seed.
func LoadCommitterKeys(cfg *CommitterKeyConfig) (*CommitterKeyG1, *CommitterKeyG2, error) {
	ckG1, err := loadCommitterKey(CurveG1(), cfg.Dir, "G1", cfg.SizeG1, CK_SEED_G1, WriteCommitterKeyG1, ReadCommitterKeyG1)
	if err != nil {
		return nil, nil, err
	}
	ckG2, err := loadCommitterKey(CurveG2(), cfg.Dir, "G2", cfg.SizeG2, CK_SEED_G2, WriteCommitterKeyG2, ReadCommitterKeyG2)
	if err != nil {
		return nil, nil, err
	}
	return ckG1, ckG2, nil
}

// CommitterKeyPath is the cache file of a key of the given size.
func CommitterKeyPath(dir, group string, size int) string {
	return path.Join(dir, fmt.Sprintf("CK.%s.%v.BIN", group, bits.TrailingZeros(uint(size))))
}

func loadCommitterKey[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	dir, group string,
	size int,
	seed string,
	write func(io.Writer, *dlog.CommitterKey[P]) (int64, error),
	read func(io.Reader) (*dlog.CommitterKey[P], int64, error),
) (*dlog.CommitterKey[P], error) {
	if err := checkCommitterKeySize(size); err != nil {
		return nil, err
	}
	log := logger.Logger().With().Str("curve", c.String()).Int("size", size).Logger()
	file := CommitterKeyPath(dir, group, size)

	ck, err := readCommitterKeyFile(file, read)
	if err == nil && ck.Size() == size {
		if err = dlog.CheckGenerators(c, ck, []byte(seed), 0, size/2, size-1); err == nil {
			return ck, nil
		}
	}
	if err == nil {
		err = fmt.Errorf("cached key has %d generators", ck.Size())
	}
	log.Info().Err(err).Msg("local committer key cache not usable; generating ...")

	bar := progressbar.Default(int64(size), "Generating committer key "+group)
	ck, err = dlog.Setup(c, size, []byte(seed), dlog.WithProgress(func(n int) {
		_ = bar.Add(n)
	}))
	if err != nil {
		return nil, err
	}
	_ = bar.Finish()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := write(w, ck); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return ck, nil
}

func readCommitterKeyFile[P any](file string, read func(io.Reader) (*dlog.CommitterKey[P], int64, error)) (*dlog.CommitterKey[P], error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ck, _, err := read(bufio.NewReader(f))
	return ck, err
}
