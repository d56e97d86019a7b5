package shortid

import (
	"context"
	"fmt"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/pkg/errors"
)

const DefaultMaxCollisions = 10

// ErrOracleFailed marks a failure of the uniqueness oracle. It is never
// a verdict on the candidate, so the allocation can be retried as a whole.
var ErrOracleFailed = errors.New("shortid uniqueness oracle failed")

// IsTaken reports whether a candidate is held by a live image
type IsTaken func(ctx context.Context, candidate media.ShortID) (bool, error)

type OracleError struct {
	Candidate media.ShortID
	Err       error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%v for candidate %s: %v", ErrOracleFailed, e.Candidate, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

func (e *OracleError) Is(target error) bool {
	return target == ErrOracleFailed
}

func (e *OracleError) Temporary() bool {
	return true
}

type Config struct {
	// Length used when Allocate gets no length hint
	Length int

	// MaxCollisions consecutive collisions at one length grow the length by one
	MaxCollisions int
}

type Allocator struct {
	cfg Config
}

func New(cfg Config) *Allocator {
	if cfg.Length <= 0 {
		cfg.Length = media.DefaultShortIDLength
	}

	if cfg.MaxCollisions <= 0 {
		cfg.MaxCollisions = DefaultMaxCollisions
	}

	return &Allocator{cfg: cfg}
}

// Allocate derives a short ID from seed that isTaken reports as free.
//
// The first candidate is the sha1 of the seed truncated to lengthHint hex
// characters. Each collision hashes the previous full digest with the next
// algorithm of the cycle, and after MaxCollisions consecutive collisions
// the candidate length grows by one character.
func (a *Allocator) Allocate(
	ctx context.Context,
	seed string,
	lengthHint int,
	isTaken IsTaken,
) (media.ShortID, error) {
	length := lengthHint
	if length <= 0 {
		length = a.cfg.Length
	}

	step := 0
	full := cycle[step].sum(seed)
	collisions := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrapf(err, "short id allocation for seed %s abandoned after %d probes", seed, step)
		}

		candidate := media.ShortID(cycle[step%len(cycle)].prefix(full, length))

		taken, err := isTaken(ctx, candidate)
		if err != nil {
			return "", &OracleError{Candidate: candidate, Err: err}
		}

		if !taken {
			return candidate, nil
		}

		collisions++
		if collisions >= a.cfg.MaxCollisions {
			length++
			collisions = 0
		}

		step++
		full = cycle[step%len(cycle)].sum(full)
	}
}
