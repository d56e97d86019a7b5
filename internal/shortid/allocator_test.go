package shortid

import (
	"context"
	"fmt"
	"testing"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	takenFor   int
	err        error
	candidates []media.ShortID
}

func (o *stubOracle) isTaken(_ context.Context, candidate media.ShortID) (bool, error) {
	o.candidates = append(o.candidates, candidate)
	if o.err != nil {
		return false, o.err
	}

	return len(o.candidates) <= o.takenFor, nil
}

func TestAllocator_NoCollisions(t *testing.T) {
	a := New(Config{})
	o := &stubOracle{}

	sid, err := a.Allocate(context.Background(), "5fd8a2c3e1b0f9a7c4d3e2f1", 0, o.isTaken)
	require.NoError(t, err)

	assert.Len(t, sid.String(), media.DefaultShortIDLength)
	assert.Len(t, o.candidates, 1)
	assert.Equal(t, cycle[0].sum("5fd8a2c3e1b0f9a7c4d3e2f1")[:6], sid.String())
}

func TestAllocator_CollisionEscalation(t *testing.T) {
	tt := []struct {
		taken          int
		expectedLength int
	}{
		{taken: 0, expectedLength: 6},
		{taken: 1, expectedLength: 6},
		{taken: 9, expectedLength: 6},
		{taken: 10, expectedLength: 7},
		{taken: 11, expectedLength: 7},
		{taken: 19, expectedLength: 7},
		{taken: 20, expectedLength: 8},
	}

	for _, tc := range tt {
		t.Run(fmt.Sprintf("%d collisions", tc.taken), func(t *testing.T) {
			a := New(Config{MaxCollisions: 10})
			o := &stubOracle{takenFor: tc.taken}

			sid, err := a.Allocate(context.Background(), "seed", 6, o.isTaken)
			require.NoError(t, err)

			assert.Len(t, o.candidates, tc.taken+1)
			assert.Len(t, sid.String(), tc.expectedLength)
			assert.Equal(t, o.candidates[len(o.candidates)-1], sid)
		})
	}
}

func TestAllocator_EleventhCollisionYieldsLongerTwelfthCandidate(t *testing.T) {
	a := New(Config{MaxCollisions: 10})
	o := &stubOracle{takenFor: 11}

	_, err := a.Allocate(context.Background(), "seed", 6, o.isTaken)
	require.NoError(t, err)
	require.Len(t, o.candidates, 12)

	for i := 0; i < 10; i++ {
		assert.Len(t, o.candidates[i].String(), 6)
	}

	assert.Len(t, o.candidates[11].String(), 7)
}

func TestAllocator_EveryRetryExploresANewCandidate(t *testing.T) {
	a := New(Config{})
	o := &stubOracle{takenFor: 30}

	_, err := a.Allocate(context.Background(), "seed", 6, o.isTaken)
	require.NoError(t, err)

	seen := make(map[media.ShortID]bool)
	for _, c := range o.candidates {
		assert.False(t, seen[c], "candidate %s repeated", c)
		seen[c] = true
	}
}

func TestAllocator_RetryHashesPreviousFullDigestWithNextAlgorithm(t *testing.T) {
	a := New(Config{})
	o := &stubOracle{takenFor: 2}

	_, err := a.Allocate(context.Background(), "seed", 6, o.isTaken)
	require.NoError(t, err)

	first := cycle[0].sum("seed")
	second := cycle[1].sum(first)
	third := cycle[2].sum(second)

	assert.Equal(t, []media.ShortID{
		media.ShortID(first[:6]),
		media.ShortID(second[:6]),
		media.ShortID(third[:6]),
	}, o.candidates)
}

func TestAllocator_NonDefaultLengthHint(t *testing.T) {
	a := New(Config{})
	o := &stubOracle{}

	sid, err := a.Allocate(context.Background(), "seed", 12, o.isTaken)
	require.NoError(t, err)
	assert.Len(t, sid.String(), 12)

	sid, err = New(Config{Length: 8}).Allocate(context.Background(), "seed", 0, (&stubOracle{}).isTaken)
	require.NoError(t, err)
	assert.Len(t, sid.String(), 8)
}

func TestAllocator_LengthBeyondDigestSize(t *testing.T) {
	sid, err := New(Config{}).Allocate(context.Background(), "seed", 50, (&stubOracle{}).isTaken)
	require.NoError(t, err)
	assert.Len(t, sid.String(), 50)
}

func TestAllocator_OracleErrorIsSurfaced(t *testing.T) {
	connErr := errors.New("connection reset")
	o := &stubOracle{err: connErr}

	sid, err := New(Config{}).Allocate(context.Background(), "seed", 6, o.isTaken)
	require.Error(t, err)

	assert.Equal(t, media.ShortID(""), sid)
	assert.Len(t, o.candidates, 1)
	assert.True(t, errors.Is(err, ErrOracleFailed))
	assert.True(t, errors.Is(err, connErr))

	var oErr *OracleError
	require.True(t, errors.As(err, &oErr))
	assert.True(t, oErr.Temporary())
	assert.Equal(t, o.candidates[0], oErr.Candidate)
}

func TestAllocator_AbandonedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := &stubOracle{takenFor: 1000}
	calls := 0

	_, err := New(Config{}).Allocate(ctx, "seed", 6, func(ctx context.Context, c media.ShortID) (bool, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return o.isTaken(ctx, c)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 3, calls)
}
