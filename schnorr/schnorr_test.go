package schnorr_test

import (
	"bytes"
	"errors"
	"io"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/mynextid/zk-attest/challenge"
	"github.com/mynextid/zk-attest/schnorr"
	"github.com/stretchr/testify/require"
)

// seededReader returns a deterministic byte stream for reproducible nonces
func seededReader(seed byte) io.Reader {
	var s [32]byte
	s[0] = seed
	return rand.NewChaCha8(s)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func testMessage() []*big.Int {
	hash, _ := new(big.Int).SetString("12345678901234567890", 10)
	return schnorr.AttestationMessage(720, 2500, 24, hash)
}

func TestSampleScalarRange(t *testing.T) {
	e := schnorr.NewEngine()
	for i := 0; i < 64; i++ {
		s, err := e.SampleScalar()
		require.NoError(t, err)
		require.True(t, s.Sign() >= 0)
		require.Equal(t, -1, s.Cmp(schnorr.Order))
	}
}

func TestSampleScalarReducesModOrder(t *testing.T) {
	// all-ones input is 2^256-1, well above the order
	ones := bytes.Repeat([]byte{0xff}, schnorr.ScalarBytes)
	e := schnorr.NewEngine(schnorr.WithRandomness(bytes.NewReader(ones)))

	s, err := e.SampleScalar()
	require.NoError(t, err)

	want := new(big.Int).SetBytes(ones)
	want.Mod(want, schnorr.Order)
	require.Equal(t, 0, want.Cmp(s))
}

func TestSampleScalarRandomnessFailure(t *testing.T) {
	e := schnorr.NewEngine(schnorr.WithRandomness(failingReader{}))

	_, err := e.SampleScalar()
	require.ErrorIs(t, err, schnorr.ErrRandomness)

	_, err = e.Sign(big.NewInt(5), testMessage())
	require.ErrorIs(t, err, schnorr.ErrRandomness)
}

func TestGenerateKeyPair(t *testing.T) {
	e := schnorr.NewEngine()
	for i := 0; i < 16; i++ {
		kp, err := e.GenerateKeyPair()
		require.NoError(t, err)
		require.Equal(t, 1, kp.SecretKey.Sign())
		require.Equal(t, -1, kp.SecretKey.Cmp(schnorr.Order))
		require.True(t, kp.PublicKey.IsOnCurve())

		pk := schnorr.DerivePublicKey(kp.SecretKey)
		require.True(t, pk.Equal(&kp.PublicKey))
	}
}

func TestGenerateKeyPairSkipsZero(t *testing.T) {
	// first draw is the order itself (reduces to zero), second is 7
	orderBytes := schnorr.Order.FillBytes(make([]byte, schnorr.ScalarBytes))
	seven := big.NewInt(7).FillBytes(make([]byte, schnorr.ScalarBytes))
	e := schnorr.NewEngine(schnorr.WithRandomness(bytes.NewReader(append(orderBytes, seven...))))

	kp, err := e.GenerateKeyPair()
	require.NoError(t, err)
	require.Equal(t, int64(7), kp.SecretKey.Int64())
}

func TestSignVerify(t *testing.T) {
	for _, name := range challenge.Names {
		t.Run(name, func(t *testing.T) {
			h, err := challenge.ByName(name)
			require.NoError(t, err)

			e := schnorr.NewEngine(schnorr.WithChallengeHasher(h), schnorr.WithRandomness(seededReader(1)))
			kp, err := e.GenerateKeyPair()
			require.NoError(t, err)

			msg := testMessage()
			sig, err := e.Sign(kp.SecretKey, msg)
			require.NoError(t, err)
			require.True(t, sig.Response.Sign() >= 0)
			require.Equal(t, -1, sig.Response.Cmp(schnorr.Order))

			require.NoError(t, e.Verify(kp.PublicKey, msg, sig))

			// tampered message
			bad := testMessage()
			bad[0] = big.NewInt(850)
			require.ErrorIs(t, e.Verify(kp.PublicKey, bad, sig), schnorr.ErrInvalidSignature)

			// wrong key
			other := schnorr.DerivePublicKey(big.NewInt(42))
			require.ErrorIs(t, e.Verify(other, msg, sig), schnorr.ErrInvalidSignature)
		})
	}
}

// The verification equation must hold with the challenge taken mod 2^248,
// computed here independently of Engine.Verify.
func TestVerificationEquationWithTruncatedChallenge(t *testing.T) {
	e := schnorr.NewEngine(schnorr.WithRandomness(seededReader(2)))
	sk := big.NewInt(123456789)
	pk := schnorr.DerivePublicKey(sk)
	msg := testMessage()

	sig, err := e.Sign(sk, msg)
	require.NoError(t, err)

	rx, ry := schnorr.Coordinates(&sig.Announcement)
	px, py := schnorr.Coordinates(&pk)
	full, err := challenge.MiMC{}.Challenge(rx, ry, px, py, msg)
	require.NoError(t, err)

	c := new(big.Int).Mod(full, new(big.Int).Lsh(big.NewInt(1), schnorr.ChallengeBits))

	g := schnorr.Generator()
	var lhs, cp, rhs schnorr.Point
	lhs.ScalarMultiplication(&g, sig.Response)
	cp.ScalarMultiplication(&pk, c)
	rhs.Add(&sig.Announcement, &cp)
	require.True(t, lhs.Equal(&rhs))

	// s = k + c*sk, so with the full untruncated hash the equation breaks
	// whenever the hash has bits above 2^248
	if full.Cmp(c) != 0 {
		var wrong, rhs2 schnorr.Point
		wrong.ScalarMultiplication(&pk, full)
		rhs2.Add(&sig.Announcement, &wrong)
		require.False(t, lhs.Equal(&rhs2))
	}
}

// A stub hasher with a fixed output makes the response fully predictable
func TestSignWithStubChallenge(t *testing.T) {
	stub := challenge.HasherFunc(func(rx, ry, px, py *big.Int, message []*big.Int) (*big.Int, error) {
		// 2^250 + 3 truncates to 3
		h := new(big.Int).Lsh(big.NewInt(1), 250)
		return h.Add(h, big.NewInt(3)), nil
	})

	nonce := big.NewInt(11).FillBytes(make([]byte, schnorr.ScalarBytes))
	e := schnorr.NewEngine(
		schnorr.WithChallengeHasher(stub),
		schnorr.WithRandomness(bytes.NewReader(nonce)),
	)

	sk := new(big.Int).Sub(schnorr.Order, big.NewInt(1))
	sig, err := e.Sign(sk, []*big.Int{big.NewInt(1)})
	require.NoError(t, err)

	// s = 11 + 3*(n-1) mod n = 8
	require.Equal(t, int64(8), sig.Response.Int64())

	want := schnorr.DerivePublicKey(big.NewInt(11))
	require.True(t, sig.Announcement.Equal(&want))
}

func TestSignIsNotDeterministic(t *testing.T) {
	e := schnorr.NewEngine()
	sk := big.NewInt(987654321)
	msg := testMessage()

	a, err := e.Sign(sk, msg)
	require.NoError(t, err)
	b, err := e.Sign(sk, msg)
	require.NoError(t, err)

	require.False(t, a.Announcement.Equal(&b.Announcement))
	require.NotEqual(t, 0, a.Response.Cmp(b.Response))
}

func TestChallengeIsDeterministic(t *testing.T) {
	rx, ry := big.NewInt(1), big.NewInt(2)
	px, py := big.NewInt(3), big.NewInt(4)
	msg := testMessage()

	for _, h := range []challenge.Hasher{challenge.MiMC{}, challenge.Blake3{}} {
		a, err := h.Challenge(rx, ry, px, py, msg)
		require.NoError(t, err)
		b, err := h.Challenge(rx, ry, px, py, msg)
		require.NoError(t, err)
		require.Equal(t, 0, a.Cmp(b))
	}
}

func TestSignAttestationMatchesSign(t *testing.T) {
	sk := big.NewInt(2024)
	hash := big.NewInt(99)

	a, err := schnorr.NewEngine(schnorr.WithRandomness(seededReader(3))).SignAttestation(sk, 700, 3000, 12, hash)
	require.NoError(t, err)
	b, err := schnorr.NewEngine(schnorr.WithRandomness(seededReader(3))).Sign(sk, schnorr.AttestationMessage(700, 3000, 12, hash))
	require.NoError(t, err)

	require.True(t, a.Announcement.Equal(&b.Announcement))
	require.Equal(t, 0, a.Response.Cmp(b.Response))

	_, err = schnorr.NewEngine().SignAttestation(sk, 700, 3000, 12, big.NewInt(-1))
	require.Error(t, err)
}

func TestVerifyRejectsOutOfRangeResponse(t *testing.T) {
	e := schnorr.NewEngine()
	sk := big.NewInt(77)
	msg := testMessage()

	sig, err := e.Sign(sk, msg)
	require.NoError(t, err)

	sig.Response = new(big.Int).Add(sig.Response, schnorr.Order)
	require.ErrorIs(t, e.Verify(schnorr.DerivePublicKey(sk), msg, sig), schnorr.ErrInvalidSignature)
}
