package token

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "testSecretKeyThatIsLongEnoughForHS512AlgorithmRequirementsOfAtLeast64Bytes!!"

// fakeClock is a settable time source for expiry tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCodec(t *testing.T, ttl time.Duration, opts ...Option) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte(testSecret), ttl, zap.NewNop(), opts...)
	require.NoError(t, err)
	return codec
}

func TestNewCodec(t *testing.T) {
	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := NewCodec(nil, time.Hour, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := NewCodec([]byte(testSecret), 0, zap.NewNop())
		assert.Error(t, err)

		_, err = NewCodec([]byte(testSecret), -time.Second, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("rejects fractional-second ttl", func(t *testing.T) {
		for _, ttl := range []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond} {
			_, err := NewCodec([]byte(testSecret), ttl, zap.NewNop())
			assert.Error(t, err, ttl.String())
		}
	})

	t.Run("shortest ttl is valid at issuance", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 700_000_000, time.UTC)}
		codec := newTestCodec(t, time.Second, WithClock(clock.Now))

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)
		assert.True(t, codec.IsValid(tok))
	})

	t.Run("nil logger falls back to nop", func(t *testing.T) {
		codec, err := NewCodec([]byte(testSecret), time.Hour, nil)
		require.NoError(t, err)
		assert.False(t, codec.IsValid("garbage"))
	})

	t.Run("secret is copied", func(t *testing.T) {
		secret := []byte(testSecret)
		codec, err := NewCodec(secret, time.Hour, zap.NewNop())
		require.NoError(t, err)

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)

		secret[0] = 'X'
		assert.True(t, codec.IsValid(tok))
	})
}

func TestIssue(t *testing.T) {
	t.Run("produces three dot separated segments", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		tok, err := codec.Issue("yoga@studio.com")
		require.NoError(t, err)
		assert.Len(t, strings.Split(tok, "."), 3)
	})

	t.Run("payload carries subject and validity window", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		ttl := 24 * time.Hour
		codec := newTestCodec(t, ttl, WithClock(clock.Now))

		tok, err := codec.Issue("yoga@studio.com")
		require.NoError(t, err)

		claims := &jwt.RegisteredClaims{}
		parsed, _, err := jwt.NewParser().ParseUnverified(tok, claims)
		require.NoError(t, err)

		assert.Equal(t, "HS512", parsed.Header["alg"])
		assert.Equal(t, "yoga@studio.com", claims.Subject)
		require.NotNil(t, claims.IssuedAt)
		require.NotNil(t, claims.ExpiresAt)
		assert.Equal(t, clock.Now().Unix(), claims.IssuedAt.Unix())
		assert.Equal(t, ttl, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("issuing twice for the same subject yields distinct tokens", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		codec := newTestCodec(t, time.Hour, WithClock(clock.Now))

		first, err := codec.Issue("same@test.com")
		require.NoError(t, err)
		second, err := codec.Issue("same@test.com")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.True(t, codec.IsValid(first))
		assert.True(t, codec.IsValid(second))
	})

	t.Run("empty subject is rejected", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		for _, subject := range []string{"", "   ", "\t"} {
			tok, err := codec.Issue(subject)
			assert.ErrorIs(t, err, ErrInvalidPrincipal)
			assert.Empty(t, tok)
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("round trips subjects", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		subjects := []string{
			"user@test.com",
			"user.name@domain.co.uk",
			"user+tag@example.org",
			"test.user-123@sub.domain.com",
			"user+special.chars@test-domain.com",
			"ünïcödé@exämple.com",
		}
		for _, subject := range subjects {
			tok, err := codec.Issue(subject)
			require.NoError(t, err)

			got, err := codec.Decode(tok)
			require.NoError(t, err, subject)
			assert.Equal(t, subject, got)
		}
	})

	t.Run("blank input", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		for _, in := range []string{"", "   "} {
			_, err := codec.Decode(in)
			assert.ErrorIs(t, err, ErrEmpty)
		}
	})

	t.Run("structurally invalid input", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		inputs := []string{
			"not-a-token",
			"invalid.jwt.token",
			"only.two",
			"a.b.c.d",
			"eyJhbGciOiJIUzUxMiJ9.eyJzdWIiOiJ0ZXN0In0",
			"invalid@#$%.token!@#.signature&*(",
		}
		for _, in := range inputs {
			_, err := codec.Decode(in)
			assert.ErrorIs(t, err, ErrMalformed, in)
		}
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)
		other, err := NewCodec([]byte("differentSecretKeyThatIsAlsoLongEnoughForHS512AlgorithmRequirements!!"), time.Hour, zap.NewNop())
		require.NoError(t, err)

		tok, err := other.Issue("user@test.com")
		require.NoError(t, err)

		_, err = codec.Decode(tok)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("token using another algorithm", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)
		claims := jwt.RegisteredClaims{
			Subject:   "user@test.com",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}

		hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = codec.Decode(hs256)
		assert.ErrorIs(t, err, ErrBadSignature)

		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.Decode(unsigned)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("token without a signature segment", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)
		stripped := tok[:strings.LastIndex(tok, ".")+1]

		_, err = codec.Decode(stripped)
		assert.Error(t, err)
		assert.False(t, codec.IsValid(stripped))
	})

	t.Run("token without expiry", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)
		claims := jwt.RegisteredClaims{
			Subject:  "user@test.com",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = codec.Decode(tok)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("token without subject", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)
		claims := jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = codec.Decode(tok)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestExpiry(t *testing.T) {
	ttl := 10 * time.Minute

	t.Run("valid right after issuance", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		codec := newTestCodec(t, ttl, WithClock(clock.Now))

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)
		assert.True(t, codec.IsValid(tok))
	})

	t.Run("valid until the last second before expiry", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		codec := newTestCodec(t, ttl, WithClock(clock.Now))

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)

		clock.Advance(ttl - time.Second)
		assert.True(t, codec.IsValid(tok))
	})

	t.Run("invalid once issuedAt plus ttl is reached", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		codec := newTestCodec(t, ttl, WithClock(clock.Now))

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)
		require.True(t, codec.IsValid(tok))

		clock.Advance(ttl)
		assert.False(t, codec.IsValid(tok))
		_, err = codec.Decode(tok)
		assert.ErrorIs(t, err, ErrExpired)

		clock.Advance(time.Hour)
		assert.False(t, codec.IsValid(tok))
	})

	t.Run("token with past expiry from another issuer clock", func(t *testing.T) {
		past := &fakeClock{now: time.Now().Add(-48 * time.Hour)}
		issuer := newTestCodec(t, time.Hour, WithClock(past.Now))
		verifier := newTestCodec(t, time.Hour)

		tok, err := issuer.Issue("user@test.com")
		require.NoError(t, err)

		_, err = verifier.Decode(tok)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestIsValid(t *testing.T) {
	t.Run("blank and garbage inputs never panic", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		for _, in := range []string{"", " ", "not-a-token", "...", "a.b.c", "Bearer x"} {
			assert.NotPanics(t, func() {
				assert.False(t, codec.IsValid(in))
			})
		}
	})

	t.Run("mutating any signature character invalidates the token", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)
		sigStart := strings.LastIndex(tok, ".") + 1

		for i := sigStart; i < len(tok); i++ {
			replacement := byte('A')
			if tok[i] == 'A' {
				replacement = 'B'
			}
			mutated := tok[:i] + string(replacement) + tok[i+1:]
			assert.False(t, codec.IsValid(mutated), "position %d", i)
		}
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		codec := newTestCodec(t, time.Hour)

		tok, err := codec.Issue("user@test.com")
		require.NoError(t, err)
		other, err := codec.Issue("admin@test.com")
		require.NoError(t, err)

		parts := strings.Split(tok, ".")
		otherParts := strings.Split(other, ".")
		forged := parts[0] + "." + otherParts[1] + "." + parts[2]

		assert.False(t, codec.IsValid(forged))
	})
}

func TestCodecConcurrentUse(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := codec.Issue("concurrent@test.com")
			if err != nil {
				errs <- err
				return
			}
			if _, err := codec.Decode(tok); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
