package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	req := require.New(t)
	opts := DefaultOptions([]byte("test-secret"))

	token, exp, err := Generate(opts, 1234)
	req.NoError(err)
	req.True(exp.After(time.Now()))

	uid, err := Verify(opts, token)
	req.NoError(err)
	req.Equal(int64(1234), uid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	token, _, err := Generate(DefaultOptions([]byte("right")), 1)
	req.NoError(err)

	_, err = Verify(DefaultOptions([]byte("wrong")), token)
	req.Error(err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	opts := DefaultOptions([]byte("s"))

	past := time.Now().Add(-time.Hour)
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "1",
		"iat": past.Unix(),
		"exp": past.Add(time.Minute).Unix(),
	})
	signed, err := tok.SignedString(opts.Secret)
	req.NoError(err)

	_, err = Verify(opts, signed)
	req.Error(err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := Verify(DefaultOptions([]byte("s")), "not-a-token")
	require.Error(t, err)
}
