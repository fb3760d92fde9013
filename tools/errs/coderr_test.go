package errs

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeErrorMatchesByCode(t *testing.T) {
	req := require.New(t)

	detailed := ErrInvalidPayload.WithDetail("content must not be empty")
	req.ErrorIs(detailed, ErrInvalidPayload)
	req.NotErrorIs(detailed, ErrNotGroupMember)

	// the sentinel itself is untouched
	req.Empty(ErrInvalidPayload.Detail)
}

func TestWrapMsgKeepsCodeThroughTheChain(t *testing.T) {
	req := require.New(t)

	err := ErrGroupNotFound.WrapMsg("lookup", "group_id", 42)
	req.ErrorIs(err, ErrGroupNotFound)

	var ce *CodeError
	req.True(As(err, &ce))
	req.Equal(CodeNotFound, ce.Code)
	req.Contains(ce.Detail, "group_id=42")
}

func TestWrapStorageClassifiesInfraFaults(t *testing.T) {
	req := require.New(t)

	cause := stderrors.New("connection reset")
	err := WrapStorage(cause, "insert message")
	req.ErrorIs(err, ErrStorage)
	req.Contains(err.Error(), "insert message")

	req.Nil(WrapStorage(nil, "no-op"))
}
