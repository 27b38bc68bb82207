package supervisor

// file: internal/supervisor/credential_test.go

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCredential_EmptyRefIsNoOp(t *testing.T) {
	secret, err := resolveCredential("")
	require.NoError(t, err)
	assert.Empty(t, secret)
}
