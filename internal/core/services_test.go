package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServices(t *testing.T) {
	db := &mockDB{}

	svcs := NewServices(db, 30*time.Second)

	require.NotNil(t, svcs)
	assert.NotNil(t, svcs.User)
	assert.NotNil(t, svcs.APIKey)
	assert.NotNil(t, svcs.Usage)
	assert.NotNil(t, svcs.FineTune)
}
