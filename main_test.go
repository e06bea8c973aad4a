package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWatchShorthand(t *testing.T) {
	assert.True(t, isWatchShorthand("-p"))
	assert.True(t, isWatchShorthand("--pattern=*.rs"))
	assert.False(t, isWatchShorthand("status"))
	assert.False(t, isWatchShorthand("--help"))
	assert.False(t, isWatchShorthand("-h"))
}
