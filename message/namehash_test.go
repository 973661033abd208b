package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameHashCaseAndWhitespaceInsensitive(t *testing.T) {
	want := NameHash("Alice Lee")
	assert.Equal(t, want, NameHash("alice lee"))
	assert.Equal(t, want, NameHash("Alice  Lee"))
	assert.Equal(t, want, NameHash("  Alice Lee  "))
}

func TestNameHashDistinctNamesDiffer(t *testing.T) {
	assert.NotEqual(t, NameHash("Alice Lee"), NameHash("Bob Lee"))
}
