package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonEmpty(t *testing.T) {
	assert.Nil(t, NonEmpty(""))
	assert.Equal(t, "v20130405", *NonEmpty("v20130405"))
}

func TestDeref(t *testing.T) {
	assert.Equal(t, "", Deref[string](nil))
	assert.Equal(t, "x", Deref(To("x")))
	assert.Equal(t, "", Deref(NonEmpty("")))
}
