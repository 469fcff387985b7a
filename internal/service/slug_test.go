package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.Equal(t, "acme-inc-1700000000", slugify("Acme Inc", now))
	assert.Equal(t, "bobs-caf-co-1700000000", slugify("  Bob's Café & Co.  ", now))
	assert.Equal(t, "a-b-1700000000", slugify("A --- B", now))
}
