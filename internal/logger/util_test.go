package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "error", Status(errors.New("boom")))
}

func TestRoundMS(t *testing.T) {
	assert.Equal(t, time.Duration(0), RoundMS(-time.Second))
	assert.Equal(t, 12*time.Millisecond, RoundMS(12*time.Millisecond+400*time.Microsecond))
	assert.Equal(t, 13*time.Millisecond, RoundMS(12*time.Millisecond+600*time.Microsecond))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "a b", SanitizeLimit(" a\nb ", 10))
	assert.Equal(t, "abc", SanitizeLimit("abc", 0))
	assert.Equal(t, "аб…", SanitizeLimit("абвгд", 2))
}
