package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCNPJ(t *testing.T) {
	assert.Equal(t, "11222333000181", NormalizeCNPJ("11.222.333/0001-81"))
	assert.Equal(t, "11222333000181", NormalizeCNPJ("11222333000181"))
}

func TestValidCNPJ(t *testing.T) {
	assert.True(t, ValidCNPJ("11222333000181"))
	assert.True(t, ValidCNPJ("11444777000161"))

	assert.False(t, ValidCNPJ("11222333000180")) // wrong check digit
	assert.False(t, ValidCNPJ("1122233300018"))  // short
	assert.False(t, ValidCNPJ("00000000000000")) // repeated digits
	assert.False(t, ValidCNPJ(""))
}
