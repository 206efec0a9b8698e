package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	assert.Equal(t, "value", GetEnv("TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnv("TEST_STRING_MISSING", "default"))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL_TRUE", "true")
	t.Setenv("TEST_BOOL_INVALID", "not-a-bool")

	assert.True(t, GetEnvBool("TEST_BOOL_TRUE", false))
	assert.False(t, GetEnvBool("TEST_BOOL_INVALID", false))
	assert.True(t, GetEnvBool("TEST_BOOL_MISSING", true))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "forty-two")

	assert.Equal(t, 42, GetEnvInt("TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("TEST_INT_INVALID", 7))
	assert.Equal(t, 7, GetEnvInt("TEST_INT_MISSING", 7))
}

func TestGetEnvUint64(t *testing.T) {
	t.Setenv("TEST_UINT", "100")
	t.Setenv("TEST_UINT_NEGATIVE", "-5")

	assert.Equal(t, uint64(100), GetEnvUint64("TEST_UINT", 1))
	assert.Equal(t, uint64(1), GetEnvUint64("TEST_UINT_NEGATIVE", 1))
	assert.Equal(t, uint64(1), GetEnvUint64("TEST_UINT_MISSING", 1))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "30s")
	t.Setenv("TEST_DURATION_INVALID", "thirty")

	assert.Equal(t, 30*time.Second, GetEnvDuration("TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DURATION_INVALID", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DURATION_MISSING", time.Minute))
}

func TestIsValidEthAddress(t *testing.T) {
	assert.True(t, IsValidEthAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.False(t, IsValidEthAddress("70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.False(t, IsValidEthAddress("0x7099"))
	assert.False(t, IsValidEthAddress(""))
	assert.False(t, IsValidEthAddress("0xZZ997970C51812dc3A010C7d01b50e0d17dc79C8"))
}

func TestIsValidPort(t *testing.T) {
	assert.True(t, IsValidPort("8082"))
	assert.True(t, IsValidPort("1024"))
	assert.True(t, IsValidPort("65535"))
	assert.False(t, IsValidPort("1023"))
	assert.False(t, IsValidPort("65536"))
	assert.False(t, IsValidPort("abc"))
	assert.False(t, IsValidPort(""))
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"http://localhost:8083", true},
		{"https://rpc.example.com", true},
		{"http://127.0.0.1:8545", true},
		{"http://example.com/", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"http://localhost:80", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidURL(tt.url))
		})
	}
}
