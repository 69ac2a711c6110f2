package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with nil values", func(t *testing.T) {
		config := NewConfig(nil)
		require.NotNil(t, config)
		assert.Empty(t, config.Get("anything"))
	})

	t.Run("with values", func(t *testing.T) {
		values := map[string]string{
			"key1": "value1",
			"key2": "value2",
		}
		config := NewConfig(values)

		assert.Equal(t, "value1", config.Get("key1"))
		assert.Equal(t, "value2", config.Get("key2"))

		// Verify it's a copy, not a reference
		values["key1"] = "modified"
		assert.Equal(t, "value1", config.Get("key1"))
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	envContent := "TEST_KEY1=test_value1\nTEST_KEY2=test_value2\n"
	tmpFile, err := os.CreateTemp("", "test_env_*.env")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(envContent)
	require.NoError(t, err)
	tmpFile.Close()

	config := NewConfigFromEnv(tmpFile.Name())
	require.NotNil(t, config)
	assert.Equal(t, "test_value1", config.Get("TEST_KEY1"))
}

func TestConfigGetWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"existing": "value",
		"empty":    "",
	})

	assert.Equal(t, "value", config.GetWithDefault("existing", "default"))
	assert.Equal(t, "default", config.GetWithDefault("missing", "default"))
	assert.Equal(t, "default", config.GetWithDefault("empty", "default"))
}

func TestConfigGetInt(t *testing.T) {
	config := NewConfig(map[string]string{
		"number":  "42",
		"garbage": "not-a-number",
	})

	assert.Equal(t, 42, config.GetInt("number"))
	assert.Equal(t, 0, config.GetInt("garbage"))
	assert.Equal(t, 0, config.GetInt("missing"))

	assert.Equal(t, 42, config.GetIntWithDefault("number", 7))
	assert.Equal(t, 7, config.GetIntWithDefault("garbage", 7))
	assert.Equal(t, 7, config.GetIntWithDefault("missing", 7))
}

func TestConfigGetBool(t *testing.T) {
	config := NewConfig(map[string]string{
		"true_bool":   "true",
		"false_bool":  "false",
		"numeric":     "1",
		"yes_word":    "yes",
		"on_word":     "on",
		"other_value": "maybe",
	})

	assert.True(t, config.GetBool("true_bool"))
	assert.False(t, config.GetBool("false_bool"))
	assert.True(t, config.GetBool("numeric"))
	assert.True(t, config.GetBool("yes_word"))
	assert.True(t, config.GetBool("on_word"))
	assert.False(t, config.GetBool("other_value"))
	assert.False(t, config.GetBool("missing"))

	assert.True(t, config.GetBoolWithDefault("missing", true))
	assert.False(t, config.GetBoolWithDefault("false_bool", true))
}

func TestConfigSetAndHas(t *testing.T) {
	config := NewConfig(nil)

	assert.False(t, config.Has("key"))
	config.Set("key", "value")
	assert.True(t, config.Has("key"))
	assert.Equal(t, "value", config.Get("key"))
}
