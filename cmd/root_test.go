package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfigVerboseLogger(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("verbose", false)
		logger = slog.Default()
	})

	viper.Set("verbose", false)
	initConfig()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	// The debug handler must be installed before the config file is
	// read, so messages logged while loading it are not lost.
	viper.Set("verbose", true)
	initConfig()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
