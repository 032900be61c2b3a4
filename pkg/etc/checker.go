package etc

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Check checks config values to fail fast in case of any problems
// that we might have due to invalid config.
func Check(config Config) (err error) {
	slog.Debug("Current process", slog.Int("pid", os.Getpid()))

	slog.Debug("Current user",
		slog.Int("uid", os.Getuid()),
		slog.Int("gid", os.Getegid()),
		slog.String("home_dir", os.Getenv("HOME")),
	)

	if config.Bandit.Executable == "" {
		return errors.New("bandit executable must not be blank")
	}

	if config.Bandit.ResultsDir == "" {
		return errors.New("bandit results dir must not be blank")
	}

	if config.Bandit.Timeout <= 0 {
		return errors.New("bandit timeout must be positive")
	}

	if err = ensureDirExists(config.Bandit.ResultsDir, "bandit results dir"); err != nil {
		return
	}

	if config.Bandit.SourcesDir != "" && !dirExists(config.Bandit.SourcesDir) {
		return fmt.Errorf("bandit sources dir does not exist: %s", config.Bandit.SourcesDir)
	}

	if config.API.MaxConnections < 0 {
		return errors.New("API max connections cannot be less than 0")
	}

	if config.RedisStore.ScanJobTTL <= 0 {
		return errors.New("scan job TTL must be positive")
	}

	if config.JobQueue.ChannelSize <= 0 {
		return errors.New("job queue channel size must be positive")
	}

	return
}

func ensureDirExists(path, description string) (err error) {
	if !dirExists(path) {
		slog.Warn(fmt.Sprintf("%s does not exist", description), slog.String("path", path))
		slog.Debug(fmt.Sprintf("Creating %s", description), slog.String("path", path))
		if err = os.MkdirAll(path, 0777); err != nil {
			return fmt.Errorf("creating %s: %w", description, err)
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return
	}

	slog.Debug(fmt.Sprintf("%s permissions", description), slog.String("mode", fi.Mode().String()))
	return
}

// dirExists checks if a dir exists before we
// try using it to prevent further errors.
func dirExists(name string) bool {
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	return info.IsDir()
}
