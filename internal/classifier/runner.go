package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"highlighter/internal/config"
	"highlighter/internal/logging"
)

// stderrLimit caps the classifier stderr kept for error messages.
const stderrLimit = 4 << 10

// Runner executes the configured classifier command.
type Runner struct {
	Command string
	Args    []string
	Timeout time.Duration
	Env     []string
	logger  *slog.Logger
}

// NewRunner builds a Runner from the classifier config section.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	command, args := cfg.ClassifierCommand()
	return &Runner{
		Command: command,
		Args:    args,
		Timeout: cfg.ClassifierTimeout(),
		logger:  logging.NewComponentLogger(logger, "classifier"),
	}
}

// Classify runs `<command> <args...> <audioPath> <outDir>` and verifies that
// scores were written to outDir.
func (r *Runner) Classify(ctx context.Context, audioPath, outDir string) error {
	if strings.TrimSpace(r.Command) == "" {
		return errors.New("classifier command is not configured")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create classifier output dir: %w", err)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), r.Args...), audioPath, outDir)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	stderr := &limitedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()
	logger.Info("audio classification started",
		logging.String("audio", audioPath),
		logging.String(logging.FieldEventType, "classifier_start"),
	)

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("classifier timed out after %s: %w", r.Timeout, ctx.Err())
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("classifier failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if _, err := Files(outDir); err != nil {
		return fmt.Errorf("classifier finished without output: %w", err)
	}

	logger.Info("audio classification finished",
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "classifier_complete"),
	)
	return nil
}

// limitedBuffer keeps the last limit bytes written to it.
type limitedBuffer struct {
	limit int
	buf   []byte
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return string(b.buf)
}
