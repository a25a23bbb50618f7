package voice

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// ExecSpeaker speaks through an external TTS command such as espeak-ng.
// Each announcement starts its own process; overlapping speech is allowed.
type ExecSpeaker struct {
	command string
	args    func(text string) []string
	timeout time.Duration
	logger  *slog.Logger
	run     func(ctx context.Context, name string, args ...string) error
}

// NewEspeakSpeaker speaks with espeak-ng using the voice for lang (e.g. "cs").
func NewEspeakSpeaker(voice string, logger *slog.Logger) (*ExecSpeaker, error) {
	return NewExecSpeaker("espeak-ng", func(text string) []string {
		return []string{"-v", voice, text}
	}, logger)
}

func NewExecSpeaker(command string, args func(text string) []string, logger *slog.Logger) (*ExecSpeaker, error) {
	if command == "" {
		return nil, errors.New("exec speaker: command is empty")
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ExecSpeaker{
		command: command,
		args:    args,
		timeout: 30 * time.Second,
		logger:  logger,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}, nil
}

// Announce returns immediately; the command runs in the background.
func (s *ExecSpeaker) Announce(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.run(ctx, s.command, s.args(text)...); err != nil {
			s.logger.Warn("speech command failed", "command", s.command, "err", err)
		}
	}()
}
