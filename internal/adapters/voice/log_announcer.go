package voice

import "log/slog"

// LogAnnouncer writes announcements to the log instead of speaking them.
type LogAnnouncer struct {
	Logger *slog.Logger
	Lang   string
}

func (a LogAnnouncer) Announce(text string) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("announce", "lang", a.Lang, "text", text)
}
