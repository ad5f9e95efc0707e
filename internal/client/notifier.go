package client

import (
	"errors"

	"go.uber.org/zap"
)

// Notifier shows progress of store mutations. A Loading notice with a given id
// is later replaced by a Success or Failure notice with the same id.
type Notifier interface {
	Loading(id, message string)
	Success(id, message string)
	Failure(id, message string)
}

// LogNotifier writes notices to a zap logger
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Loading(id, message string) {
	n.logger.Debug(message, zap.String("notice_id", id), zap.String("state", "loading"))
}

func (n *LogNotifier) Success(id, message string) {
	n.logger.Info(message, zap.String("notice_id", id), zap.String("state", "success"))
}

func (n *LogNotifier) Failure(id, message string) {
	n.logger.Error(message, zap.String("notice_id", id), zap.String("state", "failure"))
}

// failureMessage prefers the server's message over the generic fallback
func failureMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
