package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	requestIdKeyId contextId = iota
	commandKeyId
	logSourceKeyId
)

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKeyId, command)
}

func WithLogSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, logSourceKeyId, source)
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if requestId, ok := ctx.Value(requestIdKeyId).(string); ok && requestId != "" {
		result = result.WithField("request_id", requestId)
	}

	if command, ok := ctx.Value(commandKeyId).(string); ok && command != "" {
		result = result.WithField("command", command)
	}

	if source, ok := ctx.Value(logSourceKeyId).(string); ok && source != "" {
		result = result.WithField("log_source", source)
	}

	return result
}
