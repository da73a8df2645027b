package logging

import (
	"log/slog"
	"time"
)

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func ExecutionID[T ~string](id T) slog.Attr {
	return slog.String("execution_id", string(id))
}

func StepID[T ~string](id T) slog.Attr {
	return slog.String("step_id", string(id))
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Level(index int) slog.Attr {
	return slog.Int("level", index)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
