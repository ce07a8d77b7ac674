package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/flk/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false))

	logger.Info("variable edited",
		slog.String("name", "port"),
		slog.String("file", "server.fl"))
	logger.Debug("not shown at the default level")

	// Output:
	// level=INFO msg="variable edited" name=port file=server.fl
}
