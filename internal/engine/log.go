package engine

import (
	"os"

	"github.com/op/go-logging"
)

// log is the package-level trace logger for the search core. UCI requires
// stdout to carry only protocol lines, so this backend writes to stderr
// exclusively; it is for engineer-facing traces (TT resize, aspiration
// fail-low/fail-high re-searches), never for info/bestmove output.
var log = logging.MustGetLogger("engine")

var logLeveled logging.LeveledBackend

func init() {
	format := logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:-7.7s} %{module}: %{message}`,
	)
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	logLeveled = logging.AddModuleLevel(formatted)
	logLeveled.SetLevel(logging.INFO, "")
	log.SetBackend(logLeveled)
}

// SetDebug toggles trace-level logging for the search core, driven by the
// UCI "debug on"/"debug off" command. It never affects the
// "info string ..." lines the protocol itself emits.
func SetDebug(on bool) {
	level := logging.INFO
	if on {
		level = logging.DEBUG
	}
	logLeveled.SetLevel(level, "")
}
