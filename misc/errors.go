package misc

import "github.com/BrugadaSyndrome/bslogger"

const (
	Fatal Severity = iota
	Error
	Warning
	Info
	Debug
)

type Severity int

// CheckError reports err on logger at the given severity. A Fatal severity exits the process.
func CheckError(err error, logger bslogger.Logger, severity Severity) {
	if err == nil {
		return
	}

	switch severity {
	case Error:
		logger.Error(err.Error())
	case Warning:
		logger.Warning(err.Error())
	case Info:
		logger.Info(err.Error())
	case Debug:
		logger.Debug(err.Error())
	default:
		logger.Fatal(err.Error())
	}
}
