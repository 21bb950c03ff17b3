// Package logger provides the structured logging interface used across cdli.
//
// It wraps zerolog. Output always goes to stderr (optionally tee'd to a log
// file) because stdout carries exported data.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("export started", map[string]interface{}{
//	    "format":   "csv",
//	    "entities": []string{"periods", "rulers"},
//	})
package logger
