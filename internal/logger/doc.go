// Package logger is the component-scoped logger shared by every yteva package.
//
// Library code never configures logging itself; it asks for a component
// logger and emits entries with optional fields:
//
//	log := logger.WithComponent(logger.ComponentSearch)
//	log.Warn("search failed", map[string]interface{}{"query": q, "error": err})
//
// By default only WARN and above reach stderr. Hosts replace the global
// logger, usually from the YTEVA_LOG_* environment variables:
//
//	cfg := logger.EnvironmentConfig()
//	l, err := logger.CreateLoggerFromConfig(cfg)
//	if err == nil {
//		logger.SetGlobalLogger(l)
//	}
package logger
