// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *zap.Logger obtained from Component or Window so every
// entry carries its origin. Incognito windows log ids only.
//
// Example Usage:
//
//	logger := logging.NewOrNop(logging.Config{Level: cfg.Logging.Level})
//	logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
//	ctrlLog := logger.Component("tab")
package logging
