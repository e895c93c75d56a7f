// Package logger builds *slog.Logger instances for the entitlement services
// and keeps attribute names consistent across packages.
//
// New takes functional options; NewFromConfig takes a Config loaded from the
// environment (LOG_LEVEL, LOG_FORMAT, APP_ENV, SERVICE_NAME):
//
//	log := logger.New(
//		logger.WithEnvironment("production", "entitlementd"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//
//	log.InfoContext(ctx, "entitlement resolved",
//		logger.WorkspaceID(ws),
//		logger.Feature(feature),
//		logger.Reason(res.Reason),
//	)
//
// Attribute helpers return an empty slog.Attr for empty input, so they can be
// passed unconditionally. Context extractors run on every record and add
// request-scoped values without handlers being rebuilt.
package logger
