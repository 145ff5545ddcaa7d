// Package health runs readiness checks against the components the rating
// engine depends on.
//
// A Checker holds named CheckFuncs and runs them concurrently, each bounded
// by its own timeout. The resulting Report is "ready" when every check
// passed and "degraded" otherwise.
//
//	checker := health.New(5 * time.Second)
//	checker.Register("catalog", health.CatalogCheck(store))
//	checker.Register("storage", health.StorageCheck(store, backend, "default"))
//
//	report := checker.Run(ctx)
//	if !report.Ready() {
//		// inspect report.Checks
//	}
package health
