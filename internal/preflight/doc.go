// Package preflight provides readiness checks for the external tools,
// filesystem paths and tracker API that seedkeeper depends on.
//
// The `seedkeeper doctor` command runs RunAll and CheckSystemDeps and renders
// the results. The passes themselves do not call preflight: a missing tool or
// an unreachable tracker surfaces as per-item failures that the next scheduled
// run retries.
package preflight
