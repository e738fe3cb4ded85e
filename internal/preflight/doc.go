// Package preflight provides filesystem readiness checks that run before a
// conversion touches any data.
//
// The pipeline calls CheckDirectoryAccess on the input tree and the archive
// root so an unreadable source or read-only destination fails fast with a
// clear reason. The CLI reuses the same results to render a status table.
package preflight
