// Package convert turns a directory tree of waveform files into an SDS
// archive.
//
// A run scans the input tree for files the codec recognises, then admits one
// conversion task per file through a fixed-capacity semaphore so at most
// Params.Workers tasks are outstanding at once. Each task loads its file,
// applies the optional network override, and appends the traces to their
// day files. Save failures are written once per output path to errors.txt in
// the archive root via the Ledger.
//
// Only configuration, directory, and archive lock problems abort a run.
// Per-file failures are logged and counted in the Report.
package convert
