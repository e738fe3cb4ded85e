// Package main hosts the sdsconv CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the structured
// logger, and hands plain values to internal/convert. Output is either a
// rounded table for people or indented JSON for scripts.
package main
