// Package testsupport holds helpers shared by package tests: temp configs,
// synthetic input files, and a scriptable codec.
package testsupport
