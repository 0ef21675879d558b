// Package policy implements the organization policy write pipeline: the
// event handler dispatch registry, the dependency and validation contracts,
// and the save command that enforces them before any persistence occurs.
//
// Requirement evaluation (the per-user read side) lives in the nested
// requirements package.
package policy
