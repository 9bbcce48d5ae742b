// Package core defines the shared vocabulary of the SwarmForge framework:
// tasks, agent and pool results, execution modes and the structured error
// type used by every public operation. Higher-level packages (agent, pool,
// workflow) depend on core; core depends on nothing inside the module.
package core
