/*
Package domain contains the vocabulary shared by every layer of the Arbor behavior-tree engine.

It defines the closed sets of outcomes and node kinds, the syslog-style severities used
by the logging collaborator, the well-known blackboard keys the engine writes, and the
lifecycle hook/event types consumed by observability adapters. This package is kept pure
and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Status: The outcome of a tick (Success, Failure, Running, Error).
  - Category: The kind of a node (Composite, Decorator, Task).
  - Severity: A syslog severity (emerg..debug) and the pure filter function Enabled.
  - LifecycleHooks: Callbacks fired around tree ticks and node lifecycle phases.
*/
package domain
