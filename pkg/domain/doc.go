/*
Package domain contains the core domain models for the pathway proxy.

It defines the fundamental entities of the pathway state machine: the immutable
Catalog of prompt steps, the per-call session data and the outcome of a turn.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Step: A prompt step, either UngatedStep or GatedStep.
  - Catalog: The ordered, cyclic sequence of steps loaded at startup.
  - CallSession: The per-call position and substitution variables.
  - Decision: The outcome of a single turn (proceed or reject) and the rewritten instructions.
*/
package domain
