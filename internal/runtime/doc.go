// Package runtime implements the pathway controller: the per-turn state machine
// that chooses a call's system prompt and advances its position.
package runtime
