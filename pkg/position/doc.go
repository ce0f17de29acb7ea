/*
Package position tracks where each call is in the pathway.

The Manager wraps a ports.PositionStore and makes every read-modify-write of a
call's position a single unit: turns of the same call are serialized with a
per-call lock (optionally backed by a ports.DistributedLocker for multiple
replicas), while turns of different calls never wait on each other.

Whether positions survive a restart depends on the store: the memory adapter
forgets everything, the file and redis adapters are durable.
*/
package position
