/*
Package ports defines the driven ports (interfaces) for the pathway proxy.

These interfaces decouple the pathway controller from external implementations,
allowing it to work with various position backends and language model services.

# Key Interfaces

  - PositionStore: Persists the pathway position of each call.
  - Advancer: Optional store capability for server-side atomic advances.
  - DistributedLocker: Provides distributed locking for concurrent turns across replicas.
  - Classifier: Answers yes/no questions about the user's latest message.
*/
package ports
