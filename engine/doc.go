// Package engine abstracts the container-engine client consumed by the
// dispatch subsystem.
//
// A [Client] is bound to a single engine host and exposes the operations the
// executor needs: pulling images, starting detached containers, fetching and
// listing containers. A [Container] carries a state snapshot taken when it
// was fetched plus the lifecycle operations (stop, rename, remove, logs).
//
// [DockerClient] implements Client over the Docker Engine API using the
// official SDK. Tests substitute in-memory fakes.
//
// Connection-class failures are what trips circuit breakers upstream; use
// [IsConnErr] to classify them. Engine semantic errors (missing container,
// bad image reference) are deliberately not connection-class.
package engine
