// Package blacklist manages the shared set of engine hosts excluded from
// selection.
//
// The set lives in the shared store under a fixed key; it is read fresh at
// the start of every selection and never cached in-process. Mutation happens
// through the admin HTTP surface, which any operator (or automation) can hit
// to drain a misbehaving host without restarting workers.
//
// # Components
//
//   - [Store]: read/mutate the shared set; [RedisStore] is the production
//     implementation
//   - [Snapshot]: an immutable point-in-time view handed to selection
//   - [Handler]: the admin HTTP surface (POST|PUT and DELETE on
//     /docker-executor/blacklist)
//   - [RequireToken]: optional bearer-token guard for the admin surface
package blacklist
