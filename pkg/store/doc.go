/*
Package store provides ready-made implementations of the component engine's
Cache and Storage collaborator interfaces.

SQLCache and SQLStorage share a single SQLite database, giving a set of
processes on one host (or a small fleet behind a network filesystem) a
shared cache and a durable blob store without extra infrastructure.
MemoryCache is a process-local Cache for tests and single-process
deployments; DirStorage serves a mirrored directory tree as a Storage.

Call SetupSchema once on a fresh database before constructing SQLCache or
SQLStorage; it is idempotent and safe to call on an already-initialized
database.
*/
package store
