/*
Package component provides a filesystem-discovered, tier-cached component
engine for server-side rendering.

Components are single-file rendering units resolved by name from an ordered
set of search roots. Source text and compiled components are looked up
through a tiered chain (process memory, an optional distributed cache, an
optional durable blob store, then the local filesystem), with faster tiers
populated on every slower-tier hit. Components written in Go can also be
registered directly, bypassing discovery entirely.

The engine can be paired with a block-template engine (see the blocks
package): each side reaches the other only through the RenderContext and the
TemplateInvoker/ComponentInvoker interfaces, so neither engine depends on the
other's internals.

For usage examples, see the README.md file.
*/
package component
