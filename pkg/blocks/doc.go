/*
Package blocks provides the block-template half of the rendering system: a
filesystem-based html/template engine with hot reloading, a helper function
library, and a bridge into the component engine.

Templates are loaded from a directory of *.tmpl.html files (full pages) and
*.part.html files (shared partials). The Manager keeps the parsed set behind
a read-write lock so templates can be refreshed from disk without restarting
the application.

When wired to a component engine via SetComponentInvoker, templates gain a
"component" function that renders a named component in place, forwarding the
template's context. The reverse direction works through the component
package's RenderContext, which exposes this engine as a TemplateInvoker.
*/
package blocks
