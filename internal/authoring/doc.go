// Package authoring drives agent-assisted catalog editing: drafting new
// task templates and producing per-task execution checklists.
//
// Both flows share a shape: render a prompt from catalog context, run an
// agent, extract the JSON object from the reply, validate it against a
// bundled schema, and only then let the result touch files. Drafts take
// the extra validate-before-commit step of merging into a catalog copy
// and running the engine front half, so a draft that would break
// generation never reaches the templates file.
package authoring
