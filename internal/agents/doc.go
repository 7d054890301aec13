// Package agents runs AI CLIs as subprocesses and captures their final
// message.
//
// A run is single-shot: the prompt goes in, log events stream out to a
// LogWriter, and the result is a Reply holding the last assistant
// message. Callers parse the reply text into drafts and checklists.
//
// Two CLIs have dedicated drivers that understand their event streams:
//
//   - claude: --output-format stream-json
//   - codex: exec --json, with an --output-last-message fallback
//
// Any other name configured under [agents.<name>] gets a generic driver
// that treats the whole of stdout as the reply.
//
// Runs are bounded by DefaultTimeout unless configured otherwise.
package agents
