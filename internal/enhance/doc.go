// Package enhance implements the note-enhancement workflow: a single
// stateful session walked through entity extraction, web research
// fan-out, question answering over the collated findings, and prompt
// driven generation, with an optional refinement loop before the user
// accepts or rejects the result.
package enhance
