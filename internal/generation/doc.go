// Package generation defines the interfaces and error taxonomy for AI
// operations (summarization, text generation, question answering). It
// abstracts the details of provider integration (Gemini, HuggingFace
// Inference API, local fallback), allowing the enhancement pipeline to run
// operations without coupling to a specific external service.
package generation
