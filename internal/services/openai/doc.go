// Package openai wraps the OpenAI-compatible deployments used for embedding
// generation and final insight summaries. One client serves both the
// embedding and the chat deployment so process-wide construction happens once.
package openai
