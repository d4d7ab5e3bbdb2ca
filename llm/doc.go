// Package llm defines the chat-completion capability used by the RAG
// pipeline and the validators: a unified Provider interface, the message
// and request/response types it exchanges, and a structured Error carrying
// an error code, HTTP status and retryability.
//
// The concrete implementation (AzureProvider) talks to an Azure OpenAI
// chat deployment. The rest of the repository depends only on the Provider
// interface, so tests substitute doubles freely.
package llm
