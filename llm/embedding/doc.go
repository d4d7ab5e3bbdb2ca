// Package embedding provides the embedding capability: a unified Provider
// interface plus the Azure OpenAI implementation. The provider's Name,
// model and Dimensions form the embedding-space identity recorded in index
// snapshots; index build and query must use the same identity.
package embedding
