/*
Package rag implements the retrieval-augmented generation pipeline.

The pipeline has an offline and a serving half. Offline, the Ingester walks
a source directory, loads documents through the loader registry (plain
text, markdown, PDF page text, captioned images) and splits them into
overlapping chunks; Build embeds the chunks and produces an immutable
Snapshot that Save persists together with its embedding-space identity.

At request time, Load restores the Snapshot (failing fast on a missing
artifact or an embedding-identity mismatch), the Retriever embeds queries
and runs cosine top-k search against it, and the Orchestrator assembles the
grounded prompt and calls the chat provider, degrading every failure to a
user-facing message rather than an error.

Snapshots are rebuilt wholesale, never patched; a loaded Snapshot is
read-only and safe for concurrent searches without locking.
*/
package rag
