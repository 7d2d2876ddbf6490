// Package kb provides the incident knowledge base.
//
// Notes (past incidents, runbooks) live in an embedded chromem
// collection and are retrieved by similarity to an incident
// description. The default embedder hashes tokens locally, so lookups
// are deterministic and work without network access or credentials.
package kb
