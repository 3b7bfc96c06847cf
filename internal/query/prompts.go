package query

import (
	"fmt"
	"strings"

	"codeatlas/internal/graph"
)

// translatorSystemPrompt describes the graph schema and shows the query
// shapes the executor understands.
const translatorSystemPrompt = `You translate questions about a codebase into graph queries.

The knowledge graph schema:
  Nodes:
    (:File {id, path, language})
    (:Class {id, name, start_line, end_line, file_path})
    (:Function {id, name, args, docstring, start_line, end_line, file_path})
  Relationships:
    (File)-[:CONTAINS_CLASS]->(Class)
    (File)-[:CONTAINS_FUNCTION]->(Function)
    (Class)-[:DEFINES]->(Function)
    (Function)-[:CALLS]->(Function)

Supported syntax: MATCH and OPTIONAL MATCH over one- or two-node patterns,
property maps, WHERE with = and CONTAINS, RETURN with count(DISTINCT ...),
AS aliases, and LIMIT.

Examples:

Question: How many files are in the project?
MATCH (f:File) RETURN count(f) AS count

Question: What classes are there?
MATCH (c:Class) RETURN c.name, c.file_path

Question: What methods does the Parser class have?
MATCH (c:Class)-[:DEFINES]->(fn:Function) WHERE c.name CONTAINS 'parser' RETURN fn.name, fn.args, fn.docstring

Question: Which functions call validate?
MATCH (caller:Function)-[:CALLS]->(callee:Function {name: 'validate'}) RETURN caller.name, caller.file_path

Question: Give me an overview of the project structure.
MATCH (f:File) OPTIONAL MATCH (f)-[:CONTAINS_CLASS]->(c:Class) OPTIONAL MATCH (f)-[:CONTAINS_FUNCTION]->(fn:Function) RETURN f.path, count(DISTINCT c) AS classes, count(DISTINCT fn) AS functions

Reply with the query only, no explanation.`

// synthesizerSystemPrompt frames the answer-writing call.
const synthesizerSystemPrompt = `You answer questions about a codebase using query results from its knowledge graph.
Answer concisely in plain prose based only on the provided results. If the
results are empty, say that nothing matched.`

// synthesizerUserPrompt formats the question and its result rows for the LLM.
func synthesizerUserPrompt(question string, rows []graph.Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nQuery results (%d rows):\n", question, len(rows))
	for i, row := range rows {
		if i >= 50 {
			fmt.Fprintf(&b, "... and %d more rows\n", len(rows)-i)
			break
		}
		fmt.Fprintf(&b, "%s\n", formatRow(row))
	}
	return b.String()
}
