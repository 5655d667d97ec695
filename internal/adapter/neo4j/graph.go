package neo4j

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"knowledgehub/features/document"
	"knowledgehub/internal/extract"
	"knowledgehub/internal/retrieval"
)

// Store writes extracted triples and their anchoring summary nodes to Neo4j
// and serves the traversal query behind graph search.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewStore(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

// Relation types cannot be parameterized in Cypher, so edges share one type
// and carry the extracted relation as a property.
const upsertQuery = `
MERGE (s:Entity {name: $subject})
MERGE (o:Entity {name: $object})
MERGE (s)-[:RELATES {type: $relation}]->(o)
MERGE (n:Summary {text: $summary})
SET n += $metadata
MERGE (n)-[:MENTIONS]->(s)
MERGE (n)-[:MENTIONS]->(o)`

// UpsertTripletAndNode merges the triple's entities, the relation edge
// between them, and the summary node with MENTIONS edges to both entities.
// MERGE semantics make the write idempotent per triple.
func (s *Store) UpsertTripletAndNode(ctx context.Context, triple extract.Triple, node document.SummaryNode) error {
	params := map[string]any{
		"subject":  triple.Subject,
		"relation": triple.Relation,
		"object":   triple.Object,
		"summary":  node.Text,
		"metadata": node.Meta.Map(),
	}

	_, err := neo4j.ExecuteQuery(ctx, s.driver, upsertQuery, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return fmt.Errorf("upsert triplet %s-%s-%s: %w", triple.Subject, triple.Relation, triple.Object, err)
	}
	return nil
}

const evidenceQuery = `
MATCH (s:Entity)-[r:RELATES]->(o:Entity)
WHERE any(tok IN $tokens WHERE toLower(s.name) CONTAINS tok OR toLower(o.name) CONTAINS tok)
OPTIONAL MATCH (n:Summary)-[:MENTIONS]->(s)
RETURN s.name AS subject, r.type AS relation, o.name AS object, coalesce(n.text, '') AS summary
LIMIT $limit`

// MatchEvidence collects triples whose subject or object matches a query
// token, each paired with an anchoring summary. An unmatched query returns
// no rows, which is not an error.
func (s *Store) MatchEvidence(ctx context.Context, query string, limit int) ([]retrieval.Evidence, error) {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	result, err := neo4j.ExecuteQuery(ctx, s.driver, evidenceQuery,
		map[string]any{"tokens": tokens, "limit": limit},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, fmt.Errorf("graph traversal: %w", err)
	}

	evidence := make([]retrieval.Evidence, 0, len(result.Records))
	for _, record := range result.Records {
		row := record.AsMap()
		evidence = append(evidence, retrieval.Evidence{
			Subject:  stringValue(row["subject"]),
			Relation: stringValue(row["relation"]),
			Object:   stringValue(row["object"]),
			Summary:  stringValue(row["summary"]),
		})
	}
	return evidence, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// queryTokens lowercases the query and keeps word tokens of three or more
// letters, which filters articles and most function words without a
// stopword list.
func queryTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	var tokens []string
	seen := make(map[string]struct{})
	for _, field := range fields {
		if len(field) < 3 {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}
