package driver

import (
	"fmt"
	"strings"
)

// Query templates take a sanitized label (or relationship type) via
// fmt.Sprintf because Cypher cannot parameterize labels. Everything else is
// passed as query parameters.
const (
	CreateNodeTmpl = "CREATE (n:`%s`) SET n = $props RETURN n"

	UpdateNodeTmpl = "MATCH (n:`%s` {id: $id}) SET n += $props RETURN n"

	NodeByIDTmpl = "MATCH (n:`%s` {id: $id}) RETURN n LIMIT 1"

	NodesByTypeTmpl = "MATCH (n:`%s`) RETURN n LIMIT $limit"

	NodeByExactNameTmpl = "MATCH (n:`%s`) WHERE n.name = $name RETURN n LIMIT 1"

	NodeByExactNameAnyLabel = "MATCH (n) WHERE n.name = $name RETURN n LIMIT 1"

	// Substring fallback across string-valued properties. The embedding
	// property is excluded so toString never sees the vector.
	NodeBySubstringTmpl = "MATCH (n:`%s`) WHERE any(k IN keys(n) WHERE k <> 'embedding' AND toString(n[k]) CONTAINS $needle) RETURN n LIMIT 1"

	// Full scan, case-insensitive. Explicitly the slowest path; used only
	// when scoped lookups fail.
	NodeByScanQuery = "MATCH (n) WHERE any(k IN keys(n) WHERE k <> 'embedding' AND toLower(toString(n[k])) CONTAINS toLower($needle)) RETURN n LIMIT 1"

	EdgeExistsTmpl = "MATCH (a {id: $source_id})-[r:`%s`]->(b {id: $target_id}) RETURN r LIMIT 1"

	CreateEdgeTmpl = "MATCH (a {id: $source_id}) MATCH (b {id: $target_id}) CREATE (a)-[r:`%s`]->(b) SET r = $props RETURN r"

	// Memgraph MAGE vector search; similarity is cosine, descending.
	VectorSearchQuery = "CALL vector_search.search($index_name, $limit, $query_vector) YIELD node, similarity RETURN node AS n, similarity ORDER BY similarity DESC"

	SaveReviewQuery = "MERGE (r:Review {id: $id}) SET r += $props RETURN r.id AS id"

	GetReviewQuery = "MATCH (r:Review {id: $id}) RETURN r LIMIT 1"

	ListReviewsQuery = "MATCH (r:Review) WHERE $status = '' OR r.status = $status RETURN r ORDER BY r.created_at DESC LIMIT $limit"
)

// SanitizeLabel keeps label and relationship-type strings to word
// characters so they are safe to interpolate into a query. The string is
// truncated at the first disallowed rune: skipping it instead would splice
// the text on both sides into a label nobody wrote.
func SanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		if r == ' ' {
			b.WriteRune('_')
			continue
		}
		if r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		break
	}
	if b.Len() == 0 {
		return "Entity"
	}
	return b.String()
}

// VectorIndexName returns the per-label vector index name used by
// BuildIndices and VectorSearchQuery.
func VectorIndexName(label string) string {
	return strings.ToLower(SanitizeLabel(label)) + "_embedding"
}

// NodesByPropsQuery builds an exact-equality lookup over the given property
// keys. Returns the query and the parameter name for each key, in order.
func NodesByPropsQuery(label string, keys []string) (string, []string) {
	var where []string
	params := make([]string, 0, len(keys))
	for i, k := range keys {
		p := fmt.Sprintf("p%d", i)
		where = append(where, fmt.Sprintf("n.`%s` = $%s", SanitizeLabel(k), p))
		params = append(params, p)
	}
	query := fmt.Sprintf("MATCH (n:`%s`) WHERE %s RETURN n LIMIT 1",
		SanitizeLabel(label), strings.Join(where, " AND "))
	return query, params
}
