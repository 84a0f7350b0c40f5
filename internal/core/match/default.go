package match

// DefaultMatcher handles entity types without a specialized matcher. It
// leans on exact identifiers plus near-exact name, description, and title
// comparison.
type DefaultMatcher struct{}

func NewDefaultMatcher() *DefaultMatcher {
	return &DefaultMatcher{}
}

func (m *DefaultMatcher) EmbeddingProperties() []string {
	return []string{"name", "description", "title"}
}

func (m *DefaultMatcher) SimilarityThreshold() float64 {
	return 0 // use the global threshold
}

func (m *DefaultMatcher) MatchProperties(a, b map[string]interface{}) bool {
	return matchByMethods(m, a, b)
}

func (m *DefaultMatcher) EqualityMethods() []Method {
	methods := sharedExactMethods()
	return append(methods,
		Method{
			ID: "name_equal", Weight: 0.5,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				nameA, nameB := Str(a, "name", "title"), Str(b, "name", "title")
				if nameA == "" || IsGenericTerm(nameA) || IsGenericTerm(nameB) {
					return false, 0
				}
				return Fold(nameA) == Fold(nameB), 1.0
			},
		},
		Method{
			ID: "name_description", Weight: 0.3,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				nameA, nameB := Str(a, "name", "title"), Str(b, "name", "title")
				if nameA == "" || IsGenericTerm(nameA) || IsGenericTerm(nameB) {
					return false, 0
				}
				nameSim := Similarity(nameA, nameB)
				descSim := Similarity(Str(a, "description"), Str(b, "description"))
				if nameSim < 0.9 || descSim < 0.8 {
					return false, 0
				}
				return true, (nameSim + descSim) / 2
			},
		},
	)
}
