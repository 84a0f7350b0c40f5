package match

// PersonMatcher resolves people by hard identifiers first (email, phone,
// government id) and falls back to name/alias similarity anchored by a
// matching date of birth.
type PersonMatcher struct{}

func NewPersonMatcher() *PersonMatcher {
	return &PersonMatcher{}
}

func (m *PersonMatcher) EmbeddingProperties() []string {
	return []string{"name", "email", "phone", "address", "occupation"}
}

func (m *PersonMatcher) SimilarityThreshold() float64 {
	return 0 // use the global threshold
}

func (m *PersonMatcher) MatchProperties(a, b map[string]interface{}) bool {
	return matchByMethods(m, a, b)
}

func (m *PersonMatcher) EqualityMethods() []Method {
	methods := sharedExactMethods()
	return append(methods,
		Method{
			ID: "government_id", Weight: 1.0, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				idA := Alnum(Str(a, "government_id", "drivers_license", "passport_number"))
				idB := Alnum(Str(b, "government_id", "drivers_license", "passport_number"))
				return idA != "" && idA == idB, 1.0
			},
		},
		Method{
			ID: "name_dob", Weight: 0.7,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				dobA, dobB := Digits(Str(a, "date_of_birth", "dob")), Digits(Str(b, "date_of_birth", "dob"))
				if dobA == "" || dobA != dobB {
					return false, 0
				}
				sim := bestNameSimilarity(a, b)
				if sim < 0.8 {
					return false, 0
				}
				return true, sim
			},
		},
		Method{
			ID: "name_alias", Weight: 0.3,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				sim := bestNameSimilarity(a, b)
				if sim < 0.85 {
					return false, 0
				}
				return true, sim
			},
		},
	)
}

// bestNameSimilarity compares every name and alias on one side against
// every name and alias on the other and keeps the best score.
func bestNameSimilarity(a, b map[string]interface{}) float64 {
	namesA := collectNames(a)
	namesB := collectNames(b)
	best := 0.0
	for _, na := range namesA {
		for _, nb := range namesB {
			if sim := Similarity(na, nb); sim > best {
				best = sim
			}
		}
	}
	return best
}

func collectNames(props map[string]interface{}) []string {
	var names []string
	if n := Str(props, "name", "full_name"); n != "" {
		names = append(names, n)
	}
	switch aliases := props["aliases"].(type) {
	case []interface{}:
		for _, a := range aliases {
			if s, ok := a.(string); ok && s != "" {
				names = append(names, s)
			}
		}
	case []string:
		for _, s := range aliases {
			if s != "" {
				names = append(names, s)
			}
		}
	case string:
		if aliases != "" {
			names = append(names, aliases)
		}
	}
	return names
}
