// Package match holds the per-type fuzzy matchers that decide whether two
// property bags describe the same real-world thing.
package match

import (
	"log"
	"strings"
)

// Method is one independent equality signal. Eval returns whether the
// signal fired and, if so, its score in [0,1]. Exact methods are unique
// identifier comparisons and always score 1.0 when they fire.
type Method struct {
	ID     string
	Weight float64
	Exact  bool
	Eval   func(a, b map[string]interface{}) (bool, float64)
}

// Matcher is the capability set one entity type exposes to the resolver and
// the confidence scorer.
type Matcher interface {
	// EmbeddingProperties lists the property keys, in order, that form the
	// text sent to the embedding service.
	EmbeddingProperties() []string
	// EqualityMethods returns the ordered list of independent signals.
	EqualityMethods() []Method
	// SimilarityThreshold is the per-type vector threshold override; zero
	// means use the global configured threshold.
	SimilarityThreshold() float64
	// MatchProperties ORs all equality methods into a match verdict.
	MatchProperties(a, b map[string]interface{}) bool
}

// Registry maps entity type labels to matcher variants. Unknown types fall
// back to the Default matcher rather than failing.
type Registry struct {
	byType map[string]Matcher
	def    Matcher
}

func NewRegistry() *Registry {
	person := NewPersonMatcher()
	address := NewAddressMatcher()
	asset := NewAssetMatcher()
	return &Registry{
		def: NewDefaultMatcher(),
		byType: map[string]Matcher{
			"person":    person,
			"people":    person,
			"address":   address,
			"location":  address,
			"place":     address,
			"asset":     asset,
			"vehicle":   asset,
			"equipment": asset,
		},
	}
}

// ForType resolves the matcher for an entity type, case-insensitively.
func (r *Registry) ForType(entityType string) Matcher {
	if m, ok := r.byType[strings.ToLower(strings.TrimSpace(entityType))]; ok {
		return m
	}
	return r.def
}

// matchByMethods runs the shared short-circuits and then every method of
// the matcher; a panic inside one method counts as "no match" for that
// method only.
func matchByMethods(m Matcher, a, b map[string]interface{}) bool {
	if ExactIdentifierMatch(a, b) {
		return true
	}
	for _, method := range m.EqualityMethods() {
		if fired, _ := EvalMethod(method, a, b); fired {
			return true
		}
	}
	return false
}

// EvalMethod invokes a method with panic recovery.
func EvalMethod(method Method, a, b map[string]interface{}) (fired bool, score float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("match: method %s panicked, treating as no match: %v", method.ID, r)
			fired, score = false, 0
		}
	}()
	return method.Eval(a, b)
}

// ExactIdentifierMatch short-circuits on identifiers that uniquely pin an
// entity regardless of type: exact id, case-insensitive email, normalized
// phone, digits-only SSN.
func ExactIdentifierMatch(a, b map[string]interface{}) bool {
	if idA, idB := Str(a, "id"), Str(b, "id"); idA != "" && idA == idB {
		return true
	}
	if eA, eB := Str(a, "email"), Str(b, "email"); eA != "" &&
		strings.EqualFold(strings.TrimSpace(eA), strings.TrimSpace(eB)) {
		return true
	}
	if pA, pB := NormalizePhone(Str(a, "phone", "phone_number")), NormalizePhone(Str(b, "phone", "phone_number")); pA != "" && pA == pB {
		return true
	}
	if sA, sB := Digits(Str(a, "ssn", "social_security_number")), Digits(Str(b, "ssn", "social_security_number")); sA != "" && sA == sB {
		return true
	}
	return false
}

// sharedExactMethods are the identifier signals every matcher carries ahead
// of its type-specific methods.
func sharedExactMethods() []Method {
	return []Method{
		{
			ID: "exact_id", Weight: 1.0, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				idA, idB := Str(a, "id"), Str(b, "id")
				return idA != "" && idA == idB, 1.0
			},
		},
		{
			ID: "exact_email", Weight: 1.0, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				eA, eB := strings.TrimSpace(Str(a, "email")), strings.TrimSpace(Str(b, "email"))
				return eA != "" && strings.EqualFold(eA, eB), 1.0
			},
		},
		{
			ID: "exact_phone", Weight: 0.95, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				pA, pB := NormalizePhone(Str(a, "phone", "phone_number")), NormalizePhone(Str(b, "phone", "phone_number"))
				return pA != "" && pA == pB, 1.0
			},
		},
		{
			ID: "exact_ssn", Weight: 1.0, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				sA, sB := Digits(Str(a, "ssn", "social_security_number")), Digits(Str(b, "ssn", "social_security_number"))
				return sA != "" && sA == sB, 1.0
			},
		},
	}
}
