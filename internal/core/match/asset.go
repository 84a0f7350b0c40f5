package match

// AssetMatcher covers vehicles and equipment. Serial numbers, VINs, and
// license plates pin an asset exactly; otherwise brand/model/make
// similarity decides, and generic names like "truck" contribute nothing.
type AssetMatcher struct{}

func NewAssetMatcher() *AssetMatcher {
	return &AssetMatcher{}
}

func (m *AssetMatcher) EmbeddingProperties() []string {
	return []string{"name", "model", "brand", "make", "serial_number"}
}

func (m *AssetMatcher) SimilarityThreshold() float64 {
	return 0 // use the global threshold
}

func (m *AssetMatcher) MatchProperties(a, b map[string]interface{}) bool {
	return matchByMethods(m, a, b)
}

func (m *AssetMatcher) EqualityMethods() []Method {
	methods := sharedExactMethods()
	return append(methods,
		Method{
			ID: "serial_number", Weight: 1.0, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				sA := Alnum(Str(a, "serial_number", "serial"))
				sB := Alnum(Str(b, "serial_number", "serial"))
				return sA != "" && sA == sB, 1.0
			},
		},
		Method{
			ID: "vin", Weight: 1.0, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				vA, vB := Alnum(Str(a, "vin")), Alnum(Str(b, "vin"))
				return vA != "" && vA == vB, 1.0
			},
		},
		Method{
			ID: "license_plate", Weight: 0.95, Exact: true,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				pA, pB := Alnum(Str(a, "license_plate", "plate")), Alnum(Str(b, "license_plate", "plate"))
				return pA != "" && pA == pB, 1.0
			},
		},
		Method{
			ID: "brand_model", Weight: 0.7,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				brandSim := Similarity(Str(a, "brand", "make", "manufacturer"), Str(b, "brand", "make", "manufacturer"))
				modelSim := Similarity(Str(a, "model"), Str(b, "model"))
				if brandSim < 0.8 || modelSim < 0.8 {
					return false, 0
				}
				return true, (brandSim + modelSim) / 2
			},
		},
		Method{
			ID: "asset_name", Weight: 0.2,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				nameA, nameB := Str(a, "name"), Str(b, "name")
				if nameA == "" || IsGenericTerm(nameA) || IsGenericTerm(nameB) {
					return false, 0
				}
				sim := Similarity(nameA, nameB)
				if sim < 0.9 {
					return false, 0
				}
				return true, sim
			},
		},
	)
}
