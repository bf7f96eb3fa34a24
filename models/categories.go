package models

// Category is one entry of the fixed category catalog.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories is the closed category catalog exposed to clients.
var Categories = []Category{
	{Value: "ARTICULOS", Label: "Artículos"},
	{Value: "GUIAS_LEGALES", Label: "Guías legales"},
	{Value: "JURISPRUDENCIA_COMENTADA", Label: "Jurisprudencia comentada"},
	{Value: "NOTICIAS", Label: "Noticias"},
	{Value: "OPINION", Label: "Opinión"},
	{Value: "RESENAS", Label: "Reseñas"},
}

// CategoryLabelToCode maps a human-readable label to its internal code.
// Applied on every write so clients may send either form.
var CategoryLabelToCode = map[string]string{
	"Artículos":                "ARTICULOS",
	"Guías legales":            "GUIAS_LEGALES",
	"Jurisprudencia comentada": "JURISPRUDENCIA_COMENTADA",
	"Noticias":                 "NOTICIAS",
	"Opinión":                  "OPINION",
	"Reseñas":                  "RESENAS",
}

// NormalizeCategory translates a label to its internal code when a
// translation exists; codes and unknown values pass through unchanged.
func NormalizeCategory(categorie string) string {
	if code, ok := CategoryLabelToCode[categorie]; ok {
		return code
	}
	return categorie
}

// ValidCategory reports whether the value is one of the catalog codes.
func ValidCategory(code string) bool {
	for _, c := range Categories {
		if c.Value == code {
			return true
		}
	}
	return false
}
