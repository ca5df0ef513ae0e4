package classify

// Category is one entry of the closed expense taxonomy. Declaration order
// matters: it breaks score ties deterministically.
type Category struct {
	Name          string
	Subcategories []string
	Keywords      []string

	// SubcategoryHints routes specific keywords to a subcategory; keywords
	// without a hint fall back to the first subcategory.
	SubcategoryHints map[string]string
}

// Taxonomy is an ordered list of categories.
type Taxonomy []Category

// DefaultTaxonomy mirrors the organization's accounting categories, with
// the keyword lists tuned for receipts in the local languages.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{
			Name:          "Repas affaires",
			Subcategories: []string{"Repas client", "Repas équipe", "Repas fournisseur"},
			Keywords:      []string{"restaurant", "café", "bar", "bistro", "brasserie", "repas", "déjeuner", "dîner"},
		},
		{
			Name:          "Transport",
			Subcategories: []string{"Taxi/Uber", "Train/Bus", "Avion", "Location véhicule", "Parking", "Carburant"},
			Keywords:      []string{"taxi", "uber", "train", "sbb", "cff", "vol", "avion", "parking", "essence", "diesel"},
			SubcategoryHints: map[string]string{
				"train":   "Train/Bus",
				"sbb":     "Train/Bus",
				"cff":     "Train/Bus",
				"vol":     "Avion",
				"avion":   "Avion",
				"parking": "Parking",
				"essence": "Carburant",
				"diesel":  "Carburant",
			},
		},
		{
			Name:          "Hébergement",
			Subcategories: []string{"Hôtel", "Airbnb", "Appartement"},
			Keywords:      []string{"hôtel", "hotel", "airbnb", "booking", "nuitée"},
			SubcategoryHints: map[string]string{
				"airbnb": "Airbnb",
			},
		},
		{
			Name:          "Matériel/Fournitures",
			Subcategories: []string{"IT/Informatique", "Bureau", "Production", "Logiciels"},
			Keywords:      []string{"apple", "microsoft", "adobe", "ordinateur", "laptop", "écran", "clavier", "souris", "bureau"},
			SubcategoryHints: map[string]string{
				"adobe":     "Logiciels",
				"microsoft": "Logiciels",
				"bureau":    "Bureau",
			},
		},
		{
			Name:          "Formation",
			Subcategories: []string{"Cours", "Certification", "Conférence", "Livre"},
			Keywords:      []string{"formation", "cours", "certification", "conférence", "livre", "udemy", "coursera"},
		},
		{
			Name:          "Marketing",
			Subcategories: []string{"Publicité", "Événement", "Cadeaux clients", "Communication"},
			Keywords:      []string{"publicité", "marketing", "événement", "cadeau", "impression", "flyers"},
		},
	}
}
