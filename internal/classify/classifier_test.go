package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

func docWithMerchant(name string) *entity.FinancialDocument {
	return &entity.FinancialDocument{
		Kind:         entity.KindExpenseReport,
		Counterparty: entity.Counterparty{Name: name},
	}
}

func TestClassify_KeywordInFreeText(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify(docWithMerchant("Unknown merchant"), "Déjeuner au restaurant avec client")
	require.NotNil(t, got)
	assert.Equal(t, "Repas affaires", got.Category)
	assert.Equal(t, "Repas client", got.Subcategory)
}

func TestClassify_MerchantBonusOutweighsText(t *testing.T) {
	c := NewClassifier(nil)

	// One text hit for Transport ("parking") against one weighted merchant
	// hit for Matériel/Fournitures ("apple").
	got := c.Classify(docWithMerchant("Apple Store Genève"), "parking ticket")
	require.NotNil(t, got)
	assert.Equal(t, "Matériel/Fournitures", got.Category)
}

func TestClassify_SubcategoryHint(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify(docWithMerchant("SBB CFF FFS"), "")
	require.NotNil(t, got)
	assert.Equal(t, "Transport", got.Category)
	assert.Equal(t, "Train/Bus", got.Subcategory)
}

func TestClassify_NoMatchReturnsNil(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify(docWithMerchant(entity.UnknownCounterpartyName), "rien d'identifiable ici")
	assert.Nil(t, got)
}

func TestClassify_TieBreaksByDeclarationOrder(t *testing.T) {
	taxonomy := Taxonomy{
		{Name: "First", Subcategories: []string{"A"}, Keywords: []string{"shared"}},
		{Name: "Second", Subcategories: []string{"B"}, Keywords: []string{"shared"}},
	}
	c := NewClassifier(taxonomy)

	got := c.Classify(docWithMerchant("Somebody"), "shared term")
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Category)
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(nil)
	doc := docWithMerchant("Hotel Bellevue")

	first := c.Classify(doc, "nuitée et petit déjeuner")
	for i := 0; i < 10; i++ {
		again := c.Classify(doc, "nuitée et petit déjeuner")
		require.NotNil(t, again)
		assert.Equal(t, first, again)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify(docWithMerchant("UBER *TRIP"), "")
	require.NotNil(t, got)
	assert.Equal(t, "Transport", got.Category)
}
