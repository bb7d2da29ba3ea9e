package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMatchExtractsClassifiesOrigins(t *testing.T) {
	physical := []PhysicalLine{
		{ProductCode: "B", Name: "Harina", Category: "Secos", Unit: "kg", Quantity: dec("8")},
		{ProductCode: "C", Name: "Sal", Quantity: dec("1")},
	}
	reference := []ReferenceLine{
		{ProductCode: "A", Name: "Aceite", Quantity: dec("4"), UnitCost: dec("2"), ImportanceTier: "a"},
		{ProductCode: "B", Name: "Harina SOR", Quantity: dec("10"), UnitCost: dec("3"), ImportanceTier: " b "},
	}

	result := MatchExtracts(physical, reference)

	if result.TotalPhysical != 2 || result.TotalReference != 2 || result.TotalMatched != 1 || result.TotalWithVariance != 1 {
		t.Fatalf("unexpected counters: %+v", result)
	}

	codes := make([]string, 0, len(result.Details))
	for _, d := range result.Details {
		codes = append(codes, d.ProductCode)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, codes); diff != "" {
		t.Fatalf("details out of code order (-want +got):\n%s", diff)
	}

	a, b, c := result.Details[0], result.Details[1], result.Details[2]

	if a.Origin != MatchOriginReferenceOnly || a.PhysicalQuantity.Valid || !a.ReferenceQuantity.Valid || a.Variance.Valid {
		t.Fatalf("A should be reference only with a null physical quantity: %+v", a)
	}
	if !a.ValuedVariance.IsZero() || a.ImportanceTier != "A" || a.Name != "Aceite" {
		t.Fatalf("unexpected reference-only detail: %+v", a)
	}

	if b.Origin != MatchOriginMatched {
		t.Fatalf("B should be matched, got %s", b.Origin)
	}
	if b.Variance.Decimal.String() != "-2" || b.ValuedVariance.String() != "-6" {
		t.Fatalf("expected variance -2 valued at -6, got %s and %s", b.Variance.Decimal, b.ValuedVariance)
	}
	if b.Name != "Harina" || b.Category != "Secos" || b.Unit != "kg" || b.ImportanceTier != "B" {
		t.Fatalf("physical descriptors should win for matched lines: %+v", b)
	}

	if c.Origin != MatchOriginPhysicalOnly || !c.PhysicalQuantity.Valid || c.ReferenceQuantity.Valid || c.Variance.Valid {
		t.Fatalf("C should be physical only with a null reference quantity: %+v", c)
	}
	if !c.ValuedVariance.IsZero() {
		t.Fatalf("physical-only line must not be valued, got %s", c.ValuedVariance)
	}
}

func TestMatchExtractsDisjointAndDuplicates(t *testing.T) {
	physical := []PhysicalLine{
		{ProductCode: " X ", Quantity: dec("1")},
		{ProductCode: "X", Quantity: dec("5")},
	}
	reference := []ReferenceLine{
		{ProductCode: "Y", Quantity: dec("3"), UnitCost: dec("1")},
	}

	result := MatchExtracts(physical, reference)

	if result.TotalMatched != 0 || result.TotalWithVariance != 0 {
		t.Fatalf("disjoint extracts must not match: %+v", result)
	}
	if len(result.Details) != 2 {
		t.Fatalf("expected one detail per distinct code, got %d", len(result.Details))
	}
	if got := result.Details[0].PhysicalQuantity.Decimal.String(); got != "5" {
		t.Fatalf("expected the last duplicate line to win, got %s", got)
	}
}

func TestMatchExtractsZeroVarianceIsNotCounted(t *testing.T) {
	result := MatchExtracts(
		[]PhysicalLine{{ProductCode: "A", Quantity: dec("2.50")}},
		[]ReferenceLine{{ProductCode: "A", Quantity: dec("2.5"), UnitCost: dec("4")}},
	)
	if result.TotalMatched != 1 || result.TotalWithVariance != 0 {
		t.Fatalf("equal quantities must match without variance: %+v", result)
	}
	if !result.Details[0].ValuedVariance.IsZero() {
		t.Fatalf("expected zero valued variance, got %s", result.Details[0].ValuedVariance)
	}
}

func TestSortDetails(t *testing.T) {
	details := []CrossMatchDetail{
		{ProductCode: "C", ValuedVariance: dec("1")},
		{ProductCode: "B", ValuedVariance: dec("-6")},
		{ProductCode: "A", ValuedVariance: dec("1")},
		{ProductCode: "D", ValuedVariance: dec("4")},
	}
	SortDetails(details)

	got := make([]string, 0, len(details))
	for _, d := range details {
		got = append(got, d.ProductCode)
	}
	if diff := cmp.Diff([]string{"B", "D", "A", "C"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestValidateCrossMatchInput(t *testing.T) {
	good := []PhysicalLine{{ProductCode: "A", Quantity: dec("1")}}
	cases := []struct {
		name      string
		warehouse string
		date      string
		physical  []PhysicalLine
		reference []ReferenceLine
		wantErr   bool
	}{
		{"valid", "W1", "2024-03-01", good, nil, false},
		{"missing warehouse", " ", "2024-03-01", good, nil, true},
		{"bad date", "W1", "01/03/2024", good, nil, true},
		{"both empty", "W1", "2024-03-01", nil, nil, true},
		{"blank code", "W1", "2024-03-01", []PhysicalLine{{ProductCode: " "}}, nil, true},
		{"negative cost", "W1", "2024-03-01", nil, []ReferenceLine{{ProductCode: "A", UnitCost: dec("-1")}}, true},
	}
	for _, tc := range cases {
		err := ValidateCrossMatchInput(tc.warehouse, tc.date, tc.physical, tc.reference)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: expected error=%v, got %v", tc.name, tc.wantErr, err)
		}
	}
}
