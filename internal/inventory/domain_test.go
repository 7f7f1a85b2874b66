package inventory

import (
	"fmt"
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyKeepsSixCostPlaces(t *testing.T) {
	out, err := Apply(State{ProductID: 1, Quantity: d("1"), AvgCost: d("1")}, MovementPurchase, d("2"), d("2"))
	require.NoError(t, err)
	require.Equal(t, "1.666667", out.AvgCost.String())
}

func TestCostColumnsStoreFullPrecision(t *testing.T) {
	schema, err := os.ReadFile("../../migrations/001_ledger.sql")
	require.NoError(t, err)

	want := fmt.Sprintf("NUMERIC(18,%d)", costPlaces)
	for _, column := range []string{"avg_cost", "unit_cost", "avg_cost_before", "avg_cost_after"} {
		decl := regexp.MustCompile(`(?m)^\s+`+column+`\s+(NUMERIC\(\d+,\d+\))`).FindAllSubmatch(schema, -1)
		require.NotEmpty(t, decl, column)
		for _, m := range decl {
			require.Equal(t, want, string(m[1]), column)
		}
	}
}
