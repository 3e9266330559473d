package extract

import (
	"github.com/tidwall/sjson"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

// AnnotateCost injects the computed cost into a JSON response body under a
// "cost" object, for debug passthrough. Amounts are decimal strings to avoid
// reintroducing float rounding on the wire.
func AnnotateCost(body []byte, rec ledger.CostRecord) ([]byte, error) {
	out, err := sjson.SetBytes(body, "cost.input_usd", rec.InputCost.String())
	if err != nil {
		return nil, err
	}
	out, err = sjson.SetBytes(out, "cost.output_usd", rec.OutputCost.String())
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "cost.total_usd", rec.TotalCost.String())
}
