package pricing

// PricedLine pairs a priced result with its position in the batch.
type PricedLine struct {
	Index  int
	Result LineItemResult
}

// LineFailure records why one batch entry could not be priced.
type LineFailure struct {
	Index           int
	ClientReference string
	Err             error
}

// BatchResult splits a batch into priced lines and failures, both in input order.
type BatchResult struct {
	Priced []PricedLine
	Failed []LineFailure
}

// Results returns the priced lines without their indexes.
func (b BatchResult) Results() []LineItemResult {
	out := make([]LineItemResult, 0, len(b.Priced))
	for _, p := range b.Priced {
		out = append(out, p.Result)
	}
	return out
}

// PriceBatch prices every input independently; a rejected input is reported
// in Failed and does not affect the others.
func PriceBatch(inputs []LineItemInput) BatchResult {
	var res BatchResult
	for i, in := range inputs {
		line, err := PriceLineItem(in)
		if err != nil {
			res.Failed = append(res.Failed, LineFailure{Index: i, ClientReference: in.ClientReference, Err: err})
			continue
		}
		res.Priced = append(res.Priced, PricedLine{Index: i, Result: line})
	}
	return res
}
