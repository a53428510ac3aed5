package txtracker

// Value is the satoshi flow of a single transaction relative to a watched
// address. TotalIn sums the outputs paying the address, TotalOut sums the
// inputs spending from it.
type Value struct {
	TotalIn  int64
	TotalOut int64
}

// ComputeValue tallies the inputs and outputs of tx that touch the given
// address. Malformed transactions (nil input/output lists, empty entries)
// simply contribute nothing, so the result degrades to zero totals instead
// of failing.
func ComputeValue(tx Transaction, address string) Value {
	var v Value

	for _, in := range tx.Inputs {
		if in.Address == address {
			v.TotalOut += in.Value
		}
	}

	for _, out := range tx.Outputs {
		if out.Address == address {
			v.TotalIn += out.Value
		}
	}

	return v
}

// Net returns the displayable amount in satoshis. For an outgoing transfer
// the change returned to the wallet is excluded, leaving the net amount
// sent; for an incoming transfer it is simply what the address received.
func (v Value) Net(outgoing bool) int64 {
	if outgoing {
		return v.TotalOut - v.TotalIn
	}
	return v.TotalIn
}

// isOutgoing reports whether the watched address funded any input of tx.
func isOutgoing(tx Transaction, address string) bool {
	for _, in := range tx.Inputs {
		if in.Address == address {
			return true
		}
	}
	return false
}
