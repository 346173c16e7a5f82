package query

// FromPayload rebuilds a builder whose Payload matches p, e.g. for payloads
// read back from a file. Malformed values poison the builder the way a bad
// chain would.
func (c *Client) FromPayload(p Payload) *Builder {
	b := newBuilder(c, p.Table)
	b.filters = cloneFilters(p.Filters)

	switch p.Operation {
	case OperationInsert:
		rows, err := p.InsertRows()
		if err != nil {
			b.err = err
			return b
		}
		b.Insert(rows...)
		if p.Select != "" {
			b.Select(p.Select)
		}
	case OperationUpdate:
		values, err := p.UpdateValues()
		if err != nil {
			b.err = err
			return b
		}
		b.Update(values)
		if p.Select != "" {
			b.Select(p.Select)
		}
	case OperationDelete:
		b.Delete()
	case OperationSelect, "":
		if p.Select != "" {
			b.Select(p.Select)
		}
		b.order = append([]Order(nil), p.Order...)
		b.limit = cloneInt(p.Limit)
		b.offset = cloneInt(p.Offset)
		b.single = p.Single
	default:
		b.err = invalid("operation", "unknown operation %q", p.Operation)
	}
	return b
}

// FromPayload rebuilds p on the default client.
func FromPayload(p Payload) *Builder {
	return defaultClient.FromPayload(p)
}
