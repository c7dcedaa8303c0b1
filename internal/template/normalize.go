package template

import "github.com/aidanlsb/proveit/internal/templatedata"

// Normalize rewrites aliased parameter names to their canonical names and
// returns the normalized parameters together with the keys meta does not
// register. ps is not modified.
//
// Nothing is dropped: unregistered parameters stay where they are. An alias
// whose canonical name is already present is left as written, so the two
// values never collapse into one and a second pass changes nothing.
func Normalize(ps Params, meta *templatedata.Metadata) (Params, []Key) {
	out := ps.Clone()
	unregistered := normalizeInPlace(&out, meta)
	return out, unregistered
}

// Normalize applies Normalize to t's parameters in place and returns the
// unregistered keys. Renamed keys are rewritten in the source segments they
// came from.
func (t *Template) Normalize(meta *templatedata.Metadata) []Key {
	return normalizeInPlace(&t.Params, meta)
}

func normalizeInPlace(ps *Params, meta *templatedata.Metadata) []Key {
	var unregistered []Key
	for _, p := range ps.items {
		written := p.Key.String()
		canonical, ok := meta.Canonical(written)
		if !ok {
			unregistered = append(unregistered, p.Key)
			continue
		}
		if canonical == written || ps.Has(canonical) {
			continue
		}
		p.Key = Named(canonical)
		p.keyChanged = true
	}
	return unregistered
}

// Unregistered returns the keys of ps that meta does not know, in order.
func Unregistered(ps Params, meta *templatedata.Metadata) []Key {
	var out []Key
	for _, p := range ps.items {
		if _, ok := meta.Canonical(p.Key.String()); !ok {
			out = append(out, p.Key)
		}
	}
	return out
}
