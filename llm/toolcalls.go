// Tool-call identity tracking across fragmented deltas.
//
// Providers split one tool call over many stream units and often repeat
// the call's id and name only on the first. This table is the single
// source of truth threading identity through an otherwise identity-less
// fragment stream. One table serves one call and is discarded with it.

package llm

// toolCallIdentity is the id/name pair for one in-flight tool call.
type toolCallIdentity struct {
	ID   string
	Name string
}

func (t toolCallIdentity) complete() bool {
	return t.ID != "" && t.Name != ""
}

// pendingToolCalls tracks in-flight tool calls by protocol slot key
// (the chat protocol's delta index, the responses protocol's item id,
// a content block index - whatever the protocol uses to distinguish
// concurrent calls).
type pendingToolCalls struct {
	byKey map[string]*toolCallIdentity
	order []string

	// last is the key of the most recently completed identity, the
	// fallback for fragments that carry no slot key at all. At most one
	// such fallback exists at a time; two concurrent identity-less
	// streams would be misattributed, a known limitation of the
	// protocols that elide identity.
	last string
}

func newPendingToolCalls() *pendingToolCalls {
	return &pendingToolCalls{byKey: make(map[string]*toolCallIdentity)}
}

// record creates or updates the identity in the given slot. The id and
// name are only ever filled in, never overwritten, so a late repeat of
// partial identity cannot clobber an established call.
func (p *pendingToolCalls) record(key, id, name string) {
	entry, ok := p.byKey[key]
	if !ok {
		entry = &toolCallIdentity{}
		p.byKey[key] = entry
		p.order = append(p.order, key)
	}
	if entry.ID == "" && id != "" {
		entry.ID = id
	}
	if entry.Name == "" && name != "" {
		entry.Name = name
	}
	if entry.complete() {
		p.last = key
	}
}

// resolve returns the identity for a fragment in the given slot,
// falling back to the most recently recorded complete identity when the
// slot is unknown or incomplete. The second return is false when no
// identity is resolvable; such fragments cannot be attributed and are
// dropped by the interpreter.
func (p *pendingToolCalls) resolve(key string) (toolCallIdentity, bool) {
	if entry, ok := p.byKey[key]; ok && entry.complete() {
		return *entry, true
	}
	if p.last != "" && p.last != key {
		if entry, ok := p.byKey[p.last]; ok && entry.complete() {
			return *entry, true
		}
	}
	return toolCallIdentity{}, false
}

// remove drops the slot from the table, returning the identity it held.
func (p *pendingToolCalls) remove(key string) (toolCallIdentity, bool) {
	entry, ok := p.byKey[key]
	if !ok {
		return toolCallIdentity{}, false
	}
	delete(p.byKey, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	if p.last == key {
		p.last = ""
	}
	return *entry, true
}

// drain empties the table in insertion order, returning the identities
// that acquired an id. Called at stream end so calls that never saw an
// explicit terminal event still close.
func (p *pendingToolCalls) drain() []toolCallIdentity {
	var out []toolCallIdentity
	for _, key := range p.order {
		if entry := p.byKey[key]; entry != nil && entry.ID != "" {
			out = append(out, *entry)
		}
	}
	p.byKey = make(map[string]*toolCallIdentity)
	p.order = nil
	p.last = ""
	return out
}
