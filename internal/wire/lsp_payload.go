package wire

import "strings"

// EncodeLSPPayload renders a neighbor list as the whitespace-separated
// "A.B.C.D,P" token text carried in an LSP datagram's payload.
func EncodeLSPPayload(neighbors []Endpoint) []byte {
	toks := make([]string, len(neighbors))
	for i, n := range neighbors {
		toks[i] = n.String()
	}
	return []byte(strings.Join(toks, " "))
}

// DecodeLSPPayload parses an LSP payload into the originator's neighbor
// list. Malformed tokens are skipped rather than failing the whole LSP,
// since the codec boundary (Decode) has already accepted the datagram.
func DecodeLSPPayload(payload []byte) []Endpoint {
	fields := strings.Fields(string(payload))
	out := make([]Endpoint, 0, len(fields))
	for _, f := range fields {
		ep, err := ParseEndpoint(f)
		if err != nil {
			continue
		}
		out = append(out, ep)
	}
	return out
}
