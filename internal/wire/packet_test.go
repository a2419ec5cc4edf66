package wire

import (
	"bytes"
	"net"
	"testing"
)

func mustEndpoint(t *testing.T, ip string, port uint32) Endpoint {
	t.Helper()
	ep, err := NewEndpoint(net.ParseIP(ip), port)
	if err != nil {
		t.Fatalf("NewEndpoint(%s, %d) error: %v", ip, port, err)
	}
	return ep
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		header  Header
		payload []byte
	}{
		{
			name: "LSP with neighbor payload",
			header: Header{
				Type:   TypeLSP,
				Origin: 7,
				Seq:    42,
				TTL:    10,
				Src:    mustEndpoint(t, "10.0.0.1", 5000),
				Dest:   mustEndpoint(t, "10.0.0.2", 5001),
			},
			payload: []byte("10.0.0.3,5002 10.0.0.4,5003 "),
		},
		{
			name: "hello with no payload",
			header: Header{
				Type:   TypeHello,
				Origin: 1,
				Seq:    0,
				TTL:    1,
				Src:    mustEndpoint(t, "1.0.0.0", 1),
				Dest:   mustEndpoint(t, "2.0.0.0", 2),
			},
		},
		{
			name: "trace",
			header: Header{
				Type:   TypeTrace,
				Origin: 0,
				Seq:    0,
				TTL:    3,
				Src:    mustEndpoint(t, "0.0.0.0", 9),
				Dest:   mustEndpoint(t, "5.0.0.0", 5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.header, tt.payload)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			gotHeader, gotPayload, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if gotHeader != tt.header {
				t.Errorf("Decode() header = %+v, want %+v", gotHeader, tt.header)
			}
			wantPayload := tt.payload
			if wantPayload == nil {
				wantPayload = []byte{}
			}
			if !bytes.Equal(gotPayload, wantPayload) {
				t.Errorf("Decode() payload = %q, want %q", gotPayload, wantPayload)
			}
		})
	}
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := Encode(Header{Type: 'X'}, nil)
	if err == nil {
		t.Fatal("Encode() with unknown type: want error, got nil")
	}
}

func TestDecodeRejectsShortDatagram(t *testing.T) {
	_, _, err := Decode(make([]byte, HeaderSize-1))
	if err == nil {
		t.Fatal("Decode() with short datagram: want error, got nil")
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	buf := make([]byte, HeaderSize)
	buf[0] = 'X'
	_, _, err := Decode(buf)
	if err == nil {
		t.Fatal("Decode() with unknown type: want error, got nil")
	}
}

func TestDecodeDoesNotInterpretPayload(t *testing.T) {
	h := Header{Type: TypeLSP, Src: mustEndpoint(t, "1.2.3.4", 10), Dest: mustEndpoint(t, "1.2.3.5", 11)}
	encoded, err := Encode(h, []byte("not,a,valid,endpoint,list"))
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	_, payload, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if string(payload) != "not,a,valid,endpoint,list" {
		t.Errorf("Decode() payload = %q, want passthrough", payload)
	}
}

func TestEndpointStringParseRoundTrip(t *testing.T) {
	ep := mustEndpoint(t, "192.168.1.5", 12345)
	parsed, err := ParseEndpoint(ep.String())
	if err != nil {
		t.Fatalf("ParseEndpoint() error: %v", err)
	}
	if parsed != ep {
		t.Errorf("ParseEndpoint(%q) = %+v, want %+v", ep.String(), parsed, ep)
	}
}

func TestDecodeLSPPayload(t *testing.T) {
	payload := EncodeLSPPayload([]Endpoint{
		mustEndpoint(t, "2.0.0.0", 2),
		mustEndpoint(t, "3.0.0.0", 3),
	})
	got := DecodeLSPPayload(payload)
	if len(got) != 2 {
		t.Fatalf("DecodeLSPPayload() = %v, want 2 entries", got)
	}
}
