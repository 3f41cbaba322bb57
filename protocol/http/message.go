// Package http implements the minimal textual HTTP message format
// supplemented from original_source/include/protocol/Http.hpp: a
// start line, a header block, and a body, with no semantics beyond
// parsing and serializing the wire form. Higher-level HTTP concerns
// (routing, content negotiation, chunked transfer) are out of scope —
// this is the framing a Task-driven echo or request/response sample
// needs to exercise the Buffer/Stream layers with something more
// interesting than raw bytes.
//
// Grounded on the hand-rolled wire parsers in
// _examples/momentics-hioload-ws/protocol (frame_codec.go, wsframe.go),
// which parse their own formats directly rather than reaching for a
// parsing library.
package http

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/momentics/corortime/buffer"
)

// Method is an HTTP request method.
type Method int

const (
	MethodUnknown Method = iota
	MethodGET
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodHEAD
	MethodOPTIONS
	MethodTRACE
	MethodCONNECT
	MethodPATCH
)

var methodNames = map[Method]string{
	MethodGET:     "GET",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodDELETE:  "DELETE",
	MethodHEAD:    "HEAD",
	MethodOPTIONS: "OPTIONS",
	MethodTRACE:   "TRACE",
	MethodCONNECT: "CONNECT",
	MethodPATCH:   "PATCH",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseMethod maps a wire token to a Method, MethodUnknown on no match.
func ParseMethod(s string) Method {
	for m, name := range methodNames {
		if name == s {
			return m
		}
	}
	return MethodUnknown
}

// Version is an HTTP protocol version.
type Version int

const (
	VersionUnknown Version = iota
	Version10
	Version11
)

func (v Version) String() string {
	switch v {
	case Version10:
		return "HTTP/1.0"
	case Version11:
		return "HTTP/1.1"
	default:
		return "HTTP/1.1"
	}
}

// ParseVersion maps a wire token to a Version, VersionUnknown on no match.
func ParseVersion(s string) Version {
	switch s {
	case "HTTP/1.0":
		return Version10
	case "HTTP/1.1":
		return Version11
	default:
		return VersionUnknown
	}
}

// Message is a parsed HTTP request or response start line plus headers
// and body. Header lookups are case-insensitive, matching RFC 7230.
type Message struct {
	Method  Method
	Version Version
	URL     string
	Headers map[string]string
	Body    []byte
}

// NewMessage returns an empty Message ready for Set* calls.
func NewMessage() *Message {
	return &Message{Headers: make(map[string]string)}
}

// Header looks up a header by case-insensitive name.
func (m *Message) Header(key string) (string, bool) {
	v, ok := m.Headers[strings.ToLower(key)]
	return v, ok
}

// SetHeader sets a header, normalizing the key to lower case.
func (m *Message) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[strings.ToLower(key)] = value
}

const lineSep = "\r\n"

// Serialize renders m to its wire form.
func (m *Message) Serialize() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s %s%s", m.Method, m.URL, m.Version, lineSep)
	for k, v := range m.Headers {
		fmt.Fprintf(&b, "%s: %s%s", k, v, lineSep)
	}
	b.WriteString(lineSep)
	b.Write(m.Body)
	return b.Bytes()
}

// TryParse looks for a complete message (headers terminated by a blank
// line, followed by exactly Content-Length body bytes if present) in
// buf's readable region. It returns (nil, false, nil) when buf does
// not yet hold a complete message — the caller should read more from
// its Stream and try again — and consumes exactly the parsed bytes
// from buf on success, leaving any trailing pipelined data untouched.
func TryParse(buf *buffer.Buffer) (*Message, bool, error) {
	data := buf.Peek()

	headerEnd := bytes.Index(data, []byte(lineSep+lineSep))
	if headerEnd < 0 {
		return nil, false, nil
	}

	startLineEnd := bytes.Index(data, []byte(lineSep))
	if startLineEnd < 0 || startLineEnd > headerEnd {
		return nil, false, fmt.Errorf("http: malformed start line")
	}

	msg := NewMessage()
	fields := strings.Fields(string(data[:startLineEnd]))
	if len(fields) != 3 {
		return nil, false, fmt.Errorf("http: malformed start line %q", data[:startLineEnd])
	}
	msg.Method = ParseMethod(fields[0])
	msg.URL = fields[1]
	msg.Version = ParseVersion(fields[2])

	headerBlock := string(data[startLineEnd+len(lineSep) : headerEnd])
	for _, line := range strings.Split(headerBlock, lineSep) {
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		msg.SetHeader(strings.TrimSpace(line[:colon]), strings.TrimSpace(line[colon+1:]))
	}

	bodyStart := headerEnd + len(lineSep)*2
	bodyLen := 0
	if cl, ok := msg.Header("content-length"); ok {
		if _, err := fmt.Sscanf(cl, "%d", &bodyLen); err != nil {
			return nil, false, fmt.Errorf("http: invalid content-length %q", cl)
		}
	}

	total := bodyStart + bodyLen
	if len(data) < total {
		return nil, false, nil
	}

	msg.Body = append([]byte(nil), data[bodyStart:total]...)
	buf.Retrieve(total)
	return msg, true, nil
}
