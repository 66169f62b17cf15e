package message

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// maxDepth bounds nested multipart containers.
const maxDepth = 10

// ErrNoTextBody is returned when a message has no text/plain or text/html part.
var ErrNoTextBody = errors.New("no text body found in message")

// Message is the part of an email that matters for quoting.
type Message struct {
	From    string `json:"from,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

type part struct {
	mediaType string
	body      []byte
}

// Parse reads a raw message and returns its headers of interest and its
// text body.
func Parse(raw string) (*Message, error) {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	out := &Message{Subject: decodeHeader(msg.Header.Get("Subject"))}
	if from, err := addressParser.Parse(msg.Header.Get("From")); err == nil {
		out.From = from.Address
	}

	var plain, htmlBody *part
	err = walkParts(msg.Header, msg.Body, 0, func(p part) {
		switch {
		case p.mediaType == "text/plain" && plain == nil:
			plain = &p
		case p.mediaType == "text/html" && htmlBody == nil:
			htmlBody = &p
		}
	})
	if err != nil {
		return nil, err
	}

	switch {
	case plain != nil:
		out.Body = string(plain.body)
	case htmlBody != nil:
		out.Body = stripHTML(string(htmlBody.body))
	default:
		return nil, ErrNoTextBody
	}
	return out, nil
}

// header is satisfied by mail.Header and textproto.MIMEHeader.
type header interface {
	Get(key string) string
}

// walkParts calls fn for every leaf part below r.
func walkParts(h header, r io.Reader, depth int, fn func(part)) error {
	if depth > maxDepth {
		return fmt.Errorf("message nests more than %d multipart levels", maxDepth)
	}

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		// A missing or broken Content-Type means plain text.
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(r, boundary)
		for {
			p, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read message part: %w", err)
			}
			if err := walkParts(p.Header, p, depth+1, fn); err != nil {
				return err
			}
		}
	}

	if disposition, _, err := mime.ParseMediaType(h.Get("Content-Disposition")); err == nil && disposition == "attachment" {
		return nil
	}

	body, err := decodeBody(r, h.Get("Content-Transfer-Encoding"))
	if err != nil {
		return err
	}
	if strings.HasPrefix(mediaType, "text/") {
		body = toUTF8(body, params["charset"])
	}
	fn(part{mediaType: mediaType, body: body})
	return nil
}

func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body: %w", err)
		}
		data = bytes.Join(bytes.Fields(data), nil)
		decoded, err := base64.StdEncoding.DecodeString(string(data))
		if err != nil {
			// Try with URL encoding if the standard alphabet fails
			decoded, err = base64.URLEncoding.DecodeString(string(data))
			if err != nil {
				return nil, fmt.Errorf("failed to decode message body: %w", err)
			}
		}
		return decoded, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	return data, nil
}

// charsetReader decodes input from any charset a browser would accept.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "us-ascii":
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// toUTF8 converts body from charset. Unknown charsets leave body as is.
func toUTF8(body []byte, charset string) []byte {
	r, err := charsetReader(charset, bytes.NewReader(body))
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}

var (
	wordDecoder   = &mime.WordDecoder{CharsetReader: charsetReader}
	addressParser = &mail.AddressParser{WordDecoder: wordDecoder}
)

func decodeHeader(v string) string {
	decoded, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

var (
	blockTagPattern = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/tr|/h[1-6])\s*/?>`)
	tagPattern      = regexp.MustCompile(`(?s)<[^>]*>`)
	stylePattern    = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)
)

// stripHTML turns an HTML body into text, keeping one line per block.
func stripHTML(s string) string {
	s = stylePattern.ReplaceAllString(s, "")
	s = blockTagPattern.ReplaceAllString(s, "\n")
	s = tagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
