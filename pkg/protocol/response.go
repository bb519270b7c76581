package protocol

import (
	stderrors "errors"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/WhileEndless/go-rawfetch/pkg/buffer"
	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// StatusContinue is the interim status skipped by ReadResponseHead.
const StatusContinue = 100

// bodyMarkers open an HTML document. Seeing one inside the header block means
// the server left out the blank line before the body.
var bodyMarkers = []string{"<!DOCTYPE", "<HTML", "<html"}

// errLineTooLong is returned by readLine when a line exceeds its byte budget.
var errLineTooLong = stderrors.New("line too long")

// AwaitResponse blocks until the first response byte is available.
func AwaitResponse(r *buffer.Reader) error {
	if _, err := r.PeekByte(); err != nil {
		return wrapReadError("status line", err)
	}
	return nil
}

// ReadResponseHead parses status lines and header blocks until a non-100
// status arrives, and returns that status with its headers. On return r is
// positioned at the first body byte.
func ReadResponseHead(r *buffer.Reader, log zerolog.Logger) (int, Header, error) {
	for {
		code, err := ReadStatusLine(r)
		if err != nil {
			return 0, Header{}, err
		}

		headers, err := ReadHeaders(r, log)
		if err != nil {
			return 0, Header{}, err
		}

		if code != StatusContinue {
			return code, headers, nil
		}
		log.Debug().Int("discarded_headers", headers.Len()).Msg("Skipping interim 100 Continue response")
	}
}

// ReadStatusLine reads one status line and returns its code.
func ReadStatusLine(r *buffer.Reader) (int, error) {
	line, err := readLine(r, false, constants.MaxHeaderBytes)
	if stderrors.Is(err, errLineTooLong) {
		return 0, errors.NewMalformedStatusLineError(line[:32]+"...", err)
	}
	if err != nil {
		return 0, wrapReadError("status line", err)
	}
	return ParseStatusLine(line)
}

// ParseStatusLine extracts the code from "HTTP/1.1 200 OK". The reason
// phrase is optional: "HTTP/1.1 200" is accepted.
func ParseStatusLine(line string) (int, error) {
	start := strings.IndexByte(line, ' ')
	if start < 0 {
		return 0, errors.NewMalformedStatusLineError(line, nil)
	}
	rest := line[start+1:]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}

	code, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, errors.NewMalformedStatusLineError(line, err)
	}
	if code < 0 {
		return 0, errors.NewMalformedStatusLineError(line, nil)
	}
	return code, nil
}

// ReadHeaders reads header lines up to the blank separator line.
//
// If a line carries the start of an HTML document the server forgot the
// separator: the document bytes are pushed back onto r, the text before them
// is parsed as a last header on a best-effort basis, and parsing stops. This
// also holds for a final line cut short by the end of the stream or by the
// header size limit.
//
// The header block may not exceed constants.MaxHeaderBytes.
func ReadHeaders(r *buffer.Reader, log zerolog.Logger) (Header, error) {
	var headers Header
	remaining := constants.MaxHeaderBytes
	for {
		line, err := readLine(r, true, remaining)
		pos := bodyMarkerIndex(line)
		if err != nil {
			tooLong := stderrors.Is(err, errLineTooLong)
			if pos < 0 && tooLong {
				return Header{}, errors.NewHeaderTooLargeError(constants.MaxHeaderBytes)
			}
			if pos < 0 || !(tooLong || stderrors.Is(err, io.EOF)) {
				return Header{}, wrapReadError("headers", err)
			}
		}
		if line == "" {
			return headers, nil
		}

		if pos >= 0 {
			r.Unread([]byte(line[pos:]))
			line = line[:pos]
			if err := ParseHeaderLine(line, &headers); err != nil {
				log.Warn().Err(err).Msg("Ignoring header before unseparated body")
			}
			return headers, nil
		}

		if err := ParseHeaderLine(line, &headers); err != nil {
			return Header{}, err
		}
		remaining -= len(line)
	}
}

func bodyMarkerIndex(line string) int {
	for _, marker := range bodyMarkers {
		if pos := strings.Index(line, marker); pos >= 0 {
			return pos
		}
	}
	return -1
}

// ParseHeaderLine splits line on its first colon and stores the header in h.
// A colon-less line of only whitespace is ignored.
func ParseHeaderLine(line string, h *Header) error {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		return errors.NewMalformedHeaderError(line)
	}

	name := line[:colon]
	value := strings.TrimLeft(line[colon+1:], " \t")
	h.Set(name, value)
	return nil
}

// readLine reads one line without its terminator. CR, LF and CRLF all end a
// line. With folding enabled, a line break followed by a space or tab is a
// continuation and is replaced by a single space. A line longer than limit
// fails with errLineTooLong. On error the partial line read so far is
// returned with it.
func readLine(r *buffer.Reader, folding bool, limit int) (string, error) {
	var line []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return string(line), err
		}

		if c == '\r' {
			if _, err := skip(r, '\n'); err != nil {
				return string(line), err
			}
			c = '\n'
		}

		if c == '\n' {
			if len(line) == 0 || !folding {
				return string(line), nil
			}
			folded, err := skip(r, ' ', '\t')
			if err != nil {
				return string(line), err
			}
			if !folded {
				return string(line), nil
			}
			for {
				more, err := skip(r, ' ', '\t')
				if err != nil {
					return string(line), err
				}
				if !more {
					break
				}
			}
			c = ' '
		}

		line = append(line, c)
		if len(line) > limit {
			return string(line), errLineTooLong
		}
	}
}

// skip consumes the next byte if it is one of chars. End of stream is not an
// error here; it surfaces on the following read.
func skip(r *buffer.Reader, chars ...byte) (bool, error) {
	next, err := r.PeekByte()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, ch := range chars {
		if next == ch {
			_, _ = r.ReadByte()
			return true, nil
		}
	}
	return false, nil
}

func wrapReadError(stage string, err error) error {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewUnexpectedEOFError(stage)
	}
	return wrapIOError("reading "+stage, err)
}
