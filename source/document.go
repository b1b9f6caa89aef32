package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"examguard/types"
)

var (
	ErrInputNotFound = errors.New("input not found")
	ErrInputParse    = errors.New("invalid input document")
)

// QuestionNumber is a question identifier that may be encoded as a JSON
// number or string. Numbers keep their literal text, so 1 and "1" match.
type QuestionNumber string

func (q *QuestionNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*q = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QuestionNumber(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("qnumber must be a number or string: %w", err)
		}
		*q = QuestionNumber(n.String())
		return nil
	}
}

// AnswerEntry is one answer a student submitted.
type AnswerEntry struct {
	QNumber     QuestionNumber `json:"qnumber"`
	Description string         `json:"description"`
}

// StudentEntries holds a student's answers in submission order. A document
// that is already filtered to one question maps students straight to text;
// such students carry Text and no Entries.
type StudentEntries struct {
	StudentID string
	Entries   []AnswerEntry
	Text      *string
}

// Document is a decoded exam submission file with student key order kept.
type Document struct {
	Students []StudentEntries
}

// Decode reads a JSON object of student id to answers. Duplicate student keys
// keep their first position and the last value, matching a JSON object load.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInputParse)
	}

	doc := &Document{}
	position := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
		}
		studentID, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected key %v", ErrInputParse, keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: student %q: %v", ErrInputParse, studentID, err)
		}
		entry, err := decodeStudent(studentID, raw)
		if err != nil {
			return nil, err
		}

		if i, seen := position[studentID]; seen {
			doc.Students[i] = entry
			continue
		}
		position[studentID] = len(doc.Students)
		doc.Students = append(doc.Students, entry)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInputParse)
	}
	return doc, nil
}

func decodeStudent(studentID string, raw json.RawMessage) (StudentEntries, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return StudentEntries{}, fmt.Errorf("%w: student %q: %v", ErrInputParse, studentID, err)
		}
		return StudentEntries{StudentID: studentID, Text: &text}, nil
	}

	var entries []AnswerEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return StudentEntries{}, fmt.Errorf("%w: student %q: answers must be a list of {qnumber, description}: %v", ErrInputParse, studentID, err)
	}
	return StudentEntries{StudentID: studentID, Entries: entries}, nil
}

// Answers returns, in document order, the first answer of each student whose
// qnumber equals questionID. Students without one are skipped.
func (d *Document) Answers(questionID string) []types.StudentAnswer {
	questionID = strings.TrimSpace(questionID)
	var out []types.StudentAnswer
	for _, s := range d.Students {
		if s.Text != nil {
			out = append(out, types.StudentAnswer{StudentID: s.StudentID, Text: *s.Text})
			continue
		}
		for _, e := range s.Entries {
			if string(e.QNumber) == questionID {
				out = append(out, types.StudentAnswer{StudentID: s.StudentID, Text: e.Description})
				break
			}
		}
	}
	return out
}

// Questions lists distinct question numbers in first-seen order.
func (d *Document) Questions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range d.Students {
		for _, e := range s.Entries {
			q := string(e.QNumber)
			if q == "" || seen[q] {
				continue
			}
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}
